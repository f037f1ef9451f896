package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"multitenant-rag-platform/internal/ai"
	"multitenant-rag-platform/internal/logger"
	"multitenant-rag-platform/internal/retry"
	"multitenant-rag-platform/models"
)

// FallbackSentenceLimit is how many context sentences the extractive
// fallback concatenates.
const FallbackSentenceLimit = 2

// Synthesizer turns retrieved context into an answer. The model call
// is retried on rate limits only; any other failure falls through to a
// local extractive answer, so a query never errors out past this point.
type Synthesizer struct {
	client ai.CompletionClient
	policy retry.Policy
}

func NewSynthesizer(client ai.CompletionClient) *Synthesizer {
	return &Synthesizer{
		client: client,
		policy: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			Retryable: func(err error) bool {
				return errors.Is(err, ai.ErrRateLimited)
			},
		},
	}
}

// Answer produces the response text for a query given fused context.
// The second return reports whether the extractive fallback was used.
func (s *Synthesizer) Answer(ctx context.Context, tenant *models.Tenant, query string, chunks []models.RetrievedChunk) (string, bool) {
	if s.client != nil {
		answer, err := s.generate(ctx, tenant, query, chunks)
		if err == nil && strings.TrimSpace(answer) != "" {
			return strings.TrimSpace(answer), false
		}
		if err != nil {
			logger.Warn("Completion failed, using extractive fallback",
				"tenant_id", tenant.TenantID, "error", err)
		}
	}
	return ExtractiveAnswer(query, chunks), true
}

func (s *Synthesizer) generate(ctx context.Context, tenant *models.Tenant, query string, chunks []models.RetrievedChunk) (string, error) {
	messages := []ai.ChatMessage{
		{Role: "system", Content: buildSystemPrompt(tenant)},
		{Role: "user", Content: buildUserPrompt(query, chunks)},
	}

	var answer string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		answer, callErr = s.client.Complete(ctx, messages)
		return callErr
	})
	return answer, err
}

func buildSystemPrompt(tenant *models.Tenant) string {
	personality := tenant.Settings.AIPersonality
	if personality == "" {
		personality = "helpful"
	}
	style := tenant.Settings.ResponseStyle
	if style == "" {
		style = "concise"
	}

	return fmt.Sprintf(
		"You are a %s assistant for %s. Answer questions using only the provided context. Keep responses %s. If the context does not contain the answer, say so honestly.",
		personality, tenant.CompanyName, style,
	)
}

func buildUserPrompt(query string, chunks []models.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "Source %d (%s):\n%s\n\n", i+1, c.Source, c.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// ExtractiveAnswer builds an answer without any network call: the
// context sentences containing the most query keywords (words longer
// than 3 characters) are concatenated, at most FallbackSentenceLimit of
// them. Empty context yields a generic apology.
func ExtractiveAnswer(query string, chunks []models.RetrievedChunk) string {
	keywords := make([]string, 0)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,;:!?\"'")
		if len(w) > 3 {
			keywords = append(keywords, w)
		}
	}

	type scoredSentence struct {
		text  string
		score int
		order int
	}
	var sentences []scoredSentence
	for _, c := range chunks {
		for _, raw := range splitSentences(c.Content) {
			s := strings.TrimSpace(raw)
			if s == "" {
				continue
			}
			lower := strings.ToLower(s)
			score := 0
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					score++
				}
			}
			if score > 0 {
				sentences = append(sentences, scoredSentence{text: s, score: score, order: len(sentences)})
			}
		}
	}

	if len(sentences) == 0 {
		return "I'm sorry, I couldn't find relevant information to answer your question. Please try rephrasing it or contact support."
	}

	sort.SliceStable(sentences, func(i, j int) bool {
		return sentences[i].score > sentences[j].score
	})
	if len(sentences) > FallbackSentenceLimit {
		sentences = sentences[:FallbackSentenceLimit]
	}

	picked := make([]string, 0, len(sentences))
	for _, s := range sentences {
		picked = append(picked, s.text)
	}
	return "Based on the available information: " + strings.Join(picked, " ")
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
