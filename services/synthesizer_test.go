package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"multitenant-rag-platform/internal/ai"
	"multitenant-rag-platform/models"
)

type fakeCompletionClient struct {
	calls   int
	answers []string
	errs    []error
}

func (f *fakeCompletionClient) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	i := f.calls
	f.calls++
	var answer string
	var err error
	if i < len(f.answers) {
		answer = f.answers[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return answer, err
}

func testTenant() *models.Tenant {
	return &models.Tenant{
		TenantID:    "acme_com",
		CompanyName: "Acme Inc",
	}
}

func testChunks() []models.RetrievedChunk {
	return []models.RetrievedChunk{
		{Content: "Refunds are issued within thirty days of purchase. Shipping is free.", Source: "policy.txt", DocumentID: "d1"},
	}
}

func TestAnswerUsesCompletion(t *testing.T) {
	client := &fakeCompletionClient{answers: []string{"Refunds take thirty days."}}
	s := NewSynthesizer(client)

	answer, fallback := s.Answer(context.Background(), testTenant(), "refund timeline?", testChunks())
	if fallback {
		t.Fatal("successful completion should not be marked fallback")
	}
	if answer != "Refunds take thirty days." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 completion call, got %d", client.calls)
	}
}

func TestAnswerRetriesRateLimitThenFallsBack(t *testing.T) {
	client := &fakeCompletionClient{
		errs: []error{ai.ErrRateLimited, ai.ErrRateLimited, ai.ErrRateLimited},
	}
	s := NewSynthesizer(client)
	s.policy.BaseDelay = time.Millisecond

	answer, fallback := s.Answer(context.Background(), testTenant(), "when are refunds issued", testChunks())
	if client.calls != 3 {
		t.Fatalf("expected 3 attempts on rate limit, got %d", client.calls)
	}
	if !fallback {
		t.Fatal("exhausted retries must produce a fallback answer")
	}
	if !strings.HasPrefix(answer, "Based on the available information: ") {
		t.Fatalf("fallback answer missing template: %q", answer)
	}
}

func TestAnswerDoesNotRetryOtherErrors(t *testing.T) {
	client := &fakeCompletionClient{
		errs: []error{errors.New("boom"), nil, nil},
	}
	s := NewSynthesizer(client)
	s.policy.BaseDelay = time.Millisecond

	_, fallback := s.Answer(context.Background(), testTenant(), "refund question", testChunks())
	if client.calls != 1 {
		t.Fatalf("non rate-limit errors must not be retried, got %d calls", client.calls)
	}
	if !fallback {
		t.Fatal("provider error should produce a fallback answer")
	}
}

func TestAnswerRecoversMidRetry(t *testing.T) {
	client := &fakeCompletionClient{
		answers: []string{"", "Recovered answer."},
		errs:    []error{ai.ErrRateLimited, nil},
	}
	s := NewSynthesizer(client)
	s.policy.BaseDelay = time.Millisecond

	answer, fallback := s.Answer(context.Background(), testTenant(), "refund", testChunks())
	if fallback {
		t.Fatal("recovery within retry budget should not fall back")
	}
	if answer != "Recovered answer." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestAnswerNilClientUsesFallback(t *testing.T) {
	s := NewSynthesizer(nil)

	answer, fallback := s.Answer(context.Background(), testTenant(), "refund timeline", testChunks())
	if !fallback {
		t.Fatal("nil client must always fall back")
	}
	if !strings.Contains(answer, "Refunds are issued within thirty days of purchase") {
		t.Fatalf("fallback should pick the matching sentence, got %q", answer)
	}
}

func TestExtractiveAnswerPicksTopSentences(t *testing.T) {
	chunks := []models.RetrievedChunk{
		{Content: "Billing happens monthly. Invoices list every billing charge and billing period. Support is available by email."},
	}

	answer := ExtractiveAnswer("billing invoices", chunks)
	if !strings.Contains(answer, "Invoices list every billing charge and billing period") {
		t.Fatalf("highest scoring sentence missing from %q", answer)
	}
	if strings.Contains(answer, "Support is available by email") {
		t.Fatalf("zero-score sentence leaked into answer: %q", answer)
	}
}

func TestExtractiveAnswerEmptyContext(t *testing.T) {
	answer := ExtractiveAnswer("anything", nil)
	if !strings.Contains(answer, "couldn't find relevant information") {
		t.Fatalf("expected apology, got %q", answer)
	}
}

func TestExtractiveAnswerIgnoresShortWords(t *testing.T) {
	chunks := []models.RetrievedChunk{
		{Content: "The cat sat on a mat. Warranty claims need a receipt."},
	}

	// "is", "a" and "the" are too short to count as keywords.
	answer := ExtractiveAnswer("what is the warranty", chunks)
	if !strings.Contains(answer, "Warranty claims need a receipt") {
		t.Fatalf("keyword sentence missing from %q", answer)
	}
	if strings.Contains(answer, "cat sat") {
		t.Fatalf("stop-word-only sentence leaked into %q", answer)
	}
}

func TestBuildSystemPromptDefaults(t *testing.T) {
	prompt := buildSystemPrompt(testTenant())
	if !strings.Contains(prompt, "helpful assistant for Acme Inc") {
		t.Fatalf("missing defaults in %q", prompt)
	}
	if !strings.Contains(prompt, "concise") {
		t.Fatalf("missing default style in %q", prompt)
	}
}

func TestBuildUserPromptNumbersSources(t *testing.T) {
	chunks := []models.RetrievedChunk{
		{Content: "first chunk", Source: "a.txt"},
		{Content: "second chunk", Source: "b.txt"},
	}
	prompt := buildUserPrompt("how does it work?", chunks)
	if !strings.Contains(prompt, "Source 1 (a.txt):") || !strings.Contains(prompt, "Source 2 (b.txt):") {
		t.Fatalf("sources not numbered in %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Question: how does it work?") {
		t.Fatalf("question missing from %q", prompt)
	}
}
