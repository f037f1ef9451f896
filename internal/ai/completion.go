package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"multitenant-rag-platform/internal/config"
	"multitenant-rag-platform/internal/logger"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Sentinel errors the retrieval pipeline keys its fallback behavior on.
var (
	// ErrRateLimited means the provider returned HTTP 429. Retryable.
	ErrRateLimited = errors.New("completion provider rate limited")
	// ErrProviderUnavailable covers 5xx responses and an open circuit
	// breaker. Not retryable; callers fall back to extractive answers.
	ErrProviderUnavailable = errors.New("completion provider unavailable")
)

// ChatMessage is one turn in an OpenAI-compatible chat completion
// request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest mirrors the OpenRouter chat completions payload.
type CompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// CompletionClient generates chat completions. The HTTP implementation
// talks to any OpenRouter-compatible endpoint.
type CompletionClient interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// HTTPCompletionClient wraps the provider with a circuit breaker and a
// client-side rate limiter sized to the configured tier.
type HTTPCompletionClient struct {
	apiKey      string
	apiURL      string
	model       string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

type tierLimits struct {
	RPM int
}

func limitsForTier(tier string) tierLimits {
	switch tier {
	case "tier1":
		return tierLimits{RPM: 600}
	case "tier2":
		return tierLimits{RPM: 2000}
	default:
		return tierLimits{RPM: 20}
	}
}

func NewHTTPCompletionClient(cfg *config.Config) *HTTPCompletionClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CompletionAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	limits := limitsForTier(cfg.ProviderTier)
	limiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), 5)

	timeout := time.Duration(cfg.CompletionTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPCompletionClient{
		apiKey:      cfg.CompletionAPIKey,
		apiURL:      cfg.CompletionAPIURL,
		model:       cfg.CompletionModel,
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     breaker,
		rateLimiter: limiter,
	}
}

func (c *HTTPCompletionClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	tracer := otel.Tracer("completion-client")
	ctx, span := tracer.Start(ctx, "completion.chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("completion.model", c.model),
		attribute.Int("completion.messages", len(messages)),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, messages)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("completion.circuit_open", true))
			return "", ErrProviderUnavailable
		}
		span.SetAttributes(attribute.Bool("completion.error", true))
		return "", err
	}

	return result.(string), nil
}

func (c *HTTPCompletionClient) doRequest(ctx context.Context, messages []ChatMessage) (string, error) {
	payload := CompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   150,
		Temperature: 0.7,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("completion API status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
