package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"multitenant-rag-platform/internal/config"
)

func newTestCompletionClient(url string) *HTTPCompletionClient {
	return NewHTTPCompletionClient(&config.Config{
		CompletionAPIKey: "test-key",
		CompletionAPIURL: url,
		CompletionModel:  "test-model",
		ProviderTier:     "tier2",
	})
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":"` + content + `"}}]}`
}

func TestCompleteParsesAnswer(t *testing.T) {
	var gotAuth string
	var gotReq CompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(completionBody("The answer.")))
	}))
	defer srv.Close()

	client := newTestCompletionClient(srv.URL)
	answer, err := client.Complete(context.Background(), []ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "question"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "The answer." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
	if gotReq.MaxTokens != 150 || gotReq.Temperature != 0.7 {
		t.Fatalf("unexpected generation settings: %+v", gotReq)
	}
	if gotReq.Model != "test-model" || len(gotReq.Messages) != 2 {
		t.Fatalf("unexpected payload: %+v", gotReq)
	}
}

func TestCompleteRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestCompletionClient(srv.URL)
	_, err := client.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "q"}})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestCompleteServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestCompletionClient(srv.URL)
	_, err := client.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "q"}})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestCompleteProviderErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"bad model","code":400}}`))
	}))
	defer srv.Close()

	client := newTestCompletionClient(srv.URL)
	_, err := client.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("expected error for provider error payload")
	}
}

func TestCompleteCircuitOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestCompletionClient(srv.URL)
	msgs := []ChatMessage{{Role: "user", Content: "q"}}

	// Trip the breaker, then confirm it fails fast as unavailable.
	for i := 0; i < 5; i++ {
		client.Complete(context.Background(), msgs)
	}
	_, err := client.Complete(context.Background(), msgs)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable with open circuit, got %v", err)
	}
}

func TestLimitsForTier(t *testing.T) {
	if limitsForTier("free").RPM != 20 {
		t.Fatal("free tier should be 20 rpm")
	}
	if limitsForTier("tier1").RPM != 600 || limitsForTier("tier2").RPM != 2000 {
		t.Fatal("paid tier limits wrong")
	}
	if limitsForTier("unknown").RPM != 20 {
		t.Fatal("unknown tier should fall back to free limits")
	}
}
