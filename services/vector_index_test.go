package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"multitenant-rag-platform/internal/ai"
)

func newTestVectorIndex() *VectorIndex {
	return NewVectorIndex(ai.NewHashingEmbedder(64))
}

func TestVectorSearchMissingCollection(t *testing.T) {
	ix := newTestVectorIndex()

	results, err := ix.Search(context.Background(), "acme_com", []string{"anything"}, 5)
	if err != nil {
		t.Fatalf("missing collection should not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestVectorUpsertAndSearch(t *testing.T) {
	ix := newTestVectorIndex()
	ctx := context.Background()

	chunks := []string{
		"refund policy allows returns within thirty days",
		"shipping takes five business days worldwide",
	}
	if err := ix.Upsert(ctx, "acme_com", "policy.txt", "d1", chunks); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if n := ix.VectorCount("acme_com"); n != 2 {
		t.Fatalf("expected 2 vectors, got %d", n)
	}

	results, err := ix.Search(ctx, "acme_com", []string{"refund policy returns"}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if !strings.Contains(results[0].Content, "refund") {
		t.Fatalf("best hit should be the refund chunk, got %q", results[0].Content)
	}
	if results[0].Score <= results[len(results)-1].Score && len(results) > 1 {
		t.Fatalf("results not sorted by descending score")
	}
	for _, r := range results {
		if r.Score < -1.0001 || r.Score > 1.0001 {
			t.Fatalf("similarity out of range: %v", r.Score)
		}
	}
}

func TestVectorSearchDedupesAcrossVariants(t *testing.T) {
	ix := newTestVectorIndex()
	ctx := context.Background()

	if err := ix.Upsert(ctx, "acme_com", "a.txt", "d1", []string{"payment methods include cards and invoices"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Three variants all hit the same single chunk; it must appear once.
	results, err := ix.Search(ctx, "acme_com",
		[]string{"payment methods", "what is payment methods", "explain payment methods"}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected deduplicated single result, got %d", len(results))
	}
}

func TestVectorUpsertOverwritesSameFile(t *testing.T) {
	ix := newTestVectorIndex()
	ctx := context.Background()

	if err := ix.Upsert(ctx, "acme_com", "a.txt", "d1", []string{"old content"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := ix.Upsert(ctx, "acme_com", "a.txt", "d1", []string{"new content"}); err != nil {
		t.Fatalf("re-upsert failed: %v", err)
	}
	if n := ix.VectorCount("acme_com"); n != 1 {
		t.Fatalf("re-upsert should overwrite in place, got %d vectors", n)
	}
}

func TestVectorTenantIsolation(t *testing.T) {
	ix := newTestVectorIndex()
	ctx := context.Background()

	if err := ix.Upsert(ctx, "acme_com", "a.txt", "d1", []string{"acme only data"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	results, err := ix.Search(ctx, "globex_io", []string{"acme only data"}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("tenant isolation violated: got %d results", len(results))
	}
}

func TestVectorRemoveDocument(t *testing.T) {
	ix := newTestVectorIndex()
	ctx := context.Background()

	ix.Upsert(ctx, "acme_com", "a.txt", "d1", []string{"first document text"})
	ix.Upsert(ctx, "acme_com", "b.txt", "d2", []string{"second document text"})

	ix.RemoveDocument("acme_com", "d1")

	if n := ix.VectorCount("acme_com"); n != 1 {
		t.Fatalf("expected 1 vector after removal, got %d", n)
	}
	results, err := ix.Search(ctx, "acme_com", []string{"document text"}, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for _, r := range results {
		if r.DocumentID == "d1" {
			t.Fatalf("removed document still retrievable")
		}
	}
}

func TestVectorSearchVariantOrderDeterministic(t *testing.T) {
	ix := newTestVectorIndex()
	ctx := context.Background()

	chunks := []string{
		"billing cycles run monthly",
		"invoices itemize every charge",
		"support answers billing questions",
		"refunds post within a week",
	}
	if err := ix.Upsert(ctx, "acme_com", "kb.txt", "d1", chunks); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	variants := []string{"billing invoices", "what is billing invoices", "explain billing invoices"}
	first, err := ix.Search(ctx, "acme_com", variants, 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ix.Search(ctx, "acme_com", variants, 5)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("result count varies: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j].Content != first[j].Content || again[j].Score != first[j].Score {
				t.Fatalf("ranking not deterministic at position %d", j)
			}
		}
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding backend down")
}

func (failingEmbedder) Dimensions() int { return 0 }

func TestVectorSearchPropagatesEmbedderFailure(t *testing.T) {
	ix := NewVectorIndex(ai.NewHashingEmbedder(64))
	ctx := context.Background()
	ix.Upsert(ctx, "acme_com", "a.txt", "d1", []string{"some indexed text"})

	ix.embedder = failingEmbedder{}
	if _, err := ix.Search(ctx, "acme_com", []string{"query"}, 5); err == nil {
		t.Fatal("expected error when embedder is down")
	}
}
