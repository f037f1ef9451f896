package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"multitenant-rag-platform/internal/logger"
	"multitenant-rag-platform/models"
)

const (
	// MaxQueryVariants caps syntactic query expansion.
	MaxQueryVariants = 3
	// LexicalWeight discounts keyword scores so fused ranking leans
	// toward semantic matches.
	LexicalWeight = 0.5
	// RetrieverTopK bounds the fused result list.
	RetrieverTopK = 8
)

var interrogatives = map[string]bool{
	"what": true, "how": true, "why": true, "when": true, "where": true,
	"who": true, "which": true, "explain": true, "describe": true,
	"is": true, "are": true, "can": true, "does": true, "do": true,
}

// HybridRetriever fuses lexical and semantic search. Vector failures
// degrade the call to lexical-only results instead of failing it.
type HybridRetriever struct {
	lexical *LexicalIndex
	vector  *VectorIndex
}

func NewHybridRetriever(lexical *LexicalIndex, vector *VectorIndex) *HybridRetriever {
	return &HybridRetriever{lexical: lexical, vector: vector}
}

// ExpandQuery produces up to MaxQueryVariants syntactic variants: the
// original, the original with a trailing "?" stripped, and for
// non-interrogative queries an elaborated form. No model is consulted.
func ExpandQuery(query string) []string {
	variants := []string{query}

	stripped := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), "?"))
	if stripped != "" && stripped != query {
		variants = append(variants, stripped)
	}

	first := ""
	if fields := strings.Fields(strings.ToLower(stripped)); len(fields) > 0 {
		first = fields[0]
	}
	if stripped != "" && !interrogatives[first] {
		variants = append(variants, "what is "+stripped, "explain "+stripped)
	}

	if len(variants) > MaxQueryVariants {
		variants = variants[:MaxQueryVariants]
	}
	return variants
}

// Retrieve runs both searches concurrently, merges duplicates by
// document id plus content prefix summing their weighted scores, and
// returns the top RetrieverTopK fused chunks. An empty result is a
// valid "no relevant context" outcome.
func (r *HybridRetriever) Retrieve(ctx context.Context, tenantID, query string) []models.RetrievedChunk {
	var (
		wg      sync.WaitGroup
		lexHits []models.RetrievedChunk
		vecHits []models.RetrievedChunk
		vecErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexHits = r.lexical.Search(tenantID, query, DefaultLexicalTopN)
	}()
	go func() {
		defer wg.Done()
		vecHits, vecErr = r.vector.Search(ctx, tenantID, ExpandQuery(query), DefaultLexicalTopN)
	}()
	wg.Wait()

	if vecErr != nil {
		logger.Warn("Vector search unavailable, degrading to lexical-only",
			"tenant_id", tenantID, "error", vecErr)
		vecHits = nil
	}

	return fuse(lexHits, vecHits)
}

type fusedChunk struct {
	chunk models.RetrievedChunk
	order int
}

func fuse(lexical, semantic []models.RetrievedChunk) []models.RetrievedChunk {
	merged := make(map[string]*fusedChunk)
	next := 0

	add := func(c models.RetrievedChunk, weight float64) {
		key := c.DocumentID + "|" + contentPrefix(c.Content)
		score := c.Score * weight
		if f, ok := merged[key]; ok {
			f.chunk.Score += score
			f.chunk.SearchType = models.SearchTypeHybrid
			return
		}
		c.Score = score
		merged[key] = &fusedChunk{chunk: c, order: next}
		next++
	}

	for _, c := range lexical {
		add(c, LexicalWeight)
	}
	for _, c := range semantic {
		add(c, 1.0)
	}

	fused := make([]*fusedChunk, 0, len(merged))
	for _, f := range merged {
		fused = append(fused, f)
	}
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].chunk.Score != fused[j].chunk.Score {
			return fused[i].chunk.Score > fused[j].chunk.Score
		}
		return fused[i].order < fused[j].order
	})

	results := make([]models.RetrievedChunk, 0, len(fused))
	for _, f := range fused {
		results = append(results, f.chunk)
		if len(results) == RetrieverTopK {
			break
		}
	}
	return results
}
