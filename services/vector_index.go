package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"multitenant-rag-platform/internal/ai"
	"multitenant-rag-platform/models"
)

// DedupePrefixLen is the number of leading characters used to identify
// duplicate chunks across result sets.
const DedupePrefixLen = 100

type vectorEntry struct {
	key        string
	content    string
	source     string
	documentID string
	vector     []float32
}

type vectorCollection struct {
	entries []vectorEntry
	byKey   map[string]int
}

// VectorIndex holds one embedding collection per tenant and answers
// nearest-neighbor queries by cosine similarity. Embeddings are
// computed outside the lock, so readers never observe a half-inserted
// document.
type VectorIndex struct {
	mu          sync.RWMutex
	collections map[string]*vectorCollection
	embedder    ai.Embedder
}

func NewVectorIndex(embedder ai.Embedder) *VectorIndex {
	return &VectorIndex{
		collections: make(map[string]*vectorCollection),
		embedder:    embedder,
	}
}

// Upsert embeds every chunk and stores it keyed by
// {tenant}_{filename}_{chunkIndex}. Re-upserting the same filename
// overwrites its previous entries in place.
func (ix *VectorIndex) Upsert(ctx context.Context, tenantID, filename, documentID string, chunks []string) error {
	entries := make([]vectorEntry, 0, len(chunks))
	for i, ch := range chunks {
		vec, err := ix.embedder.Embed(ctx, ch)
		if err != nil {
			return fmt.Errorf("embed chunk %d of %s: %w", i, filename, err)
		}
		entries = append(entries, vectorEntry{
			key:        fmt.Sprintf("%s_%s_%d", tenantID, filename, i),
			content:    ch,
			source:     filename,
			documentID: documentID,
			vector:     vec,
		})
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	coll := ix.collections[tenantID]
	if coll == nil {
		coll = &vectorCollection{byKey: make(map[string]int)}
		ix.collections[tenantID] = coll
	}
	for _, e := range entries {
		if pos, ok := coll.byKey[e.key]; ok {
			coll.entries[pos] = e
			continue
		}
		coll.byKey[e.key] = len(coll.entries)
		coll.entries = append(coll.entries, e)
	}
	return nil
}

// Search embeds the query variants concurrently and retrieves the k
// nearest chunks per variant by cosine distance, reporting similarity
// as 1 - distance. Results are deduplicated by content prefix, keeping
// the best score for each; merge order follows variant order, so the
// ranking stays deterministic. A tenant with no collection yet gets an
// empty result, not an error.
func (ix *VectorIndex) Search(ctx context.Context, tenantID string, queries []string, k int) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		k = 5
	}

	ix.mu.RLock()
	coll := ix.collections[tenantID]
	var entries []vectorEntry
	if coll != nil {
		entries = append(entries, coll.entries...)
	}
	ix.mu.RUnlock()

	if len(entries) == 0 {
		return nil, nil
	}

	var wg sync.WaitGroup
	hitsByVariant := make([][]models.RetrievedChunk, len(queries))
	errs := make([]error, len(queries))
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			qvec, err := ix.embedder.Embed(ctx, q)
			if err != nil {
				errs[i] = fmt.Errorf("embed query: %w", err)
				return
			}
			hitsByVariant[i] = nearest(entries, qvec, k)
		}(i, q)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	best := make(map[string]models.RetrievedChunk)
	order := make([]string, 0)

	for _, hits := range hitsByVariant {
		for _, h := range hits {
			key := contentPrefix(h.Content)
			prev, ok := best[key]
			if !ok {
				best[key] = h
				order = append(order, key)
				continue
			}
			if h.Score > prev.Score {
				best[key] = h
			}
		}
	}

	results := make([]models.RetrievedChunk, 0, len(order))
	for _, key := range order {
		results = append(results, best[key])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// RemoveDocument drops all vectors belonging to one document from the
// tenant's collection.
func (ix *VectorIndex) RemoveDocument(tenantID, documentID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	coll := ix.collections[tenantID]
	if coll == nil {
		return
	}
	kept := make([]vectorEntry, 0, len(coll.entries))
	for _, e := range coll.entries {
		if e.documentID != documentID {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(ix.collections, tenantID)
		return
	}
	coll.entries = kept
	coll.byKey = make(map[string]int, len(kept))
	for i, e := range kept {
		coll.byKey[e.key] = i
	}
}

// DropTenant removes the tenant's whole collection.
func (ix *VectorIndex) DropTenant(tenantID string) {
	ix.mu.Lock()
	delete(ix.collections, tenantID)
	ix.mu.Unlock()
}

// VectorCount reports how many embeddings the tenant has stored.
func (ix *VectorIndex) VectorCount(tenantID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if coll := ix.collections[tenantID]; coll != nil {
		return len(coll.entries)
	}
	return 0
}

func nearest(entries []vectorEntry, query []float32, k int) []models.RetrievedChunk {
	scored := make([]models.RetrievedChunk, 0, len(entries))
	for _, e := range entries {
		distance := 1 - cosineSimilarity(e.vector, query)
		scored = append(scored, models.RetrievedChunk{
			Content:    e.content,
			Source:     e.source,
			DocumentID: e.documentID,
			Score:      1 - distance,
			SearchType: models.SearchTypeSemantic,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func contentPrefix(content string) string {
	if len(content) > DedupePrefixLen {
		return content[:DedupePrefixLen]
	}
	return content
}
