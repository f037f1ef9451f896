package services

import (
	"sort"
	"strings"
	"sync"

	"multitenant-rag-platform/models"
)

// DefaultLexicalTopN is how many keyword hits a search returns.
const DefaultLexicalTopN = 5

type lexicalChunk struct {
	content      string
	contentLower string
	source       string
	documentID   string
}

// LexicalIndex scores chunks by keyword overlap, isolated per tenant.
// Chunks keep their insertion order, which doubles as the tie-break
// during ranking.
type LexicalIndex struct {
	mu     sync.RWMutex
	chunks map[string][]lexicalChunk
}

func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{chunks: make(map[string][]lexicalChunk)}
}

// Index appends a document's chunks to the tenant's store. All of the
// document's chunks become visible to readers at once.
func (ix *LexicalIndex) Index(tenantID string, doc *models.Document) {
	entries := make([]lexicalChunk, 0, len(doc.Chunks))
	for _, ch := range doc.Chunks {
		entries = append(entries, lexicalChunk{
			content:      ch,
			contentLower: strings.ToLower(ch),
			source:       doc.Filename,
			documentID:   doc.DocumentID,
		})
	}

	ix.mu.Lock()
	ix.chunks[tenantID] = append(ix.chunks[tenantID], entries...)
	ix.mu.Unlock()
}

// Search tokenizes the query by whitespace, lower-cases it, and scores
// each of the tenant's chunks by how many distinct query tokens appear
// as substrings of the chunk text. Zero-score chunks are excluded; ties
// keep insertion order. Returns at most topN results, DefaultLexicalTopN
// when topN <= 0.
func (ix *LexicalIndex) Search(tenantID, query string, topN int) []models.RetrievedChunk {
	if topN <= 0 {
		topN = DefaultLexicalTopN
	}

	tokens := distinctTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	ix.mu.RLock()
	entries := ix.chunks[tenantID]
	scored := make([]models.RetrievedChunk, 0, len(entries))
	for _, e := range entries {
		score := 0
		for _, tok := range tokens {
			if strings.Contains(e.contentLower, tok) {
				score++
			}
		}
		if score == 0 {
			continue
		}
		scored = append(scored, models.RetrievedChunk{
			Content:    e.content,
			Source:     e.source,
			DocumentID: e.documentID,
			Score:      float64(score),
			SearchType: models.SearchTypeLexical,
		})
	}
	ix.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// RemoveDocument drops all of one document's chunks from the tenant's
// store.
func (ix *LexicalIndex) RemoveDocument(tenantID, documentID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries := ix.chunks[tenantID]
	kept := entries[:0]
	for _, e := range entries {
		if e.documentID != documentID {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(ix.chunks, tenantID)
		return
	}
	ix.chunks[tenantID] = kept
}

// DropTenant removes everything stored for the tenant.
func (ix *LexicalIndex) DropTenant(tenantID string) {
	ix.mu.Lock()
	delete(ix.chunks, tenantID)
	ix.mu.Unlock()
}

// ChunkCount reports how many chunks the tenant has indexed.
func (ix *LexicalIndex) ChunkCount(tenantID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks[tenantID])
}

func distinctTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	return tokens
}
