package models

import "time"

// PopularQueryLimit bounds the recency list of distinct queries kept per
// tenant; recording one beyond the limit evicts the oldest.
const PopularQueryLimit = 10

// TenantStats tracks per-tenant usage counters. DocumentTypes maps a
// file type to its live document count; entries are removed when the
// count reaches zero on deletion.
type TenantStats struct {
	TenantID       string         `bson:"tenant_id" json:"tenant_id"`
	TotalDocuments int            `bson:"total_documents" json:"total_documents"`
	TotalQueries   int64          `bson:"total_queries" json:"total_queries"`
	QueriesToday   int64          `bson:"queries_today" json:"queries_today"`
	LastQueryAt    *time.Time     `bson:"last_query_at,omitempty" json:"last_query_at,omitempty"`
	PopularQueries []string       `bson:"popular_queries" json:"popular_queries"`
	DocumentTypes  map[string]int `bson:"document_types" json:"document_types"`
}

// NewTenantStats returns zeroed stats for a freshly registered tenant.
func NewTenantStats(tenantID string) *TenantStats {
	return &TenantStats{
		TenantID:       tenantID,
		PopularQueries: []string{},
		DocumentTypes:  map[string]int{},
	}
}

// RecordQuery bumps the counters and maintains the bounded distinct
// popular-query list.
func (s *TenantStats) RecordQuery(query string, now time.Time) {
	s.TotalQueries++
	s.QueriesToday++
	s.LastQueryAt = &now

	for _, q := range s.PopularQueries {
		if q == query {
			return
		}
	}
	s.PopularQueries = append(s.PopularQueries, query)
	if len(s.PopularQueries) > PopularQueryLimit {
		s.PopularQueries = s.PopularQueries[len(s.PopularQueries)-PopularQueryLimit:]
	}
}

// RecordDocument accounts for a new document of the given type.
func (s *TenantStats) RecordDocument(fileType FileType) {
	s.TotalDocuments++
	if s.DocumentTypes == nil {
		s.DocumentTypes = map[string]int{}
	}
	s.DocumentTypes[string(fileType)]++
}

// RemoveDocument reverses RecordDocument, pruning zero-count types.
func (s *TenantStats) RemoveDocument(fileType FileType) {
	if s.TotalDocuments > 0 {
		s.TotalDocuments--
	}
	if n, ok := s.DocumentTypes[string(fileType)]; ok {
		if n <= 1 {
			delete(s.DocumentTypes, string(fileType))
		} else {
			s.DocumentTypes[string(fileType)] = n - 1
		}
	}
}
