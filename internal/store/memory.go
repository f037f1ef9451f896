package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"multitenant-rag-platform/models"
)

// MemoryStore is an in-process TenantStore used by tests and single-node
// deployments. A single mutex serializes writes, which also closes the
// quota check-then-insert race for this implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	tenants   map[string]*models.Tenant
	documents map[string][]models.Document
	stats     map[string]*models.TenantStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:   make(map[string]*models.Tenant),
		documents: make(map[string][]models.Document),
		stats:     make(map[string]*models.TenantStats),
	}
}

func (s *MemoryStore) Get(_ context.Context, tenantID string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) GetByDomain(_ context.Context, domain string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.CompanyDomain == domain {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (s *MemoryStore) GetByAPIKey(_ context.Context, apiKey string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tenants {
		if t.APIKey == apiKey {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]models.TenantSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TenantSummary, 0, len(s.tenants))
	for id, t := range s.tenants {
		var totalQueries int64
		if st, ok := s.stats[id]; ok {
			totalQueries = st.TotalQueries
		}
		out = append(out, models.TenantSummary{
			TenantID:      t.TenantID,
			CompanyName:   t.CompanyName,
			CompanyDomain: t.CompanyDomain,
			Status:        t.Status,
			Plan:          t.Plan,
			CreatedAt:     t.CreatedAt,
			DocumentCount: len(s.documents[id]),
			TotalQueries:  totalQueries,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, req models.RegisterTenantRequest) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := buildTenant(req, time.Now())
	if _, exists := s.tenants[t.TenantID]; exists {
		return nil, ErrDuplicateDomain
	}
	for _, existing := range s.tenants {
		if existing.CompanyDomain == t.CompanyDomain {
			return nil, ErrDuplicateDomain
		}
	}

	s.tenants[t.TenantID] = t
	s.documents[t.TenantID] = []models.Document{}
	s.stats[t.TenantID] = models.NewTenantStats(t.TenantID)

	cp := *t
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, tenantID string, req models.UpdateTenantRequest) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, ErrTenantNotFound
	}
	applyUpdate(t, req, time.Now())
	cp := *t
	return &cp, nil
}

// Delete removes the tenant and cascades to its documents and stats.
func (s *MemoryStore) Delete(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[tenantID]; !ok {
		return ErrTenantNotFound
	}
	delete(s.tenants, tenantID)
	delete(s.documents, tenantID)
	delete(s.stats, tenantID)
	return nil
}

func (s *MemoryStore) AddDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[doc.TenantID]
	if !ok {
		return ErrTenantNotFound
	}
	if len(s.documents[doc.TenantID]) >= t.MaxDocuments {
		return quotaError(t.MaxDocuments)
	}
	s.documents[doc.TenantID] = append(s.documents[doc.TenantID], *doc)

	st := s.stats[doc.TenantID]
	if st == nil {
		st = models.NewTenantStats(doc.TenantID)
		s.stats[doc.TenantID] = st
	}
	st.RecordDocument(doc.FileType)
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, tenantID, documentID string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.documents[tenantID] {
		if d.DocumentID == documentID {
			cp := d
			return &cp, nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (s *MemoryStore) ListDocuments(_ context.Context, tenantID string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.tenants[tenantID]; !ok {
		return nil, ErrTenantNotFound
	}
	docs := s.documents[tenantID]
	out := make([]models.Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, tenantID, documentID string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.documents[tenantID]
	for i, d := range docs {
		if d.DocumentID == documentID {
			s.documents[tenantID] = append(docs[:i:i], docs[i+1:]...)
			if st, ok := s.stats[tenantID]; ok {
				st.RemoveDocument(d.FileType)
			}
			cp := d
			return &cp, nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (s *MemoryStore) SetDocumentStatus(_ context.Context, tenantID, documentID, status string, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.documents[tenantID]
	for i := range docs {
		if docs[i].DocumentID == documentID {
			docs[i].Status = status
			if chunkCount >= 0 {
				docs[i].ChunkCount = chunkCount
			}
			return nil
		}
	}
	return ErrDocumentNotFound
}

func (s *MemoryStore) RecordQuery(_ context.Context, tenantID, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[tenantID]
	if !ok {
		return ErrTenantNotFound
	}
	st.RecordQuery(query, time.Now())
	return nil
}

func (s *MemoryStore) GetStats(_ context.Context, tenantID string) (*models.TenantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[tenantID]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := *st
	cp.PopularQueries = append([]string(nil), st.PopularQueries...)
	cp.DocumentTypes = make(map[string]int, len(st.DocumentTypes))
	for k, v := range st.DocumentTypes {
		cp.DocumentTypes[k] = v
	}
	return &cp, nil
}

func (s *MemoryStore) ResetDailyCounters(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stats {
		st.QueriesToday = 0
	}
	return nil
}
