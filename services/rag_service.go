package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"multitenant-rag-platform/internal/config"
	"multitenant-rag-platform/internal/logger"
	"multitenant-rag-platform/internal/store"
	"multitenant-rag-platform/internal/telemetry"
	"multitenant-rag-platform/models"

	"github.com/google/uuid"
)

// IndexEnqueuer hands large uploads to the background consumer. Wired in
// by the process entry point; nil means every upload indexes inline.
type IndexEnqueuer interface {
	EnqueueIndexDocument(ctx context.Context, tenantID, documentID string) error
}

// RAGService owns the retrieval pipeline: uploads flow through
// extraction, chunking and both indexes; queries flow through the
// hybrid retriever and the synthesizer. All handles are injected, no
// package-level state.
type RAGService struct {
	store       store.TenantStore
	chunker     *Chunker
	lexical     *LexicalIndex
	vector      *VectorIndex
	retriever   *HybridRetriever
	synthesizer *Synthesizer
	enqueuer    IndexEnqueuer
	cfg         *config.Config
}

func NewRAGService(
	st store.TenantStore,
	chunker *Chunker,
	lexical *LexicalIndex,
	vector *VectorIndex,
	retriever *HybridRetriever,
	synthesizer *Synthesizer,
	enqueuer IndexEnqueuer,
	cfg *config.Config,
) *RAGService {
	return &RAGService{
		store:       st,
		chunker:     chunker,
		lexical:     lexical,
		vector:      vector,
		retriever:   retriever,
		synthesizer: synthesizer,
		enqueuer:    enqueuer,
		cfg:         cfg,
	}
}

// Upload extracts, chunks and stores a document. Uploads above the
// sync processing limit are persisted as pending and indexed by the
// consumer; everything else is indexed before returning.
func (s *RAGService) Upload(ctx context.Context, tenantID, filename string, data []byte) (*models.UploadResult, error) {
	tenant, err := s.store.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, store.ErrTenantInactive
	}

	content, fileType, err := ExtractContent(filename, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty document", ErrContentExtraction)
	}

	chunks := s.chunker.Split(content)
	doc := &models.Document{
		DocumentID: uuid.NewString(),
		TenantID:   tenantID,
		Filename:   filename,
		Content:    content,
		FileType:   fileType,
		Status:     models.DocumentStatusPending,
		UploadedAt: time.Now().UTC(),
		Chunks:     chunks,
		ChunkCount: len(chunks),
	}

	async := s.enqueuer != nil && int64(len(data)) > s.cfg.SyncProcessingLimit
	if !async {
		doc.Status = models.DocumentStatusProcessing
	}

	if err := s.store.AddDocument(ctx, doc); err != nil {
		return nil, err
	}

	if async {
		if err := s.enqueuer.EnqueueIndexDocument(ctx, tenantID, doc.DocumentID); err != nil {
			logger.Error("Failed to enqueue indexing, falling back to inline",
				"tenant_id", tenantID, "document_id", doc.DocumentID, "error", err)
			s.indexDocument(ctx, doc)
		} else {
			telemetry.RecordUpload(ctx, tenantID, len(chunks))
			return &models.UploadResult{
				Chunks:   len(chunks),
				Status:   models.DocumentStatusPending,
				Message:  "Document queued for indexing",
				TenantID: tenantID,
				Filename: filename,
				FileType: fileType,
			}, nil
		}
	} else {
		s.indexDocument(ctx, doc)
	}

	telemetry.RecordUpload(ctx, tenantID, len(chunks))
	return &models.UploadResult{
		Chunks:   len(chunks),
		Status:   models.DocumentStatusCompleted,
		TenantID: tenantID,
		Filename: filename,
		FileType: fileType,
	}, nil
}

// IndexDocument loads a stored document and pushes its chunks into
// both indexes. Used by the in-process consumer for async uploads.
func (s *RAGService) IndexDocument(ctx context.Context, tenantID, documentID string) error {
	doc, err := s.store.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if err := s.store.SetDocumentStatus(ctx, tenantID, documentID, models.DocumentStatusProcessing, -1); err != nil {
		return err
	}
	s.indexDocument(ctx, doc)
	return nil
}

// indexDocument makes the document searchable. A vector store failure
// is logged and leaves the document lexical-only; only a missing chunk
// set marks it failed.
func (s *RAGService) indexDocument(ctx context.Context, doc *models.Document) {
	if len(doc.Chunks) == 0 {
		_ = s.store.SetDocumentStatus(ctx, doc.TenantID, doc.DocumentID, models.DocumentStatusFailed, 0)
		return
	}

	s.lexical.Index(doc.TenantID, doc)
	if err := s.vector.Upsert(ctx, doc.TenantID, doc.Filename, doc.DocumentID, doc.Chunks); err != nil {
		logger.Warn("Vector indexing failed, document is lexical-only",
			"tenant_id", doc.TenantID, "document_id", doc.DocumentID, "error", err)
	}

	if err := s.store.SetDocumentStatus(ctx, doc.TenantID, doc.DocumentID, models.DocumentStatusCompleted, len(doc.Chunks)); err != nil {
		logger.Error("Failed to mark document completed",
			"tenant_id", doc.TenantID, "document_id", doc.DocumentID, "error", err)
	}
}

// Query answers a question with retrieved context. Retrieval and
// synthesis failures degrade to a fallback answer; only an unknown or
// suspended tenant fails the call.
func (s *RAGService) Query(ctx context.Context, tenantID, question string) (*models.QueryResponse, error) {
	tenant, err := s.store.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, store.ErrTenantInactive
	}

	if err := s.store.RecordQuery(ctx, tenantID, question); err != nil {
		logger.Warn("Failed to record query stats", "tenant_id", tenantID, "error", err)
	}

	chunks := s.retriever.Retrieve(ctx, tenantID, question)
	answer, fallback := s.synthesizer.Answer(ctx, tenant, question, chunks)

	telemetry.RecordQuery(ctx, tenantID, fallback)

	return &models.QueryResponse{
		Answer:   answer,
		Sources:  sourceRefs(chunks),
		TenantID: tenantID,
		Fallback: fallback,
	}, nil
}

// CollectionInfo reports the tenant's index footprint and usage.
func (s *RAGService) CollectionInfo(ctx context.Context, tenantID string) (*models.CollectionInfo, error) {
	tenant, err := s.store.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.GetStats(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &models.CollectionInfo{
		TenantID:      tenantID,
		CompanyName:   tenant.CompanyName,
		DocumentCount: len(docs),
		Plan:          tenant.Plan,
		Status:        tenant.Status,
		TotalQueries:  stats.TotalQueries,
		QueriesToday:  stats.QueriesToday,
	}, nil
}

// DeleteDocument removes a document and everything derived from it:
// stored record, stats counter, lexical chunks and vectors.
func (s *RAGService) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	doc, err := s.store.DeleteDocument(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	s.lexical.RemoveDocument(tenantID, doc.DocumentID)
	s.vector.RemoveDocument(tenantID, doc.DocumentID)
	return nil
}

// DeleteTenant cascades: tenant record, documents, stats, and both
// index collections.
func (s *RAGService) DeleteTenant(ctx context.Context, tenantID string) error {
	if err := s.store.Delete(ctx, tenantID); err != nil {
		return err
	}
	s.lexical.DropTenant(tenantID)
	s.vector.DropTenant(tenantID)
	return nil
}

// RestoreIndexes rebuilds both in-memory indexes from persisted
// documents at startup.
func (s *RAGService) RestoreIndexes(ctx context.Context) error {
	summaries, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, t := range summaries {
		docs, err := s.store.ListDocuments(ctx, t.TenantID)
		if err != nil {
			return err
		}
		for i := range docs {
			doc := &docs[i]
			if doc.Status != models.DocumentStatusCompleted || len(doc.Chunks) == 0 {
				continue
			}
			s.lexical.Index(doc.TenantID, doc)
			if err := s.vector.Upsert(ctx, doc.TenantID, doc.Filename, doc.DocumentID, doc.Chunks); err != nil {
				logger.Warn("Vector restore failed for document",
					"tenant_id", doc.TenantID, "document_id", doc.DocumentID, "error", err)
			}
		}
	}
	return nil
}

func sourceRefs(chunks []models.RetrievedChunk) []models.SourceRef {
	seen := make(map[string]bool)
	refs := make([]models.SourceRef, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.Source] {
			continue
		}
		seen[c.Source] = true
		refs = append(refs, models.SourceRef{Source: c.Source})
	}
	return refs
}
