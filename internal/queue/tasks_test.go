package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"multitenant-rag-platform/internal/store"

	"github.com/hibiken/asynq"
)

type fakeIndexer struct {
	tenantID   string
	documentID string
	err        error
}

func (f *fakeIndexer) IndexDocument(_ context.Context, tenantID, documentID string) error {
	f.tenantID = tenantID
	f.documentID = documentID
	return f.err
}

func indexTask(t *testing.T, tenantID, documentID string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(IndexDocumentPayload{
		TenantID:   tenantID,
		DocumentID: documentID,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return asynq.NewTask(TaskIndexDocument, payload)
}

func TestHandleIndexDocumentRoutesPayload(t *testing.T) {
	indexer := &fakeIndexer{}
	p := NewTaskProcessor(indexer)

	if err := p.HandleIndexDocument(context.Background(), indexTask(t, "acme_com", "doc-1")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if indexer.tenantID != "acme_com" || indexer.documentID != "doc-1" {
		t.Fatalf("payload not routed: %+v", indexer)
	}
}

func TestHandleIndexDocumentMalformedPayload(t *testing.T) {
	p := NewTaskProcessor(&fakeIndexer{})

	task := asynq.NewTask(TaskIndexDocument, []byte("{not json"))
	err := p.HandleIndexDocument(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload must not be retried, got %v", err)
	}
}

func TestHandleIndexDocumentMissingDocumentSkipsRetry(t *testing.T) {
	for _, missing := range []error{store.ErrDocumentNotFound, store.ErrTenantNotFound} {
		p := NewTaskProcessor(&fakeIndexer{err: missing})

		err := p.HandleIndexDocument(context.Background(), indexTask(t, "acme_com", "doc-1"))
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("%v should skip retries, got %v", missing, err)
		}
	}
}

func TestHandleIndexDocumentPropagatesIndexerError(t *testing.T) {
	indexErr := errors.New("embedding backend down")
	p := NewTaskProcessor(&fakeIndexer{err: indexErr})

	err := p.HandleIndexDocument(context.Background(), indexTask(t, "acme_com", "doc-1"))
	if !errors.Is(err, indexErr) {
		t.Fatalf("expected indexer error to propagate for retry, got %v", err)
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("transient errors must stay retryable")
	}
}
