package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"multitenant-rag-platform/internal/logger"
	"multitenant-rag-platform/internal/store"

	"github.com/hibiken/asynq"
)

// TaskIndexDocument re-chunks and indexes a stored document. Enqueued
// for uploads too large to index inline.
const TaskIndexDocument = "document:index"

type IndexDocumentPayload struct {
	TenantID   string `json:"tenant_id"`
	DocumentID string `json:"document_id"`
}

// Client enqueues indexing work for the background consumer.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr, redisPassword string, redisDB int) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		}),
	}
}

func (c *Client) EnqueueIndexDocument(ctx context.Context, tenantID, documentID string) error {
	payload, err := json.Marshal(IndexDocumentPayload{
		TenantID:   tenantID,
		DocumentID: documentID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskIndexDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	)
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

func (c *Client) Close() error {
	return c.client.Close()
}

// DocumentIndexer is the part of the retrieval service the consumer
// needs.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, tenantID, documentID string) error
}

// TaskProcessor handles queued tasks. It runs inside the API process
// so indexed chunks land in the same in-memory indexes that serve
// queries.
type TaskProcessor struct {
	indexer DocumentIndexer
}

func NewTaskProcessor(indexer DocumentIndexer) *TaskProcessor {
	return &TaskProcessor{indexer: indexer}
}

func (p *TaskProcessor) HandleIndexDocument(ctx context.Context, t *asynq.Task) error {
	var payload IndexDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Indexing document",
		"tenant_id", payload.TenantID, "document_id", payload.DocumentID)

	err := p.indexer.IndexDocument(ctx, payload.TenantID, payload.DocumentID)
	if errors.Is(err, store.ErrDocumentNotFound) || errors.Is(err, store.ErrTenantNotFound) {
		// The document or tenant was deleted while queued.
		logger.Warn("Skipping indexing for missing document",
			"tenant_id", payload.TenantID, "document_id", payload.DocumentID)
		return asynq.SkipRetry
	}
	return err
}
