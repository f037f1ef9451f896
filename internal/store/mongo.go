package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"multitenant-rag-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the production TenantStore backed by MongoDB. One store
// serves all tenants; isolation is enforced by tenant_id filters on
// every query plus unique indexes on domain and API key.
type MongoStore struct {
	tenants   *mongo.Collection
	documents *mongo.Collection
	stats     *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		tenants:   db.Collection("tenants"),
		documents: db.Collection("documents"),
		stats:     db.Collection("tenant_stats"),
	}
}

func (s *MongoStore) Get(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return s.findTenant(ctx, bson.M{"tenant_id": tenantID})
}

func (s *MongoStore) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return s.findTenant(ctx, bson.M{"company_domain": domain})
}

func (s *MongoStore) GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	return s.findTenant(ctx, bson.M{"api_key": apiKey})
}

func (s *MongoStore) findTenant(ctx context.Context, filter bson.M) (*models.Tenant, error) {
	var t models.Tenant
	err := s.tenants.FindOne(ctx, filter).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant lookup: %w", err)
	}
	return &t, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.TenantSummary, error) {
	cursor, err := s.tenants.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "tenant_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("tenant list: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := make([]models.TenantSummary, 0)
	for cursor.Next(ctx) {
		var t models.Tenant
		if err := cursor.Decode(&t); err != nil {
			continue
		}
		count, _ := s.documents.CountDocuments(ctx, bson.M{"tenant_id": t.TenantID})

		var st models.TenantStats
		_ = s.stats.FindOne(ctx, bson.M{"tenant_id": t.TenantID}).Decode(&st)

		summaries = append(summaries, models.TenantSummary{
			TenantID:      t.TenantID,
			CompanyName:   t.CompanyName,
			CompanyDomain: t.CompanyDomain,
			Status:        t.Status,
			Plan:          t.Plan,
			CreatedAt:     t.CreatedAt,
			DocumentCount: int(count),
			TotalQueries:  st.TotalQueries,
		})
	}
	return summaries, cursor.Err()
}

func (s *MongoStore) Create(ctx context.Context, req models.RegisterTenantRequest) (*models.Tenant, error) {
	t := buildTenant(req, time.Now().UTC())

	if _, err := s.tenants.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateDomain
		}
		return nil, fmt.Errorf("tenant insert: %w", err)
	}
	if _, err := s.stats.InsertOne(ctx, models.NewTenantStats(t.TenantID)); err != nil {
		return nil, fmt.Errorf("stats insert: %w", err)
	}
	return t, nil
}

func (s *MongoStore) Update(ctx context.Context, tenantID string, req models.UpdateTenantRequest) (*models.Tenant, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	applyUpdate(t, req, time.Now().UTC())

	_, err = s.tenants.ReplaceOne(ctx, bson.M{"tenant_id": tenantID}, t)
	if err != nil {
		return nil, fmt.Errorf("tenant update: %w", err)
	}
	return t, nil
}

// Delete removes the tenant and cascades to its documents and stats.
// The caller drops the tenant's index collections separately.
func (s *MongoStore) Delete(ctx context.Context, tenantID string) error {
	res, err := s.tenants.DeleteOne(ctx, bson.M{"tenant_id": tenantID})
	if err != nil {
		return fmt.Errorf("tenant delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrTenantNotFound
	}
	_, _ = s.documents.DeleteMany(ctx, bson.M{"tenant_id": tenantID})
	_, _ = s.stats.DeleteOne(ctx, bson.M{"tenant_id": tenantID})
	return nil
}

// AddDocument checks the quota then inserts. The count and insert are
// not transactional: concurrent uploads for one tenant can briefly
// exceed max_documents. The quota is a soft limit here; the memory
// store serializes and enforces it strictly.
func (s *MongoStore) AddDocument(ctx context.Context, doc *models.Document) error {
	t, err := s.Get(ctx, doc.TenantID)
	if err != nil {
		return err
	}
	count, err := s.documents.CountDocuments(ctx, bson.M{"tenant_id": doc.TenantID})
	if err != nil {
		return fmt.Errorf("document count: %w", err)
	}
	if int(count) >= t.MaxDocuments {
		return quotaError(t.MaxDocuments)
	}

	if _, err := s.documents.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("document insert: %w", err)
	}

	_, err = s.stats.UpdateOne(ctx,
		bson.M{"tenant_id": doc.TenantID},
		bson.M{"$inc": bson.M{
			"total_documents": 1,
			"document_types." + string(doc.FileType): 1,
		}},
	)
	if err != nil {
		return fmt.Errorf("stats update: %w", err)
	}
	return nil
}

func (s *MongoStore) GetDocument(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	var d models.Document
	err := s.documents.FindOne(ctx, bson.M{"tenant_id": tenantID, "document_id": documentID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("document lookup: %w", err)
	}
	return &d, nil
}

func (s *MongoStore) ListDocuments(ctx context.Context, tenantID string) ([]models.Document, error) {
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	cursor, err := s.documents.Find(ctx,
		bson.M{"tenant_id": tenantID},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("document list: %w", err)
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("document decode: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) DeleteDocument(ctx context.Context, tenantID, documentID string) (*models.Document, error) {
	var d models.Document
	err := s.documents.FindOneAndDelete(ctx, bson.M{"tenant_id": tenantID, "document_id": documentID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("document delete: %w", err)
	}

	// Atomic decrement; pruning the file-type key at zero is a separate
	// best-effort step.
	_, _ = s.stats.UpdateOne(ctx, documentRemovedFilter(tenantID), documentRemovedUpdate(d.FileType))
	_, _ = s.stats.UpdateOne(ctx, pruneFileTypeFilter(tenantID, d.FileType), pruneFileTypeUpdate(d.FileType))
	return &d, nil
}

func (s *MongoStore) SetDocumentStatus(ctx context.Context, tenantID, documentID, status string, chunkCount int) error {
	set := bson.M{"status": status}
	if chunkCount >= 0 {
		set["chunk_count"] = chunkCount
	}
	res, err := s.documents.UpdateOne(ctx,
		bson.M{"tenant_id": tenantID, "document_id": documentID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("document status update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// RecordQuery bumps the counters with $inc so concurrent queries never
// lose an increment. The popular-query push is a second atomic update:
// the $ne filter keeps the list distinct, $slice keeps it bounded, and
// matching zero documents just means the query is already listed.
func (s *MongoStore) RecordQuery(ctx context.Context, tenantID, query string) error {
	res, err := s.stats.UpdateOne(ctx, bson.M{"tenant_id": tenantID}, recordQueryUpdate(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("stats update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTenantNotFound
	}

	if _, err := s.stats.UpdateOne(ctx, popularQueryFilter(tenantID, query), popularQueryUpdate(query)); err != nil {
		return fmt.Errorf("popular query update: %w", err)
	}
	return nil
}

func recordQueryUpdate(now time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"total_queries": 1, "queries_today": 1},
		"$set": bson.M{"last_query_at": now},
	}
}

func popularQueryFilter(tenantID, query string) bson.M {
	return bson.M{"tenant_id": tenantID, "popular_queries": bson.M{"$ne": query}}
}

func popularQueryUpdate(query string) bson.M {
	return bson.M{"$push": bson.M{"popular_queries": bson.M{
		"$each":  []string{query},
		"$slice": -models.PopularQueryLimit,
	}}}
}

func documentRemovedFilter(tenantID string) bson.M {
	return bson.M{"tenant_id": tenantID, "total_documents": bson.M{"$gt": 0}}
}

func documentRemovedUpdate(fileType models.FileType) bson.M {
	return bson.M{"$inc": bson.M{
		"total_documents":                    -1,
		"document_types." + string(fileType): -1,
	}}
}

func pruneFileTypeFilter(tenantID string, fileType models.FileType) bson.M {
	return bson.M{"tenant_id": tenantID, "document_types." + string(fileType): bson.M{"$lte": 0}}
}

func pruneFileTypeUpdate(fileType models.FileType) bson.M {
	return bson.M{"$unset": bson.M{"document_types." + string(fileType): ""}}
}

func (s *MongoStore) GetStats(ctx context.Context, tenantID string) (*models.TenantStats, error) {
	var st models.TenantStats
	err := s.stats.FindOne(ctx, bson.M{"tenant_id": tenantID}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stats lookup: %w", err)
	}
	return &st, nil
}

func (s *MongoStore) ResetDailyCounters(ctx context.Context) error {
	_, err := s.stats.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"queries_today": 0}})
	if err != nil {
		return fmt.Errorf("daily counter reset: %w", err)
	}
	return nil
}
