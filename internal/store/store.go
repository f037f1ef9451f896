package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"multitenant-rag-platform/models"

	"github.com/google/uuid"
)

// Sentinel errors for the tenant store. Handlers and the retrieval core
// branch on these with errors.Is; absence is never reported as a generic
// driver error.
var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrTenantInactive   = errors.New("tenant is not active")
	ErrQuotaExceeded    = errors.New("document quota exceeded")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDuplicateDomain  = errors.New("company domain already registered")
)

// TenantStore is the authoritative record of tenant configuration,
// quotas, documents and usage stats. The retrieval core consumes this
// narrow interface; it never talks to the database directly.
type TenantStore interface {
	Get(ctx context.Context, tenantID string) (*models.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error)
	List(ctx context.Context) ([]models.TenantSummary, error)
	Create(ctx context.Context, req models.RegisterTenantRequest) (*models.Tenant, error)
	Update(ctx context.Context, tenantID string, req models.UpdateTenantRequest) (*models.Tenant, error)
	Delete(ctx context.Context, tenantID string) error

	AddDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, tenantID, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, tenantID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, tenantID, documentID string) (*models.Document, error)
	SetDocumentStatus(ctx context.Context, tenantID, documentID, status string, chunkCount int) error

	RecordQuery(ctx context.Context, tenantID, query string) error
	GetStats(ctx context.Context, tenantID string) (*models.TenantStats, error)
	ResetDailyCounters(ctx context.Context) error
}

// NewAPIKey generates a tenant API key: "mt_" + 16 hex chars.
func NewAPIKey() string {
	return "mt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// NewSigningSecret generates a per-tenant signing secret.
func NewSigningSecret() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}

// buildTenant applies registration defaults and generates credentials.
func buildTenant(req models.RegisterTenantRequest, now time.Time) *models.Tenant {
	settings := models.DefaultSettings()
	if req.AIPersonality != "" {
		settings.AIPersonality = req.AIPersonality
	}
	if req.ResponseStyle != "" {
		settings.ResponseStyle = req.ResponseStyle
	}
	if req.PrimaryColor != "" {
		settings.Branding.PrimaryColor = req.PrimaryColor
	}

	plan := req.Plan
	if plan == "" {
		plan = "basic"
	}
	maxDocs := req.MaxDocuments
	if maxDocs <= 0 {
		maxDocs = 100
	}
	maxQueries := req.MaxQueriesPerDay
	if maxQueries <= 0 {
		maxQueries = 1000
	}

	return &models.Tenant{
		TenantID:         models.TenantIDFromDomain(req.CompanyDomain),
		CompanyName:      req.CompanyName,
		CompanyDomain:    strings.ToLower(strings.TrimSpace(req.CompanyDomain)),
		CompanyEmail:     req.CompanyEmail,
		CompanyPhone:     req.CompanyPhone,
		APIKey:           NewAPIKey(),
		SigningSecret:    NewSigningSecret(),
		Status:           models.TenantStatusActive,
		Plan:             plan,
		MaxDocuments:     maxDocs,
		MaxQueriesPerDay: maxQueries,
		Settings:         settings,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// applyUpdate merges non-nil fields into the tenant and refreshes
// updated_at. TenantID, domain and credentials are immutable.
func applyUpdate(t *models.Tenant, req models.UpdateTenantRequest, now time.Time) {
	if req.CompanyName != nil {
		t.CompanyName = *req.CompanyName
	}
	if req.CompanyEmail != nil {
		t.CompanyEmail = *req.CompanyEmail
	}
	if req.CompanyPhone != nil {
		t.CompanyPhone = *req.CompanyPhone
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Plan != nil {
		t.Plan = *req.Plan
	}
	if req.MaxDocuments != nil {
		t.MaxDocuments = *req.MaxDocuments
	}
	if req.MaxQueriesPerDay != nil {
		t.MaxQueriesPerDay = *req.MaxQueriesPerDay
	}
	if req.AIPersonality != nil {
		t.Settings.AIPersonality = *req.AIPersonality
	}
	if req.ResponseStyle != nil {
		t.Settings.ResponseStyle = *req.ResponseStyle
	}
	t.UpdatedAt = now
}

// quotaError decorates ErrQuotaExceeded with the limit for user-visible
// messages.
func quotaError(limit int) error {
	return fmt.Errorf("%w: max_documents=%d", ErrQuotaExceeded, limit)
}
