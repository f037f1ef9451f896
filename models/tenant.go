package models

import (
	"strings"
	"time"
)

// Tenant status values.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Tenant is an isolated customer account with its own documents, quotas
// and branding. TenantID is derived from the company domain and never
// changes after registration.
type Tenant struct {
	TenantID         string         `bson:"tenant_id" json:"tenant_id"`
	CompanyName      string         `bson:"company_name" json:"company_name" binding:"required,min=2,max=100"`
	CompanyDomain    string         `bson:"company_domain" json:"company_domain" binding:"required"`
	CompanyEmail     string         `bson:"company_email,omitempty" json:"company_email,omitempty"`
	CompanyPhone     string         `bson:"company_phone,omitempty" json:"company_phone,omitempty"`
	APIKey           string         `bson:"api_key" json:"api_key"`
	SigningSecret    string         `bson:"signing_secret" json:"-"`
	Status           string         `bson:"status" json:"status"`
	Plan             string         `bson:"plan" json:"plan"`
	MaxDocuments     int            `bson:"max_documents" json:"max_documents"`
	MaxQueriesPerDay int            `bson:"max_queries_per_day" json:"max_queries_per_day"`
	Settings         TenantSettings `bson:"settings" json:"settings"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at" json:"updated_at"`
}

// TenantSettings holds the per-tenant assistant configuration. Defaults
// are applied at registration, not at read time.
type TenantSettings struct {
	AIPersonality string   `bson:"ai_personality" json:"ai_personality"`
	ResponseStyle string   `bson:"response_style" json:"response_style"`
	Branding      Branding `bson:"branding" json:"branding"`
}

type Branding struct {
	PrimaryColor       string `bson:"primary_color" json:"primary_color"`
	LogoURL            string `bson:"logo_url" json:"logo_url"`
	CompanyDescription string `bson:"company_description" json:"company_description"`
}

// DefaultSettings returns the settings a tenant gets when registration
// omits them.
func DefaultSettings() TenantSettings {
	return TenantSettings{
		AIPersonality: "helpful",
		ResponseStyle: "concise",
		Branding: Branding{
			PrimaryColor: "#007bff",
		},
	}
}

// IsActive reports whether the tenant may upload and query.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// TenantIDFromDomain derives the immutable tenant identifier from a
// company domain: "acme.com" -> "acme_com".
func TenantIDFromDomain(domain string) string {
	id := strings.ToLower(strings.TrimSpace(domain))
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

type RegisterTenantRequest struct {
	CompanyName      string `json:"company_name" binding:"required,min=2,max=100"`
	CompanyDomain    string `json:"company_domain" binding:"required"`
	CompanyEmail     string `json:"company_email,omitempty"`
	CompanyPhone     string `json:"company_phone,omitempty"`
	Plan             string `json:"plan,omitempty"`
	MaxDocuments     int    `json:"max_documents,omitempty"`
	MaxQueriesPerDay int    `json:"max_queries_per_day,omitempty"`
	AIPersonality    string `json:"ai_personality,omitempty"`
	ResponseStyle    string `json:"response_style,omitempty"`
	PrimaryColor     string `json:"primary_color,omitempty"`
}

// UpdateTenantRequest is a partial-field merge; nil pointers leave the
// stored value untouched. Every successful update refreshes updated_at.
type UpdateTenantRequest struct {
	CompanyName      *string `json:"company_name,omitempty" binding:"omitempty,min=2,max=100"`
	CompanyEmail     *string `json:"company_email,omitempty"`
	CompanyPhone     *string `json:"company_phone,omitempty"`
	Status           *string `json:"status,omitempty" binding:"omitempty,oneof=active suspended"`
	Plan             *string `json:"plan,omitempty"`
	MaxDocuments     *int    `json:"max_documents,omitempty" binding:"omitempty,min=1"`
	MaxQueriesPerDay *int    `json:"max_queries_per_day,omitempty" binding:"omitempty,min=1"`
	AIPersonality    *string `json:"ai_personality,omitempty"`
	ResponseStyle    *string `json:"response_style,omitempty"`
}

// TenantSummary is the list-view projection returned by GET /tenants.
type TenantSummary struct {
	TenantID      string    `json:"tenant_id"`
	CompanyName   string    `json:"company_name"`
	CompanyDomain string    `json:"company_domain"`
	Status        string    `json:"status"`
	Plan          string    `json:"plan"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentCount int       `json:"document_count"`
	TotalQueries  int64     `json:"total_queries"`
}
