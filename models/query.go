package models

// Search provenance markers carried on retrieval results.
const (
	SearchTypeLexical  = "lexical"
	SearchTypeSemantic = "semantic"
	SearchTypeHybrid   = "hybrid"
)

// RetrievedChunk is one ranked retrieval hit. Score semantics depend on
// SearchType: a raw token count for lexical hits, a similarity in [0,1]
// for semantic hits, and a fused sum after merging.
type RetrievedChunk struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	SearchType string  `json:"search_type"`
}

type QueryRequest struct {
	TenantID string `json:"tenant_id" binding:"required"`
	Query    string `json:"query" binding:"required"`
}

type SourceRef struct {
	Source string `json:"source"`
}

type QueryResponse struct {
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`
	TenantID string      `json:"tenant_id"`
	Fallback bool        `json:"fallback,omitempty"`
}

type UploadResult struct {
	Chunks   int      `json:"chunks"`
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
	TenantID string   `json:"tenant_id"`
	Filename string   `json:"filename"`
	FileType FileType `json:"file_type"`
}

type CollectionInfo struct {
	TenantID      string `json:"tenant_id"`
	CompanyName   string `json:"company_name"`
	DocumentCount int    `json:"document_count"`
	Plan          string `json:"plan"`
	Status        string `json:"status"`
	TotalQueries  int64  `json:"total_queries"`
	QueriesToday  int64  `json:"queries_today"`
}
