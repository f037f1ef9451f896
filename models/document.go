package models

import "time"

// FileType classifies an uploaded document by extension.
type FileType string

const (
	FileTypeText    FileType = "text"
	FileTypePDF     FileType = "pdf"
	FileTypeJSON    FileType = "json"
	FileTypeUnknown FileType = "unknown"
)

// Document processing status (async upload path).
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document is an uploaded file after content extraction. Chunks are the
// unit of retrieval; Content is kept so a document can be re-chunked and
// re-indexed without the original file.
type Document struct {
	DocumentID string    `bson:"document_id" json:"document_id"`
	TenantID   string    `bson:"tenant_id" json:"tenant_id"`
	Filename   string    `bson:"filename" json:"filename"`
	Content    string    `bson:"content" json:"-"`
	FileType   FileType  `bson:"file_type" json:"file_type"`
	Status     string    `bson:"status" json:"status"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
	Chunks     []string  `bson:"chunks" json:"-"`
	ChunkCount int       `bson:"chunk_count" json:"chunk_count"`
}

// DocumentSummary is the list-view projection returned by
// GET /tenants/:id/documents; raw content and chunks stay server-side.
type DocumentSummary struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	FileType   FileType  `json:"file_type"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkCount int       `json:"chunk_count"`
}

// Summary strips the heavy fields for listing.
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{
		DocumentID: d.DocumentID,
		Filename:   d.Filename,
		FileType:   d.FileType,
		Status:     d.Status,
		UploadedAt: d.UploadedAt,
		ChunkCount: d.ChunkCount,
	}
}

// DetectFileType maps a filename extension onto the stored file type.
func DetectFileType(filename string) FileType {
	lower := filename
	for i := len(lower) - 1; i >= 0; i-- {
		if lower[i] == '.' {
			switch toLowerASCII(lower[i:]) {
			case ".pdf":
				return FileTypePDF
			case ".txt", ".md":
				return FileTypeText
			case ".json":
				return FileTypeJSON
			}
			return FileTypeUnknown
		}
	}
	return FileTypeUnknown
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
