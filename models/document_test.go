package models

import (
	"testing"
	"time"
)

func TestDetectFileType(t *testing.T) {
	cases := []struct {
		filename string
		want     FileType
	}{
		{"report.pdf", FileTypePDF},
		{"REPORT.PDF", FileTypePDF},
		{"notes.txt", FileTypeText},
		{"README.md", FileTypeText},
		{"data.json", FileTypeJSON},
		{"archive.tar.gz", FileTypeUnknown},
		{"noextension", FileTypeUnknown},
	}
	for _, tc := range cases {
		if got := DetectFileType(tc.filename); got != tc.want {
			t.Errorf("DetectFileType(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestDocumentSummaryStripsContent(t *testing.T) {
	doc := Document{
		DocumentID: "d1",
		Filename:   "a.txt",
		Content:    "secret raw content",
		FileType:   FileTypeText,
		Status:     DocumentStatusCompleted,
		UploadedAt: time.Now(),
		Chunks:     []string{"one", "two"},
		ChunkCount: 2,
	}
	s := doc.Summary()
	if s.DocumentID != "d1" || s.ChunkCount != 2 || s.Status != DocumentStatusCompleted {
		t.Fatalf("summary lost fields: %+v", s)
	}
}

func TestStatsRecordQueryBoundedList(t *testing.T) {
	s := NewTenantStats("acme_com")
	now := time.Now()
	queries := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	for _, q := range queries {
		s.RecordQuery(q, now)
	}
	if len(s.PopularQueries) != PopularQueryLimit {
		t.Fatalf("expected %d queries, got %d", PopularQueryLimit, len(s.PopularQueries))
	}
	if s.PopularQueries[0] != "b" || s.PopularQueries[9] != "k" {
		t.Fatalf("oldest entry not evicted: %v", s.PopularQueries)
	}
	if s.LastQueryAt == nil {
		t.Fatal("last query time not set")
	}
}

func TestStatsDocumentCounting(t *testing.T) {
	s := NewTenantStats("acme_com")
	s.RecordDocument(FileTypePDF)
	s.RecordDocument(FileTypePDF)
	s.RecordDocument(FileTypeText)

	s.RemoveDocument(FileTypePDF)
	if s.DocumentTypes["pdf"] != 1 {
		t.Fatalf("expected pdf count 1, got %d", s.DocumentTypes["pdf"])
	}

	s.RemoveDocument(FileTypePDF)
	if _, ok := s.DocumentTypes["pdf"]; ok {
		t.Fatal("zero-count type not pruned")
	}
	if s.TotalDocuments != 1 {
		t.Fatalf("expected 1 document left, got %d", s.TotalDocuments)
	}
}
