package services

import (
	"errors"
	"strings"
	"testing"

	"multitenant-rag-platform/models"
)

func TestExtractContentPlainText(t *testing.T) {
	content, fileType, err := ExtractContent("notes.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileType != models.FileTypeText {
		t.Fatalf("expected text file type, got %q", fileType)
	}
	if content != "hello world" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestExtractContentMarkdownAsText(t *testing.T) {
	content, fileType, err := ExtractContent("README.md", []byte("# Title\n\nBody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileType != models.FileTypeText {
		t.Fatalf("expected text file type, got %q", fileType)
	}
	if !strings.Contains(content, "# Title") {
		t.Fatalf("markdown content lost: %q", content)
	}
}

func TestExtractContentJSONPrettyPrints(t *testing.T) {
	content, fileType, err := ExtractContent("config.json", []byte(`{"name":"acme","plan":"pro"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileType != models.FileTypeJSON {
		t.Fatalf("expected json file type, got %q", fileType)
	}
	if !strings.Contains(content, "\"name\": \"acme\"") {
		t.Fatalf("json not indented: %q", content)
	}
	if !strings.Contains(content, "\n") {
		t.Fatalf("expected multi-line output, got %q", content)
	}
}

func TestExtractContentInvalidJSONFallsBackToText(t *testing.T) {
	raw := []byte("{not valid json")
	content, _, err := ExtractContent("broken.json", raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "{not valid json" {
		t.Fatalf("expected raw passthrough, got %q", content)
	}
}

func TestExtractContentInvalidPDF(t *testing.T) {
	_, _, err := ExtractContent("report.pdf", []byte("not a pdf at all"))
	if err == nil {
		t.Fatal("expected extraction error for invalid pdf")
	}
	if !errors.Is(err, ErrContentExtraction) {
		t.Fatalf("error should wrap ErrContentExtraction, got %v", err)
	}
}

func TestExtractContentUnknownExtensionPassthrough(t *testing.T) {
	content, fileType, err := ExtractContent("data.bin", []byte("plain enough"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileType != models.FileTypeUnknown {
		t.Fatalf("expected unknown file type, got %q", fileType)
	}
	if content != "plain enough" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestDecodeTextLatin1Fallback(t *testing.T) {
	// 0xE9 is "é" in Latin-1 but not valid standalone UTF-8.
	content := decodeText([]byte{'c', 'a', 'f', 0xE9})
	if content != "café" {
		t.Fatalf("expected Latin-1 re-decode, got %q", content)
	}
}
