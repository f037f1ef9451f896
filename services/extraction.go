package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"multitenant-rag-platform/models"

	"github.com/ledongthuc/pdf"
)

// ErrContentExtraction marks uploads whose bytes could not be turned
// into indexable text.
var ErrContentExtraction = errors.New("content extraction failed")

// ExtractContent converts uploaded bytes into indexable text based on
// the filename extension. Unknown extensions are treated as plain text.
func ExtractContent(filename string, data []byte) (string, models.FileType, error) {
	fileType := models.DetectFileType(filename)

	switch fileType {
	case models.FileTypePDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", fileType, fmt.Errorf("%w: %v", ErrContentExtraction, err)
		}
		return text, fileType, nil
	case models.FileTypeJSON:
		return extractJSON(data), fileType, nil
	default:
		return decodeText(data), fileType, nil
	}
}

// extractPDF pulls plain text page by page, inserting a page marker
// before each one. Pages that fail to decode are skipped.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %v", err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	extracted := 0
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		b.WriteString(text)
		extracted++
	}

	if extracted == 0 {
		return "", fmt.Errorf("no extractable text in %d pages", pages)
	}
	return strings.TrimSpace(b.String()), nil
}

// extractJSON pretty-prints valid JSON so keys and values land on
// separate lines for chunking; invalid JSON falls back to raw text.
func extractJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return decodeText(data)
	}
	return buf.String()
}

// decodeText returns the bytes as UTF-8, re-decoding as Latin-1 when
// the input is not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
