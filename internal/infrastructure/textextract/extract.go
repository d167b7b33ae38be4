package textextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

// FromBytes returns the plain text of a pdf, txt or json payload, chosen by file extension.
func FromBytes(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		text string
		err  error
	)
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "pdf":
		text, err = extractPDF(data)
	case "txt":
		text, err = extractPlain(fileName, data)
	case "json":
		text, err = extractJSON(fileName, data)
	default:
		return "", domain.NewValidationError("supported formats: PDF, JSON, TXT")
	}
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", filepath.Base(fileName), err)
	}
	return strings.TrimSpace(text), nil
}

func extractPDF(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf data")
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractPlain(fileName string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8 text: %s", fileName)
	}
	return string(data), nil
}

// extractJSON prefers a top-level "content" or "text" string and falls back to the document itself.
func extractJSON(fileName string, data []byte) (string, error) {
	if !json.Valid(data) {
		return "", fmt.Errorf("invalid JSON: %s", fileName)
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err == nil {
		for _, key := range []string{"content", "text"} {
			var value string
			if raw, ok := object[key]; ok && json.Unmarshal(raw, &value) == nil && strings.TrimSpace(value) != "" {
				return value, nil
			}
		}
	}
	return string(data), nil
}
