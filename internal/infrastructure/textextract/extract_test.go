package textextract

import (
	"context"
	"testing"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

func TestFromBytesPlainText(t *testing.T) {
	got, err := FromBytes(context.Background(), "notes.TXT", []byte("  bismillah\n"))
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if got != "bismillah" {
		t.Fatalf("expected trimmed text, got %q", got)
	}
}

func TestFromBytesRejectsBinaryText(t *testing.T) {
	if _, err := FromBytes(context.Background(), "notes.txt", []byte{0xff, 0xfe, 0x00}); err == nil {
		t.Fatalf("expected error for invalid UTF-8")
	}
}

func TestFromBytesJSONContentField(t *testing.T) {
	got, err := FromBytes(context.Background(), "hadith.json", []byte(`{"title":"x","content":"the text"}`))
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if got != "the text" {
		t.Fatalf("expected content field, got %q", got)
	}
}

func TestFromBytesJSONWithoutContentKeepsDocument(t *testing.T) {
	raw := `[{"ayah":1}]`
	got, err := FromBytes(context.Background(), "ayat.json", []byte(raw))
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if got != raw {
		t.Fatalf("expected raw document, got %q", got)
	}
}

func TestFromBytesInvalidJSON(t *testing.T) {
	if _, err := FromBytes(context.Background(), "broken.json", []byte(`{"content":`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestFromBytesUnsupportedExtension(t *testing.T) {
	_, err := FromBytes(context.Background(), "book.docx", []byte("x"))
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFromBytesBrokenPDF(t *testing.T) {
	if _, err := FromBytes(context.Background(), "scan.pdf", []byte("not a pdf")); err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
}

func TestFromBytesCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FromBytes(ctx, "a.txt", []byte("x")); err == nil {
		t.Fatalf("expected context error")
	}
}
