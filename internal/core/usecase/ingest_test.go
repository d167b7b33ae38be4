package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

func TestIngestSubmitSuccess(t *testing.T) {
	api := &corpusAPIFake{}
	audit := &auditSinkFake{}
	form := NewIngestForm(api, audit)

	result, err := form.Submit(context.Background(), domain.IngestRequest{
		Title:      " Al-Ikhlas ",
		SourceType: domain.SourceQuran,
		Language:   "ar",
		Content:    "qul huwa allahu ahad",
		Metadata:   map[string]string{"surah": "112"},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.ChunkCount != 3 || result.DocumentID != "doc-new" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if api.ingests[0].Title != "Al-Ikhlas" || api.ingests[0].Metadata["surah"] != "112" {
		t.Fatalf("unexpected request: %+v", api.ingests[0])
	}
	events := audit.snapshot()
	if len(events) != 1 || events[0].DocumentID != "doc-new" || events[0].Action != domain.AuditIngest {
		t.Fatalf("unexpected audit events: %+v", events)
	}
	if snap := form.Snapshot(); snap.Result == nil || snap.Error != "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestIngestValidation(t *testing.T) {
	valid := domain.IngestRequest{Title: "t", SourceType: domain.SourceFiqh, Language: "kk", Content: "c"}
	tests := []struct {
		name   string
		mutate func(*domain.IngestRequest)
	}{
		{name: "blank title", mutate: func(r *domain.IngestRequest) { r.Title = "  " }},
		{name: "empty content", mutate: func(r *domain.IngestRequest) { r.Content = "\n" }},
		{name: "unknown type", mutate: func(r *domain.IngestRequest) { r.SourceType = "poetry" }},
		{name: "unknown language", mutate: func(r *domain.IngestRequest) { r.Language = "en" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &corpusAPIFake{}
			form := NewIngestForm(api, nil)
			req := valid
			tt.mutate(&req)
			if _, err := form.Submit(context.Background(), req); !domain.IsKind(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(api.ingests) != 0 {
				t.Fatalf("validation failure must not reach the server")
			}
		})
	}
}

func TestIngestServerErrorSurfaced(t *testing.T) {
	api := &corpusAPIFake{ingestErr: serverError{kind: domain.ErrIngest, body: "embedding service down"}}
	form := NewIngestForm(api, nil)

	_, err := form.Submit(context.Background(), domain.IngestRequest{Title: "t", SourceType: domain.SourceBook, Language: "ru", Content: "c"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := form.Snapshot().Error; got != "embedding service down" {
		t.Fatalf("unexpected error text %q", got)
	}
	form.Reset()
	if snap := form.Snapshot(); snap.Error != "" || snap.Request.SourceType != domain.DefaultSourceType {
		t.Fatalf("unexpected snapshot after reset: %+v", snap)
	}
}
