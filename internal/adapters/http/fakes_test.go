package httpadapter

import (
	"context"
	"sync"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/usecase"
)

type corpusAPIFake struct {
	mu        sync.Mutex
	docs      []domain.Document
	listErr   error
	deleteErr error
	uploadErr error
	ready     string

	listCalls int
	deleted   []string
	uploads   []domain.UploadRequest
	ingests   []domain.IngestRequest
}

func (f *corpusAPIFake) ListDocuments(context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *corpusAPIFake) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *corpusAPIFake) UploadDocument(_ context.Context, req domain.UploadRequest) (*domain.UploadAccepted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, req)
	return &domain.UploadAccepted{Status: "accepted", Message: "processing started", Title: req.Title}, nil
}

func (f *corpusAPIFake) IngestDocument(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingests = append(f.ingests, req)
	return &domain.IngestResult{DocumentID: "doc-new", Title: req.Title, ChunkCount: 3}, nil
}

func (f *corpusAPIFake) CheckHealth(context.Context) (domain.ServerStatus, error) {
	return domain.ServerStatus{Status: "ok"}, nil
}

func (f *corpusAPIFake) CheckReady(context.Context) domain.ServerStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ready == "" {
		return domain.ServerStatus{Status: domain.StatusUnavailable}
	}
	return domain.ServerStatus{Status: f.ready}
}

// singleWorkspace hands every request the same session.
type singleWorkspace struct {
	ws *usecase.Workspace
}

func (s *singleWorkspace) Resolve(id string) (string, *usecase.Workspace, bool) {
	if id == "sess-1" {
		return id, s.ws, false
	}
	return "sess-1", s.ws, true
}

type auditLogFake struct {
	events []domain.AuditEvent
	err    error
}

func (f *auditLogFake) ListRecent(context.Context, int) ([]domain.AuditEvent, error) {
	return f.events, f.err
}

type serverError struct {
	kind error
	body string
}

func (e *serverError) Error() string       { return "status 500: " + e.body }
func (e *serverError) UserMessage() string { return e.body }
func (e *serverError) Unwrap() error       { return e.kind }

func sampleDocuments() []domain.Document {
	return []domain.Document{
		{ID: "q-001", Title: "Al-Fatiha", SourceType: domain.SourceQuran, Language: "ar", CreatedAt: "2025-01-01T10:00:00Z"},
		{ID: "h-002", Title: "Sahih Bukhari", SourceType: domain.SourceHadith, Language: "ar", CreatedAt: "2025-01-02T10:00:00Z"},
		{ID: "u-003", Title: "My notes", SourceType: domain.SourceFiqh, Language: "ru", UserID: "user-1", CreatedAt: "2025-01-03T10:00:00Z"},
	}
}
