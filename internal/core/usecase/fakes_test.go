package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

type corpusAPIFake struct {
	mu sync.Mutex

	docs      []domain.Document
	listErr   error
	deleteErr error
	uploadErr error
	ingestErr error
	ready     domain.ServerStatus

	// block, when set, is waited on inside DeleteDocument and UploadDocument.
	block   chan struct{}
	entered chan string

	listCalls   int
	deleted     []string
	uploads     []domain.UploadRequest
	ingests     []domain.IngestRequest
	readyCalls  int
	accepted    *domain.UploadAccepted
	ingestReply *domain.IngestResult
}

func (f *corpusAPIFake) ListDocuments(context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.docs == nil {
		return nil, nil
	}
	out := make([]domain.Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *corpusAPIFake) DeleteDocument(_ context.Context, id string) error {
	f.wait(id)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *corpusAPIFake) UploadDocument(_ context.Context, req domain.UploadRequest) (*domain.UploadAccepted, error) {
	f.wait(req.Filename)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.accepted != nil {
		return f.accepted, nil
	}
	return &domain.UploadAccepted{Status: "accepted", Message: "processing started", Title: req.Title}, nil
}

func (f *corpusAPIFake) IngestDocument(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingests = append(f.ingests, req)
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	if f.ingestReply != nil {
		return f.ingestReply, nil
	}
	return &domain.IngestResult{DocumentID: "doc-new", Title: req.Title, ChunkCount: 3}, nil
}

func (f *corpusAPIFake) CheckHealth(context.Context) (domain.ServerStatus, error) {
	return domain.ServerStatus{Status: "ok"}, nil
}

func (f *corpusAPIFake) CheckReady(context.Context) domain.ServerStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++
	if f.ready.Status == "" {
		return domain.ServerStatus{Status: domain.StatusUnavailable}
	}
	return f.ready
}

func (f *corpusAPIFake) wait(key string) {
	if f.entered != nil {
		f.entered <- key
	}
	if f.block != nil {
		<-f.block
	}
}

type auditSinkFake struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (f *auditSinkFake) Record(_ context.Context, event domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *auditSinkFake) snapshot() []domain.AuditEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AuditEvent, len(f.events))
	copy(out, f.events)
	return out
}

// serverError mimics the client's typed upstream error for message extraction.
type serverError struct {
	kind error
	body string
}

func (e serverError) Error() string       { return "server: " + e.body }
func (e serverError) UserMessage() string { return e.body }
func (e serverError) Unwrap() error       { return e.kind }

var errTransport = errors.New("connection refused")

func sampleDocuments() []domain.Document {
	return []domain.Document{
		{ID: "q-001", Title: "Al-Fatiha", SourceType: domain.SourceQuran, Language: "ar", CreatedAt: "2025-01-01T00:00:00Z"},
		{ID: "h-002", Title: "Sahih al-Bukhari", SourceType: domain.SourceHadith, Language: "ar", CreatedAt: "2025-01-02T00:00:00Z"},
		{ID: "u-003", Title: "My notes on Bukhari", SourceType: domain.SourceHadith, Language: "ru", UserID: "user-7", CreatedAt: "2025-01-03T00:00:00Z"},
		{ID: "t-004", Title: "Tafsir Ibn Kathir", SourceType: domain.SourceTafsir, Language: "ar", CreatedAt: "2025-01-04T00:00:00Z"},
		{ID: "u-005", Title: "Fiqh questions", SourceType: domain.SourceFiqh, Language: "kk", UserID: "user-9", CreatedAt: "2025-01-05T00:00:00Z"},
		{ID: "h-006", Title: "Sahih Muslim", SourceType: domain.SourceHadith, Language: "ar", CreatedAt: "2025-01-06T00:00:00Z"},
	}
}
