package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
)

// IngestForm submits raw text for synchronous indexing and keeps the last outcome.
type IngestForm struct {
	api   ports.CorpusAPI
	audit ports.AuditSink

	mu         sync.Mutex
	submitting bool
	request    domain.IngestRequest
	result     *domain.IngestResult
	errMessage string
}

func NewIngestForm(api ports.CorpusAPI, audit ports.AuditSink) *IngestForm {
	f := &IngestForm{api: api, audit: audit}
	f.Reset()
	return f
}

func (f *IngestForm) Submit(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Language = strings.TrimSpace(req.Language)

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, domain.WrapError(domain.ErrConflict, "ingest document", errors.New("ingest in progress"))
	}
	f.request = req
	f.result = nil
	if err := ValidateIngestRequest(req); err != nil {
		f.errMessage = domain.UserMessage(err)
		f.mu.Unlock()
		return nil, err
	}
	f.submitting = true
	f.errMessage = ""
	f.mu.Unlock()

	result, err := f.api.IngestDocument(ctx, req)
	documentID := ""
	if result != nil {
		documentID = result.DocumentID
	}
	recordAudit(ctx, f.audit, domain.AuditIngest, documentID, req.Title, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.errMessage = domain.UserMessage(err)
		return nil, err
	}
	f.result = result
	return result, nil
}

func (f *IngestForm) Snapshot() domain.IngestSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := domain.IngestSnapshot{
		Submitting: f.submitting,
		Request:    f.request,
		Error:      f.errMessage,
	}
	if f.result != nil {
		res := *f.result
		snap.Result = &res
	}
	return snap
}

func (f *IngestForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.request = domain.IngestRequest{
		SourceType: domain.DefaultSourceType,
		Language:   domain.DefaultLanguage,
	}
	f.result = nil
	f.errMessage = ""
}

func ValidateIngestRequest(req domain.IngestRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return domain.NewValidationError("enter a title")
	}
	if strings.TrimSpace(req.Content) == "" {
		return domain.NewValidationError("content is empty")
	}
	if _, ok := domain.LookupSourceType(req.SourceType); !ok {
		return domain.NewValidationError("unknown source type %q", req.SourceType)
	}
	if _, ok := domain.LookupLanguage(req.Language); !ok {
		return domain.NewValidationError("unknown language %q", req.Language)
	}
	return nil
}
