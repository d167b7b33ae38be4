package ports

import (
	"context"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

// CorpusAPI is the corpus backend's HTTP contract.
type CorpusAPI interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	UploadDocument(ctx context.Context, req domain.UploadRequest) (*domain.UploadAccepted, error)
	IngestDocument(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
	CheckHealth(ctx context.Context) (domain.ServerStatus, error)
	// CheckReady never fails; transport problems come back as an unavailable status.
	CheckReady(ctx context.Context) domain.ServerStatus
}

// AuditSink records mutating operator actions.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// AuditLog reads back recorded actions, newest first.
type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}
