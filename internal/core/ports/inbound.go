package ports

import (
	"context"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
)

// DocumentBrowser is the documents page state: one snapshot, filtered views and deletes.
type DocumentBrowser interface {
	Load(ctx context.Context) error
	Snapshot() domain.ListSnapshot
	Visible(filter domain.Filter) []domain.Document
	Find(id string) (domain.Document, bool)
	IsDeleting(id string) bool
	Delete(ctx context.Context, id string, confirmed bool) error
}

// DocumentUploader is the upload page state machine.
type DocumentUploader interface {
	SelectFile(name string, content []byte) error
	ClearFile()
	SetTitle(title string)
	SetSourceType(sourceType domain.SourceType)
	SetLanguage(language string)
	Submit(ctx context.Context) (*domain.UploadAccepted, error)
	Reset()
	Snapshot() domain.UploadSnapshot
}

// TextIngestor is the synchronous text ingest form.
type TextIngestor interface {
	Submit(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
	Snapshot() domain.IngestSnapshot
	Reset()
}

// DashboardLoader builds the dashboard view from a fresh fetch and readiness probe.
type DashboardLoader interface {
	LoadDashboard(ctx context.Context) domain.Dashboard
}
