package usecase

import "github.com/kirillkom/corpus-admin/internal/core/ports"

// Workspace is the page state owned by one operator session.
type Workspace struct {
	Documents *DocumentList
	Upload    *UploadForm
	Ingest    *IngestForm
}

func NewWorkspace(api ports.CorpusAPI, audit ports.AuditSink, maxUploadBytes int64) *Workspace {
	return &Workspace{
		Documents: NewDocumentList(api, audit),
		Upload:    NewUploadForm(api, audit, maxUploadBytes),
		Ingest:    NewIngestForm(api, audit),
	}
}

// Close detaches page state from in-flight requests when the session expires.
func (w *Workspace) Close() {
	w.Documents.Close()
	w.Upload.Reset()
}
