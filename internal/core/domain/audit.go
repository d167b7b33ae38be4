package domain

import "time"

type AuditAction string

const (
	AuditDelete AuditAction = "delete"
	AuditUpload AuditAction = "upload"
	AuditIngest AuditAction = "ingest"
)

type AuditOutcome string

const (
	OutcomeOK    AuditOutcome = "ok"
	OutcomeError AuditOutcome = "error"
)

// AuditEvent records one mutating operator action against the corpus.
type AuditEvent struct {
	ID         string       `json:"id"`
	Action     AuditAction  `json:"action"`
	DocumentID string       `json:"document_id,omitempty"`
	Title      string       `json:"title,omitempty"`
	Outcome    AuditOutcome `json:"outcome"`
	Error      string       `json:"error,omitempty"`
	RequestID  string       `json:"request_id,omitempty"`
	At         time.Time    `json:"at"`
}
