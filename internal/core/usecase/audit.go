package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
	"github.com/kirillkom/corpus-admin/internal/observability/logging"
)

// recordAudit is best effort: a broken sink is logged and never fails the operator action.
func recordAudit(ctx context.Context, sink ports.AuditSink, action domain.AuditAction, documentID, title string, opErr error) {
	event := domain.AuditEvent{
		ID:         uuid.NewString(),
		Action:     action,
		DocumentID: documentID,
		Title:      title,
		Outcome:    domain.OutcomeOK,
		RequestID:  logging.RequestIDFromContext(ctx),
		At:         time.Now().UTC(),
	}
	if opErr != nil {
		event.Outcome = domain.OutcomeError
		event.Error = domain.UserMessage(opErr)
	}

	slog.Info("corpus_action",
		"request_id", event.RequestID,
		"action", string(event.Action),
		"document_id", event.DocumentID,
		"outcome", string(event.Outcome),
		"error", event.Error,
	)

	if sink == nil {
		return
	}
	// Audit writes outlive the operator request.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := sink.Record(auditCtx, event); err != nil {
		slog.Warn("audit_record_failed", "request_id", event.RequestID, "action", string(action), "error", err)
	}
}
