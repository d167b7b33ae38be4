package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
)

// DocumentList holds one operator's snapshot of the corpus and derives filtered views from it.
// The mutex is never held across a backend call.
type DocumentList struct {
	api   ports.CorpusAPI
	audit ports.AuditSink

	mu         sync.Mutex
	state      domain.ListState
	documents  []domain.Document
	errMessage string
	generation uint64
	closed     bool
	deleting   map[string]struct{}

	// removed maps ids deleted here to the deleteSeq value they got, so a Load
	// dispatched before the delete cannot bring them back.
	deleteSeq uint64
	removed   map[string]uint64
}

func NewDocumentList(api ports.CorpusAPI, audit ports.AuditSink) *DocumentList {
	return &DocumentList{
		api:      api,
		audit:    audit,
		state:    domain.ListIdle,
		deleting: make(map[string]struct{}),
		removed:  make(map[string]uint64),
	}
}

// Load fetches a fresh snapshot. A result is dropped when a newer Load started meanwhile
// or the list was closed.
func (l *DocumentList) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.generation++
	gen := l.generation
	seq := l.deleteSeq
	l.state = domain.ListLoading
	l.errMessage = ""
	l.mu.Unlock()

	docs, err := l.api.ListDocuments(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.generation {
		return nil
	}
	if err != nil {
		l.state = domain.ListError
		l.errMessage = domain.UserMessage(err)
		return err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	l.documents = l.dropRemovedLocked(docs, seq)
	l.state = domain.ListLoaded
	return nil
}

// Loaded reports whether a snapshot was ever requested.
func (l *DocumentList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state != domain.ListIdle
}

func (l *DocumentList) Snapshot() domain.ListSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	docs := make([]domain.Document, len(l.documents))
	copy(docs, l.documents)
	return domain.ListSnapshot{
		State:     l.state,
		Documents: docs,
		Error:     l.errMessage,
	}
}

func (l *DocumentList) Visible(filter domain.Filter) []domain.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ApplyFilter(l.documents, filter)
}

func (l *DocumentList) Find(id string) (domain.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, doc := range l.documents {
		if doc.ID == id {
			return doc, true
		}
	}
	return domain.Document{}, false
}

func (l *DocumentList) IsDeleting(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.deleting[id]
	return ok
}

// Delete removes a document on the server and then from the local snapshot by id.
// On failure the snapshot is left untouched.
func (l *DocumentList) Delete(ctx context.Context, id string, confirmed bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewValidationError("document id is required")
	}
	if !confirmed {
		return domain.NewValidationError("deletion of %q must be confirmed", id)
	}

	l.mu.Lock()
	if _, busy := l.deleting[id]; busy {
		l.mu.Unlock()
		return domain.WrapError(domain.ErrConflict, "delete document", fmt.Errorf("id=%s", id))
	}
	l.deleting[id] = struct{}{}
	title := id
	for _, doc := range l.documents {
		if doc.ID == id {
			title = doc.Title
			break
		}
	}
	l.mu.Unlock()

	err := l.api.DeleteDocument(ctx, id)

	l.mu.Lock()
	delete(l.deleting, id)
	if err == nil {
		l.documents = removeByID(l.documents, id)
		l.deleteSeq++
		l.removed[id] = l.deleteSeq
	}
	l.mu.Unlock()

	recordAudit(ctx, l.audit, domain.AuditDelete, id, title, err)
	return err
}

// Close detaches the list from any in-flight Load.
func (l *DocumentList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// EmptyHint explains an empty filtered view.
func EmptyHint(total int) string {
	if total == 0 {
		return "Upload the first document"
	}
	return "Try changing the filters"
}

// ApplyFilter returns a new slice with the documents matching every filter dimension,
// in input order.
func ApplyFilter(docs []domain.Document, filter domain.Filter) []domain.Document {
	query := strings.ToLower(filter.Search)
	typeFilter := strings.TrimSpace(filter.Type)

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if !matchesScope(doc, filter.Scope) {
			continue
		}
		if typeFilter != "" && typeFilter != domain.TypeAll && string(doc.SourceType) != typeFilter {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(doc.Title), query) &&
			!strings.Contains(strings.ToLower(doc.ID), query) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

func matchesScope(doc domain.Document, scope domain.Scope) bool {
	switch scope {
	case domain.ScopeUser:
		return !doc.Verified()
	case domain.ScopeAll:
		return true
	default:
		return doc.Verified()
	}
}

// dropRemovedLocked filters out documents deleted after the Load that fetched docs was
// dispatched at seq. Deletions at or before seq are already reflected by the backend.
func (l *DocumentList) dropRemovedLocked(docs []domain.Document, seq uint64) []domain.Document {
	for id, deletedAt := range l.removed {
		if deletedAt <= seq {
			delete(l.removed, id)
			continue
		}
		docs = removeByID(docs, id)
	}
	return docs
}

func removeByID(docs []domain.Document, id string) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID != id {
			out = append(out, doc)
		}
	}
	return out
}
