package audit

import (
	"context"
	"errors"
	"sync"

	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/core/ports"
)

// Fanout records every event to all sinks and joins their errors.
type Fanout struct {
	sinks []ports.AuditSink
}

func NewFanout(sinks ...ports.AuditSink) *Fanout {
	out := make([]ports.AuditSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return &Fanout{sinks: out}
}

func (f *Fanout) Record(ctx context.Context, event domain.AuditEvent) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ring keeps the most recent events in memory for the activity page.
type Ring struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	next   int
	full   bool
}

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 100
	}
	return &Ring{events: make([]domain.AuditEvent, capacity)}
}

func (r *Ring) Record(_ context.Context, event domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (r *Ring) ListRecent(_ context.Context, limit int) ([]domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.events)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]domain.AuditEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.events)) % len(r.events)
		out = append(out, r.events[idx])
	}
	return out, nil
}
