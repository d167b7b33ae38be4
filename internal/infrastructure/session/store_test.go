package session

import (
	"testing"
	"time"

	"github.com/kirillkom/corpus-admin/internal/core/usecase"
)

func newTestStore(ttl time.Duration, max int) (*Store, *time.Time) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(func() *usecase.Workspace {
		return usecase.NewWorkspace(nil, nil, 0)
	}, ttl, max)
	store.now = func() time.Time { return now }
	return store, &now
}

// has checks for a session without touching or creating it.
func (s *Store) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

func TestResolveReusesLiveSession(t *testing.T) {
	store, _ := newTestStore(time.Minute, 4)

	id, first, created := store.Resolve("")
	if !created || id == "" {
		t.Fatalf("expected new session, got id=%q created=%v", id, created)
	}
	sameID, second, created := store.Resolve(id)
	if created || sameID != id || second != first {
		t.Fatalf("expected the same workspace for a live session")
	}
}

func TestResolveReplacesExpiredSession(t *testing.T) {
	store, now := newTestStore(time.Minute, 4)

	id, first, _ := store.Resolve("")
	*now = now.Add(2 * time.Minute)

	newID, second, created := store.Resolve(id)
	if !created || newID == id || second == first {
		t.Fatalf("expected a fresh session after expiry")
	}
	if store.Len() != 1 {
		t.Fatalf("expected expired session to be evicted, got %d sessions", store.Len())
	}
}

func TestResolveEvictsOldestAtCapacity(t *testing.T) {
	store, now := newTestStore(time.Hour, 2)

	oldest, _, _ := store.Resolve("")
	*now = now.Add(time.Second)
	kept, _, _ := store.Resolve("")
	*now = now.Add(time.Second)
	store.Resolve("")

	if store.Len() != 2 {
		t.Fatalf("expected capacity to hold, got %d", store.Len())
	}
	if store.has(oldest) {
		t.Fatalf("expected oldest session to be gone")
	}
	if !store.has(kept) {
		t.Fatalf("expected newer session to survive")
	}
}

func TestSweepDropsIdleSessions(t *testing.T) {
	store, now := newTestStore(time.Minute, 10)

	store.Resolve("")
	store.Resolve("")
	*now = now.Add(30 * time.Second)
	active, _, _ := store.Resolve("")
	*now = now.Add(45 * time.Second)

	if removed := store.Sweep(); removed != 2 {
		t.Fatalf("expected 2 idle sessions removed, got %d", removed)
	}
	if _, _, created := store.Resolve(active); created {
		t.Fatalf("expected active session to survive the sweep")
	}
}
