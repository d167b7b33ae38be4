package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/corpus-admin/internal/core/usecase"
)

const (
	DefaultTTL         = 30 * time.Minute
	DefaultMaxSessions = 256
)

// Store keeps one workspace per operator session in memory. Nothing survives a restart.
type Store struct {
	newWorkspace func() *usecase.Workspace
	ttl          time.Duration
	maxSessions  int
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	workspace    *usecase.Workspace
	lastAccessed time.Time
}

func NewStore(newWorkspace func() *usecase.Workspace, ttl time.Duration, maxSessions int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{
		newWorkspace: newWorkspace,
		ttl:          ttl,
		maxSessions:  maxSessions,
		now:          time.Now,
		sessions:     make(map[string]*entry),
	}
}

// Resolve returns the live workspace for id, or starts a new session when id is
// unknown or expired. The returned id is the one the caller must keep using.
func (s *Store) Resolve(id string) (string, *usecase.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.sessions[id]; ok {
		if now.Sub(e.lastAccessed) < s.ttl {
			e.lastAccessed = now
			return id, e.workspace, false
		}
		s.evictLocked(id, e)
	}

	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}
	newID := uuid.NewString()
	e := &entry{workspace: s.newWorkspace(), lastAccessed: now}
	s.sessions[newID] = e
	return newID, e.workspace, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops every session idle for longer than the TTL and returns how many it dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if !e.lastAccessed.After(cutoff) {
			s.evictLocked(id, e)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				slog.Info("sessions_swept", "removed", removed)
			}
		}
	}
}

// Close ends every session.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		s.evictLocked(id, e)
	}
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest *entry
	for id, e := range s.sessions {
		if oldest == nil || e.lastAccessed.Before(oldest.lastAccessed) {
			oldestID, oldest = id, e
		}
	}
	if oldest != nil {
		s.evictLocked(oldestID, oldest)
	}
}

func (s *Store) evictLocked(id string, e *entry) {
	e.workspace.Close()
	delete(s.sessions, id)
}
