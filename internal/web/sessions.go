package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/propdraft/internal/session"
)

// sessionRegistry holds one live draft session per (owner, draft) pair so
// repeated mutator requests share a debounce timer and working copy.
type sessionRegistry struct {
	store    session.Store
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newSessionRegistry(store session.Store, debounce time.Duration, logger *slog.Logger) *sessionRegistry {
	return &sessionRegistry{
		store:    store,
		debounce: debounce,
		logger:   logger,
		sessions: make(map[string]*session.Session),
	}
}

func sessionKey(ownerID, draftID string) string {
	return ownerID + "/" + draftID
}

// get returns the live session for the draft, loading it on first use.
func (r *sessionRegistry) get(ctx context.Context, ownerID, draftID string) (*session.Session, error) {
	r.mu.Lock()
	if s, ok := r.sessions[sessionKey(ownerID, draftID)]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	s := session.New(r.store, r.logger, session.WithDebounce(r.debounce))
	if err := s.Load(ctx, ownerID, draftID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have loaded the same draft concurrently.
	if existing, ok := r.sessions[sessionKey(ownerID, draftID)]; ok {
		return existing, nil
	}
	r.sessions[sessionKey(ownerID, draftID)] = s
	return s, nil
}

// put registers a session created through Start or Resume. A replaced
// session's debounce timer is disarmed so it cannot write over the new
// session's state later.
func (r *sessionRegistry) put(ownerID, draftID string, s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[sessionKey(ownerID, draftID)]; ok && existing != s {
		existing.Abort()
	}
	r.sessions[sessionKey(ownerID, draftID)] = s
}

// discard aborts and forgets the session without flushing, for drafts that no
// longer exist in the store. An armed debounce flush after the delete would
// write the draft back.
func (r *sessionRegistry) discard(ownerID, draftID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionKey(ownerID, draftID)]
	delete(r.sessions, sessionKey(ownerID, draftID))
	r.mu.Unlock()
	if ok {
		s.Abort()
	}
}

func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*session.Session)
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			r.logger.Error("failed to close draft session", "error", err)
		}
	}
}
