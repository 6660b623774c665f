package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"fotoforge/pkg/logger"
)

var ErrSessionNotFound = errors.New("editor session not found")

// Session is one editor visit, bound to the owner and project it was
// opened for.
type Session struct {
	ID        string
	Owner     *string
	ProjectID string
	Engine    *Engine

	lastSeen time.Time
}

// Registry keeps open editor sessions and expires idle ones.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	newEngine func() *Engine
	now       func() time.Time
}

func NewRegistry(ttl time.Duration, newEngine func() *Engine) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		ttl:       ttl,
		newEngine: newEngine,
		now:       time.Now,
	}
}

// Open starts a session with a fresh idle engine.
func (r *Registry) Open(owner *string, projectID string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		ProjectID: projectID,
		Engine:    r.newEngine(),
	}

	r.mu.Lock()
	s.lastSeen = r.now()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session when it exists and belongs to owner, and marks it
// as used.
func (r *Registry) Get(id string, owner *string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !sameOwner(s.Owner, owner) {
		return nil, ErrSessionNotFound
	}
	if r.now().Sub(s.lastSeen) > r.ttl {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}

	s.lastSeen = r.now()
	return s, nil
}

// Close ends a session. Closing an unknown session is a no-op.
func (r *Registry) Close(id string, owner *string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && sameOwner(s.Owner, owner) {
		delete(r.sessions, id)
	}
}

// CloseOwner ends every session of owner, e.g. on logout.
func (r *Registry) CloseOwner(owner *string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if sameOwner(s.Owner, owner) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.LogInfo("Expired %d idle editor sessions", n)
			}
		}
	}
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
