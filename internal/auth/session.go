package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionContext is the per-client mutable authentication state: identity,
// a point-in-time copy of the user's roles taken at login, and session-only
// secrets such as API key overrides. It is owned by exactly one client
// session and never shared across sessions.
//
// Roles do not auto-refresh; they change only on re-login. Secrets live in
// memory only and are never written to the persistent store.
type SessionContext struct {
	mu            sync.RWMutex
	id            string
	authenticated bool
	username      string
	roles         RoleSet
	secrets       map[string]string
}

// newSessionContext creates an empty, unauthenticated session context.
func newSessionContext(id string) *SessionContext {
	return &SessionContext{
		id:      id,
		roles:   NewRoleSet(),
		secrets: make(map[string]string),
	}
}

// ID returns the session identifier.
func (s *SessionContext) ID() string {
	return s.id
}

// establish populates the context after a successful login.
func (s *SessionContext) establish(username string, roles RoleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.username = username
	s.roles = roles.Clone()
}

// Clear resets the context to its empty initial state: unauthenticated,
// no identity, no roles, no secrets. Safe to call repeatedly.
func (s *SessionContext) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.username = ""
	s.roles = NewRoleSet()
	s.secrets = make(map[string]string)
}

// Snapshot returns an immutable view of the authentication state. Handlers
// take a snapshot at request entry so an in-flight request keeps the state
// it started with even if a concurrent logout clears the context.
func (s *SessionContext) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Authenticated: s.authenticated,
		Username:      s.username,
		Roles:         s.roles.Clone(),
	}
}

// SetSecret stores a session-only override value (e.g. an API key). The
// value is held in memory for the lifetime of the session and is never
// persisted or logged.
func (s *SessionContext) SetSecret(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = value
}

// Secret returns a session-only override value, if set.
func (s *SessionContext) Secret(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.secrets[key]
	return v, ok
}

// ClearSecret removes a session-only override value.
func (s *SessionContext) ClearSecret(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, key)
}

// Snapshot is an immutable point-in-time view of a SessionContext, taken
// once per request. The zero value is the anonymous (unauthenticated) view.
type Snapshot struct {
	Authenticated bool
	Username      string
	Roles         RoleSet
}

// Registry tracks live session contexts by session ID. Sessions are created
// at login, looked up per request, and destroyed by logout or expiry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

type sessionEntry struct {
	ctx       *SessionContext
	expiresAt time.Time
}

// NewRegistry creates a session registry with the given idle TTL.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
}

// Add registers a session context under its ID.
func (r *Registry) Add(sc *SessionContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sc.ID()] = &sessionEntry{
		ctx:       sc,
		expiresAt: time.Now().Add(r.ttl),
	}
}

// Get returns the live session context for the given ID. A hit extends the
// session's lifetime (sliding expiry); an expired session is removed and
// reported as missing.
func (r *Registry) Get(id string) (*SessionContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return nil, false
	}
	entry.expiresAt = time.Now().Add(r.ttl)
	return entry.ctx, true
}

// Destroy clears and removes the session with the given ID. Idempotent.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.sessions[id]; ok {
		entry.ctx.Clear()
		delete(r.sessions, id)
	}
}

// Len returns the number of tracked sessions, including not-yet-swept
// expired ones.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sweep removes expired sessions.
func (r *Registry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, entry := range r.sessions {
		if now.After(entry.expiresAt) {
			entry.ctx.Clear()
			delete(r.sessions, id)
		}
	}
}

// RunSweeper periodically removes expired sessions until ctx is cancelled.
// Run it in its own goroutine.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// newSessionID generates a unique session identifier.
func newSessionID() string {
	return "ses-" + uuid.NewString()
}
