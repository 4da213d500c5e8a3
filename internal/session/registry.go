package session

import (
	"sync"

	"github.com/memohai/wagate/internal/transport"
)

// Session is the live handle for one tenant. All mutable fields are guarded
// by mu; the manager is the only writer.
type Session struct {
	tenantID string

	mu        sync.Mutex
	state     State
	transport transport.ChatTransport
	artifact  string
	waiters   map[*Gate]struct{}
}

func newSession(tenantID string) *Session {
	return &Session{
		tenantID: tenantID,
		state:    StateUnpaired,
		waiters:  map[*Gate]struct{}{},
	}
}

// TenantID returns the owning tenant.
func (s *Session) TenantID() string { return s.tenantID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsReady reports whether the session can send.
func (s *Session) IsReady() bool {
	return s.State() == StateReady
}

// Transport returns the attached transport, nil once torn down.
func (s *Session) Transport() transport.ChatTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

// Snapshot copies the observable state under the session lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{TenantID: s.tenantID, State: s.state, QRImageURL: s.artifact}
}

func (s *Session) fireAllLocked(o Outcome) {
	for g := range s.waiters {
		g.Fire(o)
	}
}

// Registry maps tenant ids to their single live Session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// GetOrCreate returns the tenant's session, creating it when absent.
// created is true only for the caller that inserted it.
func (r *Registry) GetOrCreate(tenantID string) (sess *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[tenantID]; ok {
		return s, false
	}
	s := newSession(tenantID)
	r.sessions[tenantID] = s
	return s, true
}

// Get returns the tenant's session if one is live.
func (r *Registry) Get(tenantID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tenantID]
	return s, ok
}

// Remove drops the tenant's entry unconditionally.
func (r *Registry) Remove(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tenantID)
}

// RemoveIf drops sess only if it is still the tenant's current entry.
func (r *Registry) RemoveIf(sess *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[sess.tenantID]; ok && cur == sess {
		delete(r.sessions, sess.tenantID)
		return true
	}
	return false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sessions returns a copy of the live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
