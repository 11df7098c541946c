package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/moyeora/server/internal/domain"
)

type connEntry struct {
	Conn   SignalConnection
	Cancel context.CancelFunc
}

// Registry owns the per-connection state: the transport endpoint bound at
// upgrade time, and the presence Session created when the connection joins
// a space. A connection may be registered without a Session (it connected
// but never joined anywhere).
type Registry struct {
	mu       sync.RWMutex
	conns    map[domain.ConnID]*connEntry
	sessions map[domain.ConnID]*domain.Session
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[domain.ConnID]*connEntry),
		sessions: make(map[domain.ConnID]*domain.Session),
	}
}

// BindConn attaches a transport endpoint to a connection id, replacing any
// previous binding for the same id.
func (r *Registry) BindConn(id domain.ConnID, conn SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "core.registry").Str("cid", string(id)).Msg("bound connection")
}

// UnbindConn detaches the transport endpoint; no-op if absent.
func (r *Registry) UnbindConn(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "core.registry").Str("cid", string(id)).Msg("unbound connection")
}

// Conn returns the live transport endpoint for a connection id.
// A missing endpoint is a normal outcome, not an error.
func (r *Registry) Conn(id domain.ConnID) (SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// Put inserts or overwrites the session for a connection id.
func (r *Registry) Put(id domain.ConnID, s *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
	log.Info().Str("module", "core.registry").Str("cid", string(id)).
		Int("space", s.SpaceID).Msg("stored session")
}

// Get looks up the session for a connection id. Absence is a normal,
// expected outcome (event for a connection that never joined, or already
// disconnected); callers treat it as a soft failure.
func (r *Registry) Get(id domain.ConnID) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the session; no-op if absent.
func (r *Registry) Remove(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	log.Info().Str("module", "core.registry").Str("cid", string(id)).Msg("removed session")
}

// All returns a snapshot of every live session, in no particular order.
// Values are copies: callers read them outside the lock, concurrently with
// position updates on the originals.
func (r *Registry) All() []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

// Cancel fires the cancel func bound to a connection, forcing its pumps to
// stop. Used when the server side decides the connection has to go.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "core.registry").Str("cid", string(id)).Msg("canceled connection")
	return true
}
