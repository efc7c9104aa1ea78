package controller

import (
	"sync"

	"go.uber.org/zap"

	"github.com/becomeliminal/acc-agent/memory"
	"github.com/becomeliminal/acc-agent/oracle"
	"github.com/becomeliminal/acc-agent/settings"
)

// DefaultSessionID is used when a caller names no session.
const DefaultSessionID = "default"

// Registry maps session ids to sessions, creating them on first use.
// All sessions share the oracle, the memory stores and the settings
// directory; each loads its own settings cell.
type Registry struct {
	oracle oracle.Oracle
	memory *memory.Manager
	dir    *settings.Dir
	opts   []Option
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(o oracle.Oracle, mem *memory.Manager, dir *settings.Dir, opts ...Option) *Registry {
	return &Registry{
		oracle:   o,
		memory:   mem,
		dir:      dir,
		opts:     opts,
		logger:   buildOptions(opts).logger.Named("controller"),
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it if needed. An empty id
// means DefaultSessionID.
func (r *Registry) Get(id string) (*Session, error) {
	if id == "" {
		id = DefaultSessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	s, err := NewSession(id, r.oracle, r.memory, r.dir, r.opts...)
	if err != nil {
		return nil, err
	}
	r.sessions[id] = s
	r.logger.Info("session created", zap.String("session_id", id))
	return s, nil
}

// Lookup returns an existing session without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	if id == "" {
		id = DefaultSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// ReloadSettings re-reads the documents into every session's cell. It is
// the callback for a settings.Watcher on the shared directory.
func (r *Registry) ReloadSettings() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Cell().Reload(); err != nil {
			r.logger.Warn("reload settings failed", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}
}

// Close drains and stops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
