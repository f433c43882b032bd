package services

import (
	"log/slog"
	"sync"

	"github.com/lendkit/decisor/pkg/engine"
)

// SessionStore tracks the live editing sessions of this process. Sessions are
// never persisted; closing one discards its state.
type SessionStore struct {
	engine engine.API
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Builder
}

// NewSessionStore creates an empty store.
func NewSessionStore(engineAPI engine.API, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		engine:   engineAPI,
		logger:   logger,
		sessions: map[string]*Builder{},
	}
}

// Create registers a new editing session.
func (s *SessionStore) Create() *Builder {
	builder := NewBuilder(s.engine, s.logger)

	s.mu.Lock()
	s.sessions[builder.ID()] = builder
	s.mu.Unlock()

	return builder
}

// Get returns the session with the given identifier.
func (s *SessionStore) Get(id string) (*Builder, error) {
	s.mu.RLock()
	builder, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	return builder, nil
}

// Close discards a session. Late fetch responses for it are dropped by the
// builder itself.
func (s *SessionStore) Close(id string) error {
	s.mu.Lock()
	builder, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	builder.Close()

	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
