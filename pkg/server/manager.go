package server

import (
	"log/slog"
	"sync"
)

// SessionManager tracks live sessions and enforces the session limit.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limit    int
	logger   *slog.Logger
}

// NewSessionManager creates a manager. limit 0 means unlimited.
func NewSessionManager(limit int, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		limit:    limit,
		logger:   logger,
	}
}

// Add registers a session, failing when the limit is reached.
func (m *SessionManager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.limit > 0 && len(m.sessions) >= m.limit {
		return ErrTooManySessions
	}
	m.sessions[s.ID] = s
	return nil
}

// Remove drops a session from the manager. Removing an unknown id is a
// no-op.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Get returns the session with the given id.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session. Used during shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
