package session

import (
	"sort"
	"sync"

	"healthinsights/domain/core"
	"healthinsights/internal"
	"healthinsights/internal/errors"
	"healthinsights/ports"
)

// Manager is the registry of live sessions. Every session reads from the
// same source but holds its own dataset.
type Manager struct {
	source   ports.DatasetSource
	observer ports.LoadObserver
	logger   *internal.Logger

	mu       sync.Mutex
	sessions map[core.SessionID]*Session
}

// NewManager creates an empty registry. observer may be nil.
func NewManager(source ports.DatasetSource, observer ports.LoadObserver, logger *internal.Logger) *Manager {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Manager{
		source:   source,
		observer: observer,
		logger:   logger.With("Sessions"),
		sessions: make(map[core.SessionID]*Session),
	}
}

// Create registers a new session with a fresh ID. Nothing is loaded yet.
func (m *Manager) Create() *Session {
	s := newSession(core.NewSessionID(), m.source, m.observer, m.logger)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("Created session %s", s.id)
	return s
}

// Get returns the session for id. The default session is created on
// first use; any other unknown id is NOT_FOUND.
func (m *Manager) Get(id core.SessionID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if id == core.DefaultSessionID {
		s := newSession(id, m.source, m.observer, m.logger)
		m.sessions[id] = s
		return s, nil
	}
	return nil, errors.WithCode(errors.CodeNotFound, core.NewSessionNotFoundError(id))
}

// Lookup parses raw and returns its session. An empty string means the
// default session.
func (m *Manager) Lookup(raw string) (*Session, error) {
	if raw == "" {
		return m.Get(core.DefaultSessionID)
	}
	id, err := core.ParseSessionID(raw)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return m.Get(id)
}

// Close drops a session and its dataset.
func (m *Manager) Close(id core.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return errors.WithCode(errors.CodeNotFound, core.NewSessionNotFoundError(id))
	}
	s.close()
	m.logger.Info("Closed session %s", id)
	return nil
}

// IDs lists live sessions in sorted order
func (m *Manager) IDs() []core.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]core.SessionID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
