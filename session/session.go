// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/pagerace/network"
)

// Session wraps one live connection. Game identity and progress live on the
// game.Player keyed by the same id; the session only carries transport
// concerns.
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Send(event string, payload interface{}) error {
	return s.Conn.Send(event, payload)
}

// Touch records activity, deferring the idle sweep.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks all live sessions by id.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// IdleSince returns the sessions whose last activity predates the deadline.
func (m *Manager) IdleSince(deadline time.Time) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var idle []*Session
	for _, s := range m.sessions {
		if s.LastActive().Before(deadline) {
			idle = append(idle, s)
		}
	}
	return idle
}
