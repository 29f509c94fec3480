// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/punishpad/server/network"
)

// Session is one connected participant. A session may be a member of several
// rooms at once; nothing in the protocol enforces exclusivity.
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive time.Time
	rooms      map[string]bool
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
		rooms:      make(map[string]bool),
	}
}

func (s *Session) GetID() string {
	return s.ID
}

// Send pushes a server-initiated event to this connection. Broadcast fan-out
// calls this from several handler goroutines at once.
func (s *Session) Send(eventType string, payload interface{}) error {
	s.touch()
	return s.Conn.Send(eventType, 0, payload)
}

// Ack answers a client request identified by seq.
func (s *Session) Ack(seq uint64, payload interface{}) error {
	s.touch()
	return s.Conn.Send(network.EventAck, seq, payload)
}

func (s *Session) touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

// LastActive reports when this session last wrote to its connection.
func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

// JoinRoom records broadcast-group membership on the session side, so the
// gateway can drop the session from its rooms on disconnect.
func (s *Session) JoinRoom(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.rooms[roomID] = true
}

func (s *Session) LeaveRoom(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.rooms, roomID)
}

// Rooms returns the ids of every room this session has joined.
func (s *Session) Rooms() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks every connected session by id.
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
