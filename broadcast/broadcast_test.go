package broadcast

import (
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/punishpad/server/network"
	"github.com/punishpad/server/room"
	"github.com/punishpad/server/session"
)

// MockConnection records outbound events for assertions.
type MockConnection struct {
	mu   sync.Mutex
	sent []string
}

func (m *MockConnection) Send(eventType string, seq uint64, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, eventType)
	return nil
}

func (m *MockConnection) ReadEvent() (*network.Event, error) { return nil, nil }
func (m *MockConnection) Close() error                       { return nil }
func (m *MockConnection) RemoteAddr() net.Addr               { return &net.TCPAddr{} }

func (m *MockConnection) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// FailingConnection always errors on send.
type FailingConnection struct {
	MockConnection
}

func (f *FailingConnection) Send(eventType string, seq uint64, payload interface{}) error {
	return errors.New("connection reset")
}

func setupRoom(t *testing.T) (*room.Manager, *room.Room, *MockConnection, *MockConnection) {
	t.Helper()
	manager := room.NewManager()
	r := manager.CreateRoom("hello", 3, "owner", "partner", "s1")

	c1 := &MockConnection{}
	c2 := &MockConnection{}
	r.AddMember(session.NewSession("s1", c1))
	r.AddMember(session.NewSession("s2", c2))
	return manager, r, c1, c2
}

func TestBroadcastToRoom_IncludesEveryone(t *testing.T) {
	manager, r, c1, c2 := setupRoom(t)
	b := NewRoomBroadcaster(manager)

	if err := b.BroadcastToRoom(r.ID, network.EventPhraseSubmitted, nil); err != nil {
		t.Fatalf("BroadcastToRoom failed: %v", err)
	}

	if c1.count() != 1 || c2.count() != 1 {
		t.Errorf("Expected both members to receive the event, got %d and %d", c1.count(), c2.count())
	}
}

func TestBroadcastToOthers_ExcludesSender(t *testing.T) {
	manager, r, c1, c2 := setupRoom(t)
	b := NewRoomBroadcaster(manager)

	if err := b.BroadcastToOthers(r.ID, "s1", network.EventTyping, nil); err != nil {
		t.Fatalf("BroadcastToOthers failed: %v", err)
	}

	if c1.count() != 0 {
		t.Errorf("Sender must not receive its own typing event, got %d", c1.count())
	}
	if c2.count() != 1 {
		t.Errorf("Peer should receive the typing event, got %d", c2.count())
	}
}

func TestBroadcast_UnknownRoom(t *testing.T) {
	manager := room.NewManager()
	b := NewRoomBroadcaster(manager)

	err := b.BroadcastToRoom("ghost", network.EventTyping, nil)
	if err != room.ErrRoomNotFound {
		t.Fatalf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestBroadcast_DeadMemberDoesNotBlockFanout(t *testing.T) {
	manager := room.NewManager()
	r := manager.CreateRoom("hello", 3, "owner", "partner", "s1")

	dead := &FailingConnection{}
	alive := &MockConnection{}
	r.AddMember(session.NewSession("dead", dead))
	r.AddMember(session.NewSession("alive", alive))

	b := NewRoomBroadcaster(manager)
	if err := b.BroadcastToRoom(r.ID, network.EventRoomFinished, nil); err != nil {
		t.Fatalf("BroadcastToRoom failed: %v", err)
	}

	if alive.count() != 1 {
		t.Errorf("Healthy member should still receive the event, got %d", alive.count())
	}
}
