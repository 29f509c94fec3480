// room/room.go
package room

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/punishpad/server/ident"
	"github.com/punishpad/server/session"
)

var ErrRoomNotFound = errors.New("room not found")

// Status is the lifecycle state of a room. It moves from playing to finished
// exactly once and never back.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Message is one transcript entry: a single phrase submission and whether it
// matched. Immutable once appended.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Correct   bool      `json:"correct"`
}

// Room is one punishment session shared by two participants.
//
// The immutable fields (ID, Phrase, Repetition, names, CreatedBy) are safe to
// read at any time. The mutable game fields must only be touched through
// Manager.Mutate, which holds the room's lock for the duration of the
// mutation so that two updates to the same room never interleave.
type Room struct {
	ID          string
	Phrase      string
	Repetition  int
	OwnerName   string
	PartnerName string
	CreatedBy   string
	CreatedAt   time.Time

	Hits          int
	Misses        int
	CurrentPhrase string
	Status        Status
	Messages      []Message
	Tokens        []string

	LastActive time.Time

	mu          sync.Mutex
	memberMutex sync.RWMutex
	members     map[string]*session.Session
}

func newRoom(id, phrase string, repetition int, ownerName, partnerName, createdBy string) *Room {
	now := time.Now()
	return &Room{
		ID:          id,
		Phrase:      strings.TrimSpace(phrase),
		Repetition:  repetition,
		OwnerName:   ownerName,
		PartnerName: partnerName,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		Status:      StatusPlaying,
		Messages:    []Message{},
		Tokens:      []string{},
		LastActive:  now,
		members:     make(map[string]*session.Session),
	}
}

// State is the wire representation of a room, sent in acks and broadcasts.
type State struct {
	RoomID        string    `json:"roomId"`
	Phrase        string    `json:"phrase"`
	Repetition    int       `json:"repetition"`
	OwnerName     string    `json:"ownerName"`
	PartnerName   string    `json:"partnerName"`
	CreatedBy     string    `json:"createdBy"`
	Hits          int       `json:"hits"`
	Misses        int       `json:"misses"`
	CurrentPhrase string    `json:"currentPhrase"`
	Status        Status    `json:"status"`
	Messages      []Message `json:"messages"`
	Tokens        []string  `json:"tokens"`
}

// Snapshot returns a consistent copy of the room for serialization. Callers
// inside Manager.Mutate must use snapshotLocked through the mutation result
// instead; Snapshot takes the room lock itself.
func (r *Room) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() State {
	messages := make([]Message, len(r.Messages))
	copy(messages, r.Messages)
	tokens := make([]string, len(r.Tokens))
	copy(tokens, r.Tokens)
	return State{
		RoomID:        r.ID,
		Phrase:        r.Phrase,
		Repetition:    r.Repetition,
		OwnerName:     r.OwnerName,
		PartnerName:   r.PartnerName,
		CreatedBy:     r.CreatedBy,
		Hits:          r.Hits,
		Misses:        r.Misses,
		CurrentPhrase: r.CurrentPhrase,
		Status:        r.Status,
		Messages:      messages,
		Tokens:        tokens,
	}
}

// AddToken registers a push delivery token, suppressing duplicates. Returns
// false if the token was already present.
func (r *Room) AddToken(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Tokens {
		if t == token {
			return false
		}
	}
	r.Tokens = append(r.Tokens, token)
	return true
}

// --- broadcast group membership ---

// AddMember joins a connection to the room's broadcast group.
func (r *Room) AddMember(s *session.Session) {
	r.memberMutex.Lock()
	defer r.memberMutex.Unlock()
	r.members[s.GetID()] = s
}

// RemoveMember drops a connection from the broadcast group. Game state is
// untouched; disconnects have no room-state side effect.
func (r *Room) RemoveMember(sessionID string) {
	r.memberMutex.Lock()
	defer r.memberMutex.Unlock()
	delete(r.members, sessionID)
}

// GetMembers returns a slice of all member sessions (thread-safe copy).
func (r *Room) GetMembers() []*session.Session {
	r.memberMutex.RLock()
	defer r.memberMutex.RUnlock()

	members := make([]*session.Session, 0, len(r.members))
	for _, s := range r.members {
		members = append(members, s)
	}
	return members
}

// MemberCount returns the current broadcast-group size.
func (r *Room) MemberCount() int {
	r.memberMutex.RLock()
	defer r.memberMutex.RUnlock()
	return len(r.members)
}

// --- room manager ---

// Manager owns every active room. It is the process-wide registry; rooms live
// in memory only and survive until eviction or process exit.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom allocates a fresh room id and stores a new playing room. The id
// is regenerated while it collides with an active room.
func (m *Manager) CreateRoom(phrase string, repetition int, ownerName, partnerName, createdBy string) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := ident.NewRoomID()
	for {
		if _, taken := m.rooms[id]; !taken {
			break
		}
		id = ident.NewRoomID()
	}

	room := newRoom(id, phrase, repetition, ownerName, partnerName, createdBy)
	m.rooms[id] = room
	return room
}

// GetRoom looks up an active room.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Mutate runs fn with the room's lock held. This is the single-mutation-per-
// step contract: fn must not block on external resources, and all game-state
// writes go through here. The returned State is the post-mutation snapshot.
func (m *Manager) Mutate(id string, fn func(*Room) error) (State, error) {
	room, exists := m.GetRoom(id)
	if !exists {
		return State{}, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	room.LastActive = time.Now()
	if err := fn(room); err != nil {
		return room.snapshotLocked(), err
	}
	return room.snapshotLocked(), nil
}

// RemoveRoom evicts a room from the registry.
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, id)
}

// Count returns the number of active rooms.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Rooms returns a snapshot slice of all active rooms.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// Sweep evicts rooms idle longer than idleTTL, and finished rooms idle longer
// than finishedTTL. A zero TTL disables that criterion. Returns the number of
// rooms evicted.
func (m *Manager) Sweep(idleTTL, finishedTTL time.Duration) int {
	now := time.Now()
	evicted := 0

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for id, r := range m.rooms {
		r.mu.Lock()
		last := r.LastActive
		finished := r.Status == StatusFinished
		r.mu.Unlock()

		idle := now.Sub(last)
		switch {
		case finished && finishedTTL > 0 && idle > finishedTTL:
			delete(m.rooms, id)
			evicted++
		case idleTTL > 0 && idle > idleTTL:
			delete(m.rooms, id)
			evicted++
		}
	}
	return evicted
}
