// broadcast/broadcast.go
package broadcast

import (
	"github.com/punishpad/server/room"
)

// Broadcaster fans an event out to a room's broadcast group. ToRoom includes
// every member; ToOthers excludes the originating connection — live typing
// and join notices are peer-observable events the originator already knows,
// while submission results are room-wide facts the submitter must also see.
type Broadcaster interface {
	BroadcastToRoom(roomID, eventType string, payload interface{}) error
	BroadcastToOthers(roomID, senderID, eventType string, payload interface{}) error
}

// RoomBroadcaster fans out over the room registry's member sets.
type RoomBroadcaster struct {
	roomManager *room.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{roomManager: roomManager}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID, eventType string, payload interface{}) error {
	return b.send(roomID, "", eventType, payload)
}

func (b *RoomBroadcaster) BroadcastToOthers(roomID, senderID, eventType string, payload interface{}) error {
	return b.send(roomID, senderID, eventType, payload)
}

func (b *RoomBroadcaster) send(roomID, excludeID, eventType string, payload interface{}) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		// Relay events tolerate a missing room as a no-op broadcast.
		return room.ErrRoomNotFound
	}

	for _, s := range r.GetMembers() {
		if excludeID != "" && s.GetID() == excludeID {
			continue
		}
		if err := s.Send(eventType, payload); err != nil {
			// A dead member must not block the rest of the fan-out; the
			// reader loop notices the broken connection and cleans up.
			continue
		}
	}
	return nil
}
