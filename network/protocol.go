package network

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event types.
const (
	EventCreateRoom        = "create-room"
	EventJoinRoom          = "join-room"
	EventTyping            = "typing"
	EventSubmitPhrase      = "submit-phrase"
	EventPunishmentMessage = "punishment-message"
)

// Outbound event types.
const (
	EventAck             = "ack"
	EventJoinedRoom      = "joined-room"
	EventPhraseSubmitted = "phrase-submitted"
	EventMessageAdded    = "message-added"
	EventRoomFinished    = "room-finished"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Event is the wire envelope. Every frame carries exactly one event; requests
// that expect a response set Seq, and the server answers with a single ack
// envelope carrying the same Seq.
type Event struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeEvent parses and validates one envelope. The event type must be one
// of the closed inbound set; anything else is rejected at the boundary.
// Decode failures return a non-nil event alongside the error, so callers can
// tell a bad frame (drop it, keep the connection) from a dead transport.
func DecodeEvent(frame []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		return &ev, fmt.Errorf("malformed event envelope: %w", err)
	}
	switch ev.Type {
	case EventCreateRoom, EventJoinRoom, EventTyping, EventSubmitPhrase, EventPunishmentMessage:
		return &ev, nil
	default:
		return &ev, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

// --- inbound payloads ---

// CreateRoomRequest carries the room parameters. Repetitions arrives as a
// string straight from a form field and is parsed server-side.
type CreateRoomRequest struct {
	Repetitions string `json:"repetitions"`
	Phrase      string `json:"phrase"`
	OwnerName   string `json:"ownerName"`
	PartnerName string `json:"partnerName"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type TypingRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type SubmitPhraseRequest struct {
	RoomID string `json:"roomId"`
	Phrase string `json:"phrase"`
	// Date is the client-side submission timestamp, RFC3339.
	Date string `json:"date"`
}

type PunishmentMessageRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// --- outbound payloads ---

type JoinedRoomNotice struct {
	RoomID       string `json:"roomId"`
	ConnectionID string `json:"connectionId"`
}

type TypingNotice struct {
	Text string `json:"text"`
}

type PhraseSubmittedNotice struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

type RoomFinishedNotice struct {
	RoomID string `json:"roomId"`
}

type PunishmentMessageNotice struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// AckError is the error form of an ack payload.
type AckError struct {
	Error string `json:"error"`
}
