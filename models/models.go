// models/models.go
package models

import (
	"time"
)

// SessionRecord is the archived form of a finished room: everything worth
// keeping once the live room has been evicted.
type SessionRecord struct {
	RoomID      string            `json:"room_id"`
	Phrase      string            `json:"phrase"`
	Repetition  int               `json:"repetition"`
	OwnerName   string            `json:"owner_name"`
	PartnerName string            `json:"partner_name"`
	Hits        int               `json:"hits"`
	Misses      int               `json:"misses"`
	Transcript  []TranscriptEntry `json:"transcript"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// TranscriptEntry mirrors one room transcript message in the archive.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Correct   bool      `json:"correct"`
}

// SessionStats summarizes archived sessions for the ops surface.
type SessionStats struct {
	TotalSessions int     `json:"total_sessions"`
	TotalHits     int     `json:"total_hits"`
	TotalMisses   int     `json:"total_misses"`
	Accuracy      float64 `json:"accuracy"`
}
