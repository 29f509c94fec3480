// services/archive_service.go
package services

import (
	"time"

	"github.com/punishpad/server/models"
	"github.com/punishpad/server/persistence"
	"github.com/punishpad/server/room"
)

// ArchiveService writes finished sessions to the archive store and serves
// lookups for the ops surface. A nil database makes every call a no-op, so
// the server runs fine without Postgres.
type ArchiveService struct {
	db persistence.Database
}

func NewArchiveService(db persistence.Database) *ArchiveService {
	return &ArchiveService{db: db}
}

// Enabled reports whether an archive store is configured.
func (s *ArchiveService) Enabled() bool {
	return s.db != nil
}

// ArchiveRoom persists a finished room snapshot.
func (s *ArchiveService) ArchiveRoom(state room.State, finishedAt time.Time) error {
	if s.db == nil {
		return nil
	}

	transcript := make([]models.TranscriptEntry, 0, len(state.Messages))
	for _, m := range state.Messages {
		transcript = append(transcript, models.TranscriptEntry{
			ID:        m.ID,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			Correct:   m.Correct,
		})
	}

	return s.db.SaveSessionRecord(&models.SessionRecord{
		RoomID:      state.RoomID,
		Phrase:      state.Phrase,
		Repetition:  state.Repetition,
		OwnerName:   state.OwnerName,
		PartnerName: state.PartnerName,
		Hits:        state.Hits,
		Misses:      state.Misses,
		Transcript:  transcript,
		FinishedAt:  finishedAt,
	})
}

// GetSessionRecord returns one archived session by room id.
func (s *ArchiveService) GetSessionRecord(roomID string) (*models.SessionRecord, error) {
	if s.db == nil {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.LoadSessionRecord(roomID)
}

// History returns the most recently finished sessions.
func (s *ArchiveService) History(limit int) ([]models.SessionRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.ListSessionRecords(limit)
}

// Stats aggregates the archived sessions.
func (s *ArchiveService) Stats(limit int) (*models.SessionStats, error) {
	records, err := s.History(limit)
	if err != nil {
		return nil, err
	}

	stats := &models.SessionStats{TotalSessions: len(records)}
	for _, r := range records {
		stats.TotalHits += r.Hits
		stats.TotalMisses += r.Misses
	}
	if total := stats.TotalHits + stats.TotalMisses; total > 0 {
		stats.Accuracy = float64(stats.TotalHits) / float64(total)
	}
	return stats, nil
}
