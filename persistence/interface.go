// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/punishpad/server/models"
)

// Database archives finished sessions. Live room state never touches it; the
// gateway writes records after the fact and failures are tolerated.
type Database interface {
	SaveSessionRecord(record *models.SessionRecord) error
	LoadSessionRecord(roomID string) (*models.SessionRecord, error)
	ListSessionRecords(limit int) ([]models.SessionRecord, error)
	Close() error
}

var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
