// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormSessionRecord is the GORM mapping for archived sessions.
type GormSessionRecord struct {
	gorm.Model
	RoomID      string            `gorm:"uniqueIndex;not null"`
	Phrase      string            `gorm:"not null"`
	Repetition  int               `gorm:"not null"`
	OwnerName   string            `gorm:"not null"`
	PartnerName string            `gorm:"not null"`
	Hits        int               `gorm:"default:0"`
	Misses      int               `gorm:"default:0"`
	Transcript  []TranscriptEntry `gorm:"type:jsonb;serializer:json"`
	FinishedAt  time.Time         `gorm:"index"`
}
