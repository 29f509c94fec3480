// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/punishpad/server/models"
)

// GormPostgreSQL is the GORM-backed archive store.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormSessionRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveSessionRecord(record *models.SessionRecord) error {
	row := models.GormSessionRecord{
		RoomID:      record.RoomID,
		Phrase:      record.Phrase,
		Repetition:  record.Repetition,
		OwnerName:   record.OwnerName,
		PartnerName: record.PartnerName,
		Hits:        record.Hits,
		Misses:      record.Misses,
		Transcript:  record.Transcript,
		FinishedAt:  record.FinishedAt,
	}

	// Upsert on room id: a room finishes once, but a retried archive write
	// must not fail on the unique index.
	var existing models.GormSessionRecord
	err := p.db.Where("room_id = ?", record.RoomID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p.db.Create(&row).Error
	} else if err != nil {
		return err
	}

	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	return p.db.Save(&row).Error
}

func (p *GormPostgreSQL) LoadSessionRecord(roomID string) (*models.SessionRecord, error) {
	var row models.GormSessionRecord
	if err := p.db.Where("room_id = ?", roomID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toSessionRecord(&row), nil
}

func (p *GormPostgreSQL) ListSessionRecords(limit int) ([]models.SessionRecord, error) {
	var rows []models.GormSessionRecord
	if err := p.db.Order("finished_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.SessionRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *toSessionRecord(&rows[i]))
	}
	return records, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toSessionRecord(row *models.GormSessionRecord) *models.SessionRecord {
	return &models.SessionRecord{
		RoomID:      row.RoomID,
		Phrase:      row.Phrase,
		Repetition:  row.Repetition,
		OwnerName:   row.OwnerName,
		PartnerName: row.PartnerName,
		Hits:        row.Hits,
		Misses:      row.Misses,
		Transcript:  row.Transcript,
		FinishedAt:  row.FinishedAt,
	}
}
