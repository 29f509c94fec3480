// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/punishpad/server/models"
)

// PostgreSQL is the plain database/sql archive store, for deployments that
// prefer raw SQL over GORM.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS session_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) UNIQUE NOT NULL,
            phrase TEXT NOT NULL,
            repetition INT NOT NULL,
            owner_name VARCHAR(255) NOT NULL,
            partner_name VARCHAR(255) NOT NULL,
            hits INT NOT NULL DEFAULT 0,
            misses INT NOT NULL DEFAULT 0,
            transcript JSONB NOT NULL,
            finished_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_session_records_finished_at ON session_records(finished_at);
    `)
	return err
}

func (p *PostgreSQL) SaveSessionRecord(record *models.SessionRecord) error {
	transcript, err := json.Marshal(record.Transcript)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO session_records
            (room_id, phrase, repetition, owner_name, partner_name, hits, misses, transcript, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (room_id)
        DO UPDATE SET hits = $6, misses = $7, transcript = $8, finished_at = $9
    `

	_, err = p.db.ExecContext(ctx, query,
		record.RoomID, record.Phrase, record.Repetition,
		record.OwnerName, record.PartnerName,
		record.Hits, record.Misses, transcript, record.FinishedAt)
	return err
}

func (p *PostgreSQL) LoadSessionRecord(roomID string) (*models.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var record models.SessionRecord
	var transcript []byte
	query := `
        SELECT room_id, phrase, repetition, owner_name, partner_name, hits, misses, transcript, finished_at
        FROM session_records WHERE room_id = $1
    `
	err := p.db.QueryRowContext(ctx, query, roomID).Scan(
		&record.RoomID, &record.Phrase, &record.Repetition,
		&record.OwnerName, &record.PartnerName,
		&record.Hits, &record.Misses, &transcript, &record.FinishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(transcript, &record.Transcript); err != nil {
		return nil, err
	}
	return &record, nil
}

func (p *PostgreSQL) ListSessionRecords(limit int) ([]models.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        SELECT room_id, phrase, repetition, owner_name, partner_name, hits, misses, transcript, finished_at
        FROM session_records ORDER BY finished_at DESC LIMIT $1
    `
	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SessionRecord
	for rows.Next() {
		var record models.SessionRecord
		var transcript []byte
		if err := rows.Scan(
			&record.RoomID, &record.Phrase, &record.Repetition,
			&record.OwnerName, &record.PartnerName,
			&record.Hits, &record.Misses, &transcript, &record.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(transcript, &record.Transcript); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
