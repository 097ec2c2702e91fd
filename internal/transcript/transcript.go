// Package transcript persists dispatched commands to a sqlite database.
package transcript

import (
	"fmt"
	"time"

	"github.com/zulandar/bunshin-agent/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (creating if needed) the sqlite transcript database at path and
// runs migrations.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("transcript: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&models.TranscriptEntry{}); err != nil {
		return nil, fmt.Errorf("transcript: migrate: %w", err)
	}
	return db, nil
}

// Store appends command records for one agent session.
type Store struct {
	db        *gorm.DB
	sessionID string
	agentID   string
}

// New creates a Store bound to a session and agent identity.
func New(db *gorm.DB, sessionID, agentID string) *Store {
	return &Store{db: db, sessionID: sessionID, agentID: agentID}
}

// Record inserts one transcript row.
func (s *Store) Record(seq int, command, verb string) error {
	entry := models.TranscriptEntry{
		SessionID: s.sessionID,
		AgentID:   s.agentID,
		Seq:       seq,
		Command:   command,
		Verb:      verb,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("transcript: record #%d: %w", seq, err)
	}
	return nil
}

// Recent returns the most recent n entries for a session, newest first.
func Recent(db *gorm.DB, sessionID string, n int) ([]models.TranscriptEntry, error) {
	var entries []models.TranscriptEntry
	err := db.Where("session_id = ?", sessionID).
		Order("id DESC").Limit(n).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("transcript: query session %s: %w", sessionID, err)
	}
	return entries, nil
}
