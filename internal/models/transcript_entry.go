// Package models defines the GORM entities persisted by the agent.
package models

import "time"

// TranscriptEntry records one dispatched command so orchestrator test suites
// can assert on what the agent received after the process exits.
type TranscriptEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:64;index"`
	AgentID   string `gorm:"size:64;index"`
	Seq       int    `gorm:"not null"`
	Command   string `gorm:"type:text"`
	Verb      string `gorm:"size:16"`
	CreatedAt time.Time
}
