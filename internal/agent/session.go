// Package agent implements the command-loop agent: session state, logging,
// command dispatch, and the stdin read loop.
package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/zulandar/bunshin-agent/internal/config"
)

// Session is the in-memory record of one agent run. The command counter is
// guarded by a mutex because the status server and heartbeat read it from
// their own goroutines.
type Session struct {
	Model            string
	AgentID          string
	AgentName        string
	Project          string
	Task             string
	SessionID        string
	SessionGenerated bool
	WindowID         string
	StartedAt        time.Time

	mu       sync.Mutex
	commands int
}

// NewSession creates a session from resolved configuration.
func NewSession(cfg *config.Config) *Session {
	return &Session{
		Model:            cfg.Model,
		AgentID:          cfg.AgentID,
		AgentName:        cfg.AgentName,
		Project:          cfg.Project,
		Task:             cfg.Task,
		SessionID:        cfg.SessionID,
		SessionGenerated: cfg.SessionGenerated,
		WindowID:         cfg.WindowID,
		StartedAt:        time.Now(),
	}
}

// NextCommand increments the command counter and returns the new 1-based value.
func (s *Session) NextCommand() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands++
	return s.commands
}

// CommandCount returns the number of commands processed so far.
func (s *Session) CommandCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands
}

// Uptime returns the elapsed time since the session started.
func (s *Session) Uptime() time.Duration {
	return time.Since(s.StartedAt)
}

// UptimeClock returns the uptime formatted as HH:MM:SS.
func (s *Session) UptimeClock() string {
	return formatClock(s.Uptime())
}

// formatClock formats a duration as zero-padded HH:MM:SS.
func formatClock(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
