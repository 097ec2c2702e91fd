package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// StopReason describes how the read loop terminated.
type StopReason int

const (
	StopQuit      StopReason = iota // quit/exit command
	StopEOF                         // input stream closed
	StopInterrupt                   // interrupt signal
)

// maxLineSize bounds a single input line (1 MiB).
const maxLineSize = 1024 * 1024

// Loop reads newline-delimited commands and feeds them to the dispatcher.
type Loop struct {
	Dispatcher *Dispatcher
	Log        *Logger
	Session    *Session
}

// Run blocks reading lines from r until a quit command, end of input, or
// context cancellation. Each termination path gets its own log line; a scanner
// failure is the only error return.
func (l *Loop) Run(ctx context.Context, r io.Reader) (StopReason, error) {
	l.Log.Info("Agent listening for commands...")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			l.Log.Info("Received interrupt signal, shutting down gracefully...")
			return StopInterrupt, nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return StopEOF, fmt.Errorf("agent: read input: %w", err)
				}
				l.Log.Info("Input stream closed, shutting down...")
				return StopEOF, nil
			}
			if l.Dispatcher.Dispatch(ctx, line) {
				return StopQuit, nil
			}
		}
	}
}

// Summary logs total uptime and commands processed. Called on every graceful
// termination path.
func (l *Loop) Summary() {
	l.Log.Infof("Agent %s shutting down after %.1f seconds", l.Session.AgentName, l.Session.Uptime().Seconds())
	l.Log.Infof("  Processed %d commands", l.Session.CommandCount())
}

// StartupBanner logs the identification block a supervisor sees first.
func StartupBanner(log *Logger, s *Session) {
	log.Infof("Bunshin Agent %s (%s) starting", s.AgentName, s.AgentID)
	log.Infof("   Model: %s", s.Model)
	if s.SessionGenerated {
		log.Infof("   Session: %s (generated)", s.SessionID)
	} else {
		log.Infof("   Session: %s", s.SessionID)
	}
	log.Infof("   Window: %s", orDash(s.WindowID))
	if s.Project != "" {
		log.Infof("   Project: %s", s.Project)
	}
	if s.Task != "" {
		log.Infof("   Task: %s", s.Task)
	}
	if wd, err := os.Getwd(); err == nil {
		log.Infof("   Working Directory: %s", wd)
	}
	log.Info("")
	log.Info("Type 'help' for available commands, 'quit' to exit.")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
