package agent

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// timeLayout is the timestamp prefix on every log line.
const timeLayout = "2006-01-02 15:04:05"

// Log levels.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// Logger writes timestamped log lines to out. ERROR-level messages are
// additionally written to errOut as bare "ERROR: <msg>" lines so a supervisor
// can scrape stderr without parsing timestamps. Writes go straight to the
// underlying writers with no buffering layer, and a mutex keeps lines from the
// heartbeat and status goroutines intact.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

// NewLogger creates a Logger writing to out and errOut.
func NewLogger(out, errOut io.Writer) *Logger {
	return &Logger{out: out, errOut: errOut, now: time.Now}
}

// Info logs a message at INFO level.
func (l *Logger) Info(msg string) {
	l.emit(LevelInfo, msg)
}

// Infof logs a formatted message at INFO level.
func (l *Logger) Infof(format string, args ...any) {
	l.emit(LevelInfo, fmt.Sprintf(format, args...))
}

// Error logs a message at ERROR level and mirrors it to errOut.
func (l *Logger) Error(msg string) {
	l.emit(LevelError, msg)
}

// Errorf logs a formatted message at ERROR level and mirrors it to errOut.
func (l *Logger) Errorf(format string, args ...any) {
	l.emit(LevelError, fmt.Sprintf(format, args...))
}

func (l *Logger) emit(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] [%s] %s\n", l.now().Format(timeLayout), level, msg)
	if level == LevelError && l.errOut != nil {
		fmt.Fprintf(l.errOut, "ERROR: %s\n", msg)
	}
}
