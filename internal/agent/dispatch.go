package agent

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/bunshin-agent/internal/config"
)

// Default pauses inside simulated work. Tests zero these out.
const (
	DefaultStepPause  = 500 * time.Millisecond
	DefaultThinkPause = 200 * time.Millisecond
)

// simulateSteps are the fixed progress steps for the simulate command.
var simulateSteps = []string{
	"Analyzing requirements",
	"Planning approach",
	"Implementing solution",
	"Testing",
	"Finalizing",
}

// CommandRecorder persists dispatched commands. Implemented by
// transcript.Store; nil disables recording.
type CommandRecorder interface {
	Record(seq int, command, verb string) error
}

// Dispatcher maps input lines to handlers. It stays in the running state for
// every input except quit/exit, which makes Dispatch return true.
type Dispatcher struct {
	Session  *Session
	Log      *Logger
	Recorder CommandRecorder

	// Environment access, injectable for tests.
	Environ   func() []string
	LookupEnv func(string) (string, bool)

	StepPause  time.Duration
	ThinkPause time.Duration
}

// NewDispatcher creates a dispatcher with process environment access and
// default pauses.
func NewDispatcher(s *Session, log *Logger) *Dispatcher {
	return &Dispatcher{
		Session:    s,
		Log:        log,
		Environ:    os.Environ,
		LookupEnv:  os.LookupEnv,
		StepPause:  DefaultStepPause,
		ThinkPause: DefaultThinkPause,
	}
}

// Dispatch processes one input line. Blank lines are ignored and do not count.
// Returns true when the agent should stop.
func (d *Dispatcher) Dispatch(ctx context.Context, line string) bool {
	command := strings.TrimSpace(line)
	if command == "" {
		return false
	}

	seq := d.Session.NextCommand()
	d.Log.Infof("Received command #%d: %s", seq, command)

	verb, stop := d.handle(ctx, command)

	if d.Recorder != nil {
		if err := d.Recorder.Record(seq, command, verb); err != nil {
			d.Log.Errorf("transcript: record command #%d: %v", seq, err)
		}
	}
	return stop
}

// handle runs the matched handler and reports the dispatch verb. Prefix
// matches are case-insensitive on the verb; the payload keeps its original
// form. Anything that is not a known command (including malformed env
// sub-forms like "envelope") falls through to the simulated AI response.
func (d *Dispatcher) handle(ctx context.Context, command string) (verb string, stop bool) {
	lower := strings.ToLower(command)

	switch {
	case lower == "quit" || lower == "exit":
		d.Log.Info("Received quit command, shutting down...")
		return "quit", true
	case lower == "help":
		d.showHelp()
		return "help", false
	case lower == "status":
		d.showStatus()
		return "status", false
	case lower == "ping":
		d.Log.Infof("Pong! Agent %s is alive", d.Session.AgentName)
		return "ping", false
	case strings.HasPrefix(lower, "echo "):
		d.Log.Infof("Echo: %s", command[len("echo "):])
		return "echo", false
	case strings.HasPrefix(lower, "simulate "):
		d.simulateTask(ctx, command[len("simulate "):])
		return "simulate", false
	case lower == "error":
		d.Log.Error("This is a simulated error for testing purposes")
		return "error", false
	case strings.HasPrefix(lower, "sleep "):
		d.doSleep(ctx, command[len("sleep "):])
		return "sleep", false
	case lower == "env":
		d.showEnvironment()
		return "env", false
	case strings.HasPrefix(lower, "env "):
		d.showEnvVar(command[len("env "):])
		return "env", false
	default:
		d.simulateResponse(ctx, command)
		return "respond", false
	}
}

func (d *Dispatcher) showHelp() {
	d.Log.Info("Available commands:")
	d.Log.Info("  help        - Show this help message")
	d.Log.Info("  status      - Show agent status")
	d.Log.Info("  ping        - Test agent responsiveness")
	d.Log.Info("  echo <text> - Echo back the text")
	d.Log.Info("  simulate <task> - Simulate working on a task")
	d.Log.Info("  sleep <seconds> - Sleep for specified seconds")
	d.Log.Info("  error       - Generate a test error")
	d.Log.Info("  env [var]   - Show environment variables")
	d.Log.Info("  quit/exit   - Shutdown the agent")
	d.Log.Info("  <anything else> - Simulate AI model response")
}

func (d *Dispatcher) showStatus() {
	d.Log.Info("Agent Status:")
	d.Log.Infof("  Agent ID: %s", d.Session.AgentID)
	d.Log.Infof("  Name: %s", d.Session.AgentName)
	d.Log.Infof("  Model: %s", d.Session.Model)
	d.Log.Infof("  Uptime: %s", d.Session.UptimeClock())
	d.Log.Infof("  Commands processed: %d", d.Session.CommandCount())
	d.Log.Infof("  Process ID: %d", os.Getpid())
}

// showEnvironment lists all BUNSHIN_* variables sorted by name.
func (d *Dispatcher) showEnvironment() {
	d.Log.Info("Bunshin Environment Variables:")

	var entries []string
	for _, kv := range d.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix) {
			entries = append(entries, kv)
		}
	}
	if len(entries) == 0 {
		d.Log.Infof("  No %s* environment variables found", config.EnvPrefix)
		return
	}

	sort.Strings(entries)
	for _, kv := range entries {
		name, value, _ := strings.Cut(kv, "=")
		d.Log.Infof("  %s: %s", name, value)
	}
}

func (d *Dispatcher) showEnvVar(name string) {
	value, ok := d.LookupEnv(name)
	if !ok {
		value = "<not set>"
	}
	d.Log.Infof("Environment variable %s: %s", name, value)
}

// simulateTask emits fixed progress steps with a short pause after each.
func (d *Dispatcher) simulateTask(ctx context.Context, task string) {
	d.Log.Infof("Starting to work on task: %s", task)
	for i, step := range simulateSteps {
		d.Log.Infof("  [%d/%d] %s...", i+1, len(simulateSteps), step)
		sleepContext(ctx, d.StepPause)
	}
	d.Log.Infof("Task completed: %s", task)
}

func (d *Dispatcher) doSleep(ctx context.Context, arg string) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		d.Log.Error("Invalid sleep duration. Usage: sleep <seconds>")
		return
	}
	d.Log.Infof("Sleeping for %g seconds...", seconds)
	sleepContext(ctx, time.Duration(seconds*float64(time.Second)))
	d.Log.Infof("Awake after %g seconds", seconds)
}

// simulateResponse emits canned output shaped by the configured model name.
func (d *Dispatcher) simulateResponse(ctx context.Context, prompt string) {
	model := strings.ToLower(d.Session.Model)

	switch {
	case strings.Contains(model, "claude"):
		d.Log.Infof("Claude-style response to: '%s'", prompt)
		d.Log.Info("I'm Claude, an AI assistant. I'd be happy to help you with that task.")
		d.Log.Info("Let me think through this step by step...")
	case strings.Contains(model, "gpt"):
		d.Log.Infof("GPT-style response to: '%s'", prompt)
		d.Log.Info("As an AI language model, I can assist you with various tasks.")
		d.Log.Info("Here's my response to your request...")
	default:
		d.Log.Infof("AI response to: '%s'", prompt)
		d.Log.Info("Processing your request using advanced AI capabilities...")
	}

	sleepContext(ctx, d.ThinkPause)
	d.Log.Info("Response complete. How else can I help?")
}

// sleepContext sleeps for d but returns early if ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
