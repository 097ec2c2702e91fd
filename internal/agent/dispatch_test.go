package agent

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

// testDispatcher returns a dispatcher with zeroed pauses, a captured
// environment, and buffers for stdout/stderr.
func testDispatcher(model string) (*Dispatcher, *bytes.Buffer, *bytes.Buffer) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	d := NewDispatcher(testSession(model), NewLogger(out, errOut))
	d.StepPause = 0
	d.ThinkPause = 0
	d.Environ = func() []string { return nil }
	d.LookupEnv = func(string) (string, bool) { return "", false }
	return d, out, errOut
}

func TestDispatch_BlankLineIgnored(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")

	if stop := d.Dispatch(context.Background(), "   "); stop {
		t.Error("blank line returned stop = true")
	}
	if d.Session.CommandCount() != 0 {
		t.Errorf("CommandCount = %d after blank line, want 0", d.Session.CommandCount())
	}
	if out.Len() != 0 {
		t.Errorf("output = %q after blank line, want none", out.String())
	}
}

func TestDispatch_CounterIncrements(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")

	d.Dispatch(context.Background(), "ping")
	d.Dispatch(context.Background(), "")
	d.Dispatch(context.Background(), "ping")

	if d.Session.CommandCount() != 2 {
		t.Errorf("CommandCount = %d, want 2", d.Session.CommandCount())
	}
	if !strings.Contains(out.String(), "Received command #1: ping") {
		t.Errorf("output missing command #1 line: %q", out.String())
	}
	if !strings.Contains(out.String(), "Received command #2: ping") {
		t.Errorf("output missing command #2 line: %q", out.String())
	}
}

func TestDispatch_QuitAndExit(t *testing.T) {
	for _, cmd := range []string{"quit", "QUIT", "exit", "Exit"} {
		d, out, _ := testDispatcher("claude-test")
		if stop := d.Dispatch(context.Background(), cmd); !stop {
			t.Errorf("Dispatch(%q) stop = false, want true", cmd)
		}
		if !strings.Contains(out.String(), "Received quit command") {
			t.Errorf("Dispatch(%q) output = %q, want quit message", cmd, out.String())
		}
	}
}

func TestDispatch_Ping(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "ping")
	if !strings.Contains(out.String(), "Pong! Agent tester is alive") {
		t.Errorf("output = %q, want pong line", out.String())
	}
}

func TestDispatch_Help(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "help")
	for _, want := range []string{"Available commands:", "echo <text>", "quit/exit"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestDispatch_EchoVerbatim(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "echo Hello, World!  [MiXeD] case")
	if !strings.Contains(out.String(), "Echo: Hello, World!  [MiXeD] case") {
		t.Errorf("output = %q, want verbatim echo payload", out.String())
	}
}

func TestDispatch_Status(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "ping")
	d.Dispatch(context.Background(), "status")

	o := out.String()
	for _, want := range []string{
		"Agent Status:",
		"Agent ID: eng-1",
		"Name: tester",
		"Model: claude-test",
		"Uptime: 00:00:0",
		"Commands processed: 2",
		"Process ID: ",
	} {
		if !strings.Contains(o, want) {
			t.Errorf("status output missing %q in %q", want, o)
		}
	}
}

func TestDispatch_Error(t *testing.T) {
	d, out, errOut := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "error")

	if !strings.Contains(out.String(), "[ERROR] This is a simulated error for testing purposes") {
		t.Errorf("stdout = %q, want simulated error line", out.String())
	}
	if !strings.Contains(errOut.String(), "ERROR: This is a simulated error") {
		t.Errorf("stderr = %q, want mirrored error", errOut.String())
	}
}

func TestDispatch_SleepInvalid(t *testing.T) {
	d, _, errOut := testDispatcher("claude-test")

	start := time.Now()
	d.Dispatch(context.Background(), "sleep abc")
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("invalid sleep blocked for %s, want immediate return", elapsed)
	}
	if !strings.Contains(errOut.String(), "Invalid sleep duration") {
		t.Errorf("stderr = %q, want invalid duration error", errOut.String())
	}
}

func TestDispatch_SleepValid(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")

	start := time.Now()
	d.Dispatch(context.Background(), "sleep 0.05")
	elapsed := time.Since(start)

	if elapsed < 40*time.Millisecond {
		t.Errorf("sleep 0.05 blocked only %s, want ~50ms", elapsed)
	}
	if !strings.Contains(out.String(), "Sleeping for 0.05 seconds...") {
		t.Errorf("output = %q, want sleeping line", out.String())
	}
	if !strings.Contains(out.String(), "Awake after 0.05 seconds") {
		t.Errorf("output = %q, want wake line", out.String())
	}
}

func TestDispatch_SleepCancelled(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	d.Dispatch(ctx, "sleep 60")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancelled sleep blocked for %s, want prompt return", elapsed)
	}
	if !strings.Contains(out.String(), "Awake after 60 seconds") {
		t.Errorf("output = %q, want wake line even when cancelled", out.String())
	}
}

func TestDispatch_EnvListEmpty(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "env")
	if !strings.Contains(out.String(), "No BUNSHIN_* environment variables found") {
		t.Errorf("output = %q, want none-found message", out.String())
	}
}

func TestDispatch_EnvListSorted(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.Environ = func() []string {
		return []string{
			"PATH=/usr/bin",
			"BUNSHIN_TASK=review",
			"BUNSHIN_AGENT_ID=eng-7",
			"HOME=/root",
			"BUNSHIN_PROJECT=railyard",
		}
	}

	d.Dispatch(context.Background(), "env")
	o := out.String()

	if strings.Contains(o, "PATH") || strings.Contains(o, "HOME") {
		t.Errorf("output includes non-prefixed variables: %q", o)
	}
	idx := func(s string) int { return strings.Index(o, s) }
	agentIdx, projIdx, taskIdx := idx("BUNSHIN_AGENT_ID: eng-7"), idx("BUNSHIN_PROJECT: railyard"), idx("BUNSHIN_TASK: review")
	if agentIdx < 0 || projIdx < 0 || taskIdx < 0 {
		t.Fatalf("output missing expected entries: %q", o)
	}
	if !(agentIdx < projIdx && projIdx < taskIdx) {
		t.Errorf("entries not sorted by name: %q", o)
	}
}

func TestDispatch_EnvSingle(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.LookupEnv = func(name string) (string, bool) {
		if name == "BUNSHIN_FOO" {
			return "bar", true
		}
		return "", false
	}

	d.Dispatch(context.Background(), "env BUNSHIN_FOO")
	if !strings.Contains(out.String(), "Environment variable BUNSHIN_FOO: bar") {
		t.Errorf("output = %q, want variable value", out.String())
	}

	d.Dispatch(context.Background(), "env MISSING")
	if !strings.Contains(out.String(), "Environment variable MISSING: <not set>") {
		t.Errorf("output = %q, want <not set> marker", out.String())
	}
}

func TestDispatch_EnvMalformedFallsThrough(t *testing.T) {
	// "envelope" starts with "env" but is not an env command. It takes the
	// unknown-command branch.
	d, out, _ := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "envelope")
	if !strings.Contains(out.String(), "Claude-style response to: 'envelope'") {
		t.Errorf("output = %q, want AI-response branch", out.String())
	}
}

func TestDispatch_SimulateSteps(t *testing.T) {
	d, out, _ := testDispatcher("claude-test")
	d.Dispatch(context.Background(), "simulate build")

	o := out.String()
	if !strings.Contains(o, "Starting to work on task: build") {
		t.Errorf("output missing start line: %q", o)
	}
	for i := 1; i <= 5; i++ {
		if !strings.Contains(o, fmt.Sprintf("[%d/5]", i)) {
			t.Errorf("output missing step [%d/5]: %q", i, o)
		}
	}
	if !strings.Contains(o, "Task completed: build") {
		t.Errorf("output missing completion line: %q", o)
	}
}

func TestDispatch_ResponseBranches(t *testing.T) {
	cases := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4-5", "Claude-style response to: 'tell me a joke'"},
		{"gpt-4o", "GPT-style response to: 'tell me a joke'"},
		{"llama-3", "AI response to: 'tell me a joke'"},
	}
	for _, c := range cases {
		d, out, _ := testDispatcher(c.model)
		d.Dispatch(context.Background(), "tell me a joke")
		if !strings.Contains(out.String(), c.want) {
			t.Errorf("model %s: output = %q, want %q", c.model, out.String(), c.want)
		}
		if !strings.Contains(out.String(), "Response complete. How else can I help?") {
			t.Errorf("model %s: output missing closing line", c.model)
		}
	}
}

// captureRecorder records calls and optionally fails.
type captureRecorder struct {
	seqs  []int
	cmds  []string
	verbs []string
	fail  error
}

func (r *captureRecorder) Record(seq int, command, verb string) error {
	r.seqs = append(r.seqs, seq)
	r.cmds = append(r.cmds, command)
	r.verbs = append(r.verbs, verb)
	return r.fail
}

func TestDispatch_RecordsCommands(t *testing.T) {
	d, _, _ := testDispatcher("claude-test")
	rec := &captureRecorder{}
	d.Recorder = rec

	d.Dispatch(context.Background(), "ping")
	d.Dispatch(context.Background(), "")
	d.Dispatch(context.Background(), "echo hi")
	d.Dispatch(context.Background(), "quit")

	if len(rec.seqs) != 3 {
		t.Fatalf("recorded %d commands, want 3", len(rec.seqs))
	}
	if rec.seqs[0] != 1 || rec.seqs[1] != 2 || rec.seqs[2] != 3 {
		t.Errorf("seqs = %v, want [1 2 3]", rec.seqs)
	}
	if rec.verbs[0] != "ping" || rec.verbs[1] != "echo" || rec.verbs[2] != "quit" {
		t.Errorf("verbs = %v, want [ping echo quit]", rec.verbs)
	}
	if rec.cmds[1] != "echo hi" {
		t.Errorf("cmds[1] = %q, want raw command text", rec.cmds[1])
	}
}

func TestDispatch_RecorderFailureIsNonFatal(t *testing.T) {
	d, _, errOut := testDispatcher("claude-test")
	d.Recorder = &captureRecorder{fail: fmt.Errorf("disk full")}

	if stop := d.Dispatch(context.Background(), "ping"); stop {
		t.Error("recorder failure stopped the loop")
	}
	if !strings.Contains(errOut.String(), "disk full") {
		t.Errorf("stderr = %q, want recorder error logged", errOut.String())
	}
}
