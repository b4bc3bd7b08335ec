package nbinput

import (
	"bytes"
	"runtime"
	"testing"
	"time"

	"github.com/spluttflob/cotask-go/core"
)

func newSource(t *testing.T, size int) *core.Queue[uint8] {
	t.Helper()
	q, err := core.NewQueue[uint8](core.QueueConfig{
		Size:          size,
		ThreadProtect: true,
		Name:          "rx",
	})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	return q
}

func typeString(q *core.Queue[uint8], s string) {
	for i := 0; i < len(s); i++ {
		q.TryPut(s[i])
	}
}

// TestInput_AssemblesLine verifies basic line collection
// Given: Characters of a command followed by a carriage return in the
//        source queue
// When: Check is called
// Then: Any reports a line and Get returns the command without the CR
func TestInput_AssemblesLine(t *testing.T) {
	q := newSource(t, 64)
	in := New(Config{Source: q})

	typeString(q, "set speed 100\r")
	in.Check()

	if !in.Any() {
		t.Fatal("Any() = false after a complete line, want true")
	}
	line, ok := in.Get()
	if !ok || line != "set speed 100" {
		t.Errorf("Get() = (%q, %v), want (\"set speed 100\", true)", line, ok)
	}
	if in.Any() {
		t.Error("Any() = true after the only line was taken, want false")
	}
}

// TestInput_PartialLineNotVisible verifies incomplete input stays hidden
func TestInput_PartialLineNotVisible(t *testing.T) {
	q := newSource(t, 64)
	in := New(Config{Source: q})

	typeString(q, "hel")
	in.Check()

	if in.Any() {
		t.Error("Any() = true with no terminator yet, want false")
	}
	if _, ok := in.Get(); ok {
		t.Error("Get() returned a line before the terminator arrived")
	}

	// The rest of the line arrives across a later Check
	typeString(q, "lo\r")
	in.Check()
	if line, _ := in.Get(); line != "hello" {
		t.Errorf("Get() = %q, want %q", line, "hello")
	}
}

// TestInput_BackspaceEditsLine verifies editing keys
// Given: Typed characters including backspaces
// When: The line is terminated
// Then: The collected line reflects the edits
func TestInput_BackspaceEditsLine(t *testing.T) {
	q := newSource(t, 64)
	in := New(Config{Source: q})

	typeString(q, "stop\x08\x08art\r")
	in.Check()

	if line, _ := in.Get(); line != "start" {
		t.Errorf("Get() = %q, want %q", line, "start")
	}
}

// TestInput_BackspaceOnEmptyLine verifies editing past the start is a no-op
func TestInput_BackspaceOnEmptyLine(t *testing.T) {
	q := newSource(t, 16)
	in := New(Config{Source: q})

	typeString(q, "\x08\x7fok\r")
	in.Check()

	if line, _ := in.Get(); line != "ok" {
		t.Errorf("Get() = %q, want %q", line, "ok")
	}
}

// TestInput_CRLFProducesOneLine verifies LF after CR is swallowed
func TestInput_CRLFProducesOneLine(t *testing.T) {
	q := newSource(t, 64)
	in := New(Config{Source: q})

	typeString(q, "first\r\nsecond\r\n")
	in.Check()

	if line, _ := in.Get(); line != "first" {
		t.Errorf("first Get() = %q, want %q", line, "first")
	}
	if line, _ := in.Get(); line != "second" {
		t.Errorf("second Get() = %q, want %q", line, "second")
	}
	if in.Any() {
		t.Error("stray empty line produced by LF characters")
	}
}

// TestInput_LFTerminatesToo verifies bare-LF terminals work as well
func TestInput_LFTerminatesToo(t *testing.T) {
	q := newSource(t, 64)
	in := New(Config{Source: q})

	typeString(q, "stats\n")
	in.Check()

	if line, _ := in.Get(); line != "stats" {
		t.Errorf("Get() = %q, want %q", line, "stats")
	}
}

// TestInput_EmptyLineFromBareCR verifies a lone CR yields an empty line
func TestInput_EmptyLineFromBareCR(t *testing.T) {
	q := newSource(t, 8)
	in := New(Config{Source: q})

	typeString(q, "\r")
	in.Check()

	line, ok := in.Get()
	if !ok || line != "" {
		t.Errorf("Get() = (%q, %v), want (\"\", true)", line, ok)
	}
}

// TestInput_Echo verifies typed characters and edits are echoed back
func TestInput_Echo(t *testing.T) {
	q := newSource(t, 64)
	var echo bytes.Buffer
	in := New(Config{Source: q, Echo: &echo})

	typeString(q, "ab\x08c\r")
	in.Check()

	want := "ab\b \bc\r\n"
	if got := echo.String(); got != want {
		t.Errorf("echo = %q, want %q", got, want)
	}
}

// TestInput_FeederGoroutine verifies the hosted receive path: a reader
// goroutine feeding the source queue while Check drains it
// Given: A goroutine typing a command through the guarded TryPut
// When: Check and Get poll from the test goroutine
// Then: The complete line arrives intact
func TestInput_FeederGoroutine(t *testing.T) {
	q := newSource(t, 8)
	in := New(Config{Source: q})

	const line = "set speed 100\r"
	go func() {
		for i := 0; i < len(line); i++ {
			for !q.TryPut(line[i]) {
				runtime.Gosched()
			}
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		in.Check()
		if got, ok := in.Get(); ok {
			if got != "set speed 100" {
				t.Errorf("Get() = %q, want %q", got, "set speed 100")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("no line assembled before deadline")
		}
		runtime.Gosched()
	}
}

// TestInput_OldestLineDroppedWhenFull verifies the bounded line buffer
func TestInput_OldestLineDroppedWhenFull(t *testing.T) {
	q := newSource(t, 64)
	in := New(Config{Source: q, MaxLines: 2})

	typeString(q, "a\rb\rc\r")
	in.Check()

	if line, _ := in.Get(); line != "b" {
		t.Errorf("Get() = %q, want %q after oldest was dropped", line, "b")
	}
	if line, _ := in.Get(); line != "c" {
		t.Errorf("Get() = %q, want %q", line, "c")
	}
}
