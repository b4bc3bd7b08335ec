// Package nbinput assembles complete lines of user input from characters
// which arrive one at a time, without ever blocking the caller. A receive
// interrupt or polling task puts raw characters into a queue; a task calls
// Check regularly to drain them, handle editing keys, and collect finished
// lines for whoever asked for input.
package nbinput

import (
	"io"

	"github.com/spluttflob/cotask-go/core"
)

// Lines held before the oldest unread line is discarded.
const defaultMaxLines = 10

const (
	charCR        = '\r'
	charLF        = '\n'
	charBackspace = 0x08
	charDelete    = 0x7f
)

// Config holds the construction parameters for an Input.
type Config struct {
	// Source is the queue raw received characters arrive on: a UART
	// receive interrupt fills it through PutISR on bare metal, a reader
	// goroutine through TryPut on hosted targets.
	Source *core.Queue[uint8]

	// Echo, when non-nil, receives each typed character back so the user
	// can see what they are typing. Nil disables echo.
	Echo io.Writer

	// MaxLines bounds the finished-line buffer. Zero selects the default.
	// When full, the oldest unread line is dropped for the newest.
	MaxLines int
}

// Input is a non-blocking line assembler. All methods must be called from
// task context; only the source queue is touched from interrupts.
type Input struct {
	source   *core.Queue[uint8]
	echo     io.Writer
	partial  []byte
	lines    []string
	maxLines int
	afterCR  bool
}

// New creates a line assembler reading from the given character queue.
func New(cfg Config) *Input {
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = defaultMaxLines
	}
	return &Input{
		source:   cfg.Source,
		echo:     cfg.Echo,
		maxLines: cfg.MaxLines,
	}
}

// Check drains every character currently waiting in the source queue and
// advances line assembly. A carriage return or line feed finishes the
// line, including an empty one; a line feed directly after a carriage
// return is swallowed so CR, LF, and CRLF terminals all work. Backspace
// and delete remove the last unfinished character.
//
// Call Check from a task step often enough that the source queue does not
// overflow at the expected typing or paste rate.
func (in *Input) Check() {
	for {
		ch, ok := in.source.TryGet()
		if !ok {
			return
		}
		switch ch {
		case charCR:
			in.finishLine()
		case charLF:
			if !in.afterCR {
				in.finishLine()
			}
		case charBackspace, charDelete:
			if len(in.partial) > 0 {
				in.partial = in.partial[:len(in.partial)-1]
				in.echoString("\b \b")
			}
		default:
			in.partial = append(in.partial, ch)
			in.echoByte(ch)
		}
		in.afterCR = ch == charCR
	}
}

func (in *Input) finishLine() {
	in.echoString("\r\n")
	in.pushLine(string(in.partial))
	in.partial = in.partial[:0]
}

// Any reports whether at least one finished line is waiting.
func (in *Input) Any() bool {
	return len(in.lines) > 0
}

// Get returns the oldest finished line, without its terminator, and
// whether one was available. It never blocks.
func (in *Input) Get() (string, bool) {
	if len(in.lines) == 0 {
		return "", false
	}
	line := in.lines[0]
	in.lines = in.lines[1:]
	return line, true
}

func (in *Input) pushLine(line string) {
	if len(in.lines) >= in.maxLines {
		in.lines = in.lines[1:]
	}
	in.lines = append(in.lines, line)
}

func (in *Input) echoByte(ch byte) {
	if in.echo != nil {
		in.echo.Write([]byte{ch})
	}
}

func (in *Input) echoString(s string) {
	if in.echo != nil {
		io.WriteString(in.echo, s)
	}
}
