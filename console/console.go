// Package console buffers diagnostic output through a queue so that tasks
// and background goroutines can print without blocking on a slow output
// device. Characters go into a queue immediately; a low-priority
// task drains them to the real writer a few at a time, stealing processor
// time only when nothing more important is ready.
package console

import (
	"io"
	"os"

	"github.com/spluttflob/cotask-go/core"
)

// Default capacity of the character buffer.
const defaultBufSize = 1000

// Characters written to the device per task resumption. Draining the whole
// buffer in one step could hold the processor too long.
const charsPerStep = 8

// Config holds the construction parameters for a Console.
type Config struct {
	// Size is the character buffer capacity. Zero selects the default.
	Size int

	// Writer is the output device. Nil selects standard output.
	Writer io.Writer

	// Priority for the drain task. Printing should usually be the lowest
	// priority in the system, so this defaults to zero.
	Priority int

	// Name for the drain task and the underlying queue.
	Name string

	// Registry to report the buffer queue into, for diagnostic dumps.
	Registry *core.Registry
}

// Console is a queue-buffered character output channel.
type Console struct {
	queue *core.Queue[uint8]
	task  *core.Task
	out   io.Writer
}

// New creates a console and its drain task. The task must be appended to
// the scheduler's task list for output to appear.
func New(cfg Config) (*Console, error) {
	if cfg.Size <= 0 {
		cfg.Size = defaultBufSize
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Name == "" {
		cfg.Name = "Printing"
	}

	q, err := core.NewQueue[uint8](core.QueueConfig{
		Size:          cfg.Size,
		ThreadProtect: true,
		Name:          cfg.Name,
		Registry:      cfg.Registry,
	})
	if err != nil {
		return nil, err
	}

	c := &Console{queue: q, out: cfg.Writer}
	c.task = core.NewTaskFunc(c.step, core.TaskConfig{
		Name:     cfg.Name,
		Priority: cfg.Priority,
	})
	return c, nil
}

// Task returns the drain task for appending to a TaskList.
func (c *Console) Task() *core.Task {
	return c.task
}

// Put buffers a string for printing. Characters which do not fit in the
// buffer are dropped rather than blocking the caller; a print channel must
// never stall the task that is doing real work.
func (c *Console) Put(s string) {
	c.PutBytes([]byte(s))
}

// PutBytes buffers raw bytes for printing, dropping what does not fit. It
// may be called from any task or goroutine; the queue's critical section
// covers each character transfer.
func (c *Console) PutBytes(b []byte) {
	for _, ch := range b {
		if !c.queue.TryPut(ch) {
			break
		}
	}
	if c.queue.Any() {
		c.task.Go()
	}
}

// step drains a few characters per resumption. If data remains the task
// re-arms itself so the scheduler comes back when nothing else is ready.
func (c *Console) step() core.State {
	var buf [charsPerStep]byte
	n := 0
	for n < charsPerStep {
		ch, ok := c.queue.TryGet()
		if !ok {
			break
		}
		buf[n] = ch
		n++
	}
	if n > 0 {
		c.out.Write(buf[:n])
	}
	if c.queue.Any() {
		c.task.Go()
		return 1
	}
	return 0
}
