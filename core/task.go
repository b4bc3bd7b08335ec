package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the value a task's computation yields at each suspension point.
// States are application-defined small integers used for diagnostics and
// transition tracing; the scheduler attaches no meaning to them.
type State int

// Runner is a resumable computation. Each call to Step runs the task's code
// from its previous suspension point to the next one and returns the state
// the task is in afterwards. Step must complete in a short, bounded amount
// of time: the scheduler is cooperative and cannot take the processor back.
// A Runner must never terminate in normal operation; it suspends and is
// resumed again, indefinitely.
type Runner interface {
	Step() State
}

// StepFunc adapts an ordinary function (usually a closure holding the
// task's state in captured variables) to the Runner interface.
type StepFunc func() State

func (f StepFunc) Step() State { return f() }

// The first two resumptions are excluded from duration statistics; initial
// allocation and setup overhead would otherwise skew the averages.
const warmupRuns = 2

// Default number of trace entries kept before tracing disables itself.
const defaultTraceCapacity = 1000

var (
	sharedClockOnce sync.Once
	sharedClock     *SystemClock
)

func defaultSharedClock() Clock {
	sharedClockOnce.Do(func() {
		sharedClock = NewSystemClock()
	})
	return sharedClock
}

// TaskConfig holds the construction parameters for a Task. Tasks are
// configured once; only the period may change after construction.
type TaskConfig struct {
	// Name is a short descriptive string used in diagnostics.
	Name string

	// Priority is a non-negative integer; higher numbers run first.
	Priority int

	// Period is the interval between timed runs. Zero means the task is
	// event-driven: it runs only after Go() has been called.
	Period time.Duration

	// Profile enables execution-time and lateness statistics.
	Profile bool

	// Trace records (elapsed time, new state) pairs on state transitions.
	// Tracing costs memory and a little time per resumption.
	Trace bool

	// TraceCapacity bounds the transition log. When the log fills up,
	// tracing silently switches itself off. Zero selects the default.
	TraceCapacity int

	// Clock is the time source for readiness and profiling. Nil selects a
	// process-wide system clock.
	Clock Clock
}

type traceRecord struct {
	delta int32 // microseconds since the previous recorded transition
	state State
}

// Task is one schedulable unit of work: a resumable computation plus the
// scheduling, profiling, and tracing state the scheduler keeps for it.
//
// A task is created once at setup, registered into exactly one TaskList,
// and never destroyed. All methods except Go must be called only from the
// scheduling context; Go may be called from any context, including an
// interrupt handler.
type Task struct {
	name     string
	priority int
	clock    Clock

	// Period between timed runs in microseconds; 0 means event-driven.
	periodUS int32
	nextRun  Ticks

	// Set when the task is ready to run; cleared by Schedule. Written from
	// interrupt context by Go, so it must be a single atomic word.
	goFlag atomic.Bool

	runner Runner

	profile bool
	runs    uint32
	runSum  int64 // cumulative step duration, µs, excluding warm-up runs
	slowest int32 // worst single step duration, µs
	lateSum int64 // cumulative lateness, µs (periodic tasks only)
	latest  int32 // worst single lateness, µs

	traceOn   bool
	traceBuf  []traceRecord
	traceCap  int
	prevState State
	prevTime  Ticks

	metrics Metrics
}

// NewTask creates a task ready to be appended to a TaskList. The runner is
// not stepped until the scheduler first finds the task ready.
func NewTask(runner Runner, cfg TaskConfig) *Task {
	if cfg.Name == "" {
		cfg.Name = "NoName"
	}
	if cfg.Clock == nil {
		cfg.Clock = defaultSharedClock()
	}
	if cfg.TraceCapacity <= 0 {
		cfg.TraceCapacity = defaultTraceCapacity
	}

	t := &Task{
		name:     cfg.Name,
		priority: cfg.Priority,
		clock:    cfg.Clock,
		runner:   runner,
		profile:  cfg.Profile,
		traceOn:  cfg.Trace,
		traceCap: cfg.TraceCapacity,
		prevTime: cfg.Clock.Now(),
	}
	if cfg.Period > 0 {
		t.periodUS = DurationToTicks(cfg.Period)
		t.nextRun = TicksAdd(t.clock.Now(), t.periodUS)
	}
	return t
}

// NewTaskFunc is shorthand for NewTask over a StepFunc closure.
func NewTaskFunc(step func() State, cfg TaskConfig) *Task {
	return NewTask(StepFunc(step), cfg)
}

// Name returns the task's diagnostic name.
func (t *Task) Name() string { return t.name }

// Priority returns the task's priority; higher numbers run first.
func (t *Task) Priority() int { return t.priority }

// Periodic reports whether the task is run on a timer rather than by Go().
func (t *Task) Periodic() bool { return t.periodUS > 0 }

// Go marks the task ready so the scheduler will run it at the next
// opportunity. It is safe to call from any context, including an interrupt
// handler or another task which has produced data this task must process.
func (t *Task) Go() {
	t.goFlag.Store(true)
}

// Ready reports whether the task should run on the next scheduling attempt.
//
// For a periodic task this compares the current time against the next
// scheduled fire time using rollover-safe arithmetic; when the deadline has
// arrived the task is marked ready and the deadline advances by exactly one
// period from the deadline itself, not from "now", so lateness never
// accumulates as drift. For an event-driven task this just reads the ready
// flag; only Schedule clears it.
func (t *Task) Ready() bool {
	if t.periodUS > 0 {
		late := TicksDiff(t.clock.Now(), t.nextRun)
		if late >= 0 {
			t.goFlag.Store(true)
			t.nextRun = TicksAdd(t.nextRun, t.periodUS)

			if t.profile {
				t.lateSum += int64(late)
				if late > t.latest {
					t.latest = late
				}
			}
			if t.metrics != nil {
				t.metrics.RecordTaskLate(t.name, time.Duration(late)*time.Microsecond)
			}
		}
	}
	return t.goFlag.Load()
}

// Schedule runs the task's next step if the task is ready.
//
// If the task is not ready it returns false with no side effects. If it is
// ready, the ready flag is cleared, the runner is resumed exactly once to
// its next suspension point, profiling and trace data are updated, and
// true is returned.
func (t *Task) Schedule() bool {
	if !t.Ready() {
		return false
	}

	t.goFlag.Store(false)

	timed := t.profile || t.traceOn || t.metrics != nil
	var stime Ticks
	if timed {
		stime = t.clock.Now()
	}

	currState := t.runner.Step()

	var etime Ticks
	if timed {
		etime = t.clock.Now()
	}

	if t.profile {
		t.runs++
		runt := TicksDiff(etime, stime)
		if t.runs > warmupRuns {
			t.runSum += int64(runt)
			if runt > t.slowest {
				t.slowest = runt
			}
		}
	}
	if t.metrics != nil {
		t.metrics.RecordTaskRun(t.name, t.priority, time.Duration(TicksDiff(etime, stime))*time.Microsecond)
	}

	// Record a transition only when the state actually changed. A full
	// trace buffer switches tracing off rather than failing the task.
	if t.traceOn {
		if currState != t.prevState {
			if len(t.traceBuf) < t.traceCap {
				t.traceBuf = append(t.traceBuf, traceRecord{
					delta: TicksDiff(etime, t.prevTime),
					state: currState,
				})
			} else {
				t.traceOn = false
			}
		}
		t.prevState = currState
		t.prevTime = etime
	}

	return true
}

// SetPeriod changes the interval between timed runs. A zero duration makes
// the task event-driven. The new period takes effect at the next readiness
// check; an already-armed deadline is not moved, except when converting an
// event-driven task to periodic, which arms a fresh deadline one period
// from now.
func (t *Task) SetPeriod(period time.Duration) {
	wasPeriodic := t.periodUS > 0
	if period <= 0 {
		t.periodUS = 0
		return
	}
	t.periodUS = DurationToTicks(period)
	if !wasPeriodic {
		t.nextRun = TicksAdd(t.clock.Now(), t.periodUS)
	}
}

// ResetProfile clears the execution-time and lateness statistics, including
// the run count. Warm-up exclusion starts over after a reset.
func (t *Task) ResetProfile() {
	t.runs = 0
	t.runSum = 0
	t.slowest = 0
	t.lateSum = 0
	t.latest = 0
}

// setMetrics is called by TaskList.Append when the list carries a metrics
// hook.
func (t *Task) setMetrics(m Metrics) {
	if m == nil {
		return
	}
	if _, ok := m.(*NilMetrics); ok {
		return
	}
	t.metrics = m
}

// Stats returns a snapshot of the task's configuration and profiling
// aggregates without mutating anything.
func (t *Task) Stats() TaskStats {
	s := TaskStats{
		Name:     t.name,
		Priority: t.priority,
		Periodic: t.periodUS > 0,
		Period:   time.Duration(t.periodUS) * time.Microsecond,
		Profiled: t.profile,
		Traced:   t.traceOn,
		Runs:     t.runs,
	}
	if t.profile && t.runs > warmupRuns {
		counted := int64(t.runs - warmupRuns)
		s.AvgDuration = time.Duration(t.runSum/counted) * time.Microsecond
		s.MaxDuration = time.Duration(t.slowest) * time.Microsecond
	}
	if t.profile && t.runs > 0 && t.periodUS > 0 {
		s.AvgLate = time.Duration(t.lateSum/int64(t.runs)) * time.Microsecond
		s.MaxLate = time.Duration(t.latest) * time.Microsecond
	}
	return s
}

// Trace renders the recorded state transitions, one per line, with the
// cumulative time in seconds at which each transition occurred.
func (t *Task) Trace() string {
	out := "Task " + t.name + ":"
	if !t.traceOn && len(t.traceBuf) == 0 {
		return out + " not traced"
	}

	out += "\n"
	lastState := State(0)
	totalTime := 0.0
	for _, rec := range t.traceBuf {
		totalTime += float64(rec.delta) / 1e6
		out += fmt.Sprintf("%12.6f: %2d -> %d\n", totalTime, lastState, rec.state)
		lastState = rec.state
	}
	return out
}

// String renders one row of the task diagnostic table: name, priority,
// period, run count, and profiling aggregates when available.
func (t *Task) String() string {
	row := fmt.Sprintf("%-16s%4d", t.name, t.priority)
	if t.periodUS > 0 {
		row += fmt.Sprintf("%10.1f", float64(t.periodUS)/1000.0)
	} else {
		row += "         -"
	}
	row += fmt.Sprintf("%8d", t.runs)

	if t.profile && t.runs > 0 {
		avgDur := 0.0
		maxDur := float64(t.slowest) / 1000.0
		if t.runs > warmupRuns {
			avgDur = float64(t.runSum) / float64(t.runs-warmupRuns) / 1000.0
		}
		row += fmt.Sprintf("%10.3f%10.3f", avgDur, maxDur)
		if t.periodUS > 0 {
			avgLate := float64(t.lateSum) / float64(t.runs) / 1000.0
			row += fmt.Sprintf("%10.3f%10.3f", avgLate, float64(t.latest)/1000.0)
		}
	}
	return row
}
