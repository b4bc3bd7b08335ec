package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// orderRunner appends its label to a shared log on every resumption.
type orderRunner struct {
	log   *[]string
	label string
}

func (r *orderRunner) Step() State {
	*r.log = append(*r.log, r.label)
	return 0
}

func newOrderTask(log *[]string, label string, priority int, clock Clock) *Task {
	return NewTask(&orderRunner{log: log, label: label}, TaskConfig{
		Name:     label,
		Priority: priority,
		Clock:    clock,
	})
}

// TestTaskList_PrioritySchedule verifies strict priority with round-robin
// fairness among equals
// Given: Tasks A and B at priority 5 and C at priority 1, all kept ready
// When: PrioritySchedule is called repeatedly
// Then: C never runs while A or B is ready, and A and B alternate in
//       insertion order
func TestTaskList_PrioritySchedule(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	a := newOrderTask(&log, "A", 5, clock)
	b := newOrderTask(&log, "B", 5, clock)
	c := newOrderTask(&log, "C", 1, clock)

	tl := NewTaskList()
	tl.Append(a)
	tl.Append(b)
	tl.Append(c)

	for i := 0; i < 4; i++ {
		a.Go()
		b.Go()
		c.Go()
		if !tl.PrioritySchedule() {
			t.Fatalf("invocation %d: PrioritySchedule() = false, want true", i)
		}
	}

	want := []string{"A", "B", "A", "B"}
	if strings.Join(log, "") != strings.Join(want, "") {
		t.Errorf("execution order = %v, want %v", log, want)
	}
}

// TestTaskList_PriorityScheduleFallsThrough verifies lower priorities run
// when higher groups are idle
// Given: A high-priority task which is not ready and a low-priority task
//        which is
// When: PrioritySchedule is called
// Then: The low-priority task runs
func TestTaskList_PriorityScheduleFallsThrough(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	high := newOrderTask(&log, "H", 9, clock)
	low := newOrderTask(&log, "L", 2, clock)

	tl := NewTaskList()
	tl.Append(high)
	tl.Append(low)

	low.Go()
	if !tl.PrioritySchedule() {
		t.Fatal("PrioritySchedule() = false, want true")
	}
	if len(log) != 1 || log[0] != "L" {
		t.Errorf("execution log = %v, want [L]", log)
	}
}

// TestTaskList_PriorityScheduleNothingReady verifies the idle case
func TestTaskList_PriorityScheduleNothingReady(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	tl := NewTaskList()
	tl.Append(newOrderTask(&log, "A", 3, clock))

	if tl.PrioritySchedule() {
		t.Error("PrioritySchedule() with nothing ready = true, want false")
	}
	if len(log) != 0 {
		t.Errorf("execution log = %v, want empty", log)
	}
}

// TestTaskList_RoundRobinSchedule verifies one full pass runs every task
// Given: Tasks A and B at priority 10 and C at priority 1, all ready
// When: RoundRobinSchedule is called once
// Then: A, B, and C each run exactly once, in that relative order
func TestTaskList_RoundRobinSchedule(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	a := newOrderTask(&log, "A", 10, clock)
	b := newOrderTask(&log, "B", 10, clock)
	c := newOrderTask(&log, "C", 1, clock)

	tl := NewTaskList()
	tl.Append(a)
	tl.Append(b)
	tl.Append(c)

	a.Go()
	b.Go()
	c.Go()
	tl.RoundRobinSchedule()

	want := "ABC"
	if got := strings.Join(log, ""); got != want {
		t.Errorf("pass order = %q, want %q", got, want)
	}
}

// TestTaskList_CursorPersistsAcrossInvocations verifies the rotation
// cursor survives between scheduler calls
// Given: Tasks A and B at the same priority where only A is made ready
//        twice in a row
// When: B becomes ready afterwards
// Then: B runs next because the cursor rotated past A
func TestTaskList_CursorPersistsAcrossInvocations(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	a := newOrderTask(&log, "A", 4, clock)
	b := newOrderTask(&log, "B", 4, clock)

	tl := NewTaskList()
	tl.Append(a)
	tl.Append(b)

	a.Go()
	tl.PrioritySchedule() // A runs, cursor now at B
	a.Go()
	b.Go()
	tl.PrioritySchedule() // B's turn in the rotation

	want := "AB"
	if got := strings.Join(log, ""); got != want {
		t.Errorf("execution order = %q, want %q", got, want)
	}
}

// TestTaskList_AppendCreatesSortedGroups verifies group ordering
// Given: Tasks appended with priorities out of order
// When: Tasks() is read
// Then: Groups are ordered from highest to lowest priority
func TestTaskList_AppendCreatesSortedGroups(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	tl := NewTaskList()
	tl.Append(newOrderTask(&log, "low", 1, clock))
	tl.Append(newOrderTask(&log, "high", 8, clock))
	tl.Append(newOrderTask(&log, "mid", 4, clock))
	tl.Append(newOrderTask(&log, "high2", 8, clock))

	var names []string
	for _, task := range tl.Tasks() {
		names = append(names, task.Name())
	}
	want := []string{"high", "high2", "mid", "low"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("task order = %v, want %v", names, want)
	}
	if tl.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tl.Len())
	}
}

// TestTaskList_String verifies the diagnostic table
func TestTaskList_String(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	tl := NewTaskList()
	tl.Append(newOrderTask(&log, "Printer", 0, clock))

	table := tl.String()
	if !strings.Contains(table, "TASK") || !strings.Contains(table, "PRI") {
		t.Errorf("table missing header:\n%s", table)
	}
	if !strings.Contains(table, "Printer") {
		t.Errorf("table missing task row:\n%s", table)
	}
}

// TestTaskList_StatsDoesNotMutate verifies snapshots are read-only
func TestTaskList_StatsDoesNotMutate(t *testing.T) {
	clock := NewManualClock(0)
	var log []string

	a := newOrderTask(&log, "A", 2, clock)
	tl := NewTaskList()
	tl.Append(a)

	a.Go()
	tl.PrioritySchedule()

	before := len(log)
	stats := tl.Stats()
	if len(stats) != 1 || stats[0].Name != "A" {
		t.Fatalf("stats = %+v, want one entry for A", stats)
	}
	if len(log) != before {
		t.Error("Stats() caused a task to run")
	}
}

// recordingMetrics captures metrics hook invocations.
type recordingMetrics struct {
	mu    sync.Mutex
	runs  []string
	lates []string
}

func (m *recordingMetrics) RecordTaskRun(task string, priority int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, task)
}

func (m *recordingMetrics) RecordTaskLate(task string, lateness time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lates = append(m.lates, task)
}

// TestTaskList_MetricsHook verifies per-run metrics flow through Append
// Given: A task list configured with a metrics collector
// When: A periodic task is scheduled past its deadline
// Then: The collector sees both the run and its lateness
func TestTaskList_MetricsHook(t *testing.T) {
	clock := NewManualClock(0)
	metrics := &recordingMetrics{}

	tl := NewTaskListWithConfig(&TaskListConfig{Metrics: metrics})
	task := NewTask(&countingRunner{}, TaskConfig{
		Name:   "observed",
		Period: 10 * time.Millisecond,
		Clock:  clock,
	})
	tl.Append(task)

	clock.Set(15_000)
	if !tl.PrioritySchedule() {
		t.Fatal("PrioritySchedule() = false, want true")
	}

	if len(metrics.runs) != 1 || metrics.runs[0] != "observed" {
		t.Errorf("recorded runs = %v, want [observed]", metrics.runs)
	}
	if len(metrics.lates) != 1 || metrics.lates[0] != "observed" {
		t.Errorf("recorded latenesses = %v, want [observed]", metrics.lates)
	}
}

// TestTaskList_RunHonorsContext verifies the polling loop stops on cancel
func TestTaskList_RunHonorsContext(t *testing.T) {
	tl := NewTaskList()
	tl.Append(NewTask(&countingRunner{}, TaskConfig{Name: "idle", Clock: NewManualClock(0)}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tl.Run(ctx, AlgorithmPriority)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
