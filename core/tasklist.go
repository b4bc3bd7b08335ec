package core

import (
	"context"
	"runtime"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// Algorithm selects which scheduling policy TaskList.Run applies.
type Algorithm int

const (
	// AlgorithmPriority runs the single highest-priority ready task per
	// scheduler invocation.
	AlgorithmPriority Algorithm = iota

	// AlgorithmRoundRobin gives every task one chance to run per pass.
	AlgorithmRoundRobin
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmPriority:
		return "priority"
	case AlgorithmRoundRobin:
		return "round_robin"
	default:
		return "unknown"
	}
}

// priorityGroup is the set of tasks sharing one priority level. The cursor
// persists across scheduler invocations so a task which just ran moves to
// the back of the group's rotation.
type priorityGroup struct {
	priority int
	tasks    []*Task
	next     int
}

// TaskListConfig holds optional collaborators for a TaskList.
// All fields are optional; if not provided, default implementations will be used.
type TaskListConfig struct {
	// Metrics receives per-run duration and lateness events. Defaults to NilMetrics.
	Metrics Metrics

	// Logger receives lifecycle messages from Run. Defaults to NoOpLogger.
	Logger Logger
}

// DefaultTaskListConfig returns a config with default collaborators.
func DefaultTaskListConfig() *TaskListConfig {
	return &TaskListConfig{
		Metrics: &NilMetrics{},
		Logger:  NewNoOpLogger(),
	}
}

// TaskList holds the tasks a scheduler runs, grouped by priority. Groups
// are kept ordered from highest to lowest priority; within a group tasks
// rotate round-robin. One list exists for the life of the process: tasks
// are appended before the scheduling loop starts and never removed.
type TaskList struct {
	// groups maps priority -> *priorityGroup, iterated highest first.
	groups  *treemap.Map
	count   int
	metrics Metrics
	logger  Logger
}

// NewTaskList creates an empty task list.
func NewTaskList() *TaskList {
	return NewTaskListWithConfig(DefaultTaskListConfig())
}

// NewTaskListWithConfig creates an empty task list with the given
// collaborators.
func NewTaskListWithConfig(cfg *TaskListConfig) *TaskList {
	tl := &TaskList{
		groups: treemap.NewWith(byDescendingPriority),
	}
	if cfg != nil {
		tl.metrics = cfg.Metrics
		tl.logger = cfg.Logger
	}
	if tl.metrics == nil {
		tl.metrics = &NilMetrics{}
	}
	if tl.logger == nil {
		tl.logger = NewNoOpLogger()
	}
	return tl
}

// byDescendingPriority orders the group map so iteration visits the
// highest priority first.
func byDescendingPriority(a, b interface{}) int {
	return utils.IntComparator(b, a)
}

// Append inserts a task into the group matching its priority, creating the
// group if absent.
func (tl *TaskList) Append(task *Task) {
	task.setMetrics(tl.metrics)

	if v, found := tl.groups.Get(task.Priority()); found {
		group := v.(*priorityGroup)
		group.tasks = append(group.tasks, task)
	} else {
		tl.groups.Put(task.Priority(), &priorityGroup{
			priority: task.Priority(),
			tasks:    []*Task{task},
		})
	}
	tl.count++
}

// Len returns the number of appended tasks.
func (tl *TaskList) Len() int {
	return tl.count
}

// RoundRobinSchedule gives every task one chance to run, ignoring
// priorities in the long run: each full pass visits every group from
// highest to lowest priority and calls Schedule on every task, without
// stopping early. No task is starved relative to any other within a pass,
// but higher-priority groups still go first for programs which react to
// early results within the same pass.
func (tl *TaskList) RoundRobinSchedule() {
	it := tl.groups.Iterator()
	for it.Next() {
		group := it.Value().(*priorityGroup)
		for _, task := range group.tasks {
			task.Schedule()
		}
	}
}

// PrioritySchedule runs at most one task: the first ready task found
// walking the groups from highest to lowest priority, trying the tasks
// within each group in rotation order from the persisted cursor. The
// cursor advances after every attempt, so equal-priority tasks share the
// processor round-robin while a newly-ready high-priority task still wins
// the very next invocation. Returns false when no task anywhere was ready;
// the caller busy-waits by calling again if continuous polling is wanted.
func (tl *TaskList) PrioritySchedule() bool {
	it := tl.groups.Iterator()
	for it.Next() {
		group := it.Value().(*priorityGroup)
		for tries := 0; tries < len(group.tasks); tries++ {
			task := group.tasks[group.next]
			ran := task.Schedule()
			group.next++
			if group.next >= len(group.tasks) {
				group.next = 0
			}
			if ran {
				return true
			}
		}
	}
	return false
}

// Run polls the chosen scheduling algorithm until the context is
// cancelled. When a priority-schedule invocation runs nothing, the loop
// yields the processor before polling again so a hosted target does not
// spin a core at 100% against an idle task set.
func (tl *TaskList) Run(ctx context.Context, algo Algorithm) {
	tl.logger.Info("scheduler running",
		F("algorithm", algo.String()), F("tasks", tl.count))

	for {
		if ctx.Err() != nil {
			tl.logger.Info("scheduler stopped", F("reason", ctx.Err()))
			return
		}

		switch algo {
		case AlgorithmRoundRobin:
			tl.RoundRobinSchedule()
			runtime.Gosched()
		default:
			if !tl.PrioritySchedule() {
				runtime.Gosched()
			}
		}
	}
}

// Tasks returns the tasks in scheduling order: groups from highest to
// lowest priority, insertion order within a group.
func (tl *TaskList) Tasks() []*Task {
	out := make([]*Task, 0, tl.count)
	it := tl.groups.Iterator()
	for it.Next() {
		group := it.Value().(*priorityGroup)
		out = append(out, group.tasks...)
	}
	return out
}

// Stats returns a snapshot row for every task, in scheduling order,
// without mutating any task.
func (tl *TaskList) Stats() []TaskStats {
	tasks := tl.Tasks()
	stats := make([]TaskStats, 0, len(tasks))
	for _, task := range tasks {
		stats = append(stats, task.Stats())
	}
	return stats
}

const taskTableHeader = "TASK             PRI    PERIOD    RUNS   AVG DUR   MAX DUR  AVG LATE  MAX LATE\n"

// String renders a human-readable table of all tasks with their profiling
// aggregates.
func (tl *TaskList) String() string {
	out := taskTableHeader
	for _, task := range tl.Tasks() {
		out += task.String() + "\n"
	}
	return out
}
