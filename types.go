package cotask

import "github.com/spluttflob/cotask-go/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the cotask package for most use cases.

// Task is one schedulable unit of work
type Task = core.Task

// TaskConfig holds the construction parameters for a Task
type TaskConfig = core.TaskConfig

// TaskList holds tasks grouped by priority and runs the scheduler
type TaskList = core.TaskList

// TaskListConfig holds optional collaborators for a TaskList
type TaskListConfig = core.TaskListConfig

// State is the value a task's step yields at each suspension point
type State = core.State

// Runner is a resumable computation
type Runner = core.Runner

// StepFunc adapts a closure to the Runner interface
type StepFunc = core.StepFunc

// Algorithm selects the scheduling policy for TaskList.Run
type Algorithm = core.Algorithm

// Queue is an interrupt-safe FIFO ring buffer
type Queue[T core.Elem] = core.Queue[T]

// QueueConfig holds the construction parameters for a Queue
type QueueConfig = core.QueueConfig

// Share is an interrupt-safe single-value slot
type Share[T core.Elem] = core.Share[T]

// ShareConfig holds the construction parameters for a Share
type ShareConfig = core.ShareConfig

// Elem constrains queue and share element types to the fixed-size numeric
// kinds which can be copied atomically under the interrupt guard
type Elem = core.Elem

// Registry tracks queues and shares for diagnostic dumps
type Registry = core.Registry

// Ticks is a 32-bit microsecond timestamp which wraps around
type Ticks = core.Ticks

// Clock is the time source tasks schedule against
type Clock = core.Clock

// Interrupts guards brief critical sections against interrupt-context access
type Interrupts = core.Interrupts

// Metrics receives per-run duration and lateness events
type Metrics = core.Metrics

// TaskStats is a read-only snapshot of one task's profiling aggregates
type TaskStats = core.TaskStats

// QueueStats is a read-only snapshot of one queue's occupancy
type QueueStats = core.QueueStats

// Logger is the structured logging interface used by the scheduler
type Logger = core.Logger

// Scheduling algorithm constants
const (
	AlgorithmPriority   Algorithm = core.AlgorithmPriority
	AlgorithmRoundRobin Algorithm = core.AlgorithmRoundRobin
)

// Convenience constructors
var (
	NewTask     = core.NewTask
	NewTaskFunc = core.NewTaskFunc
	NewTaskList = core.NewTaskList
	NewRegistry = core.NewRegistry
)

// NewTaskListWithConfig creates an empty task list with the given
// collaborators (metrics hook, logger).
func NewTaskListWithConfig(cfg *TaskListConfig) *TaskList {
	return core.NewTaskListWithConfig(cfg)
}

// NewQueue creates an interrupt-safe FIFO queue for elements of type T.
func NewQueue[T Elem](cfg QueueConfig) (*Queue[T], error) {
	return core.NewQueue[T](cfg)
}

// NewShare creates an interrupt-safe single-value share of type T.
func NewShare[T Elem](cfg ShareConfig) *Share[T] {
	return core.NewShare[T](cfg)
}

// TicksDiff computes newer minus older with rollover-safe 32-bit
// arithmetic; the result is meaningful for spans under half the wrap range.
func TicksDiff(newer, older Ticks) int32 {
	return core.TicksDiff(newer, older)
}
