package core

import "time"

// TaskStats is a point-in-time snapshot of one task's configuration and
// profiling aggregates. Snapshots never mutate the task they describe.
type TaskStats struct {
	Name     string
	Priority int
	Periodic bool
	Period   time.Duration
	Profiled bool
	Traced   bool
	Runs     uint32

	// Duration aggregates exclude the warm-up runs; zero until enough runs
	// have been profiled.
	AvgDuration time.Duration
	MaxDuration time.Duration

	// Lateness aggregates are meaningful only for periodic tasks.
	AvgLate time.Duration
	MaxLate time.Duration
}

// QueueStats is a point-in-time snapshot of one queue's occupancy.
type QueueStats struct {
	Name     string
	Type     string
	Capacity int
	Depth    int

	// MaxFull is the historical maximum occupancy; it never decreases and
	// never exceeds Capacity.
	MaxFull int
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics receives per-run scheduling events for export to monitoring
// systems (Prometheus, StatsD, etc.). Implementations must be fast and
// non-blocking; they are called on the scheduling hot path.
type Metrics interface {
	// RecordTaskRun records one completed task resumption.
	//
	// Parameters:
	// - task: the task's diagnostic name
	// - priority: the task's priority
	// - duration: how long the resumption took
	RecordTaskRun(task string, priority int, duration time.Duration)

	// RecordTaskLate records how far past its deadline a periodic task
	// became ready.
	//
	// Parameters:
	// - task: the task's diagnostic name
	// - lateness: the amount by which the deadline was overshot
	RecordTaskLate(task string, lateness time.Duration)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskRun is a no-op.
func (m *NilMetrics) RecordTaskRun(task string, priority int, duration time.Duration) {
}

// RecordTaskLate is a no-op.
func (m *NilMetrics) RecordTaskLate(task string, lateness time.Duration) {
}
