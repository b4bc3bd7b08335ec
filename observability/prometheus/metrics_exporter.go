package prometheus

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/spluttflob/cotask-go/core"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
	LatenessBuckets []float64
}

// Cooperative task steps run for microseconds to low milliseconds, far
// below prom.DefBuckets territory.
var defaultStepBuckets = []float64{
	.00001, .000025, .00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025,
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskLateSeconds     *prom.HistogramVec
	taskRunsTotal       *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "cotask"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	durationBuckets := opts.DurationBuckets
	if len(durationBuckets) == 0 {
		durationBuckets = defaultStepBuckets
	}
	latenessBuckets := opts.LatenessBuckets
	if len(latenessBuckets) == 0 {
		latenessBuckets = defaultStepBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Duration of one task step in seconds.",
		Buckets:   durationBuckets,
	}, []string{"task", "priority"})
	lateVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_late_seconds",
		Help:      "How late past its deadline a periodic task started, in seconds.",
		Buckets:   latenessBuckets,
	}, []string{"task"})
	runsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_runs_total",
		Help:      "Total number of task step resumptions.",
	}, []string{"task"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if lateVec, err = registerCollector(reg, lateVec); err != nil {
		return nil, err
	}
	if runsVec, err = registerCollector(reg, runsVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskLateSeconds:     lateVec,
		taskRunsTotal:       runsVec,
	}, nil
}

// RecordTaskRun records the duration of one task step.
func (m *MetricsExporter) RecordTaskRun(task string, priority int, duration time.Duration) {
	if m == nil {
		return
	}
	task = normalizeLabel(task, "unknown")
	m.taskDurationSeconds.WithLabelValues(task, strconv.Itoa(priority)).Observe(duration.Seconds())
	m.taskRunsTotal.WithLabelValues(task).Inc()
}

// RecordTaskLate records how far past its deadline a periodic task started.
func (m *MetricsExporter) RecordTaskLate(task string, lateness time.Duration) {
	if m == nil {
		return
	}
	m.taskLateSeconds.WithLabelValues(normalizeLabel(task, "unknown")).Observe(lateness.Seconds())
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
