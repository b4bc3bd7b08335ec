package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/spluttflob/cotask-go/core"
)

// TaskSnapshotProvider provides current task stats snapshots. A TaskList
// satisfies this.
type TaskSnapshotProvider interface {
	Stats() []core.TaskStats
}

// QueueSnapshotProvider provides current queue occupancy snapshots. A
// Registry satisfies this.
type QueueSnapshotProvider interface {
	QueueStats() []core.QueueStats
}

// SnapshotPoller periodically exports task and queue Stats() snapshots into
// Prometheus gauges. The scheduler itself never blocks on metrics; the
// poller reads the same aggregates the diagnostic tables print.
type SnapshotPoller struct {
	interval time.Duration

	providersMu sync.RWMutex
	tasks       map[string]TaskSnapshotProvider
	queues      map[string]QueueSnapshotProvider

	taskRuns       *prom.GaugeVec
	taskAvgSeconds *prom.GaugeVec
	taskMaxSeconds *prom.GaugeVec
	taskAvgLate    *prom.GaugeVec
	taskMaxLate    *prom.GaugeVec

	queueDepth    *prom.GaugeVec
	queueMaxFull  *prom.GaugeVec
	queueCapacity *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	taskRuns := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "task_runs",
		Help:      "Run count snapshot per task.",
	}, []string{"list", "task"})
	taskAvgSeconds := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "task_avg_duration_seconds",
		Help:      "Average step duration snapshot per task.",
	}, []string{"list", "task"})
	taskMaxSeconds := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "task_max_duration_seconds",
		Help:      "Worst step duration snapshot per task.",
	}, []string{"list", "task"})
	taskAvgLate := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "task_avg_late_seconds",
		Help:      "Average scheduling lateness snapshot per periodic task.",
	}, []string{"list", "task"})
	taskMaxLate := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "task_max_late_seconds",
		Help:      "Worst scheduling lateness snapshot per periodic task.",
	}, []string{"list", "task"})

	queueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "queue_depth",
		Help:      "Current item count per queue.",
	}, []string{"registry", "queue"})
	queueMaxFull := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "queue_max_full",
		Help:      "Historical maximum item count per queue.",
	}, []string{"registry", "queue"})
	queueCapacity := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "cotask",
		Name:      "queue_capacity",
		Help:      "Configured capacity per queue.",
	}, []string{"registry", "queue"})

	var err error
	if taskRuns, err = registerCollector(reg, taskRuns); err != nil {
		return nil, err
	}
	if taskAvgSeconds, err = registerCollector(reg, taskAvgSeconds); err != nil {
		return nil, err
	}
	if taskMaxSeconds, err = registerCollector(reg, taskMaxSeconds); err != nil {
		return nil, err
	}
	if taskAvgLate, err = registerCollector(reg, taskAvgLate); err != nil {
		return nil, err
	}
	if taskMaxLate, err = registerCollector(reg, taskMaxLate); err != nil {
		return nil, err
	}
	if queueDepth, err = registerCollector(reg, queueDepth); err != nil {
		return nil, err
	}
	if queueMaxFull, err = registerCollector(reg, queueMaxFull); err != nil {
		return nil, err
	}
	if queueCapacity, err = registerCollector(reg, queueCapacity); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:       interval,
		tasks:          make(map[string]TaskSnapshotProvider),
		queues:         make(map[string]QueueSnapshotProvider),
		taskRuns:       taskRuns,
		taskAvgSeconds: taskAvgSeconds,
		taskMaxSeconds: taskMaxSeconds,
		taskAvgLate:    taskAvgLate,
		taskMaxLate:    taskMaxLate,
		queueDepth:     queueDepth,
		queueMaxFull:   queueMaxFull,
		queueCapacity:  queueCapacity,
	}, nil
}

// AddTaskList adds or replaces a task snapshot provider by name.
func (p *SnapshotPoller) AddTaskList(name string, provider TaskSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "tasks")
	p.providersMu.Lock()
	p.tasks[name] = provider
	p.providersMu.Unlock()
}

// AddRegistry adds or replaces a queue snapshot provider by name.
func (p *SnapshotPoller) AddRegistry(name string, provider QueueSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "registry")
	p.providersMu.Lock()
	p.queues[name] = provider
	p.providersMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.providersMu.RLock()
	defer p.providersMu.RUnlock()

	for listName, provider := range p.tasks {
		for _, stats := range provider.Stats() {
			task := normalizeLabel(stats.Name, "unknown")
			p.taskRuns.WithLabelValues(listName, task).Set(float64(stats.Runs))
			p.taskAvgSeconds.WithLabelValues(listName, task).Set(stats.AvgDuration.Seconds())
			p.taskMaxSeconds.WithLabelValues(listName, task).Set(stats.MaxDuration.Seconds())
			if stats.Periodic {
				p.taskAvgLate.WithLabelValues(listName, task).Set(stats.AvgLate.Seconds())
				p.taskMaxLate.WithLabelValues(listName, task).Set(stats.MaxLate.Seconds())
			}
		}
	}

	for regName, provider := range p.queues {
		for _, stats := range provider.QueueStats() {
			queue := normalizeLabel(stats.Name, "unknown")
			p.queueDepth.WithLabelValues(regName, queue).Set(float64(stats.Depth))
			p.queueMaxFull.WithLabelValues(regName, queue).Set(float64(stats.MaxFull))
			p.queueCapacity.WithLabelValues(regName, queue).Set(float64(stats.Capacity))
		}
	}
}
