package core

import (
	"strings"
	"sync"
)

// Diagnosable is anything the registry can render in a diagnostic dump.
// Queues and shares implement it.
type Diagnosable interface {
	Name() string
	String() string
}

// queueStatsProvider is implemented by queues; the registry uses it to
// collect occupancy snapshots for observability exporters.
type queueStatsProvider interface {
	Stats() QueueStats
}

// Registry is an explicitly constructed, caller-owned list of the queues
// and shares in a system, kept so a diagnostic dump can show them all.
// Construct one at setup, hand it to NewQueue/NewShare via their configs,
// and keep it for the life of the process.
type Registry struct {
	mu    sync.Mutex
	items []Diagnosable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers an item for diagnostic dumps. Queues and shares add
// themselves when their config carries a registry.
func (r *Registry) Add(item Diagnosable) {
	if item == nil {
		return
	}
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
}

// ShowAll renders one diagnostic line per registered queue and share, in
// registration order.
func (r *Registry) ShowAll() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, 0, len(r.items))
	for _, item := range r.items {
		lines = append(lines, item.String())
	}
	return strings.Join(lines, "\n")
}

// QueueStats returns occupancy snapshots for every registered queue.
// Shares carry no occupancy and are skipped.
func (r *Registry) QueueStats() []QueueStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make([]QueueStats, 0, len(r.items))
	for _, item := range r.items {
		if p, ok := item.(queueStatsProvider); ok {
			stats = append(stats, p.Stats())
		}
	}
	return stats
}
