package core

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// Elem constrains queue and share contents to the fixed-width numeric types
// the wire between tasks and interrupt handlers is allowed to carry. Fixing
// the element type at construction time is what makes single-word transfers
// safe inside a critical section; the compiler enforces it, so no per-call
// type or range checking remains.
type Elem interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

var queueSerial atomic.Uint32

// QueueConfig holds the construction parameters for a Queue.
type QueueConfig struct {
	// Size is the fixed capacity in elements; it must be at least 1.
	Size int

	// ThreadProtect guards index and occupancy updates with the Interrupts
	// critical section so an interrupt-context Put or Get cannot interleave
	// with one from task context.
	ThreadProtect bool

	// Overwrite makes a full queue evict its oldest element to accept a new
	// write instead of blocking the writer.
	Overwrite bool

	// Name is a short diagnostic name; empty selects QueueN with a process
	// serial number.
	Name string

	// Interrupts is the critical-section implementation used when
	// ThreadProtect is set. Nil selects a mutex-backed section suitable for
	// hosted targets.
	Interrupts Interrupts

	// Registry, when set, receives the queue for diagnostic dumps.
	Registry *Registry
}

// Queue is a fixed-capacity circular buffer carrying data of one fixed
// element type from one task to another, or from an interrupt handler to a
// task. The producer and consumer sides may be in different execution
// contexts; the ISR call variants never block and never take the critical
// section, since an interrupt handler already runs with interrupts masked.
type Queue[T Elem] struct {
	buf       []T
	size      int
	rdIdx     int
	wrIdx     int
	numItems  int
	maxFull   int
	overwrite bool
	irq       Interrupts
	name      string
}

// NewQueue allocates a queue for transferring data between tasks. All
// memory is allocated here, at setup time; steady-state operation never
// allocates, which keeps Put and Get usable from interrupt handlers.
func NewQueue[T Elem](cfg QueueConfig) (*Queue[T], error) {
	if cfg.Size < 1 {
		return nil, fmt.Errorf("queue %q: size must be at least 1, got %d", cfg.Name, cfg.Size)
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("Queue%d", queueSerial.Add(1)-1)
	}

	var irq Interrupts = NopInterrupts{}
	if cfg.ThreadProtect {
		irq = cfg.Interrupts
		if irq == nil {
			irq = NewMutexInterrupts()
		}
	}

	q := &Queue[T]{
		buf:       make([]T, cfg.Size),
		size:      cfg.Size,
		overwrite: cfg.Overwrite,
		irq:       irq,
		name:      cfg.Name,
	}
	if cfg.Registry != nil {
		cfg.Registry.Add(q)
	}
	return q, nil
}

// Put places an item into the queue.
//
// If the queue is full and overwrite is disabled, Put busy-waits until a
// consumer makes room. That is acceptable only because the scheduler is
// cooperative and some other task's Get will eventually run; the wait
// occupies the caller's entire task slice, and if the only consumer is the
// waiting task itself the system deadlocks. Callers wanting non-blocking
// behavior should guard with Full() first. With overwrite enabled the
// oldest element is evicted instead of waiting.
func (q *Queue[T]) Put(item T) {
	if !q.overwrite {
		for q.Full() {
			runtime.Gosched()
		}
	}

	state := q.irq.Disable()
	q.putLocked(item)
	q.irq.Restore(state)
}

// TryPut places an item into the queue without blocking, inside the
// critical section. If the queue is full and overwrite is disabled the
// item is dropped and TryPut reports false.
//
// This is the producer call for hosted targets where a goroutine stands in
// for an interrupt handler: unlike PutISR it takes the critical section,
// so it is safe against a concurrent task-context Get.
func (q *Queue[T]) TryPut(item T) bool {
	state := q.irq.Disable()
	if q.numItems >= q.size && !q.overwrite {
		q.irq.Restore(state)
		return false
	}
	q.putLocked(item)
	q.irq.Restore(state)
	return true
}

// PutISR places an item into the queue from interrupt context. It never
// blocks and never touches the critical section: if the queue is full and
// overwrite is disabled the item is dropped and PutISR reports false.
//
// Skipping the critical section is only correct where interrupt handlers
// genuinely preempt rather than run in parallel. A goroutine standing in
// for an ISR on a hosted target must use TryPut instead.
func (q *Queue[T]) PutISR(item T) bool {
	if q.Full() && !q.overwrite {
		return false
	}
	q.putLocked(item)
	return true
}

func (q *Queue[T]) putLocked(item T) {
	// A full overwriting queue drops its oldest element: the read index
	// moves with the write index so Get next returns the second-oldest.
	if q.numItems >= q.size {
		q.rdIdx++
		if q.rdIdx >= q.size {
			q.rdIdx = 0
		}
		q.numItems = q.size - 1
	}

	q.buf[q.wrIdx] = item
	q.wrIdx++
	if q.wrIdx >= q.size {
		q.wrIdx = 0
	}
	q.numItems++
	if q.numItems > q.maxFull {
		q.maxFull = q.numItems
	}
}

// Get removes and returns the oldest item in the queue.
//
// If the queue is empty, Get busy-waits until a producer supplies an item,
// with the same caveats as Put. Callers wanting non-blocking behavior
// should guard with Any() first.
func (q *Queue[T]) Get() T {
	for q.Empty() {
		runtime.Gosched()
	}

	state := q.irq.Disable()
	item := q.getLocked()
	q.irq.Restore(state)
	return item
}

// TryGet removes and returns the oldest item without blocking, inside the
// critical section; on an empty queue it returns the zero value and false.
//
// This is the consumer call to pair with a producer on another goroutine,
// for the same reason as TryPut.
func (q *Queue[T]) TryGet() (T, bool) {
	state := q.irq.Disable()
	if q.numItems <= 0 {
		q.irq.Restore(state)
		var zero T
		return zero, false
	}
	item := q.getLocked()
	q.irq.Restore(state)
	return item, true
}

// GetISR removes and returns the oldest item from interrupt context. It
// never blocks and never touches the critical section; on an empty queue it
// returns the zero value and false. The same single-context constraint as
// PutISR applies; hosted goroutines use TryGet.
func (q *Queue[T]) GetISR() (T, bool) {
	if q.Empty() {
		var zero T
		return zero, false
	}
	return q.getLocked(), true
}

func (q *Queue[T]) getLocked() T {
	item := q.buf[q.rdIdx]
	q.rdIdx++
	if q.rdIdx >= q.size {
		q.rdIdx = 0
	}
	q.numItems--
	if q.numItems < 0 {
		q.numItems = 0
	}
	return item
}

// Any reports whether the queue holds at least one item. O(1), safe from
// any context.
func (q *Queue[T]) Any() bool {
	return q.numItems > 0
}

// Empty reports whether the queue holds no items. O(1), safe from any
// context.
func (q *Queue[T]) Empty() bool {
	return q.numItems <= 0
}

// Full reports whether the queue has no room for more data without
// overwriting. O(1), safe from any context.
func (q *Queue[T]) Full() bool {
	return q.numItems >= q.size
}

// NumIn returns the current number of items in the queue.
func (q *Queue[T]) NumIn() int {
	return q.numItems
}

// MaxFull returns the historical maximum occupancy.
func (q *Queue[T]) MaxFull() int {
	return q.maxFull
}

// Capacity returns the fixed capacity chosen at construction.
func (q *Queue[T]) Capacity() int {
	return q.size
}

// Clear empties the queue and resets the historical maximum occupancy.
func (q *Queue[T]) Clear() {
	state := q.irq.Disable()
	q.rdIdx = 0
	q.wrIdx = 0
	q.numItems = 0
	q.maxFull = 0
	q.irq.Restore(state)
}

// Name returns the queue's diagnostic name.
func (q *Queue[T]) Name() string {
	return q.name
}

// Stats returns a snapshot of the queue's occupancy.
func (q *Queue[T]) Stats() QueueStats {
	return QueueStats{
		Name:     q.name,
		Type:     elemTypeName[T](),
		Capacity: q.size,
		Depth:    q.numItems,
		MaxFull:  q.maxFull,
	}
}

// String renders one diagnostic line showing the queue's name, element
// type, and how full it has ever been.
func (q *Queue[T]) String() string {
	return fmt.Sprintf("%-12s Queue<%s> Max Full %d/%d",
		q.name, elemTypeName[T](), q.maxFull, q.size)
}

func elemTypeName[T Elem]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
