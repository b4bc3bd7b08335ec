package core

import (
	"fmt"
	"sync/atomic"
)

var shareSerial atomic.Uint32

// ShareConfig holds the construction parameters for a Share.
type ShareConfig struct {
	// ThreadProtect guards the cell against interleaved access from
	// interrupt context.
	ThreadProtect bool

	// Name is a short diagnostic name; empty selects ShareN with a process
	// serial number.
	Name string

	// Interrupts is the critical-section implementation used when
	// ThreadProtect is set. Nil selects a mutex-backed section suitable for
	// hosted targets.
	Interrupts Interrupts

	// Registry, when set, receives the share for diagnostic dumps.
	Registry *Registry
}

// Share is a single protected memory cell holding the most recent value of
// one fixed type. There is no occupancy and no history: writes overwrite,
// reads never block, and a read before the first write returns the type's
// zero value.
type Share[T Elem] struct {
	value T
	irq   Interrupts
	name  string
}

// NewShare allocates a shared data cell used to transfer data between
// tasks, or between an interrupt handler and a task.
func NewShare[T Elem](cfg ShareConfig) *Share[T] {
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("Share%d", shareSerial.Add(1)-1)
	}

	var irq Interrupts = NopInterrupts{}
	if cfg.ThreadProtect {
		irq = cfg.Interrupts
		if irq == nil {
			irq = NewMutexInterrupts()
		}
	}

	s := &Share[T]{irq: irq, name: cfg.Name}
	if cfg.Registry != nil {
		cfg.Registry.Add(s)
	}
	return s
}

// Put writes a value into the share; any old value is overwritten.
func (s *Share[T]) Put(value T) {
	state := s.irq.Disable()
	s.value = value
	s.irq.Restore(state)
}

// PutISR writes a value from interrupt context, skipping the critical
// section. That is only correct where interrupts preempt rather than run
// in parallel; a goroutine standing in for an ISR must use Put.
func (s *Share[T]) PutISR(value T) {
	s.value = value
}

// Get returns the most recently written value.
func (s *Share[T]) Get() T {
	state := s.irq.Disable()
	value := s.value
	s.irq.Restore(state)
	return value
}

// GetISR returns the most recently written value from interrupt context,
// skipping the critical section. The same constraint as PutISR applies;
// hosted goroutines use Get.
func (s *Share[T]) GetISR() T {
	return s.value
}

// Name returns the share's diagnostic name.
func (s *Share[T]) Name() string {
	return s.name
}

// String renders one diagnostic line; shares are simple, so it is just the
// name and element type.
func (s *Share[T]) String() string {
	return fmt.Sprintf("%-12s Share<%s>", s.name, elemTypeName[T]())
}
