package core

import "sync"

// IRQState is the opaque token returned by Interrupts.Disable and handed
// back to Restore, mirroring the save/restore shape of hardware interrupt
// masking so prior state is reinstated on nested use.
type IRQState uint32

// Interrupts is the critical-section primitive protecting queue and share
// mutation against interrupt-context races. On a bare-metal target an
// implementation masks interrupts; on hosted targets MutexInterrupts
// stands in. Only Queue and Share use this interface, and only for the
// brief O(1) window around an index/occupancy update.
//
// Calls made with the ISR flag set never touch this interface: interrupt
// handlers already run with interrupts disabled, and taking a lock there
// would deadlock against the context they preempted.
type Interrupts interface {
	// Disable enters the critical section and returns the prior state.
	Disable() IRQState

	// Restore leaves the critical section, reinstating the prior state.
	Restore(state IRQState)
}

// MutexInterrupts adapts a sync.Mutex to the Interrupts shape for hosted
// targets, where a goroutine stands in for the interrupt context. The
// returned state token is always zero; a mutex has no nesting to restore.
type MutexInterrupts struct {
	mu sync.Mutex
}

// NewMutexInterrupts creates a mutex-backed critical section.
func NewMutexInterrupts() *MutexInterrupts {
	return &MutexInterrupts{}
}

func (m *MutexInterrupts) Disable() IRQState {
	m.mu.Lock()
	return 0
}

func (m *MutexInterrupts) Restore(state IRQState) {
	m.mu.Unlock()
}

// NopInterrupts disables nothing. It backs queues and shares created with
// thread protection switched off.
type NopInterrupts struct{}

func (NopInterrupts) Disable() IRQState      { return 0 }
func (NopInterrupts) Restore(state IRQState) {}
