package core

import "time"

// Ticks is a monotonic microsecond counter which wraps around after about
// 71.6 minutes. All comparisons between Ticks values must go through
// TicksDiff; comparing raw Ticks values gives wrong answers near the
// rollover boundary.
type Ticks uint32

// TicksDiff returns the signed number of microseconds from older to newer,
// correct across counter rollover. The result is valid as long as the two
// readings are less than half the counter range apart.
func TicksDiff(newer, older Ticks) int32 {
	return int32(newer - older)
}

// TicksAdd returns a time which is delta microseconds after t, wrapping
// around the counter range as needed. Delta may be negative.
func TicksAdd(t Ticks, delta int32) Ticks {
	return t + Ticks(delta)
}

// Clock is the time source consumed by tasks for readiness checks and
// profiling. Implementations must be monotonic between rollovers and safe
// to read from any context, including interrupt context.
type Clock interface {
	Now() Ticks
}

// SystemClock reads the Go monotonic clock, truncated to the 32-bit
// microsecond counter the scheduler arithmetic expects.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock whose counter starts near zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() Ticks {
	return Ticks(time.Since(c.start).Microseconds())
}

// ManualClock is a settable clock for deterministic tests. It is not safe
// for concurrent use; tests drive it from a single goroutine.
type ManualClock struct {
	now Ticks
}

// NewManualClock creates a manual clock starting at the given time.
func NewManualClock(start Ticks) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() Ticks {
	return c.now
}

// Set moves the clock to an absolute time.
func (c *ManualClock) Set(t Ticks) {
	c.now = t
}

// Advance moves the clock forward by d microseconds.
func (c *ManualClock) Advance(d int32) {
	c.now = TicksAdd(c.now, d)
}

// DurationToTicks converts a duration to scheduler microseconds,
// saturating at the representable range rather than silently wrapping.
func DurationToTicks(d time.Duration) int32 {
	us := d.Microseconds()
	if us > 0x7fffffff {
		us = 0x7fffffff
	}
	if us < 0 {
		us = 0
	}
	return int32(us)
}
