// Package clock maps kernel event timestamps onto the decoder's 16 bit
// tick counter.
package clock

import (
	"sync"
	"time"

	"morsed/pkg/port"
)

// DefaultPeriod is the tick period used when none is configured. At
// 100µs per tick the 16 bit counter wraps roughly every 6.5 seconds,
// comfortably longer than any single element width.
const DefaultPeriod = 100 * time.Microsecond

// Clock converts timestamps (durations since boot, as the kernel
// reports them with an edge event) into ticks and keeps an extended
// tick count for diagnostics.
//
// The extended count is a composite of a rollover counter and the low
// 16 bit word. Both halves are read and written under the mutex, so a
// value returned by Extended is always internally consistent even when
// Ticks is being called concurrently from the event handler.
type Clock struct {
	period time.Duration

	mu        sync.Mutex
	rollovers uint16
	lastLow   port.Tick
}

// New creates a Clock with the given tick period.
func New(period time.Duration) *Clock {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Clock{period: period}
}

// Ticks converts a kernel timestamp to line ticks. The conversion
// truncates to the counter width; callers compute durations with
// port.Tick.Since, which is rollover safe.
func (c *Clock) Ticks(ts time.Duration) port.Tick {
	c.mu.Lock()
	defer c.mu.Unlock()

	low := port.Tick(ts / c.period)

	// a wrap is visible as the low word moving backwards; this only
	// catches wraps when events arrive at least once per counter
	// period, which is fine for a diagnostic counter
	if low < c.lastLow {
		c.rollovers++
	}
	c.lastLow = low

	return low
}

// Extended returns the 32 bit tick count assembled from the rollover
// counter and the last observed low word.
func (c *Clock) Extended() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return uint32(c.rollovers)<<16 | uint32(c.lastLow)
}

// Period returns the configured tick period.
func (c *Clock) Period() time.Duration {
	return c.period
}
