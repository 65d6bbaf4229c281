//+build windows

package raspberry

import (
	"time"

	"github.com/womat/debug"

	"morsed/pkg/dispatch"
	"morsed/pkg/port"
)

// Button is the windows stand-in for the reset button, only for bench
// testing without gpio hardware.
type Button struct {
	queue *dispatch.Queue
}

// OpenButton creates the emulated button; pin and bounceTime are
// accepted for interface parity and ignored.
func OpenButton(pin int, bounceTime time.Duration, q *dispatch.Queue) (*Button, error) {
	return &Button{queue: q}, nil
}

// EmuPress emulates a button press.
func (b *Button) EmuPress() {
	if err := b.queue.Post(port.Event{Type: port.Reset}); err != nil {
		debug.ErrorLog.Printf("can't post reset: %v", err)
		return
	}

	debug.InfoLog.Print("reset button pressed (emulated)")
}

// Close releases the emulated button.
func (b *Button) Close() error {
	return nil
}
