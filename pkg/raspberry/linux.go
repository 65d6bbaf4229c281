//+build !windows

package raspberry

import (
	"time"

	"github.com/warthog618/gpio"
	"github.com/womat/debug"

	"morsed/pkg/dispatch"
	"morsed/pkg/port"
)

// Button watches a push button pin and posts a reset event on every
// confirmed press. The reset travels through the dispatch queue like
// any other event; it never preempts one being processed.
type Button struct {
	gpioPin *gpio.Pin
	// the bounceTime defines the key bounce time
	// the value 0 ignores key bouncing
	bounceTime time.Duration
	// while bounceTimer is running, new signals are ignored (suppress key bouncing)
	bounceTimer *time.Timer
	queue       *dispatch.Queue
}

// OpenButton maps the GPIO memory range from /dev/gpiomem and watches
// the given pin (BCM numbering) for presses. The pin is pulled up, so a
// press is a falling edge.
func OpenButton(pin int, bounceTime time.Duration, q *dispatch.Queue) (*Button, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}

	b := &Button{
		gpioPin:     gpio.NewPin(pin),
		bounceTime:  bounceTime,
		bounceTimer: time.NewTimer(0),
		queue:       q,
	}

	b.gpioPin.Input()
	b.gpioPin.PullUp()

	if err := b.gpioPin.Watch(gpio.EdgeFalling, b.watcher); err != nil {
		_ = gpio.Close()
		return nil, err
	}

	return b, nil
}

// watcher suppresses bouncing and posts the reset.
func (b *Button) watcher(*gpio.Pin) {
	if b.bounceTime > 0 {
		select {
		case <-b.bounceTimer.C:
			// timer expired, accept the press
			b.bounceTimer.Reset(b.bounceTime)
		default:
			// timer still running, ignore the signal
			return
		}
	}

	if err := b.queue.Post(port.Event{Type: port.Reset}); err != nil {
		debug.ErrorLog.Printf("can't post reset: %v", err)
		return
	}

	debug.InfoLog.Print("reset button pressed")
}

// Close removes the watch and unmaps the GPIO memory.
func (b *Button) Close() error {
	b.gpioPin.Unwatch()
	return gpio.Close()
}
