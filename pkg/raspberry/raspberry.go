// Package raspberry is the watcher for the gpio inputs: the line
// carrying the pulse train and the reset button.
package raspberry

import (
	"fmt"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"

	"morsed/pkg/clock"
	"morsed/pkg/dispatch"
	"morsed/pkg/port"
)

var ErrInvalidParam = fmt.Errorf("invalid parameters")

// Chip represents a single GPIO chip that controls a set of lines.
type Chip struct {
	gpiodChip *gpiod.Chip
}

// Line represents a single requested line. Edge changes are converted
// to ticks and posted to the dispatch queue.
type Line struct {
	gpiodLine  *gpiod.Line
	lastValue  int
	debouncing bool
}

// Open opens a GPIO character device.
func Open(name string) (*Chip, error) {
	if name == "" {
		name = "gpiochip0"
	}

	c, err := gpiod.NewChip(name)
	chip := Chip{gpiodChip: c}
	return &chip, err
}

// NewLine requests control of a single line on a chip.
//   If granted, control is maintained until the Line is closed.
//   Both edges are watched; each confirmed edge is posted to the queue
//   with its timestamp converted to ticks. The timestamp is taken from
//   the kernel event, captured once at detection, and is never re-read.
//   There can only be one watcher on the line at a time.
func (c *Chip) NewLine(gpio int, terminator string, debounce time.Duration, clk *clock.Clock, q *dispatch.Queue) (*Line, error) {
	var err error

	line := &Line{}

	// handler converts the capture timestamp immediately, waits out the
	// bounce timeout and posts the event if the level change was real
	handler := func(evt gpiod.LineEvent) {
		if line.debouncing {
			debug.TraceLog.Println("bounce signal detected")
			return
		}

		line.debouncing = true
		tick := clk.Ticks(evt.Timestamp)

		go func() {
			defer func() { line.debouncing = false }()

			time.Sleep(debounce)

			v, e := line.gpiodLine.Value()
			if e != nil {
				debug.ErrorLog.Println(e)
				return
			}

			if v == line.lastValue {
				debug.TraceLog.Println("no changed value after bounce delay")
				return
			}

			var etype port.EventType
			switch v {
			case 0:
				etype = port.FallingEdge
			case 1:
				etype = port.RisingEdge
			default:
				debug.ErrorLog.Printf("invalid line value: %v", v)
				return
			}

			if err := q.Post(port.Event{Type: etype, Timestamp: tick}); err != nil {
				debug.ErrorLog.Printf("can't post edge event: %v", err)
				return
			}

			line.lastValue = v
		}()
	}

	switch terminator {
	case "pullup":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullUp)
	case "pulldown":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullDown)
	case "none":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput)
	default:
		return nil, ErrInvalidParam
	}

	return line, err
}

// Close releases the Chip.
//
// It does not release any lines which may be requested - they must be
// closed independently.
func (c *Chip) Close() error {
	return c.gpiodChip.Close()
}

// Close releases all resources held by the requested line.
//
// Note that this includes waiting for any running event handler to
// return, so Close must not be called from the context of the event
// handler - call it from a different goroutine.
func (l *Line) Close() error {
	return l.gpiodLine.Close()
}
