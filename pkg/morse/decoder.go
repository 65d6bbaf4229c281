// Package morse is a software decoder for an on/off keyed pulse train
// whose timing unit is not known in advance. The decoder first watches
// pulse widths until two consecutive pulses differ by a factor of three
// or more, which pins down the dot length, and then grades every
// following pulse and gap against that unit.
package morse

import (
	"sync"

	"github.com/womat/debug"

	"morsed/pkg/port"
)

const (
	// calWaitRise is the calibration state waiting for a mark to start.
	calWaitRise stateType = iota
	// calWaitFall is the calibration state waiting for a mark to end.
	calWaitFall
	// endWaitRise waits between characters for a mark to start.
	endWaitRise
	// endWaitFall waits between characters for a mark to end.
	endWaitFall
	// decodeWaitFall waits within a character for a mark to end.
	decodeWaitFall
	// decodeWaitRise waits within a character for a mark to start.
	decodeWaitRise
)

// stateType represents the state of the decoding process.
type stateType int

func (s stateType) String() string {
	switch s {
	case calWaitRise:
		return "CalWaitRise"
	case calWaitFall:
		return "CalWaitFall"
	case endWaitRise:
		return "EndWaitRise"
	case endWaitFall:
		return "EndWaitFall"
	case decodeWaitFall:
		return "DecodeWaitFall"
	case decodeWaitRise:
		return "DecodeWaitRise"
	}
	return "Unknown"
}

// Poster is the queue the decoder posts its control events to. The
// queue delivers them back to HandleEvent in FIFO order, behind any
// event already posted.
type Poster interface {
	Post(port.Event) error
}

// Decoder represents the handler of the decoder.
//
// All state lives here and is only mutated through HandleEvent, which
// the dispatch queue calls one event at a time.
type Decoder struct {
	// mu guards the fields read by Status from other goroutines.
	mu sync.Mutex

	// state contains the current decoding state.
	state stateType
	// cal is the calibration progress of the current episode.
	cal calibration
	// unit is the calibrated dot length, 0 until calibration converges.
	unit port.Tick

	// lastRise and lastFall are the timestamps of the two most recent
	// transitions. They are overwritten on every edge and survive a
	// reset; only calibration progress is episode scoped.
	lastRise port.Tick
	lastFall port.Tick

	// episodes counts the calibration episodes started so far.
	episodes int

	// queue receives the decoder's self posted control events.
	queue Poster

	// C is the channel carrying the decoded elements.
	C chan port.Element
}

// Status is a snapshot of the decoder for web and report consumers.
type Status struct {
	State      string    `json:"State"`
	Calibrated bool      `json:"Calibrated"`
	DotLength  port.Tick `json:"DotLength"`
	Episodes   int       `json:"Episodes"`
}

// New initials a new Decoder posting control events to q.
func New(q Poster) *Decoder {
	d := Decoder{
		queue: q,
		C:     make(chan port.Element, 64),
	}

	// start the first calibration episode
	d.reset()
	return &d
}

// Close releases the element channel. The dispatch queue feeding the
// decoder must be stopped first.
func (d *Decoder) Close() error {
	close(d.C)
	return nil
}

// Status returns a consistent snapshot of the decoder.
func (d *Decoder) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Status{
		State:      d.state.String(),
		Calibrated: d.unit > 0,
		DotLength:  d.unit,
		Episodes:   d.episodes,
	}
}

// HandleEvent is the decoder's single entry point. It processes one
// event to completion and never blocks.
//
// Any event type not handled in the current state is dropped without
// action; that is deliberate, unknown events must not disturb the
// decode in progress. The one exception is Reset, which is honoured in
// every state and starts a fresh calibration episode.
func (d *Decoder) HandleEvent(evt port.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if evt.Type == port.Reset {
		debug.InfoLog.Print("reset received, recalibrating")
		d.reset()
		return
	}

	switch d.state {
	case calWaitRise:
		if evt.Type == port.RisingEdge {
			d.lastRise = evt.Timestamp
			d.state = calWaitFall
		}

	case calWaitFall:
		if evt.Type == port.FallingEdge {
			d.lastFall = evt.Timestamp

			if unit, ok := d.cal.observe(evt.Timestamp.Since(d.lastRise)); ok {
				d.unit = unit
				d.post(port.Event{Type: port.CalibrationDone})
				debug.InfoLog.Printf("calibrated, dot length %d ticks", unit)
				d.state = endWaitRise
			} else {
				d.state = calWaitRise
			}
		}

	case endWaitRise:
		if evt.Type == port.RisingEdge {
			gap := evt.Timestamp.Since(d.lastFall)
			d.lastRise = evt.Timestamp

			if e := classifyGap(gap, d.unit); e != port.IntraGap {
				// the boundary event goes on the queue before the element
				// is emitted, so nothing a consumer posts in response can
				// overtake it
				if e == port.EndOfCharacter {
					d.post(port.Event{Type: port.CharBoundary})
				}
				d.emit(e)
			}
			d.state = endWaitFall
		}

	case endWaitFall:
		switch evt.Type {
		case port.FallingEdge:
			d.lastFall = evt.Timestamp
			d.state = endWaitRise
		case port.CharBoundary:
			d.state = decodeWaitFall
		}

	case decodeWaitFall:
		if evt.Type == port.FallingEdge {
			d.lastFall = evt.Timestamp
			d.emit(classifyPulse(evt.Timestamp.Since(d.lastRise), d.unit))
			d.state = decodeWaitRise
		}

	case decodeWaitRise:
		if evt.Type == port.RisingEdge {
			gap := evt.Timestamp.Since(d.lastFall)
			d.lastRise = evt.Timestamp

			e := classifyGap(gap, d.unit)
			if e != port.IntraGap {
				d.emit(e)
			}

			if e == port.EndOfWord {
				// the word is complete, wait for the next character
				d.state = endWaitRise
			} else {
				d.state = decodeWaitFall
			}
		}
	}
}

// reset starts a new calibration episode. The edge memory is kept, only
// the calibration progress and the unit are episode scoped.
func (d *Decoder) reset() {
	d.cal.reset()
	d.unit = 0
	d.state = calWaitRise
	d.episodes++
}

// emit hands an element to the downstream consumer. The send must not
// block the dispatch loop, so a full channel drops the element.
func (d *Decoder) emit(e port.Element) {
	select {
	case d.C <- e:
	default:
		debug.ErrorLog.Printf("element consumer not keeping up, dropped %v", e)
	}
}

// post sends a control event to the queue.
func (d *Decoder) post(evt port.Event) {
	if err := d.queue.Post(evt); err != nil {
		debug.ErrorLog.Printf("can't post %v: %v", evt.Type, err)
	}
}
