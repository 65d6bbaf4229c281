package morse

import (
	"testing"
	"time"

	"morsed/pkg/dispatch"
	"morsed/pkg/port"
)

func tick(v uint16) port.Tick {
	return port.Tick(v)
}

// fakeQueue delivers self posted events back to the decoder in FIFO
// order, one external event at a time, so tests run synchronously.
type fakeQueue struct {
	backlog []port.Event
	posted  []port.EventType
}

func (q *fakeQueue) Post(e port.Event) error {
	q.backlog = append(q.backlog, e)
	q.posted = append(q.posted, e.Type)
	return nil
}

func (q *fakeQueue) pump(d *Decoder, events ...port.Event) {
	for _, e := range events {
		q.backlog = append(q.backlog, e)
		for len(q.backlog) > 0 {
			next := q.backlog[0]
			q.backlog = q.backlog[1:]
			d.HandleEvent(next)
		}
	}
}

func rise(at uint16) port.Event {
	return port.Event{Type: port.RisingEdge, Timestamp: port.Tick(at)}
}

func fall(at uint16) port.Event {
	return port.Event{Type: port.FallingEdge, Timestamp: port.Tick(at)}
}

// elements drains everything currently buffered on the output channel.
func elements(d *Decoder) []port.Element {
	var out []port.Element
	for {
		select {
		case e := <-d.C:
			out = append(out, e)
		default:
			return out
		}
	}
}

// calibrate drives a fresh decoder to a dot length of 100 ticks and
// into the decode phase. The entry gap of 300 ticks produces the end of
// character element that opens the first character.
func calibrate(t *testing.T, d *Decoder, q *fakeQueue) {
	t.Helper()

	q.pump(d,
		rise(0), fall(100), // warm up pulse, one unit
		rise(200), fall(500), // contrasting pulse, ratio 33%
		rise(800), // gap 300: end of character, enters decode phase
	)

	if s := d.Status(); !s.Calibrated || s.DotLength != 100 {
		t.Fatalf("calibration failed: %+v", s)
	}
	if got := elements(d); len(got) != 1 || got[0] != port.EndOfCharacter {
		t.Fatalf("entry elements = %v, want [EndOfCharacter]", got)
	}
	if s := d.Status().State; s != "DecodeWaitFall" {
		t.Fatalf("state after entry gap = %s, want DecodeWaitFall", s)
	}
}

func TestCalibrationEitherOrder(t *testing.T) {
	for name, widths := range map[string][2]uint16{
		"short first": {90, 310},
		"long first":  {310, 90},
	} {
		q := &fakeQueue{}
		d := New(q)

		// pulse one
		q.pump(d, rise(0), fall(widths[0]))
		// pulse two, one unit of gap between them
		start := widths[0] + 90
		q.pump(d, rise(start), fall(start+widths[1]))

		s := d.Status()
		if !s.Calibrated || s.DotLength != 90 {
			t.Errorf("%s: status = %+v, want dot length 90", name, s)
		}
		if len(q.posted) != 1 || q.posted[0] != port.CalibrationDone {
			t.Errorf("%s: posted = %v, want [CalibrationDone]", name, q.posted)
		}
	}
}

func TestCalibrationNeverConvergesOnUniformSignal(t *testing.T) {
	q := &fakeQueue{}
	d := New(q)

	at := uint16(0)
	for i := 0; i < 500; i++ {
		q.pump(d, rise(at), fall(at+100))
		at += 200
	}

	s := d.Status()
	if s.Calibrated {
		t.Fatalf("calibrated to %d on a uniform signal", s.DotLength)
	}
	if s.State != "CalWaitRise" {
		t.Errorf("state = %s, want CalWaitRise", s.State)
	}
	if got := elements(d); len(got) != 0 {
		t.Errorf("elements = %v, want none", got)
	}
}

func TestDecodeScenario(t *testing.T) {
	q := &fakeQueue{}
	d := New(q)
	calibrate(t, d, q)

	// two short marks separated by an intra gap, an end of character
	// gap, a final short mark framing an end of word gap
	q.pump(d,
		fall(900),  // mark 100: short
		rise(1000), // gap 100: intra, no output
		fall(1100), // mark 100: short
		rise(1400), // gap 300: end of character
		fall(1500), // mark 100: short
		rise(2200), // gap 700: end of word
	)

	want := []port.Element{
		port.ShortMark,
		port.ShortMark,
		port.EndOfCharacter,
		port.ShortMark,
		port.EndOfWord,
	}

	got := elements(d)
	if len(got) != len(want) {
		t.Fatalf("elements = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("elements = %v, want %v", got, want)
		}
	}

	// the word gap hands control back to the between-characters states
	if s := d.Status().State; s != "EndWaitRise" {
		t.Errorf("state = %s, want EndWaitRise", s)
	}
}

func TestDecodeLongMarksAndAmbiguousWidths(t *testing.T) {
	q := &fakeQueue{}
	d := New(q)
	calibrate(t, d, q)

	q.pump(d,
		fall(1100), // mark 300: long
		rise(1200), // gap 100: intra
		fall(1400), // mark 200: ambiguous pulse
		rise(1900), // gap 500: ambiguous gap
		fall(2000), // mark 100: short
	)

	want := []port.Element{
		port.LongMark,
		port.BadPulse,
		port.BadGap,
		port.ShortMark,
	}

	got := elements(d)
	if len(got) != len(want) {
		t.Fatalf("elements = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("elements = %v, want %v", got, want)
		}
	}

	// ambiguous widths are reported, not fatal: decoding carried on
	if s := d.Status().State; s != "DecodeWaitRise" {
		t.Errorf("state = %s, want DecodeWaitRise", s)
	}
}

func TestDecodeAcrossCounterRollover(t *testing.T) {
	q := &fakeQueue{}
	d := New(q)

	// the second pulse spans the 16 bit wrap: 65436 + 300 = 65736 = 200
	q.pump(d,
		rise(65036), fall(65136), // width 100
		rise(65436), fall(200), // width 300, ratio 33%
	)

	if s := d.Status(); !s.Calibrated || s.DotLength != 100 {
		t.Fatalf("status = %+v, want dot length 100 across rollover", s)
	}
}

func TestResetReturnsToCalibrationFromAnyState(t *testing.T) {
	states := map[string]func(d *Decoder, q *fakeQueue){
		"CalWaitRise":    func(d *Decoder, q *fakeQueue) {},
		"CalWaitFall":    func(d *Decoder, q *fakeQueue) { q.pump(d, rise(0)) },
		"EndWaitRise":    func(d *Decoder, q *fakeQueue) { q.pump(d, rise(0), fall(100), rise(200), fall(500)) },
		"EndWaitFall":    func(d *Decoder, q *fakeQueue) { q.pump(d, rise(0), fall(100), rise(200), fall(500), rise(1200)) },
		"DecodeWaitFall": func(d *Decoder, q *fakeQueue) { calibrateQuiet(d, q) },
		"DecodeWaitRise": func(d *Decoder, q *fakeQueue) { calibrateQuiet(d, q); q.pump(d, fall(900)) },
	}

	for name, drive := range states {
		q := &fakeQueue{}
		d := New(q)
		drive(d, q)

		if s := d.Status().State; s != name {
			t.Fatalf("%s: drove decoder to %s", name, s)
		}

		q.pump(d, port.Event{Type: port.Reset})
		elements(d) // discard anything emitted while driving

		s := d.Status()
		if s.State != "CalWaitRise" || s.Calibrated || s.DotLength != 0 {
			t.Errorf("%s: status after reset = %+v", name, s)
			continue
		}

		// a fresh calibration converges exactly as from construction
		q.pump(d, rise(10000), fall(10090), rise(10200), fall(10510))
		if s := d.Status(); !s.Calibrated || s.DotLength != 90 {
			t.Errorf("%s: recalibration status = %+v, want dot length 90", name, s)
		}
	}
}

// calibrateQuiet is calibrate without assertions, for reset tests.
func calibrateQuiet(d *Decoder, q *fakeQueue) {
	q.pump(d, rise(0), fall(100), rise(200), fall(500), rise(800))
}

func TestResetStartsNewEpisode(t *testing.T) {
	q := &fakeQueue{}
	d := New(q)

	before := d.Status().Episodes
	q.pump(d, port.Event{Type: port.Reset}, port.Event{Type: port.Reset})

	if got := d.Status().Episodes; got != before+2 {
		t.Errorf("episodes = %d, want %d", got, before+2)
	}
}

func TestUnexpectedEventsAreIgnored(t *testing.T) {
	q := &fakeQueue{}
	d := New(q)

	// edges of the wrong polarity and stray control events in the
	// calibration states
	q.pump(d,
		fall(50),
		port.Event{Type: port.CharBoundary},
		port.Event{Type: port.CalibrationDone},
	)
	if s := d.Status().State; s != "CalWaitRise" {
		t.Errorf("state = %s, want CalWaitRise", s)
	}

	q.pump(d, rise(100))
	q.pump(d, rise(150), port.Event{Type: port.CharBoundary})
	if s := d.Status().State; s != "CalWaitFall" {
		t.Errorf("state = %s, want CalWaitFall", s)
	}

	if got := elements(d); len(got) != 0 {
		t.Errorf("elements = %v, want none", got)
	}
}

func TestDecoderDrivenByDispatchQueue(t *testing.T) {
	q := dispatch.New(64)
	d := New(q)

	go q.Run(d.HandleEvent)
	defer q.Close()

	await := func(want port.Element) {
		t.Helper()
		select {
		case got := <-d.C:
			if got != want {
				t.Fatalf("element = %v, want %v", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %v", want)
		}
	}

	for _, e := range []port.Event{
		rise(0), fall(100),
		rise(200), fall(500),
		rise(800), // end of character, self post opens the character
	} {
		if err := q.Post(e); err != nil {
			t.Fatalf("Post() err=%v", err)
		}
	}
	await(port.EndOfCharacter)

	// the next edge arrives after the self posted boundary event has
	// been dispatched, as it does on a live line
	if err := q.Post(fall(1100)); err != nil { // mark 300: long
		t.Fatalf("Post() err=%v", err)
	}
	await(port.LongMark)
}
