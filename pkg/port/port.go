// Package port holds the definitions shared between the line watcher,
// the dispatch queue and the morse decoder.
package port

// Tick is one tick of the line timer. The counter is 16 bit wide and
// wraps; durations must always be computed with Since, never by
// comparing absolute values.
type Tick uint16

// Since returns the number of ticks from start to t.
//
// uint16 arithmetic is modulo 2^16, so the result stays correct across
// a counter rollover: Tick(5).Since(65535) == 6.
func (t Tick) Since(start Tick) Tick {
	return t - start
}

// EventType indicates the type of change to the line active state.
//
// Note that for active low lines a low line level results in a high
// active state.
type EventType int

const (
	_ EventType = iota
	// RisingEdge indicates an inactive to active event (low to high).
	RisingEdge
	// FallingEdge indicates an active to inactive event (high to low).
	FallingEdge
	// Reset is the external signal that discards the calibration and
	// starts a fresh episode.
	Reset
	// CalibrationDone is posted by the decoder when the dot length is
	// known.
	CalibrationDone
	// CharBoundary is posted by the decoder to itself when an end of
	// character gap has been seen.
	CharBoundary
)

// Event is a single queued occurrence. The timestamp is captured once,
// at detection time; it is never re-read from a live counter.
type Event struct {
	// Timestamp is the tick count at the instant the event was detected.
	// Only meaningful for edge events.
	Timestamp Tick
	// The type of event this structure represents.
	Type EventType
}

// Element is a decoded signal element.
type Element int

const (
	// ShortMark is a pulse of roughly one dot length.
	ShortMark Element = iota
	// LongMark is a pulse of roughly three dot lengths.
	LongMark
	// BadPulse is a pulse in the ambiguous band between short and long.
	BadPulse
	// IntraGap separates marks within a character. It is classified but
	// never emitted.
	IntraGap
	// EndOfCharacter is a gap of roughly three dot lengths.
	EndOfCharacter
	// EndOfWord is a gap of seven or more dot lengths.
	EndOfWord
	// BadGap is a gap in one of the ambiguous bands.
	BadGap
)

func (e Element) String() string {
	switch e {
	case ShortMark:
		return "ShortMark"
	case LongMark:
		return "LongMark"
	case BadPulse:
		return "BadPulse"
	case IntraGap:
		return "IntraGap"
	case EndOfCharacter:
		return "EndOfCharacter"
	case EndOfWord:
		return "EndOfWord"
	case BadGap:
		return "BadGap"
	}
	return "Unknown"
}
