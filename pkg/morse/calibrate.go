package morse

import "morsed/pkg/port"

const (
	// shortUnitRatio is the largest percentage first/second may have for
	// the first sample to count as the short unit.
	shortUnitRatio = 33
	// longUnitRatio is the smallest percentage first/second may have for
	// the second sample to count as the short unit.
	longUnitRatio = 300
)

// calibration holds the progress of one calibration episode: the last
// pulse width seen, if any. It is discarded on reset.
type calibration struct {
	first  port.Tick
	primed bool
}

// observe feeds the next pulse width into the window test and reports
// the dot length once two consecutive widths differ by a factor of
// three or more. The shorter of the two is the unit; it does not matter
// whether the short or the long pulse came first, and any number of
// similar warm up pulses just slides the window. A stream of uniform
// widths never converges.
func (c *calibration) observe(width port.Tick) (port.Tick, bool) {
	if width == 0 {
		// a zero width sample carries no timing information and would
		// let the unit calibrate to zero
		return 0, false
	}

	if !c.primed {
		c.first = width
		c.primed = true
		return 0, false
	}

	switch r := 100 * uint32(c.first) / uint32(width); {
	case r <= shortUnitRatio:
		return c.first, true
	case r >= longUnitRatio:
		return width, true
	default:
		// neither sample is confidently the short one, keep the newer
		c.first = width
		return 0, false
	}
}

// reset clears the calibration progress.
func (c *calibration) reset() {
	c.first = 0
	c.primed = false
}
