package morse

import "morsed/pkg/port"

// Width bands in percent of the dot length. The gaps between the bands
// are deliberate: a width falling into 150-250 (pulses and gaps) or
// 350-650 (gaps) is reported as ambiguous, not rounded to a neighbour.
const (
	shortMarkMax = 150
	longMarkMin  = 250

	intraGapMax = 150
	endCharMin  = 250
	endCharMax  = 350
	endWordMin  = 650
)

// classifyPulse grades a mark width against the dot length.
func classifyPulse(width, unit port.Tick) port.Element {
	switch p := 100 * uint32(width) / uint32(unit); {
	case p <= shortMarkMax:
		return port.ShortMark
	case p >= longMarkMin:
		return port.LongMark
	default:
		return port.BadPulse
	}
}

// classifyGap grades a gap width against the dot length.
func classifyGap(width, unit port.Tick) port.Element {
	switch p := 100 * uint32(width) / uint32(unit); {
	case p <= intraGapMax:
		return port.IntraGap
	case p >= endCharMin && p <= endCharMax:
		return port.EndOfCharacter
	case p >= endWordMin:
		return port.EndOfWord
	default:
		return port.BadGap
	}
}
