package clock

import (
	"testing"
	"time"

	"morsed/pkg/port"
)

func TestTicksConversion(t *testing.T) {
	c := New(100 * time.Microsecond)

	tests := []struct {
		ts   time.Duration
		want port.Tick
	}{
		{0, 0},
		{99 * time.Microsecond, 0},
		{100 * time.Microsecond, 1},
		{10 * time.Millisecond, 100},
		{6553600 * time.Microsecond, 0}, // exactly one full counter period
	}

	for _, tt := range tests {
		if got := c.Ticks(tt.ts); got != tt.want {
			t.Errorf("Ticks(%v) = %d, want %d", tt.ts, got, tt.want)
		}
	}
}

func TestDefaultPeriod(t *testing.T) {
	c := New(0)
	if c.Period() != DefaultPeriod {
		t.Errorf("Period() = %v, want %v", c.Period(), DefaultPeriod)
	}
}

func TestExtendedCountsRollovers(t *testing.T) {
	c := New(100 * time.Microsecond)

	// low words 1000, 60000, then a wrap to 400
	c.Ticks(100 * time.Millisecond)
	c.Ticks(6 * time.Second)
	c.Ticks(6*time.Second + 594*time.Millisecond)

	want := uint32(1)<<16 | uint32(port.Tick(65940%65536))
	if got := c.Extended(); got != want {
		t.Errorf("Extended() = %#x, want %#x", got, want)
	}
}

func TestDurationBetweenConvertedTicksSurvivesWrap(t *testing.T) {
	c := New(100 * time.Microsecond)

	// 6.5535s is tick 65535; 10ms later the counter has wrapped
	a := c.Ticks(65535 * 100 * time.Microsecond)
	b := c.Ticks(65535*100*time.Microsecond + 10*time.Millisecond)

	if d := b.Since(a); d != 100 {
		t.Errorf("Since() = %d, want 100", d)
	}
}
