// Package recorder accumulates the decoded element stream for the web
// api and the mqtt report. It stores raw elements only; assembling
// characters or words out of them is left to downstream consumers.
package recorder

import (
	"sync"
	"time"

	"morsed/pkg/port"
)

// Entry is one decoded element with its arrival time.
type Entry struct {
	Time    time.Time
	Element string
}

// Report is a snapshot of the recorded stream.
type Report struct {
	// Time the snapshot was taken.
	Time time.Time
	// Counts per element name, ambiguous classifications included.
	Counts map[string]uint64
	// Words is the number of end of word gaps seen.
	Words uint64
	// Recent holds the latest elements, oldest first.
	Recent []Entry
}

// Recorder keeps the per element counters and a bounded history.
type Recorder struct {
	// rl locks counters and history while a report is built.
	rl sync.Mutex

	counts map[port.Element]uint64
	recent []Entry
	max    int
}

// New creates a Recorder keeping at most max recent entries.
func New(max int) *Recorder {
	if max <= 0 {
		max = 64
	}

	return &Recorder{
		counts: map[port.Element]uint64{},
		recent: make([]Entry, 0, max),
		max:    max,
	}
}

// Add records one decoded element.
func (r *Recorder) Add(e port.Element) {
	r.rl.Lock()
	defer r.rl.Unlock()

	r.counts[e]++

	if len(r.recent) == r.max {
		copy(r.recent, r.recent[1:])
		r.recent = r.recent[:r.max-1]
	}
	r.recent = append(r.recent, Entry{Time: time.Now(), Element: e.String()})
}

// Snapshot returns a copy of the current report.
func (r *Recorder) Snapshot() Report {
	r.rl.Lock()
	defer r.rl.Unlock()

	rep := Report{
		Time:   time.Now(),
		Counts: make(map[string]uint64, len(r.counts)),
		Words:  r.counts[port.EndOfWord],
		Recent: make([]Entry, len(r.recent)),
	}

	for e, n := range r.counts {
		rep.Counts[e.String()] = n
	}
	copy(rep.Recent, r.recent)

	return rep
}
