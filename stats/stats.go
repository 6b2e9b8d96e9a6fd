package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

type Type int

const (
	// Traversed counts regular files emitted by the walk.
	Traversed Type = iota
	// Ignored counts files rejected by the ignore patterns or as binaries and executables.
	Ignored
	// Scanned counts files read in search of notes.
	Scanned
	// Cached counts files whose notes were taken from the cache instead of being read.
	Cached
	// Found counts every note found, whether it is reported or not.
	Found
	// Filtered counts notes found but not reported because their marker was not selected.
	Filtered
)

func (t Type) String() string {
	switch t {
	case Traversed:
		return "traversed"
	case Ignored:
		return "ignored"
	case Scanned:
		return "scanned"
	case Cached:
		return "cached"
	case Found:
		return "found"
	case Filtered:
		return "filtered"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

type Stats struct {
	start    time.Time
	counters map[Type]*atomic.Int64
}

func (s *Stats) Add(t Type, delta int) int {
	return int(s.counters[t].Add(int64(delta)))
}

func (s *Stats) Value(t Type) int {
	return int(s.counters[t].Load())
}

func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.start)
}

func New() Stats {
	counters := make(map[Type]*atomic.Int64)
	for _, t := range []Type{Traversed, Ignored, Scanned, Cached, Found, Filtered} {
		counters[t] = &atomic.Int64{}
	}

	return Stats{
		start:    time.Now(),
		counters: counters,
	}
}
