package game

import "time"

// DefaultStallThreshold is the largest frame delta that still produces a tick.
const DefaultStallThreshold = 100 * time.Millisecond

// Scheduler converts host frame timestamps into tick deltas.
//
// A delta above the stall threshold skips the tick instead of clamping it.
// The baseline still advances so the following frame ticks normally.
type Scheduler struct {
	threshold time.Duration
	prev      time.Duration
	primed    bool

	Skipped uint64 // Frames dropped as stalls
}

// NewScheduler creates a scheduler. A non-positive threshold uses the default.
func NewScheduler(threshold time.Duration) *Scheduler {
	if threshold <= 0 {
		threshold = DefaultStallThreshold
	}
	return &Scheduler{threshold: threshold}
}

// Frame records a frame at now and returns the tick delta in seconds.
// ok is false when no tick should run.
func (s *Scheduler) Frame(now time.Duration) (float64, bool) {
	if !s.primed {
		s.prev = now
		s.primed = true
		return 0, false
	}

	dt := now - s.prev
	s.prev = now
	if dt <= 0 || dt > s.threshold {
		s.Skipped++
		return 0, false
	}
	return dt.Seconds(), true
}

// Reset forgets the baseline. The next frame only primes the scheduler.
func (s *Scheduler) Reset() {
	s.primed = false
	s.prev = 0
}
