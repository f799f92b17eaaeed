// File: control/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package control aggregates runtime counters and debug probes for the
// dispatch machinery. Counters are written once per cycle from the owning
// goroutine and may be snapshotted from any other.
package control

import (
	"sync"
	"time"
)

// Stats accumulates per-junction dispatch counters.
type Stats struct {
	mu           sync.RWMutex
	cycles       uint64
	transfers    uint64
	terminations uint64
	updated      time.Time
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{}
}

// RecordCycle folds one finished dispatch cycle into the counters.
func (s *Stats) RecordCycle(transferred, terminated int) {
	s.mu.Lock()
	s.cycles++
	s.transfers += uint64(transferred)
	s.terminations += uint64(terminated)
	s.updated = time.Now()
	s.mu.Unlock()
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() map[string]uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]uint64{
		"cycles":       s.cycles,
		"transfers":    s.transfers,
		"terminations": s.terminations,
	}
}

// Updated returns the time of the most recent recorded cycle.
func (s *Stats) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}
