// Package period tells the escrow core what accounting period it is.
// Periods are fixed-length wall-clock slices counted from the Unix epoch;
// deadlines and reclaim gates compare against the current period number.
package period

import (
	"sync/atomic"
	"time"
)

// WallClock derives the current period from the system clock.
type WallClock struct {
	length time.Duration
	now    func() time.Time
}

// NewWallClock creates a period source slicing time into length-sized
// periods. Length must be positive.
func NewWallClock(length time.Duration) *WallClock {
	return &WallClock{length: length, now: time.Now}
}

// Current returns the period number the clock is in right now.
func (w *WallClock) Current() uint64 {
	return uint64(w.now().UnixNano() / int64(w.length))
}

// Manual is a period source advanced by hand. Used in tests and by the
// CLI's deterministic mode.
type Manual struct {
	current atomic.Uint64
}

// NewManual creates a Manual source starting at the given period.
func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.current.Store(start)
	return m
}

// Current returns the manually set period.
func (m *Manual) Current() uint64 {
	return m.current.Load()
}

// Advance moves the source forward by n periods.
func (m *Manual) Advance(n uint64) {
	m.current.Add(n)
}

// Set jumps the source to an absolute period.
func (m *Manual) Set(p uint64) {
	m.current.Store(p)
}
