package period

import (
	"testing"
	"time"
)

func TestWallClockCurrent(t *testing.T) {
	clock := NewWallClock(15 * time.Second)
	// Aligned to a 15s boundary so the in-slice assertions below hold
	fixed := time.Unix(1_700_000_010, 0)
	clock.now = func() time.Time { return fixed }

	want := uint64(fixed.UnixNano() / int64(15*time.Second))
	if got := clock.Current(); got != want {
		t.Fatalf("expected period %d, got %d", want, got)
	}

	// Within the same slice the period does not move
	clock.now = func() time.Time { return fixed.Add(14 * time.Second) }
	if got := clock.Current(); got != want {
		t.Fatalf("expected period unchanged at %d, got %d", want, got)
	}

	// The next slice begins exactly at the boundary
	clock.now = func() time.Time { return fixed.Add(15 * time.Second) }
	if got := clock.Current(); got != want+1 {
		t.Fatalf("expected period %d, got %d", want+1, got)
	}
}

func TestManual(t *testing.T) {
	m := NewManual(100)
	if m.Current() != 100 {
		t.Fatalf("expected 100, got %d", m.Current())
	}

	m.Advance(5)
	if m.Current() != 105 {
		t.Fatalf("expected 105, got %d", m.Current())
	}

	m.Set(42)
	if m.Current() != 42 {
		t.Fatalf("expected 42, got %d", m.Current())
	}
}
