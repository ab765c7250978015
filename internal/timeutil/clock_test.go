package timeutil

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	before := time.Now()
	got := RealClock{}.Now()
	if got.Before(before) || got.After(time.Now()) {
		t.Errorf("RealClock.Now() = %v, outside call window", got)
	}
}

func TestRealClock_Since(t *testing.T) {
	if d := (RealClock{}).Since(time.Now().Add(-time.Hour)); d < time.Hour {
		t.Errorf("Since = %v, want >= 1h", d)
	}
}

func TestMockClock_Steps(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMockClock(start, time.Second)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("first Now = %v, want %v", got, start)
	}
	if got := c.Now(); !got.Equal(start.Add(time.Second)) {
		t.Errorf("second Now = %v, want %v", got, start.Add(time.Second))
	}
	if got := c.Since(start); got != 2*time.Second {
		t.Errorf("Since = %v, want 2s", got)
	}
}

func TestMockClock_SetAdvance(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMockClock(time.Time{}, 0)
	c.Set(start)
	c.Advance(time.Minute)

	want := start.Add(time.Minute)
	for i := 0; i < 2; i++ {
		if got := c.Now(); !got.Equal(want) {
			t.Errorf("Now = %v, want %v (frozen clock)", got, want)
		}
	}
}
