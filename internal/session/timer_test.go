package session_test

import (
	"sync"
	"testing"
	"time"

	"teachback/internal/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTimerResumesFromBaseline(t *testing.T) {
	clock := newFakeClock()
	timer := session.NewTimer(clock.Now)

	timer.Start(0)
	clock.Advance(1500 * time.Millisecond)
	if got := timer.Elapsed(); got != 1 {
		t.Fatalf("Elapsed = %d, want 1", got)
	}
	clock.Advance(8500 * time.Millisecond)
	if got := timer.Stop(); got != 10 {
		t.Fatalf("Stop = %d, want 10", got)
	}
	clock.Advance(time.Hour)
	if got := timer.Elapsed(); got != 10 {
		t.Fatalf("stopped timer moved to %d", got)
	}

	timer.Start(10)
	clock.Advance(5 * time.Second)
	if got := timer.Elapsed(); got != 15 {
		t.Fatalf("resumed Elapsed = %d, want 15", got)
	}
	if !timer.Running() {
		t.Fatal("expected timer running")
	}

	timer.Hold(7)
	clock.Advance(time.Minute)
	if timer.Running() || timer.Elapsed() != 7 {
		t.Fatalf("held timer = %d running %v", timer.Elapsed(), timer.Running())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{65, "01:05"},
		{3600, "60:00"},
		{-4, "00:00"},
	}
	for _, tt := range tests {
		if got := session.FormatElapsed(tt.seconds); got != tt.want {
			t.Fatalf("FormatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
