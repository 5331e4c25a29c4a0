package session

import (
	"fmt"
	"time"
)

// Timer measures elapsed wall-clock time from a recorded start instant so a
// paused and resumed session does not drift.
type Timer struct {
	now     func() time.Time
	start   time.Time
	running bool
	frozen  int
}

// NewTimer returns a stopped timer. now defaults to time.Now.
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// Start runs the clock as if it had already counted resumeFrom seconds.
func (t *Timer) Start(resumeFrom int) {
	if resumeFrom < 0 {
		resumeFrom = 0
	}
	t.start = t.now().Add(-time.Duration(resumeFrom) * time.Second)
	t.running = true
}

// Stop freezes the clock and returns the whole seconds elapsed.
func (t *Timer) Stop() int {
	if t.running {
		t.frozen = t.elapsed()
		t.running = false
	}
	return t.frozen
}

// Hold stops the clock showing seconds without running it.
func (t *Timer) Hold(seconds int) {
	t.running = false
	t.frozen = max(seconds, 0)
}

// Reset stops the clock at zero.
func (t *Timer) Reset() {
	t.Hold(0)
}

// Running reports whether the clock is counting.
func (t *Timer) Running() bool {
	return t.running
}

// Elapsed returns whole seconds counted so far.
func (t *Timer) Elapsed() int {
	if t.running {
		return t.elapsed()
	}
	return t.frozen
}

func (t *Timer) elapsed() int {
	d := t.now().Sub(t.start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// FormatElapsed renders seconds as MM:SS.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
