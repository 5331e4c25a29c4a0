package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"teachback/internal/store"
)

// Counter names a persisted usage counter.
type Counter string

// Usage counters.
const (
	TotalSessions Counter = "teachback_total_sessions"
	MasteredCount Counter = "teachback_mastered_count"
	OverrideCount Counter = "teachback_override_count"
	UnknownCount  Counter = "teachback_unknown_count"
)

// AllCounters lists every counter in display order.
var AllCounters = []Counter{TotalSessions, MasteredCount, OverrideCount, UnknownCount}

// Label returns a short human-readable name.
func (c Counter) Label() string {
	switch c {
	case TotalSessions:
		return "App starts"
	case MasteredCount:
		return "Quizzes mastered"
	case OverrideCount:
		return "Category overrides"
	case UnknownCount:
		return "Uncertain classifications"
	}
	return string(c)
}

// Counters reads and increments integer counters. Increments are
// read-modify-write without cross-process atomicity.
type Counters struct {
	kv store.KV
}

// NewCounters returns counters over kv.
func NewCounters(kv store.KV) *Counters {
	return &Counters{kv: kv}
}

// Get returns the counter value. Missing or unparseable values read as 0.
func (c *Counters) Get(ctx context.Context, name Counter) (int, error) {
	raw, ok, err := c.kv.Get(ctx, string(name))
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// Increment adds one and returns the new value.
func (c *Counters) Increment(ctx context.Context, name Counter) (int, error) {
	n, err := c.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	n++
	if err := c.kv.Set(ctx, string(name), strconv.Itoa(n)); err != nil {
		return 0, fmt.Errorf("write counter %s: %w", name, err)
	}
	return n, nil
}

// All returns every counter value.
func (c *Counters) All(ctx context.Context) (map[Counter]int, error) {
	out := make(map[Counter]int, len(AllCounters))
	for _, name := range AllCounters {
		n, err := c.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}
