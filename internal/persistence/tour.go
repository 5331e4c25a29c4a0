package persistence

import (
	"context"
	"fmt"

	"teachback/internal/store"
)

// TourKey records that the guided tour has been completed or skipped.
const TourKey = "teachback_tour_completed_v1"

// TourFlag persists the tour-completed flag.
type TourFlag struct {
	kv store.KV
}

// NewTourFlag returns the flag over kv.
func NewTourFlag(kv store.KV) *TourFlag {
	return &TourFlag{kv: kv}
}

// Completed reports whether the flag is set.
func (f *TourFlag) Completed(ctx context.Context) (bool, error) {
	v, ok, err := f.kv.Get(ctx, TourKey)
	if err != nil {
		return false, fmt.Errorf("read tour flag: %w", err)
	}
	return ok && v == "true", nil
}

// MarkCompleted sets the flag.
func (f *TourFlag) MarkCompleted(ctx context.Context) error {
	if err := f.kv.Set(ctx, TourKey, "true"); err != nil {
		return fmt.Errorf("write tour flag: %w", err)
	}
	return nil
}

// Reset clears the flag so the tour is offered again.
func (f *TourFlag) Reset(ctx context.Context) error {
	return f.kv.Delete(ctx, TourKey)
}
