package testsupport

import (
	"context"
	"testing"

	"teachback/internal/config"
	"teachback/internal/store"
)

// MustOpenStore opens a store.SQLite for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.SQLite {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// MustGet reads key from kv and fails the test when it is absent.
func MustGet(t testing.TB, kv store.KV, key string) string {
	t.Helper()

	value, ok, err := kv.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %q: %v", key, err)
	}
	if !ok {
		t.Fatalf("expected key %q to be present", key)
	}
	return value
}
