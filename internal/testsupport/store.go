package testsupport

import (
	"testing"

	"nightwatch/internal/config"
	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewService builds a lifecycle service over a fresh temp store.
func NewService(t testing.TB) *shifts.Service {
	t.Helper()

	cfg := NewConfig(t)
	st := MustOpenStore(t, cfg)
	return shifts.NewService(st, nil)
}
