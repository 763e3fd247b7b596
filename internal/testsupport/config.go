package testsupport

import (
	"path/filepath"
	"testing"

	"nightwatch/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.DBPath = filepath.Join(base, "data", "nightwatch.db")
	cfg.Paths.BackupsDir = filepath.Join(base, "backups")
	cfg.Server.Bind = "127.0.0.1:0"
	return &cfg
}
