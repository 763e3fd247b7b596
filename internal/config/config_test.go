package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nightwatch/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("NIGHTWATCH_DATA_DIR", filepath.Join(base, "data"))
	t.Setenv("NIGHTWATCH_CONFIG", filepath.Join(base, "missing.toml"))

	cfg, _, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Server.Bind != "127.0.0.1:8037" {
		t.Fatalf("unexpected bind: %s", cfg.Server.Bind)
	}
	if cfg.Paths.DBPath != filepath.Join(base, "data", "nightwatch.db") {
		t.Fatalf("db path should default under data dir, got %s", cfg.Paths.DBPath)
	}
	if cfg.Backup.IntervalMinutes != 60 {
		t.Fatalf("unexpected backup interval: %d", cfg.Backup.IntervalMinutes)
	}
}

func TestLoadParsesFileAndEnvOverrides(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "nightwatch.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(base, "data") + `"
backups_dir = "` + filepath.Join(base, "backups") + `"

[server]
bind = "0.0.0.0:9000"

[backup]
interval_minutes = 15
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NIGHTWATCH_BIND", "127.0.0.1:9999")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected to load %s, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Server.Bind != "127.0.0.1:9999" {
		t.Fatalf("env override should win, got %s", cfg.Server.Bind)
	}
	if cfg.Backup.IntervalMinutes != 15 {
		t.Fatalf("unexpected interval: %d", cfg.Backup.IntervalMinutes)
	}
}

func TestLoadRejectsBadBind(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "nightwatch.toml")
	if err := os.WriteFile(path, []byte("[server]\nbind = \"no-port\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "server.bind") {
		t.Fatalf("expected bind validation error, got %v", err)
	}
}

func TestEnsureDirectoriesFallsBackForBackups(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.DBPath = filepath.Join(base, "data", "nightwatch.db")
	// A file at the preferred location makes it unusable as a directory.
	blocked := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.Paths.BackupsDir = blocked

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	want := filepath.Join(cfg.Paths.DataDir, "backups")
	if cfg.Paths.BackupsDir != want {
		t.Fatalf("expected fallback %s, got %s", want, cfg.Paths.BackupsDir)
	}
	if info, err := os.Stat(want); err != nil || !info.IsDir() {
		t.Fatalf("fallback dir not created: %v", err)
	}
}

func TestEnsureDirectoriesKeepsWritableBackupsDir(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.DBPath = filepath.Join(base, "data", "nightwatch.db")
	preferred := filepath.Join(base, "preferred")
	cfg.Paths.BackupsDir = preferred

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if cfg.Paths.BackupsDir != preferred {
		t.Fatalf("expected preferred dir kept, got %s", cfg.Paths.BackupsDir)
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[backup]") {
		t.Fatal("sample config missing backup section")
	}
}
