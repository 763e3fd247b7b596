package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"nightwatch/internal/store"
	"nightwatch/internal/testsupport"
)

func TestBackupLoopWritesOnShutdown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	loop := newBackupLoop(st, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go loop.run(ctx, &wg)
	wg.Wait()

	want := filepath.Join(cfg.Paths.BackupsDir, store.BackupFilename(time.Now().UTC()))
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected shutdown backup at %s: %v", want, err)
	}
}

func TestBackupLoopEnsureIsIdempotentForTheDay(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	loop := newBackupLoop(st, cfg, nil)

	ctx := context.Background()
	loop.ensure(ctx)

	path := filepath.Join(cfg.Paths.BackupsDir, store.BackupFilename(time.Now().UTC()))
	first, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected backup at %s: %v", path, err)
	}

	loop.ensure(ctx)
	second, err := os.Stat(path)
	if err != nil {
		t.Fatalf("backup disappeared: %v", err)
	}
	if !second.ModTime().Equal(first.ModTime()) {
		t.Fatal("second ensure should not rewrite the day's backup")
	}
}
