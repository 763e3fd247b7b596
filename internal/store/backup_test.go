package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nightwatch/internal/store"
	"nightwatch/internal/testsupport"
)

func TestEnsureDailyBackupCreatesOneArtifactPerDay(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		_, err := tx.InsertTask(ctx, "backup me", nil)
		return err
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "nested", "backups")
	path, created, err := st.EnsureDailyBackup(ctx, dir)
	if err != nil {
		t.Fatalf("EnsureDailyBackup failed: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create a backup")
	}
	if filepath.Base(path) != store.BackupFilename(time.Now()) {
		t.Fatalf("unexpected backup name: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("backup file is empty")
	}

	again, created, err := st.EnsureDailyBackup(ctx, dir)
	if err != nil {
		t.Fatalf("second EnsureDailyBackup failed: %v", err)
	}
	if created {
		t.Fatal("expected second call on the same day to be a no-op")
	}
	if again != path {
		t.Fatalf("expected same artifact path, got %s and %s", path, again)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one backup artifact, got %d", len(entries))
	}
}

func TestBackupIsOpenableDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		shift, err := tx.InsertShift(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		_, err = tx.InsertTask(ctx, "carried into backup", &shift.ID)
		return err
	})
	if err != nil {
		t.Fatalf("seed data: %v", err)
	}

	dir := t.TempDir()
	path, _, err := st.EnsureDailyBackup(ctx, dir)
	if err != nil {
		t.Fatalf("EnsureDailyBackup failed: %v", err)
	}

	restored, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("open backup copy: %v", err)
	}
	defer restored.Close()

	err = restored.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			t.Fatal("expected active shift in backup copy")
		}
		tasks, err := tx.TasksByShift(ctx, active.ID)
		if err != nil {
			return err
		}
		if len(tasks) != 1 || tasks[0].Title != "carried into backup" {
			t.Fatalf("unexpected tasks in backup: %#v", tasks)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify backup: %v", err)
	}
}

func TestEnsureDailyBackupRequiresDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, _, err := st.EnsureDailyBackup(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty backups directory")
	}
}
