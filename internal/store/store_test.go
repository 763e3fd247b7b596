package store_test

import (
	"context"
	"testing"
	"time"

	"nightwatch/internal/store"
	"nightwatch/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	version, err := st.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version == 0 {
		t.Fatal("expected schema version to advance past 0")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	before, err := st.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}

	applied, err := st.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected 0 migrations on re-run, got %d", applied)
	}

	after, err := st.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if after != before {
		t.Fatalf("schema version changed on re-run: %d -> %d", before, after)
	}
}

func TestMigrationsSurviveReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := st.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := store.OpenPath(cfg.Paths.DBPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	second, err := reopened.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if second != first {
		t.Fatalf("schema version changed across reopen: %d -> %d", first, second)
	}
}

func TestShiftRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var created *store.Shift
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		created, err = tx.InsertShift(ctx, time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("InsertShift failed: %v", err)
	}
	if created.ID == 0 || !created.Active() {
		t.Fatalf("unexpected shift: %#v", created)
	}

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if active == nil || active.ID != created.ID {
			t.Fatalf("expected active shift %d, got %#v", created.ID, active)
		}
		return tx.CloseShift(ctx, created.ID, time.Now().UTC())
	})
	if err != nil {
		t.Fatalf("CloseShift failed: %v", err)
	}

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			t.Fatalf("expected no active shift, got %#v", active)
		}
		closed, err := tx.ShiftByID(ctx, created.ID)
		if err != nil {
			return err
		}
		if closed == nil || closed.EndedAt == nil {
			t.Fatalf("expected closed shift, got %#v", closed)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestTaskForeignKeyEnforced(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	missing := int64(4242)
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		_, err := tx.InsertTask(ctx, "dangling", &missing)
		return err
	})
	if err == nil {
		t.Fatal("expected foreign key violation for missing shift")
	}
}

func TestReassignIncompleteTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var shiftID int64
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		shift, err := tx.InsertShift(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		shiftID = shift.ID

		if _, err := tx.InsertTask(ctx, "open one", nil); err != nil {
			return err
		}
		if _, err := tx.InsertTask(ctx, "open two", nil); err != nil {
			return err
		}
		done, err := tx.InsertTask(ctx, "already done", nil)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		_, err = tx.SetTaskCompletion(ctx, done.ID, &now)
		return err
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		count, err := tx.ReassignIncompleteTasks(ctx, shiftID)
		if err != nil {
			return err
		}
		if count != 2 {
			t.Fatalf("expected 2 tasks reassigned, got %d", count)
		}
		tasks, err := tx.TasksByShift(ctx, shiftID)
		if err != nil {
			return err
		}
		if len(tasks) != 2 {
			t.Fatalf("expected 2 tasks on shift, got %d", len(tasks))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
}

func TestTasksByShiftOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		shift, err := tx.InsertShift(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		for _, title := range []string{"first", "second", "third"} {
			if _, err := tx.InsertTask(ctx, title, &shift.ID); err != nil {
				return err
			}
		}
		tasks, err := tx.TasksByShift(ctx, shift.ID)
		if err != nil {
			return err
		}
		if len(tasks) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(tasks))
		}
		if tasks[0].Title != "third" || tasks[2].Title != "first" {
			t.Fatalf("unexpected ordering: %s, %s, %s", tasks[0].Title, tasks[1].Title, tasks[2].Title)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("test failed: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	boom := context.DeadlineExceeded
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.InsertShift(ctx, time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("expected fn error surfaced, got %v", err)
	}

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			t.Fatalf("rolled-back shift still visible: %#v", active)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}
