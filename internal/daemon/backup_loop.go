package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nightwatch/internal/config"
	"nightwatch/internal/logging"
	"nightwatch/internal/store"
)

const shutdownBackupTimeout = 10 * time.Second

// backupLoop guarantees one database backup per calendar day. It runs the
// check at startup, on a fixed ticker, and once more on shutdown. The single
// goroutine serializes all three paths, so the backup never races itself.
type backupLoop struct {
	store    *store.Store
	dir      string
	interval time.Duration
	logger   *slog.Logger
}

func newBackupLoop(st *store.Store, cfg *config.Config, logger *slog.Logger) *backupLoop {
	return &backupLoop{
		store:    st,
		dir:      cfg.Paths.BackupsDir,
		interval: time.Duration(cfg.Backup.IntervalMinutes) * time.Minute,
		logger:   logging.NewComponentLogger(logger, "backup"),
	}
}

func (b *backupLoop) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	b.ensure(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.final()
			return
		case <-ticker.C:
			b.ensure(ctx)
		}
	}
}

// ensure runs the daily check; failures are logged and retried next cycle.
func (b *backupLoop) ensure(ctx context.Context) {
	started := time.Now()
	path, created, err := b.store.EnsureDailyBackup(ctx, b.dir)
	if err != nil {
		b.logger.Warn("daily backup failed; will retry next cycle", logging.Error(err))
		return
	}
	if created {
		b.logger.Info("daily backup written",
			logging.String("path", path),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
}

// final makes one last attempt on shutdown. It runs synchronously before the
// loop exits and swallows errors; the process is leaving either way.
func (b *backupLoop) final() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownBackupTimeout)
	defer cancel()
	if _, created, err := b.store.EnsureDailyBackup(ctx, b.dir); err == nil && created {
		b.logger.Info("shutdown backup written")
	}
}
