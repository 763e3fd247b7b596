package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"nightwatch/internal/config"
	"nightwatch/internal/logging"
	"nightwatch/internal/shifts"
	"nightwatch/internal/store"
)

// Daemon coordinates the serve-mode process: the dashboard API server and the
// daily backup loop, with single-instance enforcement via a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	service *shifts.Service

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	backups *backupLoop

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, service *shifts.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || service == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, service, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "nightwatch.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		service:  service,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, service, logger)
	d.backups = newBackupLoop(st, cfg, logger)
	return d, nil
}

// Start acquires the instance lock, starts the API listener, and launches the
// backup loop. Migrations must already have run (store.Open guarantees it).
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another nightwatch instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return err
	}

	d.wg.Add(1)
	go d.backups.run(runCtx, &d.wg)

	d.running.Store(true)
	d.logger.Info("nightwatch daemon started",
		logging.String("bind", d.api.addr()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop shuts down background work and releases the lock. The backup loop
// performs one final best-effort backup before Stop returns.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("nightwatch daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound API address, useful when the config requested :0.
func (d *Daemon) Addr() string {
	return d.api.addr()
}
