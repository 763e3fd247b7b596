package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupFilename returns the date-stamped backup name for a given day.
func BackupFilename(day time.Time) string {
	return fmt.Sprintf("nightwatch-%s.db", day.UTC().Format("2006-01-02"))
}

// EnsureDailyBackup writes a full point-in-time copy of the database into
// backupsDir, named by the current calendar date. It is a no-op when that
// day's backup already exists. The copy uses VACUUM INTO, which produces a
// consistent snapshot without blocking writers. Returns the backup path and
// whether a new file was created.
func (s *Store) EnsureDailyBackup(ctx context.Context, backupsDir string) (string, bool, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(backupsDir) == "" {
		return "", false, fmt.Errorf("backups directory required")
	}
	if err := os.MkdirAll(backupsDir, 0o755); err != nil {
		return "", false, fmt.Errorf("create backups directory: %w", err)
	}

	target := filepath.Join(backupsDir, BackupFilename(time.Now()))
	if _, err := os.Stat(target); err == nil {
		return target, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("stat backup target: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, target); err != nil {
		return "", false, fmt.Errorf("backup (VACUUM INTO): %w", err)
	}
	return target, true, nil
}
