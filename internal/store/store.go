package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"nightwatch/internal/config"
)

// Store manages shift and task persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database at cfg.Paths.DBPath and brings
// its schema up to date. It must complete before any other component uses the
// store.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.DBPath)
}

// OpenPath opens the database at an explicit path and applies migrations.
func OpenPath(dbPath string) (*Store, error) {
	// foreign_keys and busy_timeout are per-connection settings, so they go
	// in the DSN where the driver replays them on every connection the pool
	// opens. journal_mode=WAL persists in the file and is set once below.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, execErr := db.Exec("PRAGMA journal_mode=WAL"); execErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", execErr)
	}

	store := &Store{db: db, path: dbPath}
	if _, err := store.ApplyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// Tx exposes typed read and write primitives inside one unit of work.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a single transaction, committing when fn returns nil
// and rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ActiveShift returns the shift with no end time, or nil when none is active.
// Ties (which only arise from corrupted data) break toward the highest id.
func (t *Tx) ActiveShift(ctx context.Context) (*Shift, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE ended_at IS NULL ORDER BY id DESC LIMIT 1`)
	shift, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active shift: %w", err)
	}
	return shift, nil
}

// ShiftByID fetches a shift by identifier, nil when absent.
func (t *Tx) ShiftByID(ctx context.Context, id int64) (*Shift, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id)
	shift, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shift: %w", err)
	}
	return shift, nil
}

// InsertShift creates a new open shift with empty notes.
func (t *Tx) InsertShift(ctx context.Context, startedAt time.Time) (*Shift, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO shifts (started_at, ended_at, notes, created_at) VALUES (?, NULL, '', ?)`,
		formatTime(startedAt),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert shift: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return t.ShiftByID(ctx, id)
}

// CloseShift records the end time on a shift.
func (t *Tx) CloseShift(ctx context.Context, id int64, endedAt time.Time) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE shifts SET ended_at = ? WHERE id = ?`,
		formatTime(endedAt), id,
	); err != nil {
		return fmt.Errorf("close shift: %w", err)
	}
	return nil
}

// UpdateShiftNotes replaces the notes on a shift, reporting whether a row matched.
func (t *Tx) UpdateShiftNotes(ctx context.Context, id int64, notes string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `UPDATE shifts SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return false, fmt.Errorf("update shift notes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountActiveShifts returns how many shifts have no end time.
func (t *Tx) CountActiveShifts(ctx context.Context) (int, error) {
	var count int
	if err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM shifts WHERE ended_at IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active shifts: %w", err)
	}
	return count, nil
}

// TaskByID fetches a task by identifier, nil when absent.
func (t *Tx) TaskByID(ctx context.Context, id int64) (*Task, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// InsertTask creates an open task, optionally attached to a shift.
func (t *Tx) InsertTask(ctx context.Context, title string, shiftID *int64) (*Task, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO tasks (title, created_at, completed_at, shift_id) VALUES (?, ?, NULL, ?)`,
		title,
		formatTime(time.Now().UTC()),
		nullableInt64(shiftID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return t.TaskByID(ctx, id)
}

// SetTaskCompletion sets or clears the completion timestamp, reporting whether
// a row matched.
func (t *Tx) SetTaskCompletion(ctx context.Context, id int64, completedAt *time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tasks SET completed_at = ? WHERE id = ?`,
		nullableTime(completedAt), id,
	)
	if err != nil {
		return false, fmt.Errorf("set task completion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteTask removes a task, reporting whether it existed.
func (t *Tx) DeleteTask(ctx context.Context, id int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ReassignIncompleteTasks attaches every task without a completion timestamp
// to the given shift, regardless of its current assignment, and returns the
// number of rows updated. This is the carry-forward primitive.
func (t *Tx) ReassignIncompleteTasks(ctx context.Context, shiftID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tasks SET shift_id = ? WHERE completed_at IS NULL`, shiftID)
	if err != nil {
		return 0, fmt.Errorf("reassign incomplete tasks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// TasksByShift returns the tasks attached to a shift, newest first by id.
func (t *Tx) TasksByShift(ctx context.Context, shiftID int64) ([]*Task, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE shift_id = ? ORDER BY id DESC`, shiftID)
	if err != nil {
		return nil, fmt.Errorf("tasks by shift: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

const shiftColumns = "id, started_at, ended_at, notes, created_at"

const taskColumns = "id, title, created_at, completed_at, shift_id"

type scanner interface {
	Scan(dest ...any) error
}

func scanShift(sc scanner) (*Shift, error) {
	var (
		id         int64
		startedRaw string
		endedRaw   sql.NullString
		notes      string
		createdRaw string
	)
	if err := sc.Scan(&id, &startedRaw, &endedRaw, &notes, &createdRaw); err != nil {
		return nil, err
	}

	shift := &Shift{ID: id, Notes: notes}
	started, err := parseTimeString(startedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	shift.StartedAt = started
	if endedRaw.Valid {
		ended, err := parseTimeString(endedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		shift.EndedAt = &ended
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		shift.CreatedAt = created
	}
	return shift, nil
}

func scanTask(sc scanner) (*Task, error) {
	var (
		id           int64
		title        string
		createdRaw   string
		completedRaw sql.NullString
		shiftID      sql.NullInt64
	)
	if err := sc.Scan(&id, &title, &createdRaw, &completedRaw, &shiftID); err != nil {
		return nil, err
	}

	task := &Task{ID: id, Title: title}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	task.CreatedAt = created
	if completedRaw.Valid {
		completed, err := parseTimeString(completedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		task.CompletedAt = &completed
	}
	if shiftID.Valid {
		value := shiftID.Int64
		task.ShiftID = &value
	}
	return task, nil
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
