package shifts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"nightwatch/internal/logging"
	"nightwatch/internal/store"
)

// MaxTitleLength is the longest task title boundaries should accept.
const MaxTitleLength = 240

// MaxNotesLength is the longest shift notes payload boundaries should accept.
const MaxNotesLength = 200_000

// Service implements the shift and task lifecycle over the store. Every
// operation runs in a single store transaction.
type Service struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// StartResult describes the outcome of StartShift. AlreadyActive means the
// call was an idempotent no-op on the returned shift and Carried is zero.
type StartResult struct {
	Shift         store.Shift
	Carried       int64
	AlreadyActive bool
}

// NewService constructs the lifecycle service. A nil logger disables logging.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logging.NewComponentLogger(logger, "shifts"),
		now:    time.Now,
	}
}

// GetActiveShift returns the active shift, or nil when none is open.
func (s *Service) GetActiveShift(ctx context.Context) (*store.Shift, error) {
	var shift *store.Shift
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		shift, err = tx.ActiveShift(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// StartShift opens a new shift and carries every incomplete task forward to
// it, as one atomic unit. When a shift is already active it returns that
// shift unchanged; starting twice is not an error.
func (s *Service) StartShift(ctx context.Context) (StartResult, error) {
	var result StartResult
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if active != nil {
			result = StartResult{Shift: *active, AlreadyActive: true}
			return nil
		}

		shift, err := tx.InsertShift(ctx, s.now().UTC())
		if err != nil {
			return err
		}
		carried, err := tx.ReassignIncompleteTasks(ctx, shift.ID)
		if err != nil {
			return err
		}
		result = StartResult{Shift: *shift, Carried: carried}
		return nil
	})
	if err != nil {
		return StartResult{}, err
	}
	if !result.AlreadyActive {
		s.logger.Info("shift started",
			logging.Int64(logging.FieldShiftID, result.Shift.ID),
			logging.Int64("carried", result.Carried),
		)
	}
	return result, nil
}

// EndShift closes the active shift. Returns ErrNoActiveShift when none is
// open, so ending twice without a start is rejected the second time.
func (s *Service) EndShift(ctx context.Context) (*store.Shift, error) {
	var shift *store.Shift
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return ErrNoActiveShift
		}
		if err := tx.CloseShift(ctx, active.ID, s.now().UTC()); err != nil {
			return err
		}
		shift, err = tx.ShiftByID(ctx, active.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("shift ended", logging.Int64(logging.FieldShiftID, shift.ID))
	return shift, nil
}

// SetShiftNotes replaces the notes on a shift, open or closed.
func (s *Service) SetShiftNotes(ctx context.Context, id int64, notes string) (*store.Shift, error) {
	var shift *store.Shift
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		updated, err := tx.UpdateShiftNotes(ctx, id, notes)
		if err != nil {
			return err
		}
		if !updated {
			return ErrShiftNotFound
		}
		shift, err = tx.ShiftByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// ListTasksForActiveShift returns the active shift's tasks, newest first.
// The list is empty (not an error) when no shift is active.
func (s *Service) ListTasksForActiveShift(ctx context.Context) ([]*store.Task, error) {
	var tasks []*store.Task
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return nil
		}
		tasks, err = tx.TasksByShift(ctx, active.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// AddTask creates an open task with a trimmed title, attached to the active
// shift when one exists and unassigned otherwise.
func (s *Service) AddTask(ctx context.Context, title string) (*store.Task, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, ErrEmptyTitle
	}

	var task *store.Task
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		active, err := tx.ActiveShift(ctx)
		if err != nil {
			return err
		}
		var shiftID *int64
		if active != nil {
			shiftID = &active.ID
		}
		task, err = tx.InsertTask(ctx, trimmed, shiftID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("task added",
		logging.Int64(logging.FieldTaskID, task.ID),
		logging.Bool("attached", task.ShiftID != nil),
	)
	return task, nil
}

// CompleteTask stamps a task completed. Completing an already-complete task
// refreshes the timestamp, which is a harmless no-op in effect.
func (s *Service) CompleteTask(ctx context.Context, id int64) (*store.Task, error) {
	now := s.now().UTC()
	return s.setCompletion(ctx, id, &now)
}

// ReopenTask clears a task's completion timestamp. Reopening an open task is
// a no-op on state.
func (s *Service) ReopenTask(ctx context.Context, id int64) (*store.Task, error) {
	return s.setCompletion(ctx, id, nil)
}

func (s *Service) setCompletion(ctx context.Context, id int64, completedAt *time.Time) (*store.Task, error) {
	var task *store.Task
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		updated, err := tx.SetTaskCompletion(ctx, id, completedAt)
		if err != nil {
			return err
		}
		if !updated {
			return ErrTaskNotFound
		}
		task, err = tx.TaskByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("task completion updated",
		logging.Int64(logging.FieldTaskID, id),
		logging.Bool("completed", completedAt != nil),
	)
	return task, nil
}

// DeleteTask removes a task and reports whether it existed.
func (s *Service) DeleteTask(ctx context.Context, id int64) (bool, error) {
	var existed bool
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		existed, err = tx.DeleteTask(ctx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if existed {
		s.logger.Info("task deleted", logging.Int64(logging.FieldTaskID, id))
	}
	return existed, nil
}
