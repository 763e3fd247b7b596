package store

import "time"

// Shift is one recurring work shift. A nil EndedAt means the shift is active;
// at most one shift is active at a time.
type Shift struct {
	ID        int64
	StartedAt time.Time
	EndedAt   *time.Time
	Notes     string
	CreatedAt time.Time
}

// Active reports whether the shift has not been ended.
func (s Shift) Active() bool {
	return s.EndedAt == nil
}

// Task is a unit of work logged against a shift. A nil CompletedAt means the
// task is open. ShiftID is nil only for tasks created while no shift was
// active; the next shift start reassigns every incomplete task to itself.
type Task struct {
	ID          int64
	Title       string
	CreatedAt   time.Time
	CompletedAt *time.Time
	ShiftID     *int64
}

// Completed reports whether the task has a completion timestamp.
func (t Task) Completed() bool {
	return t.CompletedAt != nil
}
