package shifts

import "errors"

var (
	// ErrNoActiveShift signals that an operation needed an active shift and
	// none exists. Boundaries map it to a conflict response.
	ErrNoActiveShift = errors.New("no active shift")
	// ErrShiftNotFound signals that the referenced shift id does not exist.
	ErrShiftNotFound = errors.New("shift not found")
	// ErrTaskNotFound signals that the referenced task id does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyTitle signals a task title that is empty after trimming.
	ErrEmptyTitle = errors.New("task title is empty")
)
