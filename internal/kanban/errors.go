package kanban

import "errors"

var (
	// ErrTaskNotFound is returned when an update targets a task id the board
	// does not hold.
	ErrTaskNotFound = errors.New("task not found")

	// ErrColumnNotFound is returned when a status change names a column the
	// board does not hold.
	ErrColumnNotFound = errors.New("column not found")

	// ErrInvalidTask wraps field validation failures on create and update.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInconsistentBoard wraps every problem reported by Validate.
	ErrInconsistentBoard = errors.New("inconsistent board")
)
