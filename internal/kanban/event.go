package kanban

import "kanban-board-api/internal/models"

// EventKind names the mutation an Event reports.
type EventKind string

const (
	EventTaskMoved   EventKind = "task_moved"
	EventTaskCreated EventKind = "task_created"
	EventTaskUpdated EventKind = "task_updated"
	EventTaskDeleted EventKind = "task_deleted"
)

// Event is delivered to listeners after a mutation has been committed.
// Which fields are set depends on Kind:
//
//	task_moved    TaskID, FromColumnID, ToColumnID, NewIndex
//	task_created  ColumnID, Task
//	task_updated  TaskID, Patch
//	task_deleted  TaskID
//
// Listeners run on the mutating goroutine after the board lock is released,
// so two concurrent mutations may notify in either order. Revision gives the
// commit order.
type Event struct {
	Kind         EventKind    `json:"type"`
	TaskID       string       `json:"taskId"`
	ColumnID     string       `json:"columnId,omitempty"`
	FromColumnID string       `json:"fromColumnId,omitempty"`
	ToColumnID   string       `json:"toColumnId,omitempty"`
	NewIndex     int          `json:"newIndex"`
	Task         *models.Task `json:"task,omitempty"`
	Patch        *TaskPatch   `json:"patch,omitempty"`
	Revision     uint64       `json:"revision"`
}

// Listener receives committed board events.
type Listener func(Event)
