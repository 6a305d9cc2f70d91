package kanban

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"kanban-board-api/internal/models"
)

// Validate checks the membership invariants between columns and tasks:
// column ids are unique, every listed id names an existing task whose status
// is that column, and every task is listed exactly once. All problems found
// are returned joined, each wrapping ErrInconsistentBoard.
func Validate(columns []models.Column, tasks map[string]models.Task) error {
	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrInconsistentBoard}, args...)...))
	}

	columnSeen := make(map[string]struct{}, len(columns))
	owner := make(map[string]string, len(tasks))
	for _, col := range columns {
		if _, dup := columnSeen[col.ID]; dup {
			report("duplicate column id %q", col.ID)
			continue
		}
		columnSeen[col.ID] = struct{}{}

		for _, id := range col.TaskIDs {
			if prev, listed := owner[id]; listed {
				report("task %q listed in %q and %q", id, prev, col.ID)
				continue
			}
			owner[id] = col.ID

			task, ok := tasks[id]
			if !ok {
				report("column %q references unknown task %q", col.ID, id)
				continue
			}
			if task.Status != col.ID {
				report("task %q has status %q but is listed in %q", id, task.Status, col.ID)
			}
		}
	}

	for _, id := range slices.Sorted(maps.Keys(tasks)) {
		if _, listed := owner[id]; !listed {
			report("task %q is not listed in any column", id)
		}
	}

	return errors.Join(problems...)
}
