package kanban

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"kanban-board-api/internal/models"
)

// TaskPatch carries the fields of an update. Nil fields are left untouched.
type TaskPatch struct {
	Title        *string              `json:"title,omitempty"`
	Description  *string              `json:"description,omitempty"`
	Status       *string              `json:"status,omitempty"`
	Priority     *models.TaskPriority `json:"priority,omitempty"`
	Assignee     *string              `json:"assignee,omitempty"`
	Tags         *[]string            `json:"tags,omitempty"`
	DueDate      *time.Time           `json:"dueDate,omitempty"`
	ClearDueDate bool                 `json:"clearDueDate,omitempty"`
}

func (p TaskPatch) validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, *p.Priority)
	}
	return nil
}

func (p TaskPatch) apply(t models.Task) models.Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Assignee != nil {
		t.Assignee = strings.TrimSpace(*p.Assignee)
	}
	if p.Tags != nil {
		t.Tags = NormalizeTags(*p.Tags)
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	return t
}

// applied returns the fields of p as they were stored on t, so listeners see
// trimmed and normalized values. The result shares nothing with p or t.
func (p TaskPatch) applied(t models.Task) TaskPatch {
	var out TaskPatch
	if p.Title != nil {
		out.Title = &t.Title
	}
	if p.Description != nil {
		out.Description = &t.Description
	}
	if p.Status != nil {
		out.Status = &t.Status
	}
	if p.Priority != nil {
		out.Priority = &t.Priority
	}
	if p.Assignee != nil {
		out.Assignee = &t.Assignee
	}
	if p.Tags != nil {
		tags := append([]string{}, t.Tags...)
		out.Tags = &tags
	}
	if p.ClearDueDate {
		out.ClearDueDate = true
	} else if p.DueDate != nil && t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	return out
}

// NormalizeTags trims every tag, drops empty ones and keeps the first
// occurrence of each duplicate. It returns nil when nothing is left.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// IsOverdue reports whether the task has a due date that lies before now.
func IsOverdue(t models.Task, now time.Time) bool {
	return t.DueDate != nil && now.After(*t.DueDate)
}

// IsColumnOverLimit reports whether a bounded column has reached its capacity.
func IsColumnOverLimit(c models.Column) bool {
	if c.MaxTasks <= 0 {
		return false
	}
	return len(c.TaskIDs) >= c.MaxTasks
}

// Initials returns up to two upper-cased initials for an assignee label.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, part := range strings.Fields(name) {
		if n == 2 {
			break
		}
		r := []rune(part)[0]
		b.WriteRune(unicode.ToUpper(r))
		n++
	}
	return b.String()
}

// prepareNew validates a task for insertion and fills in the defaults a new
// task gets: an id, a creation time and medium priority.
func (b *Board) prepareNew(t models.Task) (models.Task, error) {
	t = t.Clone()
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return t, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !t.Priority.Valid() {
		return t, fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}
	if t.ID == "" {
		t.ID = b.newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = b.now()
	}
	t.Assignee = strings.TrimSpace(t.Assignee)
	t.Tags = NormalizeTags(t.Tags)
	return t, nil
}
