package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"kanban-board-api/internal/kanban"
	"kanban-board-api/internal/models"
)

// BoardFile is the TOML layout used to seed a new board:
//
//	[[column]]
//	id = "todo"
//	title = "To Do"
//	color = "blue"
//	max_tasks = 5
//
//	[[task]]
//	id = "task-1"
//	title = "Create project documentation"
//	status = "todo"
//	tags = ["documentation"]
//	due = 2024-02-01T00:00:00Z
//
// Tasks are listed in their column in file order.
type BoardFile struct {
	Columns []ColumnSpec `toml:"column"`
	Tasks   []TaskSpec   `toml:"task"`
}

type ColumnSpec struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Color    string `toml:"color"`
	MaxTasks int    `toml:"max_tasks"`
}

type TaskSpec struct {
	ID          string     `toml:"id"`
	Title       string     `toml:"title"`
	Description string     `toml:"description"`
	Status      string     `toml:"status"`
	Priority    string     `toml:"priority"`
	Assignee    string     `toml:"assignee"`
	Tags        []string   `toml:"tags"`
	Created     time.Time  `toml:"created"`
	Due         *time.Time `toml:"due"`
}

// LoadBoardFile decodes a board seed file into columns and tasks.
func LoadBoardFile(path string) ([]models.Column, map[string]models.Task, error) {
	var f BoardFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, nil, fmt.Errorf("decode board file %s: %w", path, err)
	}
	return f.Build()
}

// Build converts the decoded file into board state. Tasks follow the same
// rules as tasks created through the board: the title is required, tags are
// normalized and the assignee is trimmed. Tasks whose status names no column
// are rejected.
func (f BoardFile) Build() ([]models.Column, map[string]models.Task, error) {
	columns := make([]models.Column, 0, len(f.Columns))
	index := make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		if c.ID == "" {
			return nil, nil, fmt.Errorf("column %d: id is required", i)
		}
		if _, dup := index[c.ID]; dup {
			return nil, nil, fmt.Errorf("column %q declared twice", c.ID)
		}
		title := c.Title
		if title == "" {
			title = c.ID
		}
		index[c.ID] = len(columns)
		columns = append(columns, models.Column{
			ID:       c.ID,
			Title:    title,
			Color:    models.ColumnColor(c.Color).Normalize(),
			TaskIDs:  []string{},
			MaxTasks: c.MaxTasks,
			Position: i,
		})
	}

	tasks := make(map[string]models.Task, len(f.Tasks))
	for _, t := range f.Tasks {
		pos, ok := index[t.Status]
		if !ok {
			return nil, nil, fmt.Errorf("task %q: unknown status %q", t.ID, t.Status)
		}
		if _, dup := tasks[t.ID]; dup || t.ID == "" {
			return nil, nil, fmt.Errorf("task %q: id missing or declared twice", t.ID)
		}
		title := strings.TrimSpace(t.Title)
		if title == "" {
			return nil, nil, fmt.Errorf("task %q: title is required", t.ID)
		}
		priority := models.TaskPriority(t.Priority)
		if priority == "" {
			priority = models.PriorityMedium
		}
		if !priority.Valid() {
			return nil, nil, fmt.Errorf("task %q: unknown priority %q", t.ID, t.Priority)
		}
		created := t.Created
		if created.IsZero() {
			created = time.Now()
		}
		tasks[t.ID] = models.Task{
			ID:          t.ID,
			Title:       title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    priority,
			Assignee:    strings.TrimSpace(t.Assignee),
			Tags:        kanban.NormalizeTags(t.Tags),
			CreatedAt:   created,
			DueDate:     t.Due,
		}
		columns[pos].TaskIDs = append(columns[pos].TaskIDs, t.ID)
	}
	return columns, tasks, nil
}

// DefaultBoard is the empty four-stage board used when nothing else is configured.
func DefaultBoard() ([]models.Column, map[string]models.Task) {
	columns, tasks, _ := BoardFile{Columns: []ColumnSpec{
		{ID: "todo", Title: "To Do", Color: "blue"},
		{ID: "in-progress", Title: "In Progress", Color: "yellow"},
		{ID: "review", Title: "Review", Color: "purple"},
		{ID: "done", Title: "Done", Color: "green"},
	}}.Build()
	return columns, tasks
}
