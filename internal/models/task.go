package models

import (
	"time"
)

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents a card on the board. Status holds the id of the column
// whose TaskIDs list contains the task.
type Task struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status" gorm:"not null;index"`
	Priority    TaskPriority `json:"priority" gorm:"default:'medium'"`
	Assignee    string       `json:"assignee,omitempty"`
	Tags        []string     `json:"tags,omitempty" gorm:"type:text;serializer:json"`
	CreatedAt   time.Time    `json:"createdAt"`
	DueDate     *time.Time   `json:"dueDate,omitempty" gorm:"column:due_date"`
	UpdatedAt   time.Time    `json:"-"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// Clone returns a copy of t that shares no slices or pointers with it.
func (t Task) Clone() Task {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
