package models

// ColumnColor is a presentation tag for a column
type ColumnColor string

const (
	ColorBlue   ColumnColor = "blue"
	ColorGreen  ColumnColor = "green"
	ColorYellow ColumnColor = "yellow"
	ColorRed    ColumnColor = "red"
	ColorPurple ColumnColor = "purple"
	ColorGray   ColumnColor = "gray"
)

// Normalize maps unknown colors to gray.
func (c ColumnColor) Normalize() ColumnColor {
	switch c {
	case ColorBlue, ColorGreen, ColorYellow, ColorRed, ColorPurple, ColorGray:
		return c
	}
	return ColorGray
}

// Column represents a workflow stage on the board. TaskIDs is the
// authoritative ordering of the tasks inside the column.
type Column struct {
	ID       string      `json:"id" gorm:"primaryKey"`
	Title    string      `json:"title" gorm:"not null"`
	Color    ColumnColor `json:"color" gorm:"default:'gray'"`
	TaskIDs  []string    `json:"taskIds" gorm:"column:task_ids;type:text;serializer:json"`
	MaxTasks int         `json:"maxTasks,omitempty" gorm:"column:max_tasks"` // 0 means unbounded
	Position int         `json:"-" gorm:"index"`
}

// TableName specifies the table name for Column Model
func (Column) TableName() string {
	return "columns"
}

// Clone returns a copy of c with its own TaskIDs slice.
func (c Column) Clone() Column {
	c.TaskIDs = append(make([]string, 0, len(c.TaskIDs)), c.TaskIDs...)
	return c
}
