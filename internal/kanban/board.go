package kanban

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kanban-board-api/internal/models"
)

// Board owns the columns and the task map and keeps the two consistent.
// Every mutation builds new collections and swaps them in under one lock, so
// readers never see a column list that disagrees with a task's status.
type Board struct {
	mu       sync.Mutex
	columns  []models.Column
	tasks    map[string]models.Task
	revision uint64

	lmu       sync.RWMutex
	listeners []subscription
	nextSub   int

	now     func() time.Time
	newID   func() string
	lenient bool
}

type subscription struct {
	id int
	fn Listener
}

// Option configures a Board at construction.
type Option func(*Board)

// WithClock overrides the clock used for CreatedAt defaults.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithIDGenerator overrides how ids are generated for tasks created without one.
func WithIDGenerator(gen func() string) Option {
	return func(b *Board) { b.newID = gen }
}

// WithLenientLoad accepts initial state that fails Validate. Duplicate column
// ids are still rejected.
func WithLenientLoad() Option {
	return func(b *Board) { b.lenient = true }
}

// WithListener registers a listener before the board is returned.
func WithListener(fn Listener) Option {
	return func(b *Board) { b.Subscribe(fn) }
}

// Snapshot is a copy of the board state at one revision.
type Snapshot struct {
	Columns  []models.Column
	Tasks    map[string]models.Task
	Revision uint64
}

// NewBoard copies the host supplied columns and tasks into a new Board.
func NewBoard(columns []models.Column, tasks map[string]models.Task, opts ...Option) (*Board, error) {
	b := &Board{
		columns: cloneColumns(columns),
		tasks:   cloneTasks(tasks),
		now:     time.Now,
		newID:   func() string { return "task-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}

	seen := make(map[string]struct{}, len(b.columns))
	for _, col := range b.columns {
		if _, dup := seen[col.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate column id %q", ErrInconsistentBoard, col.ID)
		}
		seen[col.ID] = struct{}{}
	}
	if !b.lenient {
		if err := Validate(b.columns, b.tasks); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Subscribe registers fn for every committed event and returns a function
// that removes it again.
func (b *Board) Subscribe(fn Listener) (unsubscribe func()) {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	b.nextSub++
	id := b.nextSub
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})

	return func() {
		b.lmu.Lock()
		defer b.lmu.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *Board) emit(ev Event) {
	b.lmu.RLock()
	subs := append([]subscription(nil), b.listeners...)
	b.lmu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}

// MoveTask moves taskID from one column to position newIndex of another, or
// reorders it when both columns are the same. A cross-column move also sets
// the task's status. It returns false, without notifying, when either column
// is unknown or the task is not listed in the source column.
func (b *Board) MoveTask(taskID, fromColumnID, toColumnID string, newIndex int) bool {
	b.mu.Lock()
	ev, ok := b.moveLocked(taskID, fromColumnID, toColumnID, newIndex)
	b.mu.Unlock()

	if ok {
		b.emit(ev)
	}
	return ok
}

// DropTask moves taskID into toColumnID at index, using the task's current
// status as the source column.
func (b *Board) DropTask(taskID, toColumnID string, index int) bool {
	b.mu.Lock()
	task, found := b.tasks[taskID]
	if !found {
		b.mu.Unlock()
		return false
	}
	ev, ok := b.moveLocked(taskID, task.Status, toColumnID, index)
	b.mu.Unlock()

	if ok {
		b.emit(ev)
	}
	return ok
}

func (b *Board) moveLocked(taskID, fromColumnID, toColumnID string, newIndex int) (Event, bool) {
	from := b.columnIndex(fromColumnID)
	to := b.columnIndex(toColumnID)
	if from < 0 || to < 0 {
		return Event{}, false
	}
	current := indexOf(b.columns[from].TaskIDs, taskID)
	if current < 0 {
		return Event{}, false
	}
	task, ok := b.tasks[taskID]
	if !ok {
		return Event{}, false
	}

	columns := append([]models.Column(nil), b.columns...)
	tasks := b.tasks
	if from == to {
		columns[from].TaskIDs = Reorder(columns[from].TaskIDs, current, newIndex)
	} else {
		columns[from].TaskIDs, columns[to].TaskIDs = Transfer(columns[from].TaskIDs, columns[to].TaskIDs, current, newIndex)
		tasks = cloneTasks(b.tasks)
		task.Status = toColumnID
		tasks[taskID] = task
	}
	rev := b.commit(columns, tasks)

	return Event{
		Kind:         EventTaskMoved,
		TaskID:       taskID,
		FromColumnID: fromColumnID,
		ToColumnID:   toColumnID,
		NewIndex:     newIndex,
		Revision:     rev,
	}, true
}

// CreateTask stores task and appends its id to columnID. Missing id, creation
// time and priority are defaulted and the title is required. An existing task
// with the same id is overwritten and its id is taken out of any other column.
//
// When columnID names no column the task is still stored but is listed in no
// column; callers that care should check the column first.
func (b *Board) CreateTask(columnID string, task models.Task) (models.Task, error) {
	task, err := b.prepareNew(task)
	if err != nil {
		return models.Task{}, err
	}

	b.mu.Lock()
	columns := append([]models.Column(nil), b.columns...)
	for i := range columns {
		if indexOf(columns[i].TaskIDs, task.ID) >= 0 {
			columns[i].TaskIDs = without(columns[i].TaskIDs, task.ID)
		}
	}
	if pos := b.columnIndex(columnID); pos >= 0 {
		task.Status = columnID
		ids := columns[pos].TaskIDs
		columns[pos].TaskIDs = append(append(make([]string, 0, len(ids)+1), ids...), task.ID)
	}
	tasks := cloneTasks(b.tasks)
	tasks[task.ID] = task
	rev := b.commit(columns, tasks)
	b.mu.Unlock()

	created := task.Clone()
	b.emit(Event{
		Kind:     EventTaskCreated,
		TaskID:   task.ID,
		ColumnID: columnID,
		Task:     &created,
		Revision: rev,
	})
	return task.Clone(), nil
}

// UpdateTask merges patch into the task. A status change moves the id to the
// end of the new column. It fails with ErrTaskNotFound for an unknown task and
// with ErrColumnNotFound when the new status names no column; in both cases
// nothing is changed.
func (b *Board) UpdateTask(taskID string, patch TaskPatch) (models.Task, error) {
	if err := patch.validate(); err != nil {
		return models.Task{}, err
	}

	b.mu.Lock()
	old, ok := b.tasks[taskID]
	if !ok {
		b.mu.Unlock()
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	updated := patch.apply(old.Clone())

	columns := b.columns
	if patch.Status != nil && *patch.Status != old.Status {
		target := b.columnIndex(*patch.Status)
		if target < 0 {
			b.mu.Unlock()
			return models.Task{}, fmt.Errorf("%w: %s", ErrColumnNotFound, *patch.Status)
		}
		columns = append([]models.Column(nil), b.columns...)
		for i := range columns {
			if indexOf(columns[i].TaskIDs, taskID) >= 0 {
				columns[i].TaskIDs = without(columns[i].TaskIDs, taskID)
			}
		}
		ids := columns[target].TaskIDs
		columns[target].TaskIDs = append(append(make([]string, 0, len(ids)+1), ids...), taskID)
	}
	tasks := cloneTasks(b.tasks)
	tasks[taskID] = updated
	rev := b.commit(columns, tasks)
	b.mu.Unlock()

	applied := patch.applied(updated)
	b.emit(Event{
		Kind:     EventTaskUpdated,
		TaskID:   taskID,
		Patch:    &applied,
		Revision: rev,
	})
	return updated.Clone(), nil
}

// DeleteTask removes the task and its id from whichever column lists it. It
// returns false, without notifying, when the task does not exist.
func (b *Board) DeleteTask(taskID string) bool {
	b.mu.Lock()
	if _, ok := b.tasks[taskID]; !ok {
		b.mu.Unlock()
		return false
	}
	columns := append([]models.Column(nil), b.columns...)
	for i := range columns {
		if indexOf(columns[i].TaskIDs, taskID) >= 0 {
			columns[i].TaskIDs = without(columns[i].TaskIDs, taskID)
		}
	}
	tasks := cloneTasks(b.tasks)
	delete(tasks, taskID)
	rev := b.commit(columns, tasks)
	b.mu.Unlock()

	b.emit(Event{Kind: EventTaskDeleted, TaskID: taskID, Revision: rev})
	return true
}

// commit swaps in the new collections. Callers hold b.mu.
func (b *Board) commit(columns []models.Column, tasks map[string]models.Task) uint64 {
	b.columns = columns
	b.tasks = tasks
	b.revision++
	return b.revision
}

func (b *Board) columnIndex(id string) int {
	for i := range b.columns {
		if b.columns[i].ID == id {
			return i
		}
	}
	return -1
}

// Columns returns a copy of the columns in board order.
func (b *Board) Columns() []models.Column {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneColumns(b.columns)
}

// Tasks returns a copy of the task map.
func (b *Board) Tasks() map[string]models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneTasks(b.tasks)
}

// Task returns a copy of one task.
func (b *Board) Task(id string) (models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	return t.Clone(), ok
}

// Column returns a copy of one column.
func (b *Board) Column(id string) (models.Column, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.columnIndex(id); i >= 0 {
		return b.columns[i].Clone(), true
	}
	return models.Column{}, false
}

// ColumnTasks resolves a column's ids to tasks in column order. Ids without
// a task are skipped.
func (b *Board) ColumnTasks(columnID string) []models.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.columnIndex(columnID)
	if i < 0 {
		return nil
	}
	out := make([]models.Task, 0, len(b.columns[i].TaskIDs))
	for _, id := range b.columns[i].TaskIDs {
		if t, ok := b.tasks[id]; ok {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Revision counts committed mutations.
func (b *Board) Revision() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// Snapshot copies columns, tasks and revision in one step.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Columns:  cloneColumns(b.columns),
		Tasks:    cloneTasks(b.tasks),
		Revision: b.revision,
	}
}

// Validate runs the package level Validate against the current state.
func (b *Board) Validate() error {
	s := b.Snapshot()
	return Validate(s.Columns, s.Tasks)
}

func cloneColumns(columns []models.Column) []models.Column {
	out := make([]models.Column, len(columns))
	for i, c := range columns {
		out[i] = c.Clone()
	}
	return out
}

func cloneTasks(tasks map[string]models.Task) map[string]models.Task {
	out := make(map[string]models.Task, len(tasks))
	for id, t := range tasks {
		out[id] = t.Clone()
	}
	return out
}
