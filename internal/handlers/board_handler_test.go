package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kanban-board-api/internal/auth"
	"kanban-board-api/internal/config"
	"kanban-board-api/internal/kanban"
	"kanban-board-api/internal/middleware"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testTokens = auth.NewTokens(config.Config{
	JWTSecret:   "handler-tests",
	JWTIssuer:   "kanban-board-api",
	JWTAudience: "kanban-board-clients",
	TokenTTL:    time.Hour,
})

type boardFixture struct {
	router *gin.Engine
	board  *kanban.Board
	token  string
	events []kanban.Event
}

func newBoardFixture(t *testing.T) *boardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	past := time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)
	columns := []models.Column{
		{ID: "todo", Title: "To Do", Color: models.ColorBlue, TaskIDs: []string{"task-1", "task-2"}},
		{ID: "in-progress", Title: "In Progress", Color: models.ColorYellow, TaskIDs: []string{"task-3"}, MaxTasks: 1},
		{ID: "done", Title: "Done", Color: models.ColorGreen, TaskIDs: []string{}},
	}
	tasks := map[string]models.Task{
		"task-1": {ID: "task-1", Title: "Create project documentation", Status: "todo", Priority: models.PriorityHigh, Assignee: "John Doe"},
		"task-2": {ID: "task-2", Title: "Set up development environment", Status: "todo", Priority: models.PriorityMedium},
		"task-3": {ID: "task-3", Title: "Implement user authentication", Status: "in-progress", Priority: models.PriorityHigh, DueDate: &past},
	}

	f := &boardFixture{}
	board, err := kanban.NewBoard(columns, tasks, kanban.WithListener(func(ev kanban.Event) {
		f.events = append(f.events, ev)
	}))
	require.NoError(t, err)
	f.board = board

	h := NewBoardHandler(board, time.Minute)
	h.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware(testTokens))
	r.GET("/api/board", h.GetBoard)
	r.POST("/api/columns/:columnId/tasks", h.CreateTask)
	r.GET("/api/tasks/:id", h.GetTaskByID)
	r.PUT("/api/tasks/:id", h.UpdateTask)
	r.PATCH("/api/tasks/:id/move", h.MoveTask)
	r.DELETE("/api/tasks/:id", h.DeleteTask)
	f.router = r

	f.token, err = testTokens.Generate("u-1", "alice")
	require.NoError(t, err)
	return f
}

func (f *boardFixture) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *boardFixture) ids(t *testing.T, columnID string) []string {
	t.Helper()
	col, ok := f.board.Column(columnID)
	require.True(t, ok)
	return col.TaskIDs
}

func TestGetBoard(t *testing.T) {
	f := newBoardFixture(t)

	w := f.do(t, http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view BoardView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Columns, 3)
	require.Equal(t, "todo", view.Columns[0].ID)
	require.Len(t, view.Columns[0].Tasks, 2)
	require.Equal(t, "task-1", view.Columns[0].Tasks[0].ID)
	require.Equal(t, "JD", view.Columns[0].Tasks[0].AssigneeInitials)
	require.True(t, view.Columns[1].OverLimit)
	require.True(t, view.Columns[1].Tasks[0].Overdue)
	require.Empty(t, view.Columns[2].Tasks)
}

func TestGetBoard_ReflectsNewRevision(t *testing.T) {
	f := newBoardFixture(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/board", nil).Code)
	require.True(t, f.board.MoveTask("task-1", "todo", "done", 0))

	var view BoardView
	w := f.do(t, http.MethodGet, "/api/board", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Equal(t, uint64(1), view.Revision)
	require.Len(t, view.Columns[2].Tasks, 1)
}

func TestCreateTask_Success(t *testing.T) {
	f := newBoardFixture(t)

	w := f.do(t, http.MethodPost, "/api/columns/todo/tasks", map[string]any{
		"id":       "task-9",
		"title":    "Write release notes",
		"priority": "urgent",
		"tags":     []string{"docs", "docs"},
		"dueDate":  "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "task-9", created.ID)
	require.Equal(t, "todo", created.Status)
	require.Equal(t, []string{"docs"}, created.Tags)
	require.NotNil(t, created.DueDate)
	require.False(t, created.CreatedAt.IsZero())

	require.Equal(t, []string{"task-1", "task-2", "task-9"}, f.ids(t, "todo"))
	require.Len(t, f.events, 1)
	require.Equal(t, kanban.EventTaskCreated, f.events[0].Kind)
}

func TestCreateTask_Rejections(t *testing.T) {
	f := newBoardFixture(t)

	w := f.do(t, http.MethodPost, "/api/columns/todo/tasks", map[string]any{"description": "no title"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/columns/ghost/tasks", map[string]any{"title": "x"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/columns/in-progress/tasks", map[string]any{"title": "x"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/columns/todo/tasks", map[string]any{"title": "x", "priority": "critical"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/columns/todo/tasks", map[string]any{"title": "x", "dueDate": "someday"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.Empty(t, f.events)
}

func TestUpdateTask_StatusChange(t *testing.T) {
	f := newBoardFixture(t)

	w := f.do(t, http.MethodPut, "/api/tasks/task-1", map[string]any{"status": "done", "title": "Docs v2", "dueDate": "2024-02-10"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Equal(t, "done", updated.Status)
	require.Equal(t, "Docs v2", updated.Title)
	require.Equal(t, []string{"task-2"}, f.ids(t, "todo"))
	require.Equal(t, []string{"task-1"}, f.ids(t, "done"))

	w = f.do(t, http.MethodPut, "/api/tasks/task-1", map[string]any{"dueDate": ""})
	require.Equal(t, http.StatusOK, w.Code)
	task, _ := f.board.Task("task-1")
	require.Nil(t, task.DueDate)
}

func TestUpdateTask_Errors(t *testing.T) {
	f := newBoardFixture(t)

	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/api/tasks/ghost", map[string]any{"title": "x"}).Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/tasks/task-1", map[string]any{"status": "ghost"}).Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/tasks/task-1", map[string]any{"title": " "}).Code)
	require.Empty(t, f.events)
}

func TestMoveTask(t *testing.T) {
	f := newBoardFixture(t)

	w := f.do(t, http.MethodPatch, "/api/tasks/task-2/move", map[string]any{"fromColumnId": "todo", "toColumnId": "todo", "index": 0})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"task-2", "task-1"}, f.ids(t, "todo"))

	// without fromColumnId the current status is used
	w = f.do(t, http.MethodPatch, "/api/tasks/task-1/move", map[string]any{"toColumnId": "done", "index": 0})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"task-1"}, f.ids(t, "done"))
	task, _ := f.board.Task("task-1")
	require.Equal(t, "done", task.Status)

	require.Len(t, f.events, 2)
	require.Equal(t, "todo", f.events[1].FromColumnID)
}

func TestMoveTask_Rejections(t *testing.T) {
	f := newBoardFixture(t)

	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/tasks/task-1/move", map[string]any{"toColumnId": "done"}).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/api/tasks/ghost/move", map[string]any{"toColumnId": "done", "index": 0}).Code)
	// stale source column
	require.Equal(t, http.StatusConflict, f.do(t, http.MethodPatch, "/api/tasks/task-1/move", map[string]any{"fromColumnId": "done", "toColumnId": "todo", "index": 0}).Code)
	require.Equal(t, http.StatusConflict, f.do(t, http.MethodPatch, "/api/tasks/task-1/move", map[string]any{"toColumnId": "ghost", "index": 0}).Code)
	require.Empty(t, f.events)
}

func TestDeleteTask(t *testing.T) {
	f := newBoardFixture(t)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/tasks/task-1", nil).Code)
	require.Equal(t, []string{"task-2"}, f.ids(t, "todo"))
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/tasks/task-1", nil).Code)
	require.Len(t, f.events, 1)
}

func TestGetTaskByID(t *testing.T) {
	f := newBoardFixture(t)

	w := f.do(t, http.MethodGet, "/api/tasks/task-3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view TaskView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.True(t, view.Overdue)

	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/tasks/ghost", nil).Code)
}
