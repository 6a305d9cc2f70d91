package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kanban-board-api/internal/cache"
	"kanban-board-api/internal/kanban"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	ID          string              `json:"id"`
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	Assignee    string              `json:"assignee"`
	Tags        []string            `json:"tags"`
	DueDate     string              `json:"dueDate"`
}

// UpdateTaskRequest represents the request payload for updating a task.
// An empty dueDate clears it.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *string              `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	Assignee    *string              `json:"assignee"`
	Tags        *[]string            `json:"tags"`
	DueDate     *string              `json:"dueDate"`
}

// MoveTaskRequest represents a drag-and-drop release. When fromColumnId is
// empty the task's current status is used.
type MoveTaskRequest struct {
	FromColumnID string `json:"fromColumnId"`
	ToColumnID   string `json:"toColumnId" binding:"required"`
	Index        *int   `json:"index" binding:"required"`
}

// TaskView is a task as rendered on the board.
type TaskView struct {
	models.Task
	Overdue          bool   `json:"overdue"`
	AssigneeInitials string `json:"assigneeInitials,omitempty"`
}

// ColumnView is a column with its tasks resolved in order.
type ColumnView struct {
	models.Column
	Tasks     []TaskView `json:"tasks"`
	OverLimit bool       `json:"overLimit"`
}

// BoardView is the payload of GET /api/board.
type BoardView struct {
	Revision uint64       `json:"revision"`
	Columns  []ColumnView `json:"columns"`
}

// BoardHandler serves the board endpoints for one kanban.Board.
type BoardHandler struct {
	Board *kanban.Board

	views    *cache.Cache[uint64, BoardView]
	cacheTTL time.Duration
	now      func() time.Time
}

// NewBoardHandler returns handlers for board. Rendered board views are cached
// per revision for cacheTTL; overdue flags may lag by that much.
func NewBoardHandler(board *kanban.Board, cacheTTL time.Duration) *BoardHandler {
	return &BoardHandler{
		Board:    board,
		views:    cache.New[uint64, BoardView](),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func requireUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return "", false
	}
	return userID, true
}

func (h *BoardHandler) buildView(snap kanban.Snapshot) BoardView {
	now := h.now()
	view := BoardView{Revision: snap.Revision, Columns: make([]ColumnView, 0, len(snap.Columns))}
	for _, col := range snap.Columns {
		cv := ColumnView{
			Column:    col,
			Tasks:     make([]TaskView, 0, len(col.TaskIDs)),
			OverLimit: kanban.IsColumnOverLimit(col),
		}
		for _, id := range col.TaskIDs {
			t, ok := snap.Tasks[id]
			if !ok {
				continue
			}
			cv.Tasks = append(cv.Tasks, TaskView{
				Task:             t,
				Overdue:          kanban.IsOverdue(t, now),
				AssigneeInitials: kanban.Initials(t.Assignee),
			})
		}
		view.Columns = append(view.Columns, cv)
	}
	return view
}

// GetBoard handles GET /api/board
func (h *BoardHandler) GetBoard(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	view := h.views.Compute(h.Board.Revision(), h.cacheTTL, func() BoardView {
		return h.buildView(h.Board.Snapshot())
	})
	c.JSON(http.StatusOK, view)
}

// GetTaskByID handles GET /api/tasks/:id
func (h *BoardHandler) GetTaskByID(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	task, ok := h.Board.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, TaskView{
		Task:             task,
		Overdue:          kanban.IsOverdue(task, h.now()),
		AssigneeInitials: kanban.Initials(task.Assignee),
	})
}

// CreateTask handles POST /api/columns/:columnId/tasks
// The column must exist and must not be full.
func (h *BoardHandler) CreateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	columnID := c.Param("columnId")
	column, found := h.Board.Column(columnID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Column not found"})
		return
	}
	if kanban.IsColumnOverLimit(column) {
		c.JSON(http.StatusConflict, gin.H{"error": "Column has reached its task limit"})
		return
	}

	task := models.Task{
		ID:          strings.TrimSpace(req.ID),
		Title:       req.Title,
		Description: req.Description,
		Status:      columnID,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		Tags:        req.Tags,
	}
	if req.DueDate != "" {
		due, ok := parseDateFlexible(req.DueDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dueDate"})
			return
		}
		task.DueDate = &due
	}

	created, err := h.Board.CreateTask(columnID, task)
	if err != nil {
		writeBoardError(c, err)
		return
	}

	log.WithFields(log.Fields{"user_id": userID, "task_id": created.ID, "column": columnID}).Info("task created")
	c.JSON(http.StatusCreated, created)
}

// UpdateTask handles PUT /api/tasks/:id
func (h *BoardHandler) UpdateTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := kanban.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		Tags:        req.Tags,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			due, ok := parseDateFlexible(*req.DueDate)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dueDate"})
				return
			}
			patch.DueDate = &due
		}
	}

	taskID := c.Param("id")
	updated, err := h.Board.UpdateTask(taskID, patch)
	if err != nil {
		writeBoardError(c, err)
		return
	}

	log.WithFields(log.Fields{"user_id": userID, "task_id": taskID}).Info("task updated")
	c.JSON(http.StatusOK, updated)
}

// MoveTask handles PATCH /api/tasks/:id/move
// A move that no longer applies (stale drag) answers 409 and changes nothing.
func (h *BoardHandler) MoveTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskID := c.Param("id")
	if _, found := h.Board.Task(taskID); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	var moved bool
	if req.FromColumnID == "" {
		moved = h.Board.DropTask(taskID, req.ToColumnID, *req.Index)
	} else {
		moved = h.Board.MoveTask(taskID, req.FromColumnID, req.ToColumnID, *req.Index)
	}
	if !moved {
		c.JSON(http.StatusConflict, gin.H{"error": "Task could not be moved"})
		return
	}

	task, _ := h.Board.Task(taskID)
	column, _ := h.Board.Column(task.Status)

	log.WithFields(log.Fields{
		"user_id": userID,
		"task_id": taskID,
		"to":      req.ToColumnID,
		"index":   *req.Index,
	}).Info("task moved")
	c.JSON(http.StatusOK, gin.H{
		"task":   task,
		"column": column,
	})
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *BoardHandler) DeleteTask(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	taskID := c.Param("id")
	if !h.Board.DeleteTask(taskID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	log.WithFields(log.Fields{"user_id": userID, "task_id": taskID}).Info("task deleted")
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"id":      taskID,
	})
}

func writeBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, kanban.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, kanban.ErrColumnNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status column"})
	case errors.Is(err, kanban.ErrInvalidTask):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("board mutation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
	}
}
