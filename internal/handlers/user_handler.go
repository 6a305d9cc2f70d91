package handlers

import (
	"net/http"

	"kanban-board-api/internal/database"
	"kanban-board-api/internal/kanban"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
)

// UserResponse is a board member offered as a task assignee.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Initials string `json:"initials"`
}

// GetAllUsers handles GET /api/users
func GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := database.GetDB().Order("username asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			ID:       u.ID,
			Username: u.Username,
			Initials: kanban.Initials(u.Username),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}
