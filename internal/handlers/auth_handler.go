package handlers

import (
	"errors"
	"net/http"
	"strings"

	"kanban-board-api/internal/auth"
	"kanban-board-api/internal/database"
	"kanban-board-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Login handles POST /api/login
// The first login for a username registers it; later logins must match the
// stored password.
func Login(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request. Username and password are required.",
			})
			return
		}
		username := strings.TrimSpace(req.Username)

		db := database.GetDB()
		var user models.User
		err := db.Where("username = ?", username).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
				return
			}
			user = models.User{ID: "user-" + uuid.NewString(), Username: username, Password: hash}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
				return
			}
			log.WithField("username", username).Info("registered new user")
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		case !auth.CheckPassword(user.Password, req.Password):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}

		token, err := tokens.Generate(user.ID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{
			Token:    token,
			UserID:   user.ID,
			Username: user.Username,
			Message:  "Login successful",
		})
	}
}
