package routes

import (
	"net/http"
	"time"

	"kanban-board-api/internal/auth"
	"kanban-board-api/internal/handlers"
	"kanban-board-api/internal/kanban"
	"kanban-board-api/internal/middleware"
	"kanban-board-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the routes are wired to.
type Deps struct {
	Board         *kanban.Board
	Tokens        *auth.Tokens
	Hub           *realtime.Hub
	Gatherer      prometheus.Gatherer
	BoardCacheTTL time.Duration
}

func SetupRoutes(deps Deps) *gin.Engine {
	ginRouter := gin.Default()
	ginRouter.Use(middleware.CORS())

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Kanban Board API is running",
		})
	})
	if deps.Gatherer != nil {
		ginRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/login", handlers.Login(deps.Tokens))
	}

	board := handlers.NewBoardHandler(deps.Board, deps.BoardCacheTTL)

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(deps.Tokens))
	{
		protectedRoutes.GET("/board", board.GetBoard)
		protectedRoutes.POST("/columns/:columnId/tasks", board.CreateTask)
		protectedRoutes.GET("/tasks/:id", board.GetTaskByID)
		protectedRoutes.PUT("/tasks/:id", board.UpdateTask)
		protectedRoutes.PATCH("/tasks/:id/move", board.MoveTask)
		protectedRoutes.DELETE("/tasks/:id", board.DeleteTask)
		protectedRoutes.GET("/users", handlers.GetAllUsers)
		protectedRoutes.GET("/ws", handlers.WebSocketHandler(deps.Hub))
	}

	return ginRouter
}
