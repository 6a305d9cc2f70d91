package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kanban-board-api/internal/auth"
	"kanban-board-api/internal/config"
	"kanban-board-api/internal/database"
	"kanban-board-api/internal/kanban"
	"kanban-board-api/internal/metrics"
	"kanban-board-api/internal/realtime"
	"kanban-board-api/internal/routes"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	log.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	// Init database
	if err := database.InitDB(cfg.DBPath, cfg.Debug); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	db := database.GetDB()

	columns, tasks, err := database.LoadOrSeed(db, cfg.BoardFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load board")
	}
	board, err := kanban.NewBoard(columns, tasks, kanban.WithLenientLoad())
	if err != nil {
		log.WithError(err).Fatal("failed to build board")
	}
	if err := board.Validate(); err != nil {
		log.WithError(err).Warn("stored board is inconsistent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board.Subscribe(database.NewPersister(db, board).OnEvent)

	m := metrics.New(prometheus.DefaultRegisterer)
	board.Subscribe(m.Observe(board))

	hub := realtime.GetHub()
	hub.OnChange(func(n int) { m.WSClients.Set(float64(n)) })

	// Without Redis events go straight to this instance's clients.
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("invalid REDIS_URL")
		}
		client := redis.NewClient(opts)
		defer client.Close()

		relay := realtime.NewRelay(client, cfg.RedisChannel, hub)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.WithError(err).Error("realtime relay stopped")
			}
		}()
		board.Subscribe(realtime.EventListener(relay.Publish))
	} else {
		board.Subscribe(realtime.EventListener(func(msg []byte) { hub.Broadcast(msg) }))
	}

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes(routes.Deps{
		Board:         board,
		Tokens:        auth.NewTokens(cfg),
		Hub:           hub,
		Gatherer:      prometheus.DefaultGatherer,
		BoardCacheTTL: cfg.BoardCacheTTL,
	})

	log.WithFields(log.Fields{
		"addr":     cfg.Addr(),
		"columns":  len(columns),
		"tasks":    len(tasks),
		"redis":    cfg.RedisURL != "",
		"revision": board.Revision(),
	}).Info("server starting")
	log.Info("API endpoints:")
	log.Info("  POST   /api/login")
	log.Info("  GET    /api/board")
	log.Info("  POST   /api/columns/:columnId/tasks")
	log.Info("  GET    /api/tasks/:id")
	log.Info("  PUT    /api/tasks/:id")
	log.Info("  PATCH  /api/tasks/:id/move")
	log.Info("  DELETE /api/tasks/:id")
	log.Info("  GET    /api/users")
	log.Info("  GET    /api/ws")
	log.Info("  GET    /health")
	log.Info("  GET    /metrics")

	go func() {
		if err := ginRoutes.Run(cfg.Addr()); err != nil {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
}
