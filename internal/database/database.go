package database

import (
	"fmt"

	"kanban-board-api/internal/models"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the SQLite file at path and runs migrations. glebarez/sqlite
// is a pure Go driver, so no CGO is required.
func InitDB(path string, debug bool) error {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.WithField("path", path).Info("database connected and migrated")
	return nil
}

// Migrate creates or updates the board tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Column{}, &models.Task{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	return DB
}
