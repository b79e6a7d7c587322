package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/config"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/models"
)

var db *gorm.DB

// Initialize sets up the database connection and runs migrations
func Initialize() error {
	cfg := config.Get()

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	var err error
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.NewGormAdapter(logger.DatabaseLogger(), cfg.Logging.Database.Level),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Migrate runs auto-migrations for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Playlist{},
		&models.PlaylistItem{},
		&models.PlaylistShare{},
		&models.ProgressRecord{},
		&models.VisibilityPref{},
		&models.MediaItem{},
	)
}

// Get returns the database instance
func Get() *gorm.DB {
	return db
}

// Set replaces the database instance (primarily for testing)
func Set(instance *gorm.DB) {
	db = instance
}

// HealthCheck verifies database connectivity
func HealthCheck() error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
