package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/watchdeck/watchdeck/internal/models"
)

// TestDB creates an in-memory SQLite database for testing
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := db.AutoMigrate(
		&models.Playlist{},
		&models.PlaylistItem{},
		&models.PlaylistShare{},
		&models.ProgressRecord{},
		&models.VisibilityPref{},
		&models.MediaItem{},
	); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// CleanupDB removes all records from test database tables
func CleanupDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	db.Exec("DELETE FROM playlist_shares")
	db.Exec("DELETE FROM playlist_items")
	db.Exec("DELETE FROM playlists")
	db.Exec("DELETE FROM progress_records")
	db.Exec("DELETE FROM visibility_prefs")
	db.Exec("DELETE FROM media_items")
}

// CreatePlaylist creates a test playlist
func CreatePlaylist(db *gorm.DB, overrides ...func(*models.Playlist)) *models.Playlist {
	playlist := &models.Playlist{
		ID:        uuid.New().String(),
		UserID:    "user-1",
		Name:      "Test Playlist",
		Privacy:   models.PrivacyPrivate,
		SortBy:    models.SortByDateAdded,
		SortOrder: models.SortDesc,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(playlist)
	}

	db.Create(playlist)
	return playlist
}

// CreateItem creates a test playlist item
func CreateItem(db *gorm.DB, playlistID string, overrides ...func(*models.PlaylistItem)) *models.PlaylistItem {
	item := &models.PlaylistItem{
		ID:          uuid.New().String(),
		PlaylistID:  playlistID,
		MediaID:     fmt.Sprintf("media-%d", time.Now().UnixNano()),
		MediaType:   models.MediaTypeMovie,
		Title:       "Test Movie",
		ReleaseDate: "2024-03-01",
		DateAdded:   time.Now().UTC(),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	for _, override := range overrides {
		override(item)
	}

	db.Create(item)
	db.Model(&models.Playlist{}).Where("id = ?", playlistID).
		UpdateColumn("item_count", gorm.Expr("item_count + 1"))
	return item
}

// CreateProgress creates a test progress record
func CreateProgress(db *gorm.DB, overrides ...func(*models.ProgressRecord)) *models.ProgressRecord {
	record := &models.ProgressRecord{
		UserID:     "user-1",
		MediaID:    fmt.Sprintf("media-%d", time.Now().UnixNano()),
		PositionMs: 60000,
		UpdatedAt:  time.Now().UTC(),
		CreatedAt:  time.Now().UTC(),
	}

	for _, override := range overrides {
		override(record)
	}

	db.Create(record)
	return record
}

// CreateMediaItem creates a test library media item
func CreateMediaItem(db *gorm.DB, overrides ...func(*models.MediaItem)) *models.MediaItem {
	genres := `["Action", "Thriller"]`
	cast := `["Jane Doe", "John Smith"]`
	resolution := "1080p"
	item := &models.MediaItem{
		ID:          fmt.Sprintf("media-%d", time.Now().UnixNano()),
		MediaType:   models.MediaTypeMovie,
		Title:       "Test Movie",
		ReleaseDate: "2024-03-01",
		Genres:      &genres,
		Cast:        &cast,
		Resolution:  &resolution,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	for _, override := range overrides {
		override(item)
	}

	db.Create(item)
	return item
}
