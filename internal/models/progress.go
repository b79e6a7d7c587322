package models

import "time"

// ProgressRecord stores the last known playback position for a media item,
// per user. UpdatedAt is the last-write-wins conflict key across devices.
type ProgressRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_user_media" json:"user_id"`
	MediaID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_progress_user_media" json:"media_id"`
	PositionMs int64     `gorm:"not null" json:"position_ms"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for ProgressRecord
func (ProgressRecord) TableName() string {
	return "progress_records"
}

// VisibilityPref stores a per-user "show in app" preference for a media item
type VisibilityPref struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_visibility_user_media" json:"user_id"`
	MediaID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_visibility_user_media" json:"media_id"`
	Hidden    bool      `gorm:"not null;default:false" json:"hidden"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for VisibilityPref
func (VisibilityPref) TableName() string {
	return "visibility_prefs"
}

// MediaItem represents a library entry searchable by the app
type MediaItem struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	TMDBID      *int      `gorm:"index" json:"tmdb_id,omitempty"`
	MediaType   MediaType `gorm:"type:varchar(10);not null" json:"media_type"`
	Title       string    `gorm:"type:varchar(255);not null;index" json:"title"`
	ReleaseDate string    `gorm:"type:varchar(10)" json:"release_date"`
	Genres      *string   `gorm:"type:text" json:"genres,omitempty"` // JSON array of genre names
	Cast        *string   `gorm:"type:text" json:"cast,omitempty"`   // JSON array of cast names
	Resolution  *string   `gorm:"type:varchar(10)" json:"resolution,omitempty"`
	HDR         bool      `gorm:"not null;default:false" json:"hdr"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for MediaItem
func (MediaItem) TableName() string {
	return "media_items"
}
