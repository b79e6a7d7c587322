package models

import "time"

// MediaType represents the type of media an item refers to
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Privacy represents who can see a playlist
type Privacy string

const (
	PrivacyPrivate Privacy = "private"
	PrivacyShared  Privacy = "shared"
	PrivacyPublic  Privacy = "public"
)

// SortBy represents the active sort mode of a playlist
type SortBy string

const (
	SortByDateAdded   SortBy = "dateAdded"
	SortByTitle       SortBy = "title"
	SortByReleaseDate SortBy = "releaseDate"
	SortByCustom      SortBy = "custom"
)

// SortOrder represents the sort direction (ignored when SortBy is custom)
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Playlist represents a user-owned collection of media items
type Playlist struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(36);not null;index:idx_playlists_user" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Privacy     Privacy   `gorm:"type:varchar(20);not null;default:private" json:"privacy"`
	IsDefault   bool      `gorm:"not null;default:false;index:idx_playlists_user" json:"is_default"`
	SortBy      SortBy    `gorm:"type:varchar(20);not null;default:dateAdded" json:"sort_by"`
	SortOrder   SortOrder `gorm:"type:varchar(4);not null;default:desc" json:"sort_order"`
	SortLocked  bool      `gorm:"not null;default:false" json:"sort_locked"`
	// CustomOrder is a JSON array of item IDs; authoritative display order
	// while SortBy is custom.
	CustomOrder *string   `gorm:"type:text" json:"custom_order,omitempty"`
	ItemCount   int       `gorm:"not null;default:0" json:"item_count"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Items []PlaylistItem `gorm:"foreignKey:PlaylistID;constraint:OnDelete=CASCADE" json:"items,omitempty"`
}

// TableName specifies the table name for Playlist
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistItem represents a single media entry owned by exactly one playlist
type PlaylistItem struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlaylistID  string    `gorm:"type:varchar(36);not null;index:idx_playlist_items_playlist" json:"playlist_id"`
	MediaID     string    `gorm:"type:varchar(64);not null;index:idx_playlist_items_media" json:"media_id"`
	TMDBID      *int      `gorm:"index" json:"tmdb_id,omitempty"`
	MediaType   MediaType `gorm:"type:varchar(10);not null" json:"media_type"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	ReleaseDate string    `gorm:"type:varchar(10)" json:"release_date"` // YYYY-MM-DD
	IsExternal  bool      `gorm:"not null;default:false" json:"is_external"`
	DateAdded   time.Time `gorm:"not null" json:"date_added"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for PlaylistItem
func (PlaylistItem) TableName() string {
	return "playlist_items"
}

// PlaylistShare grants a collaborator access to a shared playlist
type PlaylistShare struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlaylistID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_playlist_shares_pair" json:"playlist_id"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_playlist_shares_pair" json:"user_id"`
	CanEdit    bool      `gorm:"not null;default:false" json:"can_edit"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for PlaylistShare
func (PlaylistShare) TableName() string {
	return "playlist_shares"
}
