package api

import (
	"time"

	"github.com/watchdeck/watchdeck/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ProgressRecord is the wire form of a playback position
type ProgressRecord struct {
	MediaID    string    `json:"media_id" binding:"required"`
	PositionMs int64     `json:"position_ms"`
	UpdatedAt  time.Time `json:"updated_at" binding:"required"`
}

// ProgressResponse wraps a user's progress records
type ProgressResponse struct {
	Records []ProgressRecord `json:"records"`
}

// ReportProgressRequest carries records pushed by a device
type ReportProgressRequest struct {
	Records []ProgressRecord `json:"records" binding:"required"`
}

// WatchlistRequest is the action-discriminated watchlist mutation request.
// Fields beyond Action are interpreted per action.
type WatchlistRequest struct {
	Action string `json:"action" binding:"required"`

	PlaylistID       string `json:"playlist_id,omitempty"`
	TargetPlaylistID string `json:"target_playlist_id,omitempty"`

	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Privacy     *models.Privacy `json:"privacy,omitempty"`
	SortLocked  *bool           `json:"sort_locked,omitempty"`

	Item    *NewItemRequest `json:"item,omitempty"`
	ItemIDs []string        `json:"item_ids,omitempty"`
	Order   []string        `json:"order,omitempty"`

	SortBy    models.SortBy    `json:"sort_by,omitempty"`
	SortOrder models.SortOrder `json:"sort_order,omitempty"`

	TargetUserID string `json:"target_user_id,omitempty"`
	CanEdit      bool   `json:"can_edit,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	MediaID  string   `json:"media_id,omitempty"`
	MediaIDs []string `json:"media_ids,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
}

// NewItemRequest carries the fields needed to add a playlist item
type NewItemRequest struct {
	MediaID     string           `json:"media_id" binding:"required"`
	TMDBID      *int             `json:"tmdb_id,omitempty"`
	MediaType   models.MediaType `json:"media_type" binding:"required"`
	Title       string           `json:"title" binding:"required"`
	ReleaseDate string           `json:"release_date,omitempty"`
	IsExternal  bool             `json:"is_external,omitempty"`
}

// PlaylistResponse represents a playlist
type PlaylistResponse struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Privacy     models.Privacy   `json:"privacy"`
	IsDefault   bool             `json:"is_default"`
	SortBy      models.SortBy    `json:"sort_by"`
	SortOrder   models.SortOrder `json:"sort_order"`
	SortLocked  bool             `json:"sort_locked"`
	CustomOrder []string         `json:"custom_order,omitempty"`
	ItemCount   int              `json:"item_count"`
	IsOwner     bool             `json:"is_owner"`
	CanEdit     bool             `json:"can_edit"`
}

// ItemListResponse wraps a playlist's items with counts
type ItemListResponse struct {
	Items   []models.PlaylistItem `json:"items"`
	Total   int64                 `json:"total"`
	Movies  int64                 `json:"movies"`
	TVShows int64                 `json:"tv_shows"`
}

// VisibilityResponse reports a media item's visibility for the user
type VisibilityResponse struct {
	MediaID string `json:"media_id"`
	Hidden  bool   `json:"hidden"`
}
