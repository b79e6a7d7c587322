package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
)

// PlaylistStore provides access to playlists and their shares
type PlaylistStore struct {
	db *gorm.DB
}

// NewPlaylistStore creates a playlist store
func NewPlaylistStore(db *gorm.DB) *PlaylistStore {
	return &PlaylistStore{db: db}
}

// List returns all playlists a user can see, owned first then shared
func (s *PlaylistStore) List(userID string) ([]models.Playlist, error) {
	var owned []models.Playlist
	if err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&owned).Error; err != nil {
		return nil, errors.DatabaseError("failed to list playlists", err)
	}

	var sharedIDs []string
	if err := s.db.Model(&models.PlaylistShare{}).
		Where("user_id = ?", userID).
		Pluck("playlist_id", &sharedIDs).Error; err != nil {
		return nil, errors.DatabaseError("failed to list playlist shares", err)
	}

	if len(sharedIDs) == 0 {
		return owned, nil
	}

	var shared []models.Playlist
	if err := s.db.Where("id IN ?", sharedIDs).
		Order("created_at ASC").
		Find(&shared).Error; err != nil {
		return nil, errors.DatabaseError("failed to load shared playlists", err)
	}

	return append(owned, shared...), nil
}

// Get returns a playlist the user owns or has been granted access to
func (s *PlaylistStore) Get(userID, playlistID string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := s.db.First(&playlist, "id = ?", playlistID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundError("playlist", playlistID)
		}
		return nil, errors.DatabaseError("failed to load playlist", err)
	}

	if playlist.UserID != userID && playlist.Privacy != models.PrivacyPublic {
		var share models.PlaylistShare
		err := s.db.First(&share, "playlist_id = ? AND user_id = ?", playlistID, userID).Error
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundError("playlist", playlistID)
		}
		if err != nil {
			return nil, errors.DatabaseError("failed to check playlist access", err)
		}
	}

	return &playlist, nil
}

// CanEdit reports whether the user may mutate the playlist's contents
func (s *PlaylistStore) CanEdit(userID string, playlist *models.Playlist) bool {
	if playlist.UserID == userID {
		return true
	}
	var share models.PlaylistShare
	err := s.db.First(&share, "playlist_id = ? AND user_id = ?", playlist.ID, userID).Error
	return err == nil && share.CanEdit
}

// Create inserts a new playlist owned by the user
func (s *PlaylistStore) Create(userID, name, description string, privacy models.Privacy) (*models.Playlist, error) {
	if name == "" {
		return nil, errors.ValidationError("playlist name is required")
	}
	if privacy == "" {
		privacy = models.PrivacyPrivate
	}

	now := time.Now().UTC()
	playlist := &models.Playlist{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Privacy:     privacy,
		SortBy:      models.SortByDateAdded,
		SortOrder:   models.SortDesc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Create(playlist).Error; err != nil {
		return nil, errors.DatabaseError("failed to create playlist", err)
	}
	return playlist, nil
}

// PlaylistUpdate carries the mutable playlist fields; nil means unchanged
type PlaylistUpdate struct {
	Name        *string
	Description *string
	Privacy     *models.Privacy
	SortLocked  *bool
}

// Update applies an owner-only update to playlist metadata
func (s *PlaylistStore) Update(userID, playlistID string, update PlaylistUpdate) (*models.Playlist, error) {
	playlist, err := s.Get(userID, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != userID {
		return nil, errors.PermissionError("only the owner can update a playlist")
	}

	changes := map[string]interface{}{"updated_at": time.Now().UTC()}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, errors.ValidationError("playlist name is required")
		}
		changes["name"] = *update.Name
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}
	if update.Privacy != nil {
		changes["privacy"] = *update.Privacy
	}
	if update.SortLocked != nil {
		changes["sort_locked"] = *update.SortLocked
	}

	if err := s.db.Model(playlist).Updates(changes).Error; err != nil {
		return nil, errors.DatabaseError("failed to update playlist", err)
	}
	return s.Get(userID, playlistID)
}

// UpdateSort persists the playlist's sort mode. Leaving custom mode
// discards the stored custom order.
func (s *PlaylistStore) UpdateSort(userID, playlistID string, sortBy models.SortBy, sortOrder models.SortOrder) error {
	playlist, err := s.Get(userID, playlistID)
	if err != nil {
		return err
	}
	if !s.CanEdit(userID, playlist) {
		return errors.PermissionError("no edit access to playlist")
	}
	if playlist.SortLocked {
		return errors.SortLockedError(playlistID)
	}

	changes := map[string]interface{}{
		"sort_by":    sortBy,
		"sort_order": sortOrder,
		"updated_at": time.Now().UTC(),
	}
	if sortBy != models.SortByCustom {
		changes["custom_order"] = nil
	}
	if err := s.db.Model(&models.Playlist{}).Where("id = ?", playlistID).
		Updates(changes).Error; err != nil {
		return errors.DatabaseError("failed to update sort", err)
	}
	return nil
}

// UpdateOrder replaces the custom order with the given item ID sequence.
// The sequence must contain exactly the playlist's current item IDs.
func (s *PlaylistStore) UpdateOrder(userID, playlistID string, order []string) error {
	playlist, err := s.Get(userID, playlistID)
	if err != nil {
		return err
	}
	if playlist.UserID != userID {
		return errors.PermissionError("only the owner can reorder a playlist")
	}
	if playlist.SortLocked {
		return errors.SortLockedError(playlistID)
	}

	var currentIDs []string
	if err := s.db.Model(&models.PlaylistItem{}).
		Where("playlist_id = ?", playlistID).
		Pluck("id", &currentIDs).Error; err != nil {
		return errors.DatabaseError("failed to load playlist items", err)
	}
	if !sameIDSet(order, currentIDs) {
		return errors.ValidationError("order must contain exactly the playlist's item ids")
	}

	encoded, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode custom order")
	}
	raw := string(encoded)

	if err := s.db.Model(&models.Playlist{}).Where("id = ?", playlistID).
		Updates(map[string]interface{}{
			"custom_order": &raw,
			"sort_by":      models.SortByCustom,
			"sort_order":   models.SortAsc,
			"updated_at":   time.Now().UTC(),
		}).Error; err != nil {
		return errors.DatabaseError("failed to update custom order", err)
	}
	return nil
}

// Delete removes a playlist. The default playlist cannot be deleted,
// only cleared of its items.
func (s *PlaylistStore) Delete(userID, playlistID string) error {
	playlist, err := s.Get(userID, playlistID)
	if err != nil {
		return err
	}
	if playlist.UserID != userID {
		return errors.PermissionError("only the owner can delete a playlist")
	}
	if playlist.IsDefault {
		return errors.New(errors.CodeDefaultPlaylist, "the default playlist cannot be deleted")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&models.PlaylistItem{}).Error; err != nil {
			return errors.DatabaseError("failed to delete playlist items", err)
		}
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&models.PlaylistShare{}).Error; err != nil {
			return errors.DatabaseError("failed to delete playlist shares", err)
		}
		if err := tx.Delete(&models.Playlist{}, "id = ?", playlistID).Error; err != nil {
			return errors.DatabaseError("failed to delete playlist", err)
		}
		return nil
	})
}

// Clear removes all items from a playlist and resets its counters
func (s *PlaylistStore) Clear(userID, playlistID string) error {
	playlist, err := s.Get(userID, playlistID)
	if err != nil {
		return err
	}
	if playlist.UserID != userID {
		return errors.PermissionError("only the owner can clear a playlist")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&models.PlaylistItem{}).Error; err != nil {
			return errors.DatabaseError("failed to clear playlist items", err)
		}
		if err := tx.Model(&models.Playlist{}).Where("id = ?", playlistID).
			Updates(map[string]interface{}{
				"item_count":   0,
				"custom_order": nil,
				"updated_at":   time.Now().UTC(),
			}).Error; err != nil {
			return errors.DatabaseError("failed to reset playlist", err)
		}
		return nil
	})
}

// Share grants another user access to the playlist, upserting the
// can-edit flag for an existing grant
func (s *PlaylistStore) Share(ownerID, playlistID, targetUserID string, canEdit bool) error {
	playlist, err := s.Get(ownerID, playlistID)
	if err != nil {
		return err
	}
	if playlist.UserID != ownerID {
		return errors.PermissionError("only the owner can share a playlist")
	}
	if targetUserID == ownerID {
		return errors.ValidationError("cannot share a playlist with its owner")
	}

	var existing models.PlaylistShare
	err = s.db.First(&existing, "playlist_id = ? AND user_id = ?", playlistID, targetUserID).Error
	if err == nil {
		if err := s.db.Model(&existing).Update("can_edit", canEdit).Error; err != nil {
			return errors.DatabaseError("failed to update playlist share", err)
		}
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return errors.DatabaseError("failed to check playlist share", err)
	}

	share := &models.PlaylistShare{
		PlaylistID: playlistID,
		UserID:     targetUserID,
		CanEdit:    canEdit,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.Create(share).Error; err != nil {
		return errors.DatabaseError("failed to create playlist share", err)
	}

	if playlist.Privacy == models.PrivacyPrivate {
		if err := s.db.Model(&models.Playlist{}).Where("id = ?", playlistID).
			Update("privacy", models.PrivacyShared).Error; err != nil {
			return errors.DatabaseError("failed to update playlist privacy", err)
		}
	}
	return nil
}

// EnsureDefault returns the user's default playlist, creating it when missing
func (s *PlaylistStore) EnsureDefault(userID string) (*models.Playlist, error) {
	var playlist models.Playlist
	err := s.db.First(&playlist, "user_id = ? AND is_default = ?", userID, true).Error
	if err == nil {
		return &playlist, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.DatabaseError("failed to load default playlist", err)
	}

	now := time.Now().UTC()
	playlist = models.Playlist{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      "Watchlist",
		Privacy:   models.PrivacyPrivate,
		IsDefault: true,
		SortBy:    models.SortByDateAdded,
		SortOrder: models.SortDesc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Create(&playlist).Error; err != nil {
		return nil, errors.DatabaseError("failed to create default playlist", err)
	}
	return &playlist, nil
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}
