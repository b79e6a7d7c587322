package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
)

// ItemStore provides access to playlist items
type ItemStore struct {
	db        *gorm.DB
	playlists *PlaylistStore
}

// NewItemStore creates an item store
func NewItemStore(db *gorm.DB) *ItemStore {
	return &ItemStore{db: db, playlists: NewPlaylistStore(db)}
}

// ListOptions controls item listing
type ListOptions struct {
	Limit  int
	Offset int
}

// List returns a playlist's items in the playlist's active sort order,
// plus the total count before pagination
func (s *ItemStore) List(userID, playlistID string, opts ListOptions) ([]models.PlaylistItem, int64, error) {
	playlist, err := s.playlists.Get(userID, playlistID)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.Model(&models.PlaylistItem{}).
		Where("playlist_id = ?", playlistID).
		Count(&total).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to count playlist items", err)
	}

	query := s.db.Where("playlist_id = ?", playlistID)

	if playlist.SortBy != models.SortByCustom {
		query = query.Order(orderClause(playlist.SortBy, playlist.SortOrder))
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit).Offset(opts.Offset)
		}
		var items []models.PlaylistItem
		if err := query.Find(&items).Error; err != nil {
			return nil, 0, errors.DatabaseError("failed to list playlist items", err)
		}
		return items, total, nil
	}

	// Custom order lives in the playlist row, so ordering and pagination
	// happen in memory. Items missing from the stored order sort last.
	var items []models.PlaylistItem
	if err := query.Order("date_added DESC").Find(&items).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to list playlist items", err)
	}
	items = applyCustomOrder(items, playlist.CustomOrder)
	if opts.Limit > 0 {
		if opts.Offset >= len(items) {
			return []models.PlaylistItem{}, total, nil
		}
		end := opts.Offset + opts.Limit
		if end > len(items) {
			end = len(items)
		}
		items = items[opts.Offset:end]
	}
	return items, total, nil
}

// NewItem carries the fields needed to add an item
type NewItem struct {
	MediaID     string
	TMDBID      *int
	MediaType   models.MediaType
	Title       string
	ReleaseDate string
	IsExternal  bool
}

// Add inserts an item into a playlist. Adding media that is already in
// the playlist returns an already-exists error.
func (s *ItemStore) Add(userID, playlistID string, input NewItem) (*models.PlaylistItem, error) {
	playlist, err := s.playlists.Get(userID, playlistID)
	if err != nil {
		return nil, err
	}
	if !s.playlists.CanEdit(userID, playlist) {
		return nil, errors.PermissionError("no edit access to playlist")
	}
	if input.MediaID == "" || input.Title == "" {
		return nil, errors.ValidationError("media_id and title are required")
	}
	if input.MediaType != models.MediaTypeMovie && input.MediaType != models.MediaTypeTV {
		return nil, errors.ValidationError("media_type must be movie or tv")
	}

	var count int64
	if err := s.db.Model(&models.PlaylistItem{}).
		Where("playlist_id = ? AND media_id = ?", playlistID, input.MediaID).
		Count(&count).Error; err != nil {
		return nil, errors.DatabaseError("failed to check for duplicate item", err)
	}
	if count > 0 {
		return nil, errors.AlreadyExistsError("playlist item", input.MediaID)
	}

	now := time.Now().UTC()
	item := &models.PlaylistItem{
		ID:          uuid.New().String(),
		PlaylistID:  playlistID,
		MediaID:     input.MediaID,
		TMDBID:      input.TMDBID,
		MediaType:   input.MediaType,
		Title:       input.Title,
		ReleaseDate: input.ReleaseDate,
		IsExternal:  input.IsExternal,
		DateAdded:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return errors.DatabaseError("failed to create playlist item", err)
		}
		return bumpCount(tx, playlistID, 1)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Remove deletes the given items from a playlist, pruning them from the
// stored custom order and decrementing the item count
func (s *ItemStore) Remove(userID, playlistID string, itemIDs []string) error {
	playlist, err := s.playlists.Get(userID, playlistID)
	if err != nil {
		return err
	}
	if !s.playlists.CanEdit(userID, playlist) {
		return errors.PermissionError("no edit access to playlist")
	}
	if len(itemIDs) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("playlist_id = ? AND id IN ?", playlistID, itemIDs).
			Delete(&models.PlaylistItem{})
		if result.Error != nil {
			return errors.DatabaseError("failed to delete playlist items", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := bumpCount(tx, playlistID, -int(result.RowsAffected)); err != nil {
			return err
		}
		return pruneCustomOrder(tx, playlist, itemIDs)
	})
}

// Move transfers items from one playlist to another. Items whose media
// already exists in the target are dropped rather than duplicated.
func (s *ItemStore) Move(userID, sourceID, targetID string, itemIDs []string) error {
	if sourceID == targetID {
		return errors.ValidationError("source and target playlists must differ")
	}
	source, err := s.playlists.Get(userID, sourceID)
	if err != nil {
		return err
	}
	target, err := s.playlists.Get(userID, targetID)
	if err != nil {
		return err
	}
	if !s.playlists.CanEdit(userID, source) || !s.playlists.CanEdit(userID, target) {
		return errors.PermissionError("no edit access to playlist")
	}
	if len(itemIDs) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var items []models.PlaylistItem
		if err := tx.Where("playlist_id = ? AND id IN ?", sourceID, itemIDs).
			Find(&items).Error; err != nil {
			return errors.DatabaseError("failed to load items to move", err)
		}
		if len(items) == 0 {
			return nil
		}

		moved := 0
		for i := range items {
			var count int64
			if err := tx.Model(&models.PlaylistItem{}).
				Where("playlist_id = ? AND media_id = ?", targetID, items[i].MediaID).
				Count(&count).Error; err != nil {
				return errors.DatabaseError("failed to check target for duplicate", err)
			}
			if count > 0 {
				if err := tx.Delete(&models.PlaylistItem{}, "id = ?", items[i].ID).Error; err != nil {
					return errors.DatabaseError("failed to drop duplicate item", err)
				}
				continue
			}
			if err := tx.Model(&models.PlaylistItem{}).Where("id = ?", items[i].ID).
				Updates(map[string]interface{}{
					"playlist_id": targetID,
					"date_added":  time.Now().UTC(),
					"updated_at":  time.Now().UTC(),
				}).Error; err != nil {
				return errors.DatabaseError("failed to move playlist item", err)
			}
			moved++
		}

		if err := bumpCount(tx, sourceID, -len(items)); err != nil {
			return err
		}
		if moved > 0 {
			if err := bumpCount(tx, targetID, moved); err != nil {
				return err
			}
		}
		return pruneCustomOrder(tx, source, itemIDs)
	})
}

// Copy duplicates items into another playlist, leaving the source
// untouched. Media already present in the target is skipped.
func (s *ItemStore) Copy(userID, sourceID, targetID string, itemIDs []string) error {
	if sourceID == targetID {
		return errors.ValidationError("source and target playlists must differ")
	}
	if _, err := s.playlists.Get(userID, sourceID); err != nil {
		return err
	}
	target, err := s.playlists.Get(userID, targetID)
	if err != nil {
		return err
	}
	if !s.playlists.CanEdit(userID, target) {
		return errors.PermissionError("no edit access to playlist")
	}

	var items []models.PlaylistItem
	if err := s.db.Where("playlist_id = ? AND id IN ?", sourceID, itemIDs).
		Find(&items).Error; err != nil {
		return errors.DatabaseError("failed to load items to copy", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		copied := 0
		for i := range items {
			var count int64
			if err := tx.Model(&models.PlaylistItem{}).
				Where("playlist_id = ? AND media_id = ?", targetID, items[i].MediaID).
				Count(&count).Error; err != nil {
				return errors.DatabaseError("failed to check target for duplicate", err)
			}
			if count > 0 {
				continue
			}
			now := time.Now().UTC()
			clone := models.PlaylistItem{
				ID:          uuid.New().String(),
				PlaylistID:  targetID,
				MediaID:     items[i].MediaID,
				TMDBID:      items[i].TMDBID,
				MediaType:   items[i].MediaType,
				Title:       items[i].Title,
				ReleaseDate: items[i].ReleaseDate,
				IsExternal:  items[i].IsExternal,
				DateAdded:   now,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return errors.DatabaseError("failed to copy playlist item", err)
			}
			copied++
		}
		if copied > 0 {
			return bumpCount(tx, targetID, copied)
		}
		return nil
	})
}

// Summary returns per-type item counts for a playlist
func (s *ItemStore) Summary(userID, playlistID string) (movies int64, tvShows int64, err error) {
	if _, err := s.playlists.Get(userID, playlistID); err != nil {
		return 0, 0, err
	}
	if err := s.db.Model(&models.PlaylistItem{}).
		Where("playlist_id = ? AND media_type = ?", playlistID, models.MediaTypeMovie).
		Count(&movies).Error; err != nil {
		return 0, 0, errors.DatabaseError("failed to count movies", err)
	}
	if err := s.db.Model(&models.PlaylistItem{}).
		Where("playlist_id = ? AND media_type = ?", playlistID, models.MediaTypeTV).
		Count(&tvShows).Error; err != nil {
		return 0, 0, errors.DatabaseError("failed to count tv shows", err)
	}
	return movies, tvShows, nil
}

// bumpCount adjusts a playlist's item_count, clamping at zero
func bumpCount(tx *gorm.DB, playlistID string, delta int) error {
	var playlist models.Playlist
	if err := tx.First(&playlist, "id = ?", playlistID).Error; err != nil {
		return errors.DatabaseError("failed to load playlist for count update", err)
	}
	count := playlist.ItemCount + delta
	if count < 0 {
		count = 0
	}
	if err := tx.Model(&models.Playlist{}).Where("id = ?", playlistID).
		Updates(map[string]interface{}{
			"item_count": count,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return errors.DatabaseError("failed to update item count", err)
	}
	return nil
}

// pruneCustomOrder drops removed item IDs from the playlist's stored
// custom order so it keeps matching the item set exactly
func pruneCustomOrder(tx *gorm.DB, playlist *models.Playlist, removedIDs []string) error {
	if playlist.CustomOrder == nil {
		return nil
	}
	var order []string
	if err := json.Unmarshal([]byte(*playlist.CustomOrder), &order); err != nil {
		// A corrupt order is unusable, drop it entirely.
		return tx.Model(&models.Playlist{}).Where("id = ?", playlist.ID).
			Update("custom_order", nil).Error
	}

	removed := make(map[string]bool, len(removedIDs))
	for _, id := range removedIDs {
		removed[id] = true
	}
	kept := order[:0]
	for _, id := range order {
		if !removed[id] {
			kept = append(kept, id)
		}
	}

	encoded, err := json.Marshal(kept)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode custom order")
	}
	raw := string(encoded)
	if err := tx.Model(&models.Playlist{}).Where("id = ?", playlist.ID).
		Update("custom_order", &raw).Error; err != nil {
		return errors.DatabaseError("failed to prune custom order", err)
	}
	return nil
}

// applyCustomOrder sorts items by the stored ID sequence; items not in
// the sequence keep their relative order after the sequenced ones
func applyCustomOrder(items []models.PlaylistItem, rawOrder *string) []models.PlaylistItem {
	if rawOrder == nil {
		return items
	}
	var order []string
	if err := json.Unmarshal([]byte(*rawOrder), &order); err != nil {
		return items
	}
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	known := make([]models.PlaylistItem, 0, len(items))
	unknown := make([]models.PlaylistItem, 0)
	for _, item := range items {
		if _, ok := pos[item.ID]; ok {
			known = append(known, item)
		} else {
			unknown = append(unknown, item)
		}
	}
	for i := 1; i < len(known); i++ {
		for j := i; j > 0 && pos[known[j].ID] < pos[known[j-1].ID]; j-- {
			known[j], known[j-1] = known[j-1], known[j]
		}
	}
	return append(known, unknown...)
}

func orderClause(sortBy models.SortBy, sortOrder models.SortOrder) string {
	direction := "ASC"
	if sortOrder == models.SortDesc {
		direction = "DESC"
	}
	switch sortBy {
	case models.SortByTitle:
		return "title " + direction
	case models.SortByReleaseDate:
		return "release_date " + direction
	default:
		return "date_added " + direction
	}
}
