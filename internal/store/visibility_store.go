package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
)

// VisibilityStore provides access to per-user media visibility preferences
type VisibilityStore struct {
	db *gorm.DB
}

// NewVisibilityStore creates a visibility store
func NewVisibilityStore(db *gorm.DB) *VisibilityStore {
	return &VisibilityStore{db: db}
}

// Hidden reports whether the user has hidden a media item. Media with no
// stored preference is visible.
func (s *VisibilityStore) Hidden(userID, mediaID string) (bool, error) {
	var pref models.VisibilityPref
	err := s.db.First(&pref, "user_id = ? AND media_id = ?", userID, mediaID).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.DatabaseError("failed to load visibility preference", err)
	}
	return pref.Hidden, nil
}

// HiddenSet returns the set of media IDs the user has hidden
func (s *VisibilityStore) HiddenSet(userID string) (map[string]bool, error) {
	var prefs []models.VisibilityPref
	if err := s.db.Where("user_id = ? AND hidden = ?", userID, true).
		Find(&prefs).Error; err != nil {
		return nil, errors.DatabaseError("failed to list visibility preferences", err)
	}
	hidden := make(map[string]bool, len(prefs))
	for _, pref := range prefs {
		hidden[pref.MediaID] = true
	}
	return hidden, nil
}

// Set upserts the user's visibility preference for a media item
func (s *VisibilityStore) Set(userID, mediaID string, hidden bool) error {
	if mediaID == "" {
		return errors.ValidationError("media_id is required")
	}

	var pref models.VisibilityPref
	err := s.db.First(&pref, "user_id = ? AND media_id = ?", userID, mediaID).Error
	if err == gorm.ErrRecordNotFound {
		pref = models.VisibilityPref{
			UserID:    userID,
			MediaID:   mediaID,
			Hidden:    hidden,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.db.Create(&pref).Error; err != nil {
			return errors.DatabaseError("failed to create visibility preference", err)
		}
		return nil
	}
	if err != nil {
		return errors.DatabaseError("failed to load visibility preference", err)
	}

	if err := s.db.Model(&pref).Updates(map[string]interface{}{
		"hidden":     hidden,
		"updated_at": time.Now().UTC(),
	}).Error; err != nil {
		return errors.DatabaseError("failed to update visibility preference", err)
	}
	return nil
}

// BulkSet applies a visibility flag to many media items for a user.
// Admin endpoints use this to hide content across a library slice.
func (s *VisibilityStore) BulkSet(userID string, mediaIDs []string, hidden bool) error {
	if len(mediaIDs) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, mediaID := range mediaIDs {
			var pref models.VisibilityPref
			err := tx.First(&pref, "user_id = ? AND media_id = ?", userID, mediaID).Error
			if err == gorm.ErrRecordNotFound {
				pref = models.VisibilityPref{
					UserID:    userID,
					MediaID:   mediaID,
					Hidden:    hidden,
					CreatedAt: time.Now().UTC(),
					UpdatedAt: time.Now().UTC(),
				}
				if err := tx.Create(&pref).Error; err != nil {
					return errors.DatabaseError("failed to create visibility preference", err)
				}
				continue
			}
			if err != nil {
				return errors.DatabaseError("failed to load visibility preference", err)
			}
			if err := tx.Model(&pref).Updates(map[string]interface{}{
				"hidden":     hidden,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
				return errors.DatabaseError("failed to update visibility preference", err)
			}
		}
		return nil
	})
}
