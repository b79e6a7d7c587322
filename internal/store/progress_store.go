package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
)

// ProgressStore provides access to server-side watch progress records
type ProgressStore struct {
	db *gorm.DB
}

// NewProgressStore creates a progress store
func NewProgressStore(db *gorm.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// List returns all progress records for a user
func (s *ProgressStore) List(userID string) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	if err := s.db.Where("user_id = ?", userID).
		Order("media_id ASC").
		Find(&records).Error; err != nil {
		return nil, errors.DatabaseError("failed to list progress records", err)
	}
	return records, nil
}

// Upsert applies a reported position with last-write-wins semantics:
// the stored row is only replaced when the incoming timestamp is
// strictly newer. Returns whether the row changed.
func (s *ProgressStore) Upsert(userID, mediaID string, positionMs int64, updatedAt time.Time) (bool, error) {
	if mediaID == "" {
		return false, errors.ValidationError("media_id is required")
	}
	if positionMs < 0 {
		return false, errors.ValidationError("position_ms must not be negative")
	}
	updatedAt = updatedAt.UTC()

	changed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ProgressRecord
		err := tx.First(&existing, "user_id = ? AND media_id = ?", userID, mediaID).Error
		if err == gorm.ErrRecordNotFound {
			record := models.ProgressRecord{
				UserID:     userID,
				MediaID:    mediaID,
				PositionMs: positionMs,
				UpdatedAt:  updatedAt,
				CreatedAt:  time.Now().UTC(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return errors.DatabaseError("failed to create progress record", err)
			}
			changed = true
			return nil
		}
		if err != nil {
			return errors.DatabaseError("failed to load progress record", err)
		}

		if !updatedAt.After(existing.UpdatedAt) {
			return nil
		}
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"position_ms": positionMs,
			"updated_at":  updatedAt,
		}).Error; err != nil {
			return errors.DatabaseError("failed to update progress record", err)
		}
		changed = true
		return nil
	})
	return changed, err
}

// Get returns a single progress record, or a not-found error
func (s *ProgressStore) Get(userID, mediaID string) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	err := s.db.First(&record, "user_id = ? AND media_id = ?", userID, mediaID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.NotFoundError("progress record", mediaID)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load progress record", err)
	}
	return &record, nil
}
