package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/models"
	apptesting "github.com/watchdeck/watchdeck/internal/testing"
)

func TestPlaylistCreateAndGet(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	created, err := s.Create("user-1", "Favorites", "the good stuff", models.PrivacyPrivate)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.SortByDateAdded, created.SortBy)

	got, err := s.Get("user-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Favorites", got.Name)
}

func TestPlaylistCreateRequiresName(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	_, err := s.Create("user-1", "", "", models.PrivacyPrivate)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetErrorCode(err))
}

func TestPlaylistGetDeniedForStranger(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db)

	_, err := s.Get("user-2", playlist.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestPlaylistGetPublicVisibleToAll(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db, func(p *models.Playlist) {
		p.Privacy = models.PrivacyPublic
	})

	got, err := s.Get("user-2", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, playlist.ID, got.ID)
}

func TestPlaylistShareGrantsAccess(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db)

	require.NoError(t, s.Share("user-1", playlist.ID, "user-2", true))

	got, err := s.Get("user-2", playlist.ID)
	require.NoError(t, err)
	assert.True(t, s.CanEdit("user-2", got))

	// Sharing a private playlist flips it to shared.
	assert.Equal(t, models.PrivacyShared, got.Privacy)

	// Re-sharing updates the edit flag instead of erroring.
	require.NoError(t, s.Share("user-1", playlist.ID, "user-2", false))
	got, err = s.Get("user-2", playlist.ID)
	require.NoError(t, err)
	assert.False(t, s.CanEdit("user-2", got))
}

func TestPlaylistShareOnlyOwner(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db, func(p *models.Playlist) {
		p.Privacy = models.PrivacyPublic
	})

	err := s.Share("user-2", playlist.ID, "user-3", false)
	require.Error(t, err)
	assert.Equal(t, errors.CodePermissionDenied, errors.GetErrorCode(err))
}

func TestPlaylistDeleteDefaultRefused(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db, func(p *models.Playlist) {
		p.IsDefault = true
	})

	err := s.Delete("user-1", playlist.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDefaultPlaylist, errors.GetErrorCode(err))

	// Clearing the default is allowed.
	apptesting.CreateItem(db, playlist.ID)
	require.NoError(t, s.Clear("user-1", playlist.ID))

	got, err := s.Get("user-1", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ItemCount)
}

func TestPlaylistDeleteCascades(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db)
	apptesting.CreateItem(db, playlist.ID)
	require.NoError(t, s.Share("user-1", playlist.ID, "user-2", false))

	require.NoError(t, s.Delete("user-1", playlist.ID))

	var items int64
	db.Model(&models.PlaylistItem{}).Where("playlist_id = ?", playlist.ID).Count(&items)
	assert.Zero(t, items)
	var shares int64
	db.Model(&models.PlaylistShare{}).Where("playlist_id = ?", playlist.ID).Count(&shares)
	assert.Zero(t, shares)
}

func TestPlaylistUpdateSortLocked(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db, func(p *models.Playlist) {
		p.SortLocked = true
	})

	err := s.UpdateSort("user-1", playlist.ID, models.SortByTitle, models.SortAsc)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSortLocked, errors.GetErrorCode(err))
}

func TestPlaylistUpdateSortClearsCustomOrder(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	order := `["a","b"]`
	playlist := apptesting.CreatePlaylist(db, func(p *models.Playlist) {
		p.SortBy = models.SortByCustom
		p.CustomOrder = &order
	})

	require.NoError(t, s.UpdateSort("user-1", playlist.ID, models.SortByTitle, models.SortAsc))

	got, err := s.Get("user-1", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SortByTitle, got.SortBy)
	assert.Nil(t, got.CustomOrder)
}

func TestPlaylistUpdateOrder(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db)
	a := apptesting.CreateItem(db, playlist.ID)
	b := apptesting.CreateItem(db, playlist.ID)
	c := apptesting.CreateItem(db, playlist.ID)

	require.NoError(t, s.UpdateOrder("user-1", playlist.ID, []string{b.ID, c.ID, a.ID}))

	got, err := s.Get("user-1", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SortByCustom, got.SortBy)
	assert.Equal(t, models.SortAsc, got.SortOrder)
	require.NotNil(t, got.CustomOrder)

	var order []string
	require.NoError(t, json.Unmarshal([]byte(*got.CustomOrder), &order))
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, order)
}

func TestPlaylistUpdateOrderRejectsWrongSet(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	playlist := apptesting.CreatePlaylist(db)
	a := apptesting.CreateItem(db, playlist.ID)
	apptesting.CreateItem(db, playlist.ID)

	// Missing one item.
	err := s.UpdateOrder("user-1", playlist.ID, []string{a.ID})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetErrorCode(err))

	// Extra unknown item.
	err = s.UpdateOrder("user-1", playlist.ID, []string{a.ID, a.ID, "ghost"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetErrorCode(err))
}

func TestPlaylistListOwnedAndShared(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	mine := apptesting.CreatePlaylist(db)
	theirs := apptesting.CreatePlaylist(db, func(p *models.Playlist) {
		p.UserID = "user-2"
	})
	require.NoError(t, s.Share("user-2", theirs.ID, "user-1", false))

	playlists, err := s.List("user-1")
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	assert.Equal(t, mine.ID, playlists[0].ID)
	assert.Equal(t, theirs.ID, playlists[1].ID)
}

func TestEnsureDefault(t *testing.T) {
	db := apptesting.TestDB(t)
	s := NewPlaylistStore(db)

	first, err := s.EnsureDefault("user-9")
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := s.EnsureDefault("user-9")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
