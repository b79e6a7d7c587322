package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/external/tmdb"
	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/store"
	apptesting "github.com/watchdeck/watchdeck/internal/testing"
)

type fakeTMDB struct {
	movies    []tmdb.MovieResult
	moviesErr error
	shows     []tmdb.TVShowResult
	showsErr  error
	people    []tmdb.PersonResult
	peopleErr error
}

func (f *fakeTMDB) SearchMovies(ctx context.Context, query string) ([]tmdb.MovieResult, error) {
	return f.movies, f.moviesErr
}

func (f *fakeTMDB) SearchTVShows(ctx context.Context, query string) ([]tmdb.TVShowResult, error) {
	return f.shows, f.showsErr
}

func (f *fakeTMDB) SearchPeople(ctx context.Context, query string) ([]tmdb.PersonResult, error) {
	return f.people, f.peopleErr
}

func TestSearchPartitionsByMatchType(t *testing.T) {
	db := apptesting.TestDB(t)

	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-title"
		m.Title = "Heat"
	})
	genres := `["Heist", "Crime"]`
	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-genre"
		m.Title = "Ronin"
		m.Genres = &genres
	})
	cast := `["Robert De Niro"]`
	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-cast"
		m.Title = "Casino"
		m.Genres = nil
		m.Cast = &cast
	})

	svc := NewService(db, Config{})

	results, err := svc.Search(context.Background(), "user-1", "heat")
	require.NoError(t, err)
	require.Len(t, results.Library[MatchTitle], 1)
	assert.Equal(t, "m-title", results.Library[MatchTitle][0].ID)

	results, err = svc.Search(context.Background(), "user-1", "heist")
	require.NoError(t, err)
	require.Len(t, results.Library[MatchGenre], 1)
	assert.Equal(t, "m-genre", results.Library[MatchGenre][0].ID)

	results, err = svc.Search(context.Background(), "user-1", "de niro")
	require.NoError(t, err)
	require.Len(t, results.Library[MatchCast], 1)
	assert.Equal(t, "m-cast", results.Library[MatchCast][0].ID)
}

func TestSearchYearHDRResolution(t *testing.T) {
	db := apptesting.TestDB(t)

	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-1999"
		m.Title = "The Matrix"
		m.ReleaseDate = "1999-03-31"
		m.Genres = nil
		m.Cast = nil
		m.HDR = true
	})

	svc := NewService(db, Config{})

	results, err := svc.Search(context.Background(), "user-1", "1999")
	require.NoError(t, err)
	require.Len(t, results.Library[MatchYear], 1)

	results, err = svc.Search(context.Background(), "user-1", "HDR")
	require.NoError(t, err)
	require.Len(t, results.Library[MatchHDR], 1)

	results, err = svc.Search(context.Background(), "user-1", "1080p")
	require.NoError(t, err)
	require.Len(t, results.Library[MatchResolution], 1)
}

func TestSearchTitleTakesPriority(t *testing.T) {
	db := apptesting.TestDB(t)

	genres := `["Heat"]`
	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-both"
		m.Title = "Heat"
		m.Genres = &genres
	})

	svc := NewService(db, Config{})

	results, err := svc.Search(context.Background(), "user-1", "heat")
	require.NoError(t, err)
	assert.Len(t, results.Library[MatchTitle], 1)
	assert.Empty(t, results.Library[MatchGenre])
}

func TestSearchSkipsHiddenMedia(t *testing.T) {
	db := apptesting.TestDB(t)

	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-hidden"
		m.Title = "Heat"
	})
	require.NoError(t, store.NewVisibilityStore(db).Set("user-1", "m-hidden", true))

	svc := NewService(db, Config{})

	results, err := svc.Search(context.Background(), "user-1", "heat")
	require.NoError(t, err)
	assert.Empty(t, results.Library[MatchTitle])

	// Other users still see it.
	results, err = svc.Search(context.Background(), "user-2", "heat")
	require.NoError(t, err)
	assert.Len(t, results.Library[MatchTitle], 1)
}

func TestSearchMaxResults(t *testing.T) {
	db := apptesting.TestDB(t)

	for i := 0; i < 5; i++ {
		apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
			m.ID = fmt.Sprintf("m-%d", i)
			m.Title = fmt.Sprintf("Heat %d", i)
		})
	}

	svc := NewService(db, Config{MaxResults: 3})

	results, err := svc.Search(context.Background(), "user-1", "heat")
	require.NoError(t, err)
	assert.Len(t, results.Library[MatchTitle], 3)
}

func TestSearchExternalResults(t *testing.T) {
	db := apptesting.TestDB(t)

	tmdbID := 603
	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-matrix"
		m.Title = "The Matrix"
		m.TMDBID = &tmdbID
	})

	client := &fakeTMDB{
		movies: []tmdb.MovieResult{
			{ID: 603, Title: "The Matrix"},
			{ID: 604, Title: "The Matrix Reloaded"},
		},
		shows: []tmdb.TVShowResult{
			{ID: 901, Name: "The Matrix: Resurrections Special"},
		},
	}
	svc := NewService(db, Config{IncludeExternal: true, TMDB: client})

	results, err := svc.Search(context.Background(), "user-1", "matrix")
	require.NoError(t, err)

	// TMDB id 603 is already in the library, so only the other two
	// results come back as external.
	require.Len(t, results.External, 2)
	assert.Equal(t, 604, results.External[0].TMDBID)
	assert.Equal(t, models.MediaTypeMovie, results.External[0].MediaType)
	assert.Equal(t, 901, results.External[1].TMDBID)
	assert.Equal(t, models.MediaTypeTV, results.External[1].MediaType)
}

func TestSearchExternalFailureContained(t *testing.T) {
	db := apptesting.TestDB(t)

	apptesting.CreateMediaItem(db, func(m *models.MediaItem) {
		m.ID = "m-local"
		m.Title = "Heat"
	})

	client := &fakeTMDB{
		moviesErr: errors.ExternalServiceError("tmdb", "rate limited", nil),
		showsErr:  errors.ExternalServiceError("tmdb", "rate limited", nil),
		people:    []tmdb.PersonResult{{ID: 1, Name: "Michael Mann"}},
	}
	svc := NewService(db, Config{IncludeExternal: true, TMDB: client})

	results, err := svc.Search(context.Background(), "user-1", "heat")
	require.NoError(t, err)
	assert.Len(t, results.Library[MatchTitle], 1)
	assert.Empty(t, results.External)
	assert.Len(t, results.People, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	db := apptesting.TestDB(t)
	svc := NewService(db, Config{})

	_, err := svc.Search(context.Background(), "user-1", "   ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.GetErrorCode(err))
}
