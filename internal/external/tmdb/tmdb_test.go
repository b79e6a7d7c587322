package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchdeck/watchdeck/internal/errors"
)

func testClient(serverURL string) *Client {
	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Timeout: time.Second,
	})
	client.retryCfg.InitialBackoff = time.Millisecond
	client.retryCfg.MaxBackoff = 5 * time.Millisecond
	return client
}

func TestSearchMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "alien", r.URL.Query().Get("query"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"page": 1,
			"results": [
				{"id": 348, "title": "Alien", "release_date": "1979-05-25", "vote_average": 8.1},
				{"id": 8077, "title": "Alien³", "release_date": "1992-05-22", "vote_average": 6.2}
			],
			"total_pages": 1,
			"total_results": 2
		}`))
	}))
	defer server.Close()

	results, err := testClient(server.URL).SearchMovies(context.Background(), "alien")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 348, results[0].ID)
	assert.Equal(t, "Alien", results[0].Title)
}

func TestSearchTVShows_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page": 1, "results": [], "total_pages": 0, "total_results": 0}`))
	}))
	defer server.Close()

	results, err := testClient(server.URL).SearchTVShows(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchPeople(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/person", r.URL.Path)
		w.Write([]byte(`{"results": [{"id": 6384, "name": "Keanu Reeves", "known_for_department": "Acting"}]}`))
	}))
	defer server.Close()

	results, err := testClient(server.URL).SearchPeople(context.Background(), "keanu")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Keanu Reeves", results[0].Name)
}

func TestGetMovieDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/348", r.URL.Path)
		w.Write([]byte(`{"id": 348, "title": "Alien", "runtime": 117, "genres": [{"id": 27, "name": "Horror"}]}`))
	}))
	defer server.Close()

	details, err := testClient(server.URL).GetMovieDetails(context.Background(), 348)
	require.NoError(t, err)
	assert.Equal(t, "Alien", details.Title)
	require.NotNil(t, details.Runtime)
	assert.Equal(t, 117, *details.Runtime)
	require.Len(t, details.Genres, 1)
	assert.Equal(t, "Horror", details.Genres[0].Name)
}

func TestRateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).SearchMovies(context.Background(), "alien")
	require.Error(t, err)
	assert.Equal(t, errors.CodeRateLimited, errors.GetErrorCode(err))
	assert.Equal(t, int32(3), calls.Load(), "rate limits are retried up to the attempt budget")
}

func TestUnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := testClient(server.URL).SearchMovies(context.Background(), "alien")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.GetErrorCode(err))
	assert.Equal(t, int32(1), calls.Load(), "auth failures must not be retried")
}
