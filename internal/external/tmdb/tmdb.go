// Package tmdb is the client for the external metadata provider. Rate
// limits and transient errors are expected; callers catch failures per
// call rather than aborting a whole search.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/watchdeck/watchdeck/internal/circuitbreaker"
	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/retry"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	defaultTimeout = 10 * time.Second
)

// Client handles TMDB API interactions
type Client struct {
	apiKey     string
	language   string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
	circuitBrk *circuitbreaker.CircuitBreaker
	retryCfg   retry.Config
}

// Config holds TMDB client configuration
type Config struct {
	APIKey   string
	Language string // e.g. "en-US"
	Timeout  time.Duration

	// BaseURL overrides the TMDB endpoint (primarily for testing)
	BaseURL string
}

// MovieResult represents a movie search result from TMDB
type MovieResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"` // YYYY-MM-DD
	PosterPath  *string `json:"poster_path"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

// TVShowResult represents a TV show search result from TMDB
type TVShowResult struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	FirstAirDate string  `json:"first_air_date"` // YYYY-MM-DD
	PosterPath   *string `json:"poster_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
}

// PersonResult represents a person search result from TMDB
type PersonResult struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	KnownForDepartment string  `json:"known_for_department"`
	ProfilePath        *string `json:"profile_path"`
	Popularity         float64 `json:"popularity"`
}

// Genre represents a TMDB genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails represents detailed movie information
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	Overview    string  `json:"overview"`
	VoteAverage float64 `json:"vote_average"`
	Runtime     *int    `json:"runtime"`
	Genres      []Genre `json:"genres"`
}

// TVShowDetails represents detailed TV show information
type TVShowDetails struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []Genre `json:"genres"`
}

type searchResponse[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// NewClient creates a new TMDB API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &Client{
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		baseURL:  cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.AppLogger(),
		circuitBrk: circuitbreaker.New(circuitbreaker.Config{
			MaxFailures: 5,
			Timeout:     60 * time.Second,
		}),
		retryCfg: retry.Config{
			MaxAttempts:       3,
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
			JitterFraction:    0.1,
		},
	}
}

// SearchMovies searches for movies by title
func (c *Client) SearchMovies(ctx context.Context, query string) ([]MovieResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var response searchResponse[MovieResult]
	if err := c.makeRequest(ctx, "/search/movie", params, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// SearchTVShows searches for TV shows by title
func (c *Client) SearchTVShows(ctx context.Context, query string) ([]TVShowResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var response searchResponse[TVShowResult]
	if err := c.makeRequest(ctx, "/search/tv", params, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// SearchPeople searches for cast and crew by name
func (c *Client) SearchPeople(ctx context.Context, query string) ([]PersonResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var response searchResponse[PersonResult]
	if err := c.makeRequest(ctx, "/search/person", params, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// GetMovieDetails retrieves detailed information for a specific movie
func (c *Client) GetMovieDetails(ctx context.Context, movieID int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.makeRequest(ctx, fmt.Sprintf("/movie/%d", movieID), url.Values{}, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetTVShowDetails retrieves detailed information for a specific TV show
func (c *Client) GetTVShowDetails(ctx context.Context, tvShowID int) (*TVShowDetails, error) {
	var details TVShowDetails
	if err := c.makeRequest(ctx, fmt.Sprintf("/tv/%d", tvShowID), url.Values{}, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// makeRequest performs a GET against the TMDB API through the circuit
// breaker, retrying transient failures.
func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	return retry.Do(ctx, c.retryCfg, func() error {
		return c.circuitBrk.Execute(func() error {
			return c.doRequest(ctx, requestURL, result)
		})
	}, errors.IsRetryable)
}

func (c *Client) doRequest(ctx context.Context, requestURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.language)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.ExternalServiceError("tmdb", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.ExternalServiceError("tmdb", "failed to decode response", err)
		}
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return errors.New(errors.CodeRateLimited, "tmdb rate limit exceeded")

	case resp.StatusCode == http.StatusUnauthorized:
		return errors.New(errors.CodeUnauthorized, "tmdb api key rejected")

	case resp.StatusCode >= 500:
		return errors.New(errors.CodeServiceUnavailable,
			fmt.Sprintf("tmdb returned status %d", resp.StatusCode))

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.New(errors.CodeExternalService,
			fmt.Sprintf("tmdb returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
}
