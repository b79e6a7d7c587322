package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/errors"
	"github.com/watchdeck/watchdeck/internal/external/tmdb"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/store"
)

// MatchType categorizes why a library item matched the query
type MatchType string

const (
	MatchTitle      MatchType = "title"
	MatchGenre      MatchType = "genre"
	MatchCast       MatchType = "cast"
	MatchYear       MatchType = "year"
	MatchHDR        MatchType = "hdr"
	MatchResolution MatchType = "resolution"
	MatchPerson     MatchType = "person"
)

// ExternalResult is a metadata-provider match not present in the library
type ExternalResult struct {
	TMDBID      int              `json:"tmdb_id"`
	MediaType   models.MediaType `json:"media_type"`
	Title       string           `json:"title"`
	ReleaseDate string           `json:"release_date,omitempty"`
	Overview    string           `json:"overview,omitempty"`
	PosterPath  *string          `json:"poster_path,omitempty"`
}

// Results holds library matches partitioned by match type plus any
// external provider matches
type Results struct {
	Query    string                           `json:"query"`
	Library  map[MatchType][]models.MediaItem `json:"library"`
	External []ExternalResult                 `json:"external,omitempty"`
	People   []tmdb.PersonResult              `json:"people,omitempty"`
}

// TMDBClient is the slice of the TMDB client the search service uses
type TMDBClient interface {
	SearchMovies(ctx context.Context, query string) ([]tmdb.MovieResult, error)
	SearchTVShows(ctx context.Context, query string) ([]tmdb.TVShowResult, error)
	SearchPeople(ctx context.Context, query string) ([]tmdb.PersonResult, error)
}

// Config holds search service settings
type Config struct {
	IncludeExternal bool
	MaxResults      int
	TMDB            TMDBClient
	Logger          *logger.Logger
}

// Service searches the media library and, optionally, TMDB
type Service struct {
	db         *gorm.DB
	visibility *store.VisibilityStore
	tmdb       TMDBClient
	external   bool
	maxResults int
	log        *logger.Logger
}

// NewService creates a search service
func NewService(db *gorm.DB, cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logger.AppLogger()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}
	return &Service{
		db:         db,
		visibility: store.NewVisibilityStore(db),
		tmdb:       cfg.TMDB,
		external:   cfg.IncludeExternal && cfg.TMDB != nil,
		maxResults: maxResults,
		log:        log,
	}
}

// Search runs a free-text query over the library, partitioning matches
// by type. External provider failures are logged per call and never fail
// the overall search.
func (s *Service) Search(ctx context.Context, userID, query string) (*Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.ValidationError("query is required")
	}

	hidden, err := s.visibility.HiddenSet(userID)
	if err != nil {
		return nil, err
	}

	var items []models.MediaItem
	if err := s.db.Order("title ASC").Find(&items).Error; err != nil {
		return nil, errors.DatabaseError("failed to load media library", err)
	}

	results := &Results{
		Query:   query,
		Library: make(map[MatchType][]models.MediaItem),
	}

	needle := strings.ToLower(query)
	total := 0
	for _, item := range items {
		if hidden[item.ID] || total >= s.maxResults {
			continue
		}
		if mt, ok := classify(item, needle); ok {
			results.Library[mt] = append(results.Library[mt], item)
			total++
		}
	}

	if s.external {
		s.searchExternal(ctx, query, results)
	}
	return results, nil
}

// classify returns the first match type the item satisfies, checked in
// display priority order
func classify(item models.MediaItem, needle string) (MatchType, bool) {
	if strings.Contains(strings.ToLower(item.Title), needle) {
		return MatchTitle, true
	}
	if containsJSONValue(item.Genres, needle) {
		return MatchGenre, true
	}
	if containsJSONValue(item.Cast, needle) {
		return MatchCast, true
	}
	if year, err := strconv.Atoi(needle); err == nil && len(needle) == 4 {
		if strings.HasPrefix(item.ReleaseDate, strconv.Itoa(year)) {
			return MatchYear, true
		}
	}
	if needle == "hdr" && item.HDR {
		return MatchHDR, true
	}
	if item.Resolution != nil && strings.EqualFold(*item.Resolution, needle) {
		return MatchResolution, true
	}
	return "", false
}

func containsJSONValue(raw *string, needle string) bool {
	if raw == nil {
		return false
	}
	var values []string
	if err := json.Unmarshal([]byte(*raw), &values); err != nil {
		return false
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// searchExternal augments results with TMDB matches. Each call's error
// is contained so one provider failure cannot sink the whole search.
func (s *Service) searchExternal(ctx context.Context, query string, results *Results) {
	known := make(map[int]bool)
	for _, items := range results.Library {
		for _, item := range items {
			if item.TMDBID != nil {
				known[*item.TMDBID] = true
			}
		}
	}

	movies, err := s.tmdb.SearchMovies(ctx, query)
	if err != nil {
		s.log.WithFields(map[string]interface{}{
			"query": query,
			"error": err.Error(),
		}).Warn("tmdb movie search failed")
	} else {
		for _, m := range movies {
			if known[m.ID] {
				continue
			}
			results.External = append(results.External, ExternalResult{
				TMDBID:      m.ID,
				MediaType:   models.MediaTypeMovie,
				Title:       m.Title,
				ReleaseDate: m.ReleaseDate,
				Overview:    m.Overview,
				PosterPath:  m.PosterPath,
			})
		}
	}

	shows, err := s.tmdb.SearchTVShows(ctx, query)
	if err != nil {
		s.log.WithFields(map[string]interface{}{
			"query": query,
			"error": err.Error(),
		}).Warn("tmdb tv search failed")
	} else {
		for _, show := range shows {
			if known[show.ID] {
				continue
			}
			results.External = append(results.External, ExternalResult{
				TMDBID:      show.ID,
				MediaType:   models.MediaTypeTV,
				Title:       show.Name,
				ReleaseDate: show.FirstAirDate,
				Overview:    show.Overview,
				PosterPath:  show.PosterPath,
			})
		}
	}

	people, err := s.tmdb.SearchPeople(ctx, query)
	if err != nil {
		s.log.WithFields(map[string]interface{}{
			"query": query,
			"error": err.Error(),
		}).Warn("tmdb person search failed")
	} else {
		results.People = people
	}
}
