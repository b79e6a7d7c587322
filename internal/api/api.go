package api

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/watchdeck/watchdeck/internal/auth"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/search"
	"github.com/watchdeck/watchdeck/internal/store"
)

// ServerConfig holds the API server's collaborators
type ServerConfig struct {
	DB             *gorm.DB
	Sessions       *auth.SessionStore
	Search         *search.Service
	AllowedOrigins []string
	Logger         *logger.Logger
}

// Server represents the API server
type Server struct {
	router     *gin.Engine
	sessions   *auth.SessionStore
	playlists  *store.PlaylistStore
	items      *store.ItemStore
	progress   *store.ProgressStore
	visibility *store.VisibilityStore
	search     *search.Service
	log        *logger.Logger
}

// NewServer creates a new API server instance
func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.AppLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(errorHandlerMiddleware())

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Session-Token", "X-Request-ID"},
	}))

	s := &Server{
		router:     router,
		sessions:   cfg.Sessions,
		playlists:  store.NewPlaylistStore(cfg.DB),
		items:      store.NewItemStore(cfg.DB),
		progress:   store.NewProgressStore(cfg.DB),
		visibility: store.NewVisibilityStore(cfg.DB),
		search:     cfg.Search,
		log:        log,
	}

	s.setupRoutes()

	return s
}

// Run starts the API server on the specified port
func (s *Server) Run(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the gin engine, primarily for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.healthCheck)

	// API v1 routes, all behind a session
	v1 := s.router.Group("/api/v1")
	v1.Use(sessionMiddleware(s.sessions))
	{
		v1.GET("/progress", s.pullProgress)
		v1.POST("/progress", s.reportProgress)

		v1.POST("/watchlist", s.watchlistAction)

		v1.GET("/search", s.searchMedia)
	}
}
