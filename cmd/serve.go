package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchdeck/watchdeck/internal/api"
	"github.com/watchdeck/watchdeck/internal/auth"
	"github.com/watchdeck/watchdeck/internal/config"
	"github.com/watchdeck/watchdeck/internal/database"
	"github.com/watchdeck/watchdeck/internal/external/tmdb"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/search"
	"github.com/watchdeck/watchdeck/internal/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the watchdeck API server",
	Long: `Start the HTTP API serving playlist, watch-progress, visibility and
search endpoints. The server runs until interrupted and closes the database
connection on shutdown.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()

		logger.InitializeLoggers(cfg.Logging.App.Level, cfg.Logging.Database.Level)
		log := logger.AppLogger()

		if err := database.Initialize(); err != nil {
			log.Error("failed to initialize database", err)
			os.Exit(1)
		}

		shutdownHandler := shutdown.New(30 * time.Second)
		shutdownHandler.Register(func(ctx context.Context) error {
			log.Debug("closing database connection")
			return database.Close()
		})

		var tmdbClient search.TMDBClient
		if cfg.TMDB.Enabled {
			tmdbClient = tmdb.NewClient(tmdb.Config{
				APIKey:   cfg.TMDB.APIKey,
				Language: cfg.TMDB.Language,
			})
		}

		searchService := search.NewService(database.Get(), search.Config{
			IncludeExternal: cfg.Search.IncludeExternal,
			MaxResults:      cfg.Search.MaxResults,
			TMDB:            tmdbClient,
			Logger:          log,
		})

		server := api.NewServer(api.ServerConfig{
			DB:             database.Get(),
			Sessions:       auth.NewSessionStore(24 * time.Hour),
			Search:         searchService,
			AllowedOrigins: cfg.API.AllowedOrigins,
			Logger:         log,
		})

		go func() {
			log.WithFields(map[string]interface{}{
				"port": cfg.API.Port,
			}).Info("starting API server")
			if err := server.Run(cfg.API.Port); err != nil {
				log.Error("API server stopped", err)
				os.Exit(1)
			}
		}()

		if err := shutdownHandler.Wait(); err != nil {
			log.Error("shutdown finished with errors", err)
			os.Exit(1)
		}
		log.Info("shutdown complete")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
