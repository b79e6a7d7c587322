package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchdeck/watchdeck/internal/config"
	"github.com/watchdeck/watchdeck/internal/logger"
	"github.com/watchdeck/watchdeck/internal/progress"
	"github.com/watchdeck/watchdeck/internal/shutdown"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the device-side watch-progress sync",
	Long: `Synchronize the local progress cache with a remote watchdeck server.
Positions reported on this device are pushed upstream and newer positions
from other devices are pulled into the local cache on a fixed interval.

Use --once to run a single pull and exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		serverURL, _ := cmd.Flags().GetString("server")
		token, _ := cmd.Flags().GetString("token")
		once, _ := cmd.Flags().GetBool("once")

		cfg := config.Get()

		logger.InitializeLoggers(cfg.Logging.App.Level, cfg.Logging.Database.Level)
		log := logger.AppLogger()

		if serverURL == "" || token == "" {
			log.Error("both --server and --token are required", nil)
			os.Exit(1)
		}

		store, err := progress.NewFileStore(cfg.Progress.CachePath, log)
		if err != nil {
			log.Error("failed to open progress cache", err)
			os.Exit(1)
		}

		engine := progress.NewEngine(progress.EngineConfig{
			Store:    store,
			Client:   progress.NewHTTPClient(serverURL, token),
			Interval: time.Duration(cfg.Sync.IntervalSeconds) * time.Second,
			Logger:   log,
		})

		if once {
			if err := engine.PullOnce(context.Background()); err != nil {
				log.Error("progress pull failed", err)
				os.Exit(1)
			}
			log.Info("progress pull complete")
			return
		}

		shutdownHandler := shutdown.New(10 * time.Second)
		shutdownHandler.Register(func(ctx context.Context) error {
			engine.Stop()
			return nil
		})

		engine.Start(context.Background())
		log.WithFields(map[string]interface{}{
			"server":   serverURL,
			"interval": cfg.Sync.IntervalSeconds,
		}).Info("progress sync started")

		if err := shutdownHandler.Wait(); err != nil {
			log.Error("shutdown finished with errors", err)
			os.Exit(1)
		}
		log.Info("progress sync stopped")
	},
}

func init() {
	syncCmd.Flags().String("server", "", "base URL of the watchdeck server")
	syncCmd.Flags().String("token", "", "session token used for API calls")
	syncCmd.Flags().Bool("once", false, "run a single pull and exit")
	rootCmd.AddCommand(syncCmd)
}
