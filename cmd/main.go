package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchdeck/watchdeck/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "watchdeck",
	Short: "Watchdeck keeps watch progress and playlists in sync across devices",
	Long: `Watchdeck is the synchronization backend for a personal media-streaming app.
It serves playlist and watch-progress APIs over HTTP and can run a device-side
progress sync against a remote watchdeck server.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Watchdeck",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Watchdeck v0.1.0")
	},
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yml)")
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// Skip config loading for version command
	if len(os.Args) > 1 && os.Args[1] == "version" {
		return
	}

	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
