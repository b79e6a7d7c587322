package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Search   SearchConfig   `mapstructure:"search"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Progress ProgressConfig `mapstructure:"progress"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// APIConfig holds API server settings
type APIConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SyncConfig holds watch-progress sync settings
type SyncConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds"`
}

// SearchConfig holds search behavior settings
type SearchConfig struct {
	DebounceMs      int  `mapstructure:"debounce_ms"`
	IncludeExternal bool `mapstructure:"include_external"`
	MaxResults      int  `mapstructure:"max_results"`
}

// TMDBConfig holds TMDB API settings
type TMDBConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Language string `mapstructure:"language"`
	Enabled  bool   `mapstructure:"enabled"`
}

// ProgressConfig holds local progress cache settings
type ProgressConfig struct {
	CachePath string `mapstructure:"cache_path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	App      LogLevelConfig `mapstructure:"app"`
	Database LogLevelConfig `mapstructure:"database"`
}

// LogLevelConfig represents log level configuration for a specific component
type LogLevelConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

var cfg *Config

// Load reads configuration from file and environment variables
func Load() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/watchdeck")

	setDefaults()

	viper.SetEnvPrefix("WATCHDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicit bindings so nested keys pick up env overrides, plus
	// Docker-style aliases for the database settings.
	bindEnvWithAlternatives("database.host", "DB_HOST")
	bindEnvWithAlternatives("database.port", "DB_PORT")
	bindEnvWithAlternatives("database.user", "DB_USER")
	bindEnvWithAlternatives("database.password", "DB_PASSWORD")
	bindEnvWithAlternatives("database.dbname", "DB_NAME")
	bindEnvWithAlternatives("database.sslmode", "DB_SSLMODE")

	bindEnvWithAlternatives("api.port", "API_PORT")

	viper.BindEnv("sync.enabled")
	viper.BindEnv("sync.interval_seconds")

	viper.BindEnv("search.debounce_ms")
	viper.BindEnv("search.include_external")
	viper.BindEnv("search.max_results")

	bindEnvWithAlternatives("tmdb.api_key", "TMDB_API_KEY")
	viper.BindEnv("tmdb.language")
	viper.BindEnv("tmdb.enabled")

	viper.BindEnv("progress.cache_path")

	bindEnvWithAlternatives("logging.app.level", "LOG_LEVEL")
	viper.BindEnv("logging.database.level")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		return &Config{}
	}
	return cfg
}

// Set replaces the current configuration (primarily for testing)
func Set(c *Config) {
	cfg = c
}

// bindEnvWithAlternatives binds a viper key to env vars with alternative names
func bindEnvWithAlternatives(key string, alternatives ...string) {
	viper.BindEnv(key)
	for _, alt := range alternatives {
		if value := os.Getenv(alt); value != "" {
			viper.Set(key, value)
			break
		}
	}
}

func setDefaults() {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.allowed_origins", []string{"*"})

	viper.SetDefault("sync.enabled", true)
	viper.SetDefault("sync.interval_seconds", 5)

	viper.SetDefault("search.debounce_ms", 300)
	viper.SetDefault("search.include_external", true)
	viper.SetDefault("search.max_results", 50)

	viper.SetDefault("tmdb.language", "en-US")
	viper.SetDefault("tmdb.enabled", false)

	viper.SetDefault("progress.cache_path", "./progress_cache.json")

	viper.SetDefault("logging.app.level", "info")
	viper.SetDefault("logging.database.level", "warn")
}

func validate() error {
	if cfg.Sync.IntervalSeconds <= 0 {
		return fmt.Errorf("sync.interval_seconds must be positive, got %d", cfg.Sync.IntervalSeconds)
	}
	if cfg.Search.DebounceMs < 0 {
		return fmt.Errorf("search.debounce_ms must not be negative, got %d", cfg.Search.DebounceMs)
	}
	if cfg.TMDB.Enabled && cfg.TMDB.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required when tmdb.enabled is true")
	}
	if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", cfg.API.Port)
	}
	return nil
}
