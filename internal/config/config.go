// Package config defines process configuration and its loading hooks.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the results backend: sqlite or memory.
	Store string `koanf:"store"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// FixturePath is a YAML corpus. It backs the memory store and, when set
	// together with the sqlite store, seeds an empty database.
	FixturePath string `koanf:"fixture_path"`

	// LeaderboardLimit is the number of rows shown per cohort.
	LeaderboardLimit int `koanf:"leaderboard_limit"`

	// PlacerThreshold is the highest place that earns a placer badge.
	PlacerThreshold int `koanf:"placer_threshold"`

	// EnrollmentBand is the like-school tolerance as a fraction.
	EnrollmentBand float64 `koanf:"enrollment_band"`

	// PersonalBestSinceYear is the first season counted for personal bests.
	PersonalBestSinceYear int `koanf:"personal_best_since_year"`

	// WorkerCount sets the number of dashboard workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the dashboard job queue.
	QueueSize int `koanf:"queue_size"`

	// MaxBatchSize caps GET /dashboards?ids.
	MaxBatchSize int `koanf:"max_batch_size"`

	// DefaultMeetType is used by projections when the request names none.
	DefaultMeetType string `koanf:"default_meet_type"`

	// MetricsEnabled runs the background system and queue gauge updaters.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshInterval is how often those gauges are refreshed.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		Store:                  StoreSQLite,
		DBPath:                 "Track.db",
		LeaderboardLimit:       10,
		PlacerThreshold:        3,
		EnrollmentBand:         0.25,
		PersonalBestSinceYear:  2022,
		WorkerCount:            runtime.NumCPU(),
		QueueSize:              1024,
		MaxBatchSize:           100,
		DefaultMeetType:        "Sectional",
		MetricsEnabled:         true,
		MetricsRefreshInterval: 10 * time.Second,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EnrollmentBand <= 0 || c.EnrollmentBand >= 1:
		return fmt.Errorf("%w: enrollment_band must be in (0, 1), got %v", ErrInvalidConfig, c.EnrollmentBand)
	case c.LeaderboardLimit < 1:
		return fmt.Errorf("%w: leaderboard_limit must be positive", ErrInvalidConfig)
	case c.PlacerThreshold < 1:
		return fmt.Errorf("%w: placer_threshold must be positive", ErrInvalidConfig)
	case c.MaxBatchSize < 1:
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Store) {
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db_path is required for the sqlite store", ErrInvalidConfig)
		}
	case StoreMemory:
		if c.FixturePath == "" {
			return fmt.Errorf("%w: fixture_path is required for the memory store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return nil
}
