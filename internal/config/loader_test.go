package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/trackrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.DBPath, convey.ShouldEqual, "Track.db")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRACKRANK_ADDR", ":8080")
			_ = os.Setenv("TRACKRANK_QUEUE_SIZE", "64")
			_ = os.Setenv("TRACKRANK_WORKER_COUNT", "4")
			_ = os.Setenv("TRACKRANK_ENROLLMENT_BAND", "0.3")
			_ = os.Setenv("TRACKRANK_LOG_FORMAT", "json")
			_ = os.Setenv("TRACKRANK_METRICS_ENABLED", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.EnrollmentBand, convey.ShouldEqual, 0.3)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store: memory
fixture_path: corpus.yaml
leaderboard_limit: 25
placer_threshold: 8
personal_best_since_year: 2020
max_batch_size: 10
metrics_refresh_interval: 30s
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRACKRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.FixturePath, convey.ShouldEqual, "corpus.yaml")
				convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.PlacerThreshold, convey.ShouldEqual, 8)
				convey.So(cfg.PersonalBestSinceYear, convey.ShouldEqual, 2020)
				convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 10)
				convey.So(cfg.MetricsRefreshInterval, convey.ShouldEqual, 30*time.Second)
			})

			convey.Convey("Then missing fields keep their defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.EnrollmentBand, convey.ShouldEqual, 0.25)
				convey.So(cfg.DefaultMeetType, convey.ShouldEqual, "Sectional")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
worker_count: 24
queue_size: 300
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRACKRANK_CONFIG", tmpFile)
			_ = os.Setenv("TRACKRANK_ADDR", ":8080")
			_ = os.Setenv("TRACKRANK_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unclosed")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRACKRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TRACKRANK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TRACKRANK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store", func() {
			_ = os.Setenv("TRACKRANK_STORE", "mongo")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TRACKRANK_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "trackrank-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"TRACKRANK_CONFIG",
		"TRACKRANK_ADDR",
		"TRACKRANK_STORE",
		"TRACKRANK_QUEUE_SIZE",
		"TRACKRANK_WORKER_COUNT",
		"TRACKRANK_ENROLLMENT_BAND",
		"TRACKRANK_LOG_FORMAT",
		"TRACKRANK_METRICS_ENABLED",
	} {
		_ = os.Unsetenv(key)
	}
}
