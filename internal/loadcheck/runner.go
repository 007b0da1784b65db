// Package loadcheck drives a running trackrank server with concurrent
// where-do-i-rank probes built from its own percentile tables and checks
// the answers for consistency.
package loadcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/trackrank/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete load check.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting trackrank load check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("probes", config.Probes),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Build probes from the percentile tables
	probes, err := generateProbes(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("probe generation failed: %w", err)
	}

	// Step 3: Send probes concurrently
	outcomes := sendProbes(ctx, config, probes, stats)

	// Step 4: Save outcomes
	if config.OutputFile != "" {
		if err := saveOutcomes(ctx, config.OutputFile, outcomes); err != nil {
			logger.Get().Warn(ctx, "failed to save outcomes to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	// Step 5: Verify answers
	if err := verifyOutcomes(ctx, outcomes, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}
	if stats.ProbesFailed > 0 {
		return stats, fmt.Errorf("%d probes failed", stats.ProbesFailed)
	}

	logger.Get().Info(ctx, "load check completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)

	resp, err := client.Get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The service answers with Prometheus metrics; any 200 is healthy.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveOutcomes writes outcomes to filename as a JSON array.
func saveOutcomes(ctx context.Context, filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "outcomes saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, probesPerSecond float64

	if stats.ProbesSent > 0 {
		successRate = float64(stats.ProbesOK) / float64(stats.ProbesSent) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		probesPerSecond = float64(stats.ProbesSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("probesGenerated", stats.ProbesGenerated),
		logger.Int("probesSent", stats.ProbesSent),
		logger.Int("probesOK", stats.ProbesOK),
		logger.Int("probesFailed", stats.ProbesFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("probesPerSecond", probesPerSecond))
}
