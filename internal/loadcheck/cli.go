package loadcheck

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/trackrank/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initializes the global logger, teeing output to logFile
// when one is given.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		return io.NopCloser(nil), logger.Init()
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the load check tool.
func ShowHelp() {
	os.Stdout.WriteString(`TrackRank Load Check
====================

Sends concurrent where-do-i-rank probes built from the service's own
percentile cut points and verifies every answer echoes its mark.

Usage:
  go run ./cmd/loadcheck [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -probes int
        Number of probes to send (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write probe outcomes to this JSON file
  -log string
        Also write logs to this file
  -verbose
        Log every failed probe
  -help
        Show this help message

Examples:
  go run ./cmd/loadcheck -probes 5000 -workers 16 -url http://localhost:8080
`)
}
