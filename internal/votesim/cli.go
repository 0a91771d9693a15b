package votesim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "votesim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the vote simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Vote Simulation Tool
====================

A concurrent tool for exercising the voting API and verifying that vote
ledgers stay consistent under load.

Usage:
  go run cmd/test-votes/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -votes int
        Number of vote operations to generate and submit (default 5000)
  -voters int
        Number of simulated voter identities (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for simulation output (default: votesim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings against a seeded service
  go run cmd/test-votes/main.go

  # Heavy contention: many votes, few voters
  go run cmd/test-votes/main.go -votes 20000 -voters 50 -workers 16

  # Simulate with verbose output
  go run cmd/test-votes/main.go -verbose -votes 1000
`)
}
