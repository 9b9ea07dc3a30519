package feedsim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/fairfeed/pkg/logger"
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
		logFile = "feedsim_" + timestamp + ".log"
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

// ShowHelp prints usage information for the feed simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Fairfeed Simulation Tool
========================

An in-process harness that seeds authors, pumps impression events
through the pipeline, ranks a candidate feed, and verifies the
fairness and ordering invariants hold.

Usage:
  go run cmd/feedsim/main.go [options]

Options:
  -authors int
        Number of authors to seed (default 500)
  -posts int
        Number of candidate posts to rank (default 200)
  -impressions int
        Number of impression events to pump (default 10000)
  -stories int
        Number of story authors to rank (default 30)
  -duplicates float
        Fraction of impressions redelivered with a used event id (default 0.05)
  -unresolved float
        Fraction of posts attributed to unknown authors (default 0.05)
  -workers int
        Number of impression workers (default: worker_count from configuration)
  -sample int
        Number of feed positions to print (default 20)
  -log string
        Log file for simulation output (default: feedsim_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/feedsim/main.go

  # Run with a larger population
  go run cmd/feedsim/main.go -authors 5000 -posts 1000 -impressions 100000

  # Exercise the duplicate and unresolved paths harder
  go run cmd/feedsim/main.go -duplicates 0.2 -unresolved 0.2 -verbose

Service tuning is read from the layered configuration: built-in
defaults, then a YAML file named by FAIRFEED_CONFIG, then FAIRFEED_
environment variables (nested keys use double underscores, e.g.
FAIRFEED_QUEUE_SIZE, FAIRFEED_RANKING__CADENCE).
`)
}
