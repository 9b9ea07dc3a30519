package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/fairfeed/internal/feedsim"
)

// Default configuration constants.
const (
	defaultNumAuthors      = 500
	defaultNumPosts        = 200
	defaultNumImpressions  = 10000
	defaultNumStories      = 30
	defaultDuplicateRatio  = 0.05
	defaultUnresolvedRatio = 0.05
	defaultSampleSize      = 20
	defaultRunTimeout      = 10 * time.Minute
)

func main() {
	var (
		numAuthors      = flag.Int("authors", defaultNumAuthors, "Number of authors to seed")
		numPosts        = flag.Int("posts", defaultNumPosts, "Number of candidate posts to rank")
		numImpressions  = flag.Int("impressions", defaultNumImpressions, "Number of impression events to pump")
		numStories      = flag.Int("stories", defaultNumStories, "Number of story authors to rank")
		duplicateRatio  = flag.Float64("duplicates", defaultDuplicateRatio, "Fraction of impressions redelivered with a used event id")
		unresolvedRatio = flag.Float64("unresolved", defaultUnresolvedRatio, "Fraction of posts attributed to unknown authors")
		workers         = flag.Int("workers", 0, "Number of impression workers (0 = worker_count from configuration)")
		sampleSize      = flag.Int("sample", defaultSampleSize, "Number of feed positions to print")
		logFile         = flag.String("log", "", "Log file for simulation output (default: feedsim_TIMESTAMP.log)")
		verbose         = flag.Bool("verbose", false, "Enable verbose logging")
		help            = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		feedsim.ShowHelp()
		return
	}

	// Setup logging
	if err := feedsim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create simulation configuration
	config := &feedsim.Config{
		NumAuthors:      *numAuthors,
		NumPosts:        *numPosts,
		NumImpressions:  *numImpressions,
		NumStories:      *numStories,
		DuplicateRatio:  *duplicateRatio,
		UnresolvedRatio: *unresolvedRatio,
		Workers:         *workers,
		SampleSize:      *sampleSize,
		LogFile:         *logFile,
		Verbose:         *verbose,
	}

	// Run the simulation
	if err := feedsim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
