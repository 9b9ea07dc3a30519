package feedsim

// Config holds configuration for the feed simulation run
type Config struct {
	NumAuthors      int     // Number of authors to seed
	NumPosts        int     // Number of candidate posts to rank
	NumImpressions  int     // Number of impression events to pump
	NumStories      int     // Number of story authors to rank
	DuplicateRatio  float64 // Fraction of impressions re-sent with the same event id
	UnresolvedRatio float64 // Fraction of posts attributed to unknown authors
	Workers         int     // Worker override; 0 keeps the configured worker_count
	SampleSize      int     // Number of feed positions to print
	LogFile         string  // Log file for simulation output
	Verbose         bool    // Enable verbose logging
}

// Stats holds simulation statistics
type Stats struct {
	AuthorsSeeded        int
	PostsGenerated       int
	ImpressionsSubmitted int
	ImpressionsAccepted  int
	ImpressionsDuplicate int
	FeedLength           int
	StoriesRanked        int
	ChecksPassed         int
	ChecksFailed         int
}
