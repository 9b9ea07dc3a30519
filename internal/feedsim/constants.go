package feedsim

import "time"

// Runner configuration constants.
const (
	drainPollInterval = 50 * time.Millisecond
	drainTimeout      = 30 * time.Second
	PercentMultiplier = 100
)
