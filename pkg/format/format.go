// Package format holds display formatting helpers for counts and
// relative timestamps. These sit next to the ranking engine for
// convenience but play no part in ranking itself.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Abbreviation thresholds.
const (
	thousand = 1_000
	million  = 1_000_000
	billion  = 1_000_000_000
)

// Count abbreviates an integer for display: 950 -> "950",
// 1_234 -> "1.2K", 3_400_000 -> "3.4M". Negative counts keep their
// sign.
func Count(n int64) string {
	if n < 0 {
		return "-" + Count(-n)
	}

	switch {
	case n >= billion:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/billion)) + "B"
	case n >= million:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/million)) + "M"
	case n >= thousand:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/thousand)) + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}

// trimZero drops a trailing ".0" so 1000 renders as "1K", not "1.0K".
func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// TimeAgo renders the elapsed time between t and now bucketed into
// minutes, hours, and days. Anything under a minute (including a t in
// the future) reads "just now".
func TimeAgo(t, now time.Time) string {
	elapsed := now.Sub(t)

	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}
