// Package model contains domain models passed between layers.
package model

import "time"

// ContentType enumerates the media kinds a post can carry.
type ContentType string

// Known content types.
const (
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentText  ContentType = "text"
)

// Post is a read-only snapshot of a candidate feed post. The ranking
// engine never mutates it; engagement counters are whatever the source
// system reported at snapshot time.
type Post struct {
	ID          string      // unique, opaque id
	AuthorID    string      // foreign key into the author store
	CreatedAt   time.Time   // creation timestamp, UTC
	ContentType ContentType // image, video, text
	Likes       int64
	Comments    int64
	Shares      int64
}

// EngagementSum returns the weighted engagement volume used by the
// engagement-quality factor: likes + 2*comments + 3*shares. Negative
// counters are clamped to zero before summing.
func (p Post) EngagementSum() float64 {
	return float64(clampCount(p.Likes) + 2*clampCount(p.Comments) + 3*clampCount(p.Shares))
}

// Author is a read-only snapshot of per-author exposure statistics.
type Author struct {
	ID string

	// Followers is the author's follower count.
	Followers int64

	// VisibilityScore is a [0,100] measure of how much exposure the
	// author has historically received. Lower means more underexposed.
	VisibilityScore float64

	// RecentImpressions counts impressions delivered to this author's
	// content within the recent window.
	RecentImpressions int64
}

// RankedPost is a Post annotated with its computed ranking score and the
// author snapshot resolved during scoring. It has no identity or
// lifecycle beyond a single ranking call.
type RankedPost struct {
	Post   Post
	Score  float64
	Author Author
	// Resolved reports whether the author lookup succeeded. Posts with
	// unresolved authors keep score 0 and are still ranked.
	Resolved bool
}

// Impression is a single delivery of a post to a viewer, folded into the
// author statistics by the impression pipeline.
type Impression struct {
	EventID  string    // unique id for idempotency
	AuthorID string    // author whose content was shown
	PostID   string    // post that was shown
	TS       time.Time // delivery timestamp
}

func clampCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
