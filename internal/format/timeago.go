// Package format turns stored comments into their externally safe,
// display-ready shape: relative-time labels, masked submitter fields, and
// sanitized (optionally markdown-rendered) content.
package format

import (
	"strconv"
	"time"
)

// Millisecond widths of the relative-time buckets.
const (
	msPerMinute = 60_000
	msPerHour   = 3_600_000
	msPerDay    = 86_400_000
)

// TimeAgo renders the coarsest-appropriate human-relative label for a
// creation timestamp, measured at now:
//
//	0 elapsed minutes        -> "just now"
//	< 64 minutes             -> "N minutes ago"
//	< 24 hours               -> "N hours ago"
//	< 7 days                 -> "N days ago"
//	otherwise                -> absolute "YYYY-MM-DD"
//
// Bucket boundaries use integer division of the millisecond delta, so a tie
// falls into the finer bucket until its threshold is strictly exceeded.
func TimeAgo(created, now time.Time) string {
	delta := now.Sub(created).Milliseconds()
	if delta < 0 {
		delta = 0
	}

	minutes := delta / msPerMinute
	hours := delta / msPerHour
	days := delta / msPerDay

	switch {
	case minutes == 0:
		return "just now"
	case minutes < 64:
		return strconv.FormatInt(minutes, 10) + " minutes ago"
	case hours < 24:
		return strconv.FormatInt(hours, 10) + " hours ago"
	case days < 7:
		return strconv.FormatInt(days, 10) + " days ago"
	default:
		return created.Format("2006-01-02")
	}
}
