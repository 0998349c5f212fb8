package race

import (
	"math"
	"time"
)

// WordsPerMinute computes WPM over chars typed between startedAt and
// now, counting five characters per word. Returns 0 when startedAt is
// unset or no time has elapsed.
func WordsPerMinute(chars int, startedAt, now time.Time) int {
	if startedAt.IsZero() || !now.After(startedAt) {
		return 0
	}
	minutes := now.Sub(startedAt).Minutes()
	if minutes <= 0 {
		return 0
	}
	words := float64(chars) / 5.0
	return int(math.Round(words / minutes))
}

// Accuracy computes the percentage of chars typed without error,
// clamped to [0, 100]. An empty sample is 100% accurate. The error
// count may exceed chars because errors accumulate across retries on
// the same position.
func Accuracy(chars, errors int) int {
	if chars <= 0 {
		return 100
	}
	pct := float64(chars-errors) / float64(chars) * 100
	if pct < 0 {
		return 0
	}
	return int(math.Round(pct))
}
