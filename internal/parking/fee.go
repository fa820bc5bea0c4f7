package parking

import (
	"math"
	"time"
)

// BilledHours is the elapsed time rounded up to whole hours. Zero or negative
// durations (clock skew) bill nothing.
func BilledHours(entry, now time.Time) float64 {
	hours := now.Sub(entry).Hours()
	if hours <= 0 {
		return 0
	}
	return math.Ceil(hours)
}

func Fee(entry, now time.Time, rate float64) float64 {
	return BilledHours(entry, now) * rate
}
