package engine

import (
	"math"
	"time"

	"github.com/TriColor-Initiatives/Baby-Bloom-sub000/internal/config"
)

// EstimateInterval returns the expected hours between two events of the same kind.
// times must be sorted most recent first. With fewer than config.AdaptiveMinEvents
// entries, or adaptive off, fixedHours is returned unchanged. Otherwise the mean of
// the gaps between the most recent events is rounded to one decimal and clamped to
// [config.AdaptiveMinHours, config.AdaptiveMaxHours]. Ordering is not validated:
// zero or negative gaps are absorbed by the clamp.
func EstimateInterval(times []time.Time, fixedHours float64, adaptive bool) float64 {
	if !adaptive || len(times) < config.AdaptiveMinEvents {
		return fixedHours
	}

	recent := times[:config.AdaptiveMinEvents]
	var total float64
	for i := 0; i < len(recent)-1; i++ {
		total += recent[i].Sub(recent[i+1]).Hours()
	}
	mean := total / float64(len(recent)-1)
	rounded := math.Round(mean*10) / 10

	return math.Min(config.AdaptiveMaxHours, math.Max(config.AdaptiveMinHours, rounded))
}

// NextExpected projects the next event time from the most recent one.
func NextExpected(last time.Time, intervalHours float64) time.Time {
	return last.Add(time.Duration(intervalHours * float64(time.Hour)))
}
