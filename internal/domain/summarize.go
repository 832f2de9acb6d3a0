package domain

import (
	"fmt"
	"math"
)

// Summarize reduces the validated batch to headline totals. An empty batch
// returns ErrDegenerateInput instead of NaN statistics.
func Summarize(events []ValidatedEvent, cfg Config) (GlobalStats, error) {
	if len(events) == 0 {
		return GlobalStats{}, fmt.Errorf("summarize: %w", ErrDegenerateInput)
	}

	regions := make(map[string]struct{})
	var mean float64
	minMag, maxMag := math.Inf(1), math.Inf(-1)
	for i, e := range events {
		regions[e.Region] = struct{}{}
		mean += (e.Magnitude - mean) / float64(i+1)
		minMag = math.Min(minMag, e.Magnitude)
		maxMag = math.Max(maxMag, e.Magnitude)
	}

	if cfg.RoundExtrema {
		minMag, maxMag = round1(minMag), round1(maxMag)
	}

	return GlobalStats{
		TotalValidEvents: len(events),
		RegionsAffected:  len(regions),
		AvgMagnitude:     round1(mean),
		MaxMagnitude:     maxMag,
		MinMagnitude:     minMag,
	}, nil
}
