package domain

import (
	"math"
	"time"
)

// Aggregate groups validated events by region and computes per-region
// statistics. Keys are compared exactly; no case or diacritic folding is
// applied. An empty input yields an empty map.
func Aggregate(events []ValidatedEvent, cfg Config) map[string]RegionStats {
	groups := make(map[string][]ValidatedEvent)
	for _, e := range events {
		groups[e.Region] = append(groups[e.Region], e)
	}

	stats := make(map[string]RegionStats, len(groups))
	for region, members := range groups {
		stats[region] = regionStats(region, members, cfg)
	}
	return stats
}

// regionStats reduces one non-empty group. Means are accumulated
// incrementally so large finite inputs cannot overflow a running sum.
func regionStats(region string, members []ValidatedEvent, cfg Config) RegionStats {
	var meanLat, meanLon, meanMag float64
	minMag, maxMag := math.Inf(1), math.Inf(-1)
	var earliest, latest time.Time

	for i, e := range members {
		n := float64(i + 1)
		meanLat += (e.Latitude - meanLat) / n
		meanLon += (e.Longitude - meanLon) / n
		meanMag += (e.Magnitude - meanMag) / n
		minMag = math.Min(minMag, e.Magnitude)
		maxMag = math.Max(maxMag, e.Magnitude)

		if !e.HasTime() {
			continue
		}
		if earliest.IsZero() || e.Time.Before(earliest) {
			earliest = e.Time
		}
		if latest.IsZero() || e.Time.After(latest) {
			latest = e.Time
		}
	}

	dates := cfg.DefaultDateRange
	if !earliest.IsZero() {
		dates = DateRange{Start: earliest.Format(dateLayout), End: latest.Format(dateLayout)}
	}

	if cfg.RoundExtrema {
		minMag, maxMag = round1(minMag), round1(maxMag)
	}

	return RegionStats{
		Region:       region,
		RecordCount:  len(members),
		CentroidLat:  meanLat,
		CentroidLon:  meanLon,
		AvgMagnitude: round1(meanMag),
		MaxMagnitude: maxMag,
		MinMagnitude: minMag,
		DateRange:    dates,
	}
}

// round1 rounds to one decimal place, halves away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
