package domain

import (
	"context"
	"log/slog"
	"maps"
	"strings"
)

// BackfillResult counts the outcome of a region backfill pass.
type BackfillResult struct {
	Attempted int
	Resolved  int
	Empty     int
	Failed    int
}

// BackfillRegions fills in the region field of rows that lack one but carry
// finite coordinates. Rows are never mutated; a resolved row is replaced by a
// copy. When resolver is nil or a lookup fails the row is left as is, and the
// validator drops it later.
func BackfillRegions(ctx context.Context, records []RawRecord, cfg Config, resolver RegionResolver, logger *slog.Logger) ([]RawRecord, BackfillResult) {
	var result BackfillResult
	if resolver == nil || records == nil {
		return records, result
	}

	out := make([]RawRecord, len(records))
	for i, rec := range records {
		out[i] = rec
		if !needsRegion(rec, cfg.RegionField) {
			continue
		}
		lat, okLat := rec.Get(cfg.Fields.Latitude).Float()
		lon, okLon := rec.Get(cfg.Fields.Longitude).Float()
		if !okLat || !okLon {
			continue
		}
		if ctx.Err() != nil {
			return out, result
		}

		result.Attempted++
		name, err := resolver.ResolveRegion(ctx, lat, lon)
		if err != nil {
			logger.Warn("region backfill failed",
				"lat", lat,
				"lon", lon,
				"error", err,
			)
			result.Failed++
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			result.Empty++
			continue
		}

		filled := maps.Clone(rec)
		filled[cfg.RegionField] = String(name)
		out[i] = filled
		result.Resolved++
	}
	return out, result
}

func needsRegion(rec RawRecord, field string) bool {
	if rec == nil {
		return false
	}
	s, _ := rec.Get(field).Text()
	return strings.TrimSpace(s) == ""
}
