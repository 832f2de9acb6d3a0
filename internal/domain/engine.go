package domain

import (
	"cmp"
	"slices"
)

// Build runs the full pass over one batch: validate, summarize, aggregate,
// classify each region, and merge the static annotations. It holds no state
// between calls.
func Build(records []RawRecord, cfg Config) (Dashboard, error) {
	if err := cfg.Validate(); err != nil {
		return Dashboard{}, err
	}

	valid, err := Validate(records, cfg)
	if err != nil {
		return Dashboard{}, err
	}

	global, err := Summarize(valid, cfg)
	if err != nil {
		return Dashboard{}, err
	}

	stats := Aggregate(valid, cfg)
	regions := make(map[string]RegionSummary, len(stats))
	for name, s := range stats {
		enc := Classify(s, cfg)
		s.RiskTier = enc.Tier
		regions[name] = RegionSummary{RegionStats: s, Encoding: enc}
	}

	overlays := slices.Clone(cfg.Annotations)
	if overlays == nil {
		overlays = []PredictionAnnotation{}
	}

	return Dashboard{
		Regions:  regions,
		Global:   global,
		Overlays: overlays,
		Markers:  Merge(regions, overlays),
	}, nil
}

// Ranked returns the regions ordered by record count, highest first, with
// ties broken by name.
func (d Dashboard) Ranked() []RegionSummary {
	out := make([]RegionSummary, 0, len(d.Regions))
	for _, r := range d.Regions {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b RegionSummary) int {
		if c := cmp.Compare(b.RecordCount, a.RecordCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return out
}
