package domain

import (
	"math"
	"strconv"
)

// RiskModel selects the signal a region's tier is derived from.
type RiskModel string

const (
	RiskModelFrequency RiskModel = "frequency"
	RiskModelMagnitude RiskModel = "magnitude"
)

// RiskTier is a discrete risk label.
type RiskTier string

// Frequency-model tiers.
const (
	TierVeryHigh RiskTier = "very_high"
	TierHigh     RiskTier = "high"
	TierModerate RiskTier = "moderate"
	TierMedium   RiskTier = "medium"
	TierLow      RiskTier = "low"
)

// Magnitude-model tiers.
const (
	TierSevere   RiskTier = "severe"
	TierElevated RiskTier = "elevated"
	TierNormal   RiskTier = "normal"
)

// tierRule is an inclusive lower bound. Rules are evaluated top-down and the
// first match wins; the last rule of each table has no bound.
type tierRule struct {
	min  float64
	tier RiskTier
}

var frequencyRules = []tierRule{
	{min: 20, tier: TierVeryHigh},
	{min: 15, tier: TierHigh},
	{min: 10, tier: TierModerate},
	{min: 7, tier: TierMedium},
	{min: math.Inf(-1), tier: TierLow},
}

var magnitudeRules = []tierRule{
	{min: 6.3, tier: TierSevere},
	{min: 6.1, tier: TierElevated},
	{min: math.Inf(-1), tier: TierNormal},
}

var modelRules = map[RiskModel][]tierRule{
	RiskModelFrequency: frequencyRules,
	RiskModelMagnitude: magnitudeRules,
}

// modelTiers lists every tier a model can emit, highest first.
var modelTiers = map[RiskModel][]RiskTier{
	RiskModelFrequency: {TierVeryHigh, TierHigh, TierModerate, TierMedium, TierLow},
	RiskModelMagnitude: {TierSevere, TierElevated, TierNormal},
}

// Tiers returns every tier the model can emit, highest first. An unknown
// model has no tiers.
func Tiers(model RiskModel) []RiskTier {
	return append([]RiskTier(nil), modelTiers[model]...)
}

// PopupLine is one labeled row of a marker popup.
type PopupLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Popup is the content shown when a marker is selected.
type Popup struct {
	Title string      `json:"title"`
	Lines []PopupLine `json:"lines"`
}

// Encoding is the visual representation of one region on the map.
type Encoding struct {
	Tier          RiskTier `json:"tier"`
	Color         string   `json:"color"`
	MarkerSize    float64  `json:"marker_size"`
	LabelFontSize float64  `json:"label_font_size"`
	Popup         Popup    `json:"popup"`
}

// Classify derives a region's risk tier and visual encoding. It depends only
// on the stats and the config, so identical input gives identical output.
func Classify(stats RegionStats, cfg Config) Encoding {
	var signal float64
	switch cfg.RiskModel {
	case RiskModelMagnitude:
		signal = stats.MaxMagnitude
	default:
		signal = float64(stats.RecordCount)
	}

	tier := TierFor(cfg.RiskModel, signal)
	size := MarkerSize(stats.RecordCount, cfg.MarkerSize, cfg.ScaleFactor)

	return Encoding{
		Tier:          tier,
		Color:         cfg.TierColors[tier],
		MarkerSize:    size,
		LabelFontSize: math.Max(9, size/3),
		Popup: Popup{
			Title: stats.Region,
			Lines: []PopupLine{
				{Label: "Avg Mag", Value: formatMagnitude(stats.AvgMagnitude)},
				{Label: "Max Mag", Value: formatMagnitude(stats.MaxMagnitude)},
				{Label: "Freq", Value: strconv.Itoa(stats.RecordCount)},
			},
		},
	}
}

// TierFor maps a signal to a tier under the given model. Unknown models fall
// back to the frequency rules.
func TierFor(model RiskModel, signal float64) RiskTier {
	rules, ok := modelRules[model]
	if !ok {
		rules = frequencyRules
	}
	for _, r := range rules {
		if signal >= r.min {
			return r.tier
		}
	}
	return rules[len(rules)-1].tier
}

// MarkerSize scales linearly with the record count and clamps to bounds.
func MarkerSize(recordCount int, bounds SizeBounds, scale float64) float64 {
	size := float64(recordCount) * scale
	return math.Max(bounds.Min, math.Min(bounds.Max, size))
}

func formatMagnitude(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
