package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidInput marks a batch that is structurally unusable, as opposed
	// to individual malformed rows, which are dropped silently.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateInput marks a batch with zero valid events, for which
	// mean, max and min are undefined.
	ErrDegenerateInput = errors.New("degenerate input: no valid events")

	// ErrInvalidConfig marks an engine configuration that cannot produce a
	// total, deterministic encoding.
	ErrInvalidConfig = errors.New("invalid engine config")
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SizeBounds clamps marker sizes to a legible range.
type SizeBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Config parameterizes one engine run. The country and district dashboards
// are two presets of the same Config.
type Config struct {
	RegionField   string   `json:"region_field"`
	CategoryField string   `json:"category_field"`
	CountryFilter string   `json:"country_filter,omitempty"` // empty disables the filter
	MinMagnitude  float64  `json:"min_magnitude"`            // 0 disables the filter
	Fields        FieldMap `json:"fields"`

	RiskModel        RiskModel           `json:"risk_model"`
	MarkerSize       SizeBounds          `json:"marker_size"`
	ScaleFactor      float64             `json:"scale_factor"`
	TierColors       map[RiskTier]string `json:"tier_colors"`
	RoundExtrema     bool                `json:"round_extrema"`
	DefaultDateRange DateRange           `json:"default_date_range"`

	Annotations []PredictionAnnotation `json:"annotations"`
}

// DefaultTierColors covers the tiers of both risk models.
func DefaultTierColors() map[RiskTier]string {
	return map[RiskTier]string{
		TierSevere:   "#ef4444",
		TierElevated: "#f59e0b",
		TierNormal:   "#10b981",

		TierVeryHigh: "#b91c1c",
		TierHigh:     "#ef4444",
		TierModerate: "#f97316",
		TierMedium:   "#f59e0b",
		TierLow:      "#10b981",
	}
}

// DefaultAnnotations is the single predicted event shown on the dashboard.
func DefaultAnnotations() []PredictionAnnotation {
	return []PredictionAnnotation{
		{Latitude: 64.9631, Longitude: -19.0208, Year: 2026, Magnitude: 6.23, Label: "Iceland"},
	}
}

// CountryConfig groups by country and colors markers by maximum magnitude.
func CountryConfig() Config {
	return Config{
		RegionField:      "country",
		CategoryField:    "country",
		Fields:           DefaultFieldMap(),
		RiskModel:        RiskModelMagnitude,
		MarkerSize:       SizeBounds{Min: 18, Max: 40},
		ScaleFactor:      4,
		TierColors:       DefaultTierColors(),
		DefaultDateRange: DateRange{Start: "N/A", End: "N/A"},
		Annotations:      DefaultAnnotations(),
	}
}

// DistrictConfig groups by district, drops minor events and tiers regions by
// event frequency. Extrema are rounded to one decimal.
func DistrictConfig() Config {
	cfg := CountryConfig()
	cfg.RegionField = "district"
	cfg.MinMagnitude = 3.0
	cfg.RiskModel = RiskModelFrequency
	cfg.RoundExtrema = true
	return cfg
}

// Validate checks that the config yields a total tier-to-color mapping and a
// usable size scale.
func (c Config) Validate() error {
	if c.RegionField == "" {
		return fmt.Errorf("%w: region field is required", ErrInvalidConfig)
	}
	if c.CountryFilter != "" && c.CategoryField == "" {
		return fmt.Errorf("%w: country filter set without a category field", ErrInvalidConfig)
	}
	if c.Fields.Latitude == "" || c.Fields.Longitude == "" || c.Fields.Magnitude == "" {
		return fmt.Errorf("%w: latitude, longitude and magnitude fields are required", ErrInvalidConfig)
	}
	if c.MinMagnitude < 0 {
		return fmt.Errorf("%w: min magnitude %g is negative", ErrInvalidConfig, c.MinMagnitude)
	}
	if c.MarkerSize.Min <= 0 || c.MarkerSize.Min > c.MarkerSize.Max {
		return fmt.Errorf("%w: marker size bounds [%g, %g]", ErrInvalidConfig, c.MarkerSize.Min, c.MarkerSize.Max)
	}
	if c.ScaleFactor < 0 {
		return fmt.Errorf("%w: scale factor %g is negative", ErrInvalidConfig, c.ScaleFactor)
	}

	tiers := Tiers(c.RiskModel)
	if len(tiers) == 0 {
		return fmt.Errorf("%w: unknown risk model %q", ErrInvalidConfig, c.RiskModel)
	}
	for _, tier := range tiers {
		color, ok := c.TierColors[tier]
		if !ok {
			return fmt.Errorf("%w: no color for tier %q", ErrInvalidConfig, tier)
		}
		if !hexColorRe.MatchString(color) {
			return fmt.Errorf("%w: tier %q color %q is not #rrggbb", ErrInvalidConfig, tier, color)
		}
	}
	return nil
}
