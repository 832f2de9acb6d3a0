package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the dynamic type the upstream parser assigned to a field.
type ValueKind uint8

const (
	KindAbsent ValueKind = iota
	KindString
	KindNumber
	KindBool
)

// Value is one loosely typed field of a parsed row. The zero Value is absent.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// String returns a string-kind Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a number-kind Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool returns a bool-kind Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Text returns the value's string form. Only string-kind values qualify.
func (v Value) Text() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// Float returns a finite number for number-kind values and for strings that
// parse as finite floats.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.Kind {
	case KindNumber:
		f = v.Num
	case KindString:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// RawRecord is one parsed row keyed by trimmed header name. Field presence is
// not guaranteed; missing keys read as absent.
type RawRecord map[string]Value

// Get returns the named field, or an absent Value.
func (r RawRecord) Get(field string) Value {
	if r == nil {
		return Value{}
	}
	return r[field]
}

// FieldMap names the row columns the validator reads.
type FieldMap struct {
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
	Magnitude    string `json:"magnitude"`
	Time         string `json:"time"`
	ID           string `json:"id"`
	Place        string `json:"place"`
	Depth        string `json:"depth"`
	Significance string `json:"significance"`
	Status       string `json:"status"`
	Network      string `json:"network"`
	EventType    string `json:"event_type"`
	Tsunami      string `json:"tsunami"`
}

// DefaultFieldMap matches the USGS-style earthquake CSV export.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Latitude:     "latitude",
		Longitude:    "longitude",
		Magnitude:    "mag",
		Time:         "time",
		ID:           "id",
		Place:        "location",
		Depth:        "depth",
		Significance: "sig",
		Status:       "status",
		Network:      "net",
		EventType:    "type",
		Tsunami:      "tsunami",
	}
}

// ValidatedEvent is a row that passed validation. Region is trimmed and
// non-empty; coordinates and magnitude are finite.
type ValidatedEvent struct {
	Region    string    `json:"region"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Magnitude float64   `json:"magnitude"`
	Time      time.Time `json:"time,omitzero"`

	// Passthrough fields, carried but never aggregated.
	ID           string   `json:"id,omitempty"`
	Place        string   `json:"place,omitempty"`
	Depth        *float64 `json:"depth,omitempty"`
	Significance *float64 `json:"significance,omitempty"`
	Status       string   `json:"status,omitempty"`
	Network      string   `json:"network,omitempty"`
	EventType    string   `json:"event_type,omitempty"`
	Tsunami      bool     `json:"tsunami,omitempty"`

	Source RawRecord `json:"-"`
}

// HasTime reports whether the source row carried a usable timestamp.
func (e ValidatedEvent) HasTime() bool { return !e.Time.IsZero() }

// DateRange is the earliest and latest event date of a region.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RegionStats summarizes all validated events sharing a region key.
type RegionStats struct {
	Region       string    `json:"region"`
	RecordCount  int       `json:"record_count"`
	CentroidLat  float64   `json:"centroid_lat"`
	CentroidLon  float64   `json:"centroid_lon"`
	AvgMagnitude float64   `json:"avg_magnitude"`
	MaxMagnitude float64   `json:"max_magnitude"`
	MinMagnitude float64   `json:"min_magnitude"`
	DateRange    DateRange `json:"date_range"`
	RiskTier     RiskTier  `json:"risk_tier,omitempty"`
}

// GlobalStats holds headline totals over the whole validated batch.
type GlobalStats struct {
	TotalValidEvents int     `json:"total_valid_events"`
	RegionsAffected  int     `json:"regions_affected"`
	AvgMagnitude     float64 `json:"avg_magnitude"`
	MaxMagnitude     float64 `json:"max_magnitude"`
	MinMagnitude     float64 `json:"min_magnitude"`
}

// PredictionAnnotation is a statically configured predicted event. It is
// never derived from observed data.
type PredictionAnnotation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Year      int     `json:"year"`
	Magnitude float64 `json:"magnitude"`
	Label     string  `json:"label"`
}

// RegionSummary pairs a region's statistics with its visual encoding.
type RegionSummary struct {
	RegionStats
	Encoding Encoding `json:"encoding"`
}

// Dashboard is the complete engine output handed to a renderer. Renderers
// must treat it as read-only.
type Dashboard struct {
	Regions  map[string]RegionSummary `json:"regions"`
	Global   GlobalStats              `json:"global"`
	Overlays []PredictionAnnotation   `json:"overlays"`
	Markers  []Marker                 `json:"markers"`
}
