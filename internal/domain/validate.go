package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the locale-independent format used for region date ranges.
const dateLayout = "2006-01-02"

// Validate filters raw rows down to usable events, preserving input order.
// A row passes when its region is a non-empty string after trimming, its
// coordinates and magnitude are finite numbers, the magnitude meets
// cfg.MinMagnitude when it is positive, and the category field matches cfg.CountryFilter when one
// is set. Malformed rows are dropped without error. A nil batch means no
// batch was materialized at all and is reported as ErrInvalidInput.
func Validate(records []RawRecord, cfg Config) ([]ValidatedEvent, error) {
	if records == nil {
		return nil, fmt.Errorf("validate: %w: nil batch", ErrInvalidInput)
	}

	out := make([]ValidatedEvent, 0, len(records))
	for _, rec := range records {
		event, ok := validateRecord(rec, cfg)
		if !ok {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func validateRecord(rec RawRecord, cfg Config) (ValidatedEvent, bool) {
	if rec == nil {
		return ValidatedEvent{}, false
	}

	region, ok := rec.Get(cfg.RegionField).Text()
	region = strings.TrimSpace(region)
	if !ok || region == "" {
		return ValidatedEvent{}, false
	}

	lat, ok := rec.Get(cfg.Fields.Latitude).Float()
	if !ok {
		return ValidatedEvent{}, false
	}
	lon, ok := rec.Get(cfg.Fields.Longitude).Float()
	if !ok {
		return ValidatedEvent{}, false
	}
	mag, ok := rec.Get(cfg.Fields.Magnitude).Float()
	if !ok {
		return ValidatedEvent{}, false
	}
	// Micro-quakes carry negative magnitudes; a zero floor keeps them.
	if cfg.MinMagnitude > 0 && mag < cfg.MinMagnitude {
		return ValidatedEvent{}, false
	}

	if cfg.CountryFilter != "" {
		category, _ := rec.Get(cfg.CategoryField).Text()
		if strings.TrimSpace(category) != cfg.CountryFilter {
			return ValidatedEvent{}, false
		}
	}

	return ValidatedEvent{
		Region:       region,
		Latitude:     lat,
		Longitude:    lon,
		Magnitude:    mag,
		Time:         parseTimestamp(rec.Get(cfg.Fields.Time)),
		ID:           textOrEmpty(rec.Get(cfg.Fields.ID)),
		Place:        textOrEmpty(rec.Get(cfg.Fields.Place)),
		Depth:        floatOrNil(rec.Get(cfg.Fields.Depth)),
		Significance: floatOrNil(rec.Get(cfg.Fields.Significance)),
		Status:       textOrEmpty(rec.Get(cfg.Fields.Status)),
		Network:      textOrEmpty(rec.Get(cfg.Fields.Network)),
		EventType:    textOrEmpty(rec.Get(cfg.Fields.EventType)),
		Tsunami:      truthy(rec.Get(cfg.Fields.Tsunami)),
		Source:       rec,
	}, true
}

// unixEpoch is the missing-time sentinel of epoch-based feeds. It is treated
// as absent in every accepted form.
var unixEpoch = time.Unix(0, 0).UTC()

// parseTimestamp accepts epoch milliseconds (as a number or an integer
// string), RFC 3339, or a bare YYYY-MM-DD date. Instants before 1970 are kept
// in every form. It returns the zero time when the value is absent,
// unparseable or exactly the Unix epoch.
func parseTimestamp(v Value) time.Time {
	var t time.Time
	switch v.Kind {
	case KindNumber:
		t = fromEpochMillis(v.Num)
	case KindString:
		s := strings.TrimSpace(v.Str)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t = fromEpochMillis(float64(ms))
		} else if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			t = parsed.UTC()
		} else if parsed, err := time.Parse(dateLayout, s); err == nil {
			t = parsed
		}
	}
	if t.Equal(unixEpoch) {
		return time.Time{}
	}
	return t
}

func fromEpochMillis(ms float64) time.Time {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

// maxEpochMillis is the last millisecond of year 9999. Larger magnitudes are
// treated as unparseable.
const maxEpochMillis = 253402300799999

func textOrEmpty(v Value) string {
	s, _ := v.Text()
	return strings.TrimSpace(s)
}

func floatOrNil(v Value) *float64 {
	f, ok := v.Float()
	if !ok {
		return nil
	}
	return &f
}

// truthy treats bool true and any non-zero number as set. The USGS feed
// encodes the tsunami flag as 0/1.
func truthy(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.Str))
		return err == nil && b
	default:
		return false
	}
}
