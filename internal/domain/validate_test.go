package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quake(region string, lat, lon, mag float64) RawRecord {
	return RawRecord{
		"country":   String(region),
		"latitude":  Number(lat),
		"longitude": Number(lon),
		"mag":       Number(mag),
	}
}

func TestValue_Float(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
		ok   bool
	}{
		{"number", Number(6.1), 6.1, true},
		{"numeric string", String(" 5.9 "), 5.9, true},
		{"word", String("unknown"), 0, false},
		{"empty string", String(""), 0, false},
		{"NaN number", Number(math.NaN()), 0, false},
		{"infinite number", Number(math.Inf(1)), 0, false},
		{"NaN string", String("NaN"), 0, false},
		{"bool", Bool(true), 0, false},
		{"absent", Value{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.Float()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_DropsMalformedRows(t *testing.T) {
	cfg := CountryConfig()

	missingRegion := quake("", 1, 1, 6)
	delete(missingRegion, "country")

	unknownMag := quake("Chile", 1, 1, 0)
	unknownMag["mag"] = String("unknown")

	numericRegion := quake("", 1, 1, 6)
	numericRegion["country"] = Number(42)

	records := []RawRecord{
		quake("Japan", 35.6, 139.7, 6.1),
		missingRegion,
		quake("   ", 1, 1, 6),
		unknownMag,
		numericRegion,
		{"country": String("Peru"), "latitude": Number(-12), "mag": Number(6)},
		nil,
		quake("  Peru ", -12, -77, 6.0),
	}

	got, err := Validate(records, cfg)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Japan", got[0].Region)
	assert.Equal(t, "Peru", got[1].Region, "region is trimmed")
}

func TestValidate_NilBatch(t *testing.T) {
	_, err := Validate(nil, CountryConfig())
	require.ErrorIs(t, err, ErrInvalidInput)

	got, err := Validate([]RawRecord{}, CountryConfig())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestValidate_MinMagnitude(t *testing.T) {
	cfg := CountryConfig()
	cfg.MinMagnitude = 6.0

	got, err := Validate([]RawRecord{
		quake("A", 0, 0, 5.99),
		quake("B", 0, 0, 6.0),
		quake("C", 0, 0, 6.5),
	}, cfg)
	require.NoError(t, err)

	regions := make([]string, 0, len(got))
	for _, e := range got {
		regions = append(regions, e.Region)
	}
	assert.Equal(t, []string{"B", "C"}, regions, "threshold is inclusive")
}

func TestValidate_ZeroFloorKeepsNegativeMagnitudes(t *testing.T) {
	records := []RawRecord{
		quake("Alaska", 61, -150, -0.4),
		quake("Alaska", 61, -150, 1.2),
		quake("Alaska", 61, -150, 3.4),
	}

	cfg := CountryConfig()
	require.Zero(t, cfg.MinMagnitude)
	got, err := Validate(records, cfg)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, -0.4, got[0].Magnitude)

	cfg.MinMagnitude = 3.0
	got, err = Validate(records, cfg)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.4, got[0].Magnitude)
}

func TestValidate_CountryFilter(t *testing.T) {
	cfg := DistrictConfig()
	cfg.MinMagnitude = 0
	cfg.CountryFilter = "India"

	row := func(district, country string) RawRecord {
		return RawRecord{
			"district":  String(district),
			"country":   String(country),
			"latitude":  Number(28.6),
			"longitude": Number(77.2),
			"mag":       Number(4.2),
		}
	}

	got, err := Validate([]RawRecord{
		row("Delhi", "India"),
		row("Kathmandu", "Nepal"),
		row("Kutch", " India "),
		row("Assam", "india"),
	}, cfg)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Delhi", got[0].Region)
	assert.Equal(t, "Kutch", got[1].Region)
}

func TestValidate_PreservesOrderAndPassthrough(t *testing.T) {
	rec := RawRecord{
		"id":        String("us70006vkq"),
		"time":      Number(1578377119759),
		"latitude":  Number(2.3481),
		"longitude": Number(96.3575),
		"depth":     Number(17),
		"mag":       Number(6.3),
		"location":  String("14 km S of Sinabang"),
		"country":   String("Indonesia"),
		"type":      String("earthquake"),
		"status":    String("reviewed"),
		"tsunami":   Number(1),
		"sig":       Number(619),
		"net":       String("us"),
	}

	got, err := Validate([]RawRecord{rec}, CountryConfig())
	require.NoError(t, err)
	require.Len(t, got, 1)

	e := got[0]
	assert.Equal(t, "us70006vkq", e.ID)
	assert.Equal(t, "14 km S of Sinabang", e.Place)
	require.NotNil(t, e.Depth)
	assert.Equal(t, 17.0, *e.Depth)
	require.NotNil(t, e.Significance)
	assert.Equal(t, 619.0, *e.Significance)
	assert.Equal(t, "reviewed", e.Status)
	assert.Equal(t, "us", e.Network)
	assert.Equal(t, "earthquake", e.EventType)
	assert.True(t, e.Tsunami)
	assert.Equal(t, time.UnixMilli(1578377119759).UTC(), e.Time)
}

func TestValidate_Idempotent(t *testing.T) {
	records := []RawRecord{
		quake(" A ", 10, 10, 6.0),
		quake("", 0, 0, 6.0),
		quake("A", 12, 12, 6.4),
		quake("B", 0, 0, 5.9),
	}
	cfg := CountryConfig()

	first, err := Validate(records, cfg)
	require.NoError(t, err)

	again := make([]RawRecord, len(first))
	for i, e := range first {
		again[i] = e.Source
	}
	second, err := Validate(again, cfg)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("revalidation changed output (-first +second):\n%s", diff)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2020, 1, 7, 6, 5, 19, 759000000, time.UTC)

	tests := []struct {
		name string
		v    Value
		want time.Time
	}{
		{"epoch millis number", Number(1578377119759), want},
		{"epoch millis string", String("1578377119759"), want},
		{"RFC 3339", String("2020-01-07T06:05:19.759Z"), want},
		{"bare date", String("2020-01-07"), time.Date(2020, 1, 7, 0, 0, 0, 0, time.UTC)},
		{"zero", Number(0), time.Time{}},
		{"zero string", String("0"), time.Time{}},
		{"epoch as RFC 3339", String("1970-01-01T00:00:00Z"), time.Time{}},
		{"pre-1970 millis", Number(-14182940000), time.Date(1969, 7, 20, 20, 17, 40, 0, time.UTC)},
		{"pre-1970 millis string", String("-14182940000"), time.Date(1969, 7, 20, 20, 17, 40, 0, time.UTC)},
		{"pre-1970 RFC 3339", String("1969-07-20T20:17:40Z"), time.Date(1969, 7, 20, 20, 17, 40, 0, time.UTC)},
		{"pre-1970 date", String("1964-03-28"), time.Date(1964, 3, 28, 0, 0, 0, 0, time.UTC)},
		{"out of range millis", Number(1e300), time.Time{}},
		{"blank", String("  "), time.Time{}},
		{"garbage", String("yesterday"), time.Time{}},
		{"absent", Value{}, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTimestamp(tt.v))
		})
	}
}
