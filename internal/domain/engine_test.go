package domain

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleBatch() []RawRecord {
	return []RawRecord{
		quake("A", 10, 10, 6.0),
		quake("A", 12, 12, 6.4),
		quake("B", 0, 0, 5.9),
	}
}

func TestSummarize(t *testing.T) {
	cfg := CountryConfig()
	got, err := Summarize(validated(t, cfg, exampleBatch()...), cfg)
	require.NoError(t, err)

	assert.Equal(t, GlobalStats{
		TotalValidEvents: 3,
		RegionsAffected:  2,
		AvgMagnitude:     6.1,
		MaxMagnitude:     6.4,
		MinMagnitude:     5.9,
	}, got)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil, CountryConfig())
	require.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Summarize([]ValidatedEvent{}, CountryConfig())
	require.ErrorIs(t, err, ErrDegenerateInput)
}

func TestBuild_Example(t *testing.T) {
	dash, err := Build(exampleBatch(), CountryConfig())
	require.NoError(t, err)

	require.Len(t, dash.Regions, 2)
	a := dash.Regions["A"]
	assert.Equal(t, 2, a.RecordCount)
	assert.Equal(t, 6.2, a.AvgMagnitude)
	assert.Equal(t, TierSevere, a.RiskTier)
	assert.Equal(t, a.RiskTier, a.Encoding.Tier)

	b := dash.Regions["B"]
	assert.Equal(t, TierNormal, b.RiskTier)
	assert.Equal(t, "#10b981", b.Encoding.Color)

	assert.Equal(t, 3, dash.Global.TotalValidEvents)
	assert.Equal(t, 2, dash.Global.RegionsAffected)
	assert.Equal(t, DefaultAnnotations(), dash.Overlays)
	assert.Len(t, dash.Markers, 3)
}

func TestBuild_CountsAddUp(t *testing.T) {
	records := []RawRecord{
		quake("Japan", 35, 139, 6.1),
		quake("Japan", 36, 140, 6.6),
		quake("Chile", -33, -70, 6.2),
		quake("", 0, 0, 6.0),
		quake("Peru", -12, -77, 5.0),
		quake("Chile", -30, -71, 7.1),
	}

	for _, cfg := range []Config{CountryConfig(), DistrictConfig()} {
		cfg.RegionField = "country"
		dash, err := Build(records, cfg)
		require.NoError(t, err)

		total := 0
		for _, r := range dash.Regions {
			total += r.RecordCount
		}
		assert.Equal(t, dash.Global.TotalValidEvents, total)
		assert.Equal(t, len(dash.Regions), dash.Global.RegionsAffected)
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Run("nil batch", func(t *testing.T) {
		_, err := Build(nil, CountryConfig())
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("no valid rows", func(t *testing.T) {
		bad := quake("X", 0, 0, 0)
		bad["mag"] = String("unknown")
		_, err := Build([]RawRecord{bad}, CountryConfig())
		require.ErrorIs(t, err, ErrDegenerateInput)
	})

	t.Run("everything below the floor", func(t *testing.T) {
		_, err := Build([]RawRecord{quake("X", 0, 0, 2.5)}, DistrictConfig())
		require.ErrorIs(t, err, ErrDegenerateInput)
	})

	t.Run("bad config", func(t *testing.T) {
		cfg := CountryConfig()
		cfg.RiskModel = ""
		_, err := Build(exampleBatch(), cfg)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestDashboard_Ranked(t *testing.T) {
	dash, err := Build([]RawRecord{
		quake("Chile", 0, 0, 6),
		quake("Peru", 0, 0, 6),
		quake("Japan", 0, 0, 6),
		quake("Japan", 0, 0, 6),
	}, CountryConfig())
	require.NoError(t, err)

	ranked := dash.Ranked()
	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Region)
	}
	assert.Equal(t, []string{"Japan", "Chile", "Peru"}, names)
}

func TestMerge(t *testing.T) {
	cfg := CountryConfig()
	dash, err := Build(exampleBatch(), cfg)
	require.NoError(t, err)

	markers := Merge(dash.Regions, cfg.Annotations)
	require.Len(t, markers, 3)

	assert.Equal(t, MarkerObserved, markers[0].Kind)
	assert.Equal(t, "A", markers[0].Popup.Title)
	assert.Equal(t, "2", markers[0].Text)
	assert.Equal(t, ShapeCircle, markers[0].Shape)
	assert.Equal(t, "B", markers[1].Popup.Title)

	p := markers[2]
	assert.Equal(t, MarkerPredicted, p.Kind)
	assert.Equal(t, ShapeLabel, p.Shape)
	assert.Equal(t, PredictedColor, p.Color)
	assert.Equal(t, "Predicted: 6.23 Mag", p.Text)
	assert.Equal(t, 64.9631, p.Latitude)
	assert.Equal(t, "Iceland", p.Popup.Title)
	assert.Equal(t, []PopupLine{
		{Label: "Predicted Magnitude", Value: "6.23"},
		{Label: "Year", Value: "2026"},
	}, p.Popup.Lines)
}

func TestMerge_AnnotationsPassThrough(t *testing.T) {
	annotations := []PredictionAnnotation{
		{Latitude: 91, Longitude: 500, Year: 1900, Magnitude: -1, Label: ""},
		{Latitude: 0, Longitude: 0, Year: 2030, Magnitude: 9.5, Label: "Null Island"},
	}

	markers := Merge(map[string]RegionSummary{}, annotations)
	require.Len(t, markers, 2)
	assert.Equal(t, 91.0, markers[0].Latitude, "annotations are not validated")
	assert.Equal(t, "Null Island", markers[1].Popup.Title)

	assert.Empty(t, Merge(nil, nil))
}

// --- region backfill ---

type stubResolver struct {
	names map[[2]float64]string
	err   error
	calls int
}

func (s *stubResolver) ResolveRegion(_ context.Context, lat, lon float64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.names[[2]float64{lat, lon}], nil
}

func TestBackfillRegions(t *testing.T) {
	cfg := CountryConfig()
	missing := quake("", 64.1, -21.9, 5.2)
	delete(missing, "country")
	unknown := quake("", 10, 10, 5.0)
	noCoords := RawRecord{"mag": Number(5)}

	records := []RawRecord{quake("Chile", -33, -70, 6.2), missing, unknown, noCoords}
	resolver := &stubResolver{names: map[[2]float64]string{{64.1, -21.9}: "Iceland"}}

	out, result := BackfillRegions(context.Background(), records, cfg, resolver, slog.Default())
	require.Len(t, out, 4)
	assert.Equal(t, BackfillResult{Attempted: 2, Resolved: 1, Empty: 1}, result)
	assert.Equal(t, String("Iceland"), out[1]["country"])
	_, touched := missing["country"]
	assert.False(t, touched, "input rows are not mutated")
	assert.Equal(t, 2, resolver.calls)

	dash, err := Build(out, cfg)
	require.NoError(t, err)
	assert.Contains(t, dash.Regions, "Iceland")
}

func TestBackfillRegions_Failures(t *testing.T) {
	cfg := CountryConfig()
	missing := quake("", 1, 1, 5)

	out, result := BackfillRegions(context.Background(), []RawRecord{missing}, cfg, &stubResolver{err: errors.New("boom")}, slog.Default())
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, missing, out[0])

	out, result = BackfillRegions(context.Background(), []RawRecord{missing}, cfg, nil, slog.Default())
	assert.Equal(t, BackfillResult{}, result)
	assert.Equal(t, missing, out[0])
}
