package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-compass/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Engine presets selectable with ENGINE_VARIANT.
const (
	VariantCountry  = "country"
	VariantDistrict = "district"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Batch source.
	DataSource      string
	SourceTimeout   time.Duration
	RefreshInterval time.Duration
	FallbackEnabled bool

	Variant string
	Engine  domain.Config

	// Mapbox region backfill.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// PlaceType is the Mapbox feature type matching the configured grouping key.
func (c *Config) PlaceType() string {
	if c.Variant == VariantDistrict {
		return VariantDistrict
	}
	return VariantCountry
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parsePositiveDuration("SOURCE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	fallbackEnabled, err := parseBool("FALLBACK_ENABLED", true)
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled, err := parseBool("MAPBOX_ENABLED", mapboxToken != "")
	if err != nil {
		return nil, err
	}

	variant := sharedcfg.EnvOrDefault("ENGINE_VARIANT", VariantCountry)
	engine, err := loadEngine(variant)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataSource:      sharedcfg.EnvOrDefault("DATA_SOURCE", "data/earthquakes.csv"),
		SourceTimeout:   sourceTimeout,
		RefreshInterval: refreshInterval,
		FallbackEnabled: fallbackEnabled,

		Variant: variant,
		Engine:  engine,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// loadEngine starts from the named preset and applies per-option overrides.
func loadEngine(variant string) (domain.Config, error) {
	var eng domain.Config
	switch variant {
	case VariantCountry:
		eng = domain.CountryConfig()
	case VariantDistrict:
		eng = domain.DistrictConfig()
	default:
		return domain.Config{}, fmt.Errorf("invalid ENGINE_VARIANT %q: want %s or %s", variant, VariantCountry, VariantDistrict)
	}

	eng.RegionField = sharedcfg.EnvOrDefault("REGION_FIELD", eng.RegionField)
	eng.CategoryField = sharedcfg.EnvOrDefault("CATEGORY_FIELD", eng.CategoryField)
	eng.CountryFilter = strings.TrimSpace(os.Getenv("COUNTRY_FILTER"))
	if v := os.Getenv("RISK_MODEL"); v != "" {
		eng.RiskModel = domain.RiskModel(v)
	}

	var err error
	if eng.MinMagnitude, err = parseFloat("MIN_MAGNITUDE", eng.MinMagnitude); err != nil {
		return domain.Config{}, err
	}
	if eng.MarkerSize.Min, err = parseFloat("MARKER_SIZE_MIN", eng.MarkerSize.Min); err != nil {
		return domain.Config{}, err
	}
	if eng.MarkerSize.Max, err = parseFloat("MARKER_SIZE_MAX", eng.MarkerSize.Max); err != nil {
		return domain.Config{}, err
	}
	if eng.ScaleFactor, err = parseFloat("MARKER_SCALE_FACTOR", eng.ScaleFactor); err != nil {
		return domain.Config{}, err
	}
	if eng.RoundExtrema, err = parseBool("ROUND_EXTREMA", eng.RoundExtrema); err != nil {
		return domain.Config{}, err
	}
	if v := os.Getenv("TIER_COLORS"); v != "" {
		if err := parseTierColors(v, eng.TierColors); err != nil {
			return domain.Config{}, err
		}
	}

	eng.DefaultDateRange.Start = sharedcfg.EnvOrDefault("DEFAULT_DATE_START", eng.DefaultDateRange.Start)
	eng.DefaultDateRange.End = sharedcfg.EnvOrDefault("DEFAULT_DATE_END", eng.DefaultDateRange.End)

	if path := os.Getenv("ANNOTATIONS_PATH"); path != "" {
		annotations, err := loadAnnotations(path)
		if err != nil {
			return domain.Config{}, err
		}
		eng.Annotations = annotations
	}

	if err := eng.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("engine config (ENGINE_VARIANT=%s): %w", variant, err)
	}
	return eng, nil
}

// parseTierColors applies "tier=#rrggbb,tier=#rrggbb" overrides onto colors.
func parseTierColors(s string, colors map[domain.RiskTier]string) error {
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tier, color, ok := strings.Cut(pair, "=")
		if !ok || tier == "" || color == "" {
			return fmt.Errorf("invalid TIER_COLORS entry %q: want tier=#rrggbb", pair)
		}
		colors[domain.RiskTier(strings.TrimSpace(tier))] = strings.TrimSpace(color)
	}
	return nil
}

func loadAnnotations(path string) ([]domain.PredictionAnnotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ANNOTATIONS_PATH: %w", err)
	}
	var annotations []domain.PredictionAnnotation
	if err := json.Unmarshal(data, &annotations); err != nil {
		return nil, fmt.Errorf("parse ANNOTATIONS_PATH %s: %w", path, err)
	}
	return annotations, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
