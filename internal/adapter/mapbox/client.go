package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/quake-compass/internal/domain"
	"github.com/couchcryptid/quake-compass/internal/observability"
)

// Client resolves coordinates to region names with the Mapbox reverse
// geocoding API. It implements domain.RegionResolver.
type Client struct {
	token      string
	placeType  string // Mapbox feature type, e.g. "country" or "district"
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox client that resolves features of placeType.
func NewClient(token, placeType string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:     token,
		placeType: placeType,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// ResolveRegion returns the name of the placeType feature containing the
// coordinate, or "" when Mapbox has none (open ocean, disputed areas).
func (c *Client) ResolveRegion(ctx context.Context, lat, lon float64) (string, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, coord)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {c.placeType},
	}

	start := time.Now()
	name, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if name == "" {
		c.logger.Debug("no region for coordinate", "lat", lat, "lon", lon, "type", c.placeType)
	}
	return name, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(mapboxResp.Features) == 0 {
		return "", nil
	}
	return mapboxResp.Features[0].Text, nil
}

var _ domain.RegionResolver = (*Client)(nil)

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	PlaceType []string `json:"place_type"`
	PlaceName string   `json:"place_name"`
	Text      string   `json:"text"` // short name, e.g. "Iceland"
}
