package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/campus-climate-etl/internal/adapter/redact"
	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode converts a free-text place query to coordinates.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality"},
	}

	point, err := c.doRequest(ctx, u+"?"+params.Encode())
	switch {
	case err == nil:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrNoMatch):
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return point, fmt.Errorf("mapbox %q: %w", query, err)
	default:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	}
	return point, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeoPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("forward geocode request: %w", redact.URLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.GeoPoint{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 || len(mapboxResp.Features[0].Center) != 2 {
		return domain.GeoPoint{}, domain.ErrNoMatch
	}

	f := mapboxResp.Features[0]
	c.logger.Debug("mapbox match", "place_name", f.PlaceName, "relevance", f.Relevance)
	return domain.GeoPoint{Lat: f.Center[1], Lon: f.Center[0]}, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
