// Package nominatim implements domain.Geocoder against an OpenStreetMap
// Nominatim search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
)

// Client resolves place queries through Nominatim. The public service allows
// at most one request per second and requires an identifying User-Agent.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client spacing requests at least interval
// apart. A zero interval disables spacing.
func NewClient(baseURL, userAgent string, interval time.Duration, httpClient *http.Client, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode returns the best match for query, or domain.ErrNoMatch.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.GeoPoint{}, err
	}

	point, err := c.search(ctx, query)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, err
	}
	if point == nil {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeoPoint{}, fmt.Errorf("nominatim %q: %w", query, domain.ErrNoMatch)
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return *point, nil
}

func (c *Client) search(ctx context.Context, query string) (*domain.GeoPoint, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	best := places[0]
	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", best.Lat, err)
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", best.Lon, err)
	}

	c.logger.Debug("nominatim match", "query", query, "display_name", best.DisplayName)
	return &domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// place is one Nominatim search result. Coordinates arrive as strings.
type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}
