// Package google implements domain.Geocoder with the Google Geocoding API
// through github.com/kelvins/geocoder.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/couchcryptid/campus-climate-etl/internal/adapter/redact"
	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
)

// Client resolves place queries with Google geocoding.
type Client struct {
	lookup  func(geocoder.Address) (geocoder.Location, error)
	metrics *observability.Metrics
}

// NewClient configures the geocoder package with apiKey. The key is held
// package-wide by the library, so only one Client should exist per process.
func NewClient(apiKey string, metrics *observability.Metrics) *Client {
	geocoder.ApiKey = apiKey
	return &Client{
		lookup:  geocode,
		metrics: metrics,
	}
}

// Geocode resolves "City, State,Country" style queries. The library call is
// not cancellable, so ctx is only checked before the request.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPoint{}, err
	}

	loc, err := c.lookup(addressFromQuery(query))
	if errors.Is(err, domain.ErrNoMatch) {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeoPoint{}, fmt.Errorf("google geocode %q: %w", query, err)
	}
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeoPoint{}, fmt.Errorf("google geocode %q: %w", query, redact.URLError(err))
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.GeoPoint{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// zeroResults is the message geocoder returns for a ZERO_RESULTS status.
const zeroResults = "No results found."

// geocode calls geocoder.Geocoding and maps an empty result to
// domain.ErrNoMatch. The library reports ZERO_RESULTS only through its error
// text, and indexes the first result without a length check when the status
// is OK, so an empty OK response panics inside it.
func geocode(address geocoder.Address) (loc geocoder.Location, err error) {
	defer func() {
		if r := recover(); r != nil {
			loc, err = geocoder.Location{}, domain.ErrNoMatch
		}
	}()

	loc, err = geocoder.Geocoding(address)
	if err != nil && err.Error() == zeroResults {
		return geocoder.Location{}, domain.ErrNoMatch
	}
	return loc, err
}

// addressFromQuery splits a comma-separated query into city, state, and
// country: the first part is the city, the last the country, and anything in
// between the state.
func addressFromQuery(query string) geocoder.Address {
	var parts []string
	for _, p := range strings.Split(query, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch len(parts) {
	case 0:
		return geocoder.Address{}
	case 1:
		return geocoder.Address{City: parts[0]}
	case 2:
		return geocoder.Address{City: parts[0], Country: parts[1]}
	default:
		return geocoder.Address{
			City:    parts[0],
			State:   strings.Join(parts[1:len(parts)-1], ", "),
			Country: parts[len(parts)-1],
		}
	}
}
