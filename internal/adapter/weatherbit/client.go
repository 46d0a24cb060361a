// Package weatherbit fetches monthly climate normals from the Weatherbit API.
package weatherbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/campus-climate-etl/internal/adapter/redact"
	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
)

// Options configures the normals query and retry behavior.
type Options struct {
	BaseURL  string
	APIKey   string
	StartDay string // MM-DD
	EndDay   string // MM-DD
	Units    string // "I" imperial, "M" metric

	// MaxRetries bounds retries of rate-limited, 5xx, and transport failures.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Gate, when set, is waited on before every retry so retries respect the
	// same call spacing as first attempts. The first attempt is paced by the
	// caller.
	Gate Gate
}

// Gate blocks until the next API call is allowed.
type Gate interface {
	Wait(ctx context.Context) error
}

// Client implements domain.ClimateSource.
type Client struct {
	opts       Options
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Weatherbit normals client.
func NewClient(opts Options, httpClient *http.Client, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 2 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "weatherbit",
			MaxRequests: 1,
			Timeout:     time.Minute,
		}),
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger,
	}
}

// statusError is a non-200 response from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("weatherbit API error: status %d: %s", e.code, e.body)
}

func (e *statusError) Unwrap() error { return domain.ErrClimateUnavailable }

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Normals fetches the monthly normals for point. Rate limiting, server errors,
// and transport failures are retried up to MaxRetries times with exponential
// backoff, each retry also waiting on Gate; any other non-200 status fails
// immediately.
func (c *Client) Normals(ctx context.Context, point domain.GeoPoint) (domain.ClimateNormals, error) {
	var payload *normalsResponse

	attempt := 0
	op := func() error {
		if attempt > 0 && c.opts.Gate != nil {
			if err := c.opts.Gate.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempt++

		start := time.Now()
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetch(ctx, point)
		})
		c.metrics.ClimateAPIDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			payload = result.(*normalsResponse)
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(fmt.Errorf("%w: circuit open: %v", domain.ErrClimateUnavailable, err))
		}
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			c.logger.Warn("climate request failed", "lat", point.Lat, "lon", point.Lon, "status", se.code)
			return backoff.Permanent(err)
		}
		c.metrics.ClimateRequests.WithLabelValues("retry").Inc()
		c.logger.Warn("climate request failed, retrying", "lat", point.Lat, "lon", point.Lon, "error", err)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialBackoff
	b.MaxInterval = c.opts.MaxBackoff
	b.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.MaxRetries)), ctx))
	if err != nil {
		c.metrics.ClimateRequests.WithLabelValues("error").Inc()
		return domain.ClimateNormals{}, err
	}

	normals, err := c.toNormals(point, payload)
	if err != nil {
		c.metrics.ClimateRequests.WithLabelValues("error").Inc()
		return domain.ClimateNormals{}, err
	}
	c.metrics.ClimateRequests.WithLabelValues("success").Inc()
	return normals, nil
}

func (c *Client) fetch(ctx context.Context, point domain.GeoPoint) (*normalsResponse, error) {
	params := url.Values{
		"lat":       {strconv.FormatFloat(point.Lat, 'f', -1, 64)},
		"lon":       {strconv.FormatFloat(point.Lon, 'f', -1, 64)},
		"start_day": {c.opts.StartDay},
		"end_day":   {c.opts.EndDay},
		"units":     {c.opts.Units},
		"tp":        {"monthly"},
		"key":       {c.opts.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("normals request: %w", redact.URLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	var out normalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) toNormals(point domain.GeoPoint, payload *normalsResponse) (domain.ClimateNormals, error) {
	if err := c.validate.Struct(payload); err != nil {
		return domain.ClimateNormals{}, fmt.Errorf("%w: invalid normals payload: %v", domain.ErrClimateUnavailable, err)
	}

	months := make([]domain.MonthlyNormal, len(payload.Data))
	for i, rec := range payload.Data {
		months[i] = domain.MonthlyNormal{
			Month:   rec.Month,
			AvgTemp: *rec.Temp,
			Precip:  *rec.Precip,
			Snow:    *rec.Snow,
		}
	}
	return domain.ClimateNormals{Point: point, Months: months}, nil
}

// Weatherbit normals response types.

type normalsResponse struct {
	Data []monthRecord `json:"data" validate:"required,min=1,dive"`
}

type monthRecord struct {
	Month  int      `json:"month" validate:"min=1,max=12"`
	Temp   *float64 `json:"temp" validate:"required"`
	Precip *float64 `json:"precip" validate:"required"`
	Snow   *float64 `json:"snow" validate:"required"`
}
