package nominatim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "CIS9650"

func newTestClient(url string, interval time.Duration) *Client {
	return NewClient(url, testUserAgent, interval, &http.Client{Timeout: 5 * time.Second},
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Geocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Cambridge, Massachusetts,USA", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"42.3656347","lon":"-71.1040018","display_name":"Cambridge, Middlesex County, Massachusetts, United States","importance":0.72}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 0)
	point, err := c.Geocode(context.Background(), "Cambridge, Massachusetts,USA")
	require.NoError(t, err)
	assert.Equal(t, domain.GeoPoint{Lat: 42.3656347, Lon: -71.1040018}, point)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("success")), 0)
}

func TestClient_Geocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 0)
	_, err := c.Geocode(context.Background(), "Atlantis,USA")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoMatch))
	assert.Contains(t, err.Error(), "Atlantis")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("empty")), 0)
}

func TestClient_Geocode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down", "429"},
		{"bad json", http.StatusOK, `{"lat":`, "decode response"},
		{"bad latitude", http.StatusOK, `[{"lat":"north","lon":"1"}]`, "parse latitude"},
		{"bad longitude", http.StatusOK, `[{"lat":"1","lon":"west"}]`, "parse longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(srv.URL, 0)
			_, err := c.Geocode(context.Background(), "Princeton, New Jersey,USA")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.False(t, errors.Is(err, domain.ErrNoMatch))
		})
	}
}

func TestClient_Geocode_RespectsContextWhileLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Hour)
	_, err := c.Geocode(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Geocode(ctx, "second")
	require.Error(t, err)
}
