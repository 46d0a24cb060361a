package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/campus-climate-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/geocache"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/google"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/campus-climate-etl/internal/adapter/kafka"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/nominatim"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/ranking"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/campus-climate-etl/internal/adapter/weatherbit"
	"github.com/couchcryptid/campus-climate-etl/internal/config"
	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
	"github.com/couchcryptid/campus-climate-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg, os.Stderr)
	metrics := observability.NewMetrics()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	clock := clockwork.NewRealClock()
	// One pacer spaces first attempts (in the pipeline) and retries (in the
	// client) alike.
	pacer := pipeline.NewPacer(clock, cfg.ClimateCallInterval)

	geocoder := newGeocoder(cfg, httpClient, metrics, logger)
	climate := weatherbit.NewClient(weatherbit.Options{
		BaseURL:    cfg.WeatherbitURL,
		APIKey:     cfg.WeatherbitKey,
		StartDay:   cfg.NormalsStartDay,
		EndDay:     cfg.NormalsEndDay,
		Units:      cfg.NormalsUnits,
		MaxRetries: cfg.ClimateMaxRetries,
		Gate:       pacer,
	}, httpClient, metrics, logger)
	scraper := ranking.NewScraper(cfg.RankingURLs, httpClient, logger)

	store, err := sqlite.Open(cfg.SQLitePath, cfg.SQLiteTable)
	if err != nil {
		logger.Error("failed to open sqlite store", "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("sqlite close error", "error", err)
		}
	}()

	exporters := []pipeline.Exporter{csvfile.NewWriter(cfg.CSVPath), store}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		exporters = append(exporters, writer)
		logger.Info("kafka export enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(scraper, geocoder, climate, exporters, pipeline.Options{
		MaxUniversities: cfg.MaxUniversities,
		CountrySuffix:   cfg.CountrySuffix,
		Trimesters:      cfg.Trimesters,
		SkipFailures:    cfg.FailurePolicy == config.PolicySkip,
		Pacer:           pacer,
		Out:             os.Stdout,
		Clock:           clock,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	_, runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		return 1
	}
	logger.Info("run complete", "csv", cfg.CSVPath, "sqlite", cfg.SQLitePath)
	return 0
}

// newGeocoder builds the configured provider behind the shared lookup cache.
func newGeocoder(cfg *config.Config, httpClient *http.Client, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	var inner domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderMapbox:
		inner = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
	case config.ProviderGoogle:
		inner = google.NewClient(cfg.GoogleAPIKey, metrics)
	default:
		inner = nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.NominatimInterval, httpClient, metrics, logger)
	}
	logger.Info("geocoding configured", "provider", cfg.GeocoderProvider, "cache_size", cfg.GeocodeCacheSize)
	return geocache.NewCachedGeocoder(inner, cfg.GeocodeCacheSize, metrics)
}
