package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const defaultRankingURL = "https://www.topuniversities.com/where-to-study/north-america/united-states/ranked-top-100-us-universities#page-1"

// Geocoder providers.
const (
	ProviderNominatim = "nominatim"
	ProviderMapbox    = "mapbox"
	ProviderGoogle    = "google"
)

// Failure policies for geocode and climate errors.
const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	RankingURLs     []string
	MaxUniversities int
	CountrySuffix   string
	Trimesters      []domain.Trimester
	FailurePolicy   string
	HTTPTimeout     time.Duration

	// Geocoding configuration.
	GeocoderProvider   string
	GeocodeCacheSize   int
	NominatimURL       string
	NominatimUserAgent string
	NominatimInterval  time.Duration
	MapboxToken        string
	MapboxTimeout      time.Duration
	GoogleAPIKey       string

	// Climate normals configuration.
	WeatherbitURL       string
	WeatherbitKey       string
	NormalsStartDay     string
	NormalsEndDay       string
	NormalsUnits        string
	ClimateCallInterval time.Duration
	ClimateMaxRetries   int

	// Sinks.
	CSVPath      string
	SQLitePath   string
	SQLiteTable  string
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	nominatimInterval, err := parseNonNegativeDuration("NOMINATIM_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	callInterval, err := parseNonNegativeDuration("CLIMATE_CALL_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}

	maxUniversities, err := parseInt("MAX_UNIVERSITIES", 20)
	if err != nil {
		return nil, err
	}
	if maxUniversities <= 0 {
		return nil, errors.New("invalid MAX_UNIVERSITIES: must be greater than zero")
	}

	maxRetries, err := parseInt("CLIMATE_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	if maxRetries < 0 {
		return nil, errors.New("invalid CLIMATE_MAX_RETRIES: must not be negative")
	}

	cacheSize, err := parseInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	if cacheSize <= 0 {
		return nil, errors.New("invalid GEOCODE_CACHE_SIZE: must be greater than zero")
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	trimesters, err := domain.ParseTrimesters(sharedcfg.EnvOrDefault("TRIMESTERS", "T1:9,10,11,12;T2:1,2,3;T3:4,5,6"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRIMESTERS: %w", err)
	}

	cfg := &Config{
		RankingURLs:     splitList(sharedcfg.EnvOrDefault("RANKING_URLS", defaultRankingURL)),
		MaxUniversities: maxUniversities,
		CountrySuffix:   sharedcfg.EnvOrDefault("GEOCODE_COUNTRY_SUFFIX", "USA"),
		Trimesters:      trimesters,
		FailurePolicy:   strings.ToLower(sharedcfg.EnvOrDefault("FAILURE_POLICY", PolicyAbort)),
		HTTPTimeout:     httpTimeout,

		GeocoderProvider:   strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", ProviderNominatim)),
		GeocodeCacheSize:   cacheSize,
		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "CIS9650"),
		NominatimInterval:  nominatimInterval,
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:      mapboxTimeout,
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),

		WeatherbitURL:       sharedcfg.EnvOrDefault("WEATHERBIT_URL", "https://api.weatherbit.io/v2.0/normals"),
		WeatherbitKey:       os.Getenv("WEATHERBIT_API_KEY"),
		NormalsStartDay:     sharedcfg.EnvOrDefault("NORMALS_START_DAY", "01-30"),
		NormalsEndDay:       sharedcfg.EnvOrDefault("NORMALS_END_DAY", "12-01"),
		NormalsUnits:        sharedcfg.EnvOrDefault("NORMALS_UNITS", "I"),
		ClimateCallInterval: callInterval,
		ClimateMaxRetries:   maxRetries,

		CSVPath:      sharedcfg.EnvOrDefault("CSV_PATH", "final_project_table.csv"),
		SQLitePath:   sharedcfg.EnvOrDefault("SQLITE_PATH", "university_climate.db"),
		SQLiteTable:  sharedcfg.EnvOrDefault("SQLITE_TABLE", "universitydata"),
		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: splitList(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_TOPIC", "university-climate")),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if len(cfg.RankingURLs) == 0 {
		return errors.New("RANKING_URLS is required")
	}
	if cfg.WeatherbitKey == "" {
		return errors.New("WEATHERBIT_API_KEY is required")
	}
	switch cfg.FailurePolicy {
	case PolicyAbort, PolicySkip:
	default:
		return fmt.Errorf("invalid FAILURE_POLICY %q: want %s or %s", cfg.FailurePolicy, PolicyAbort, PolicySkip)
	}
	switch cfg.GeocoderProvider {
	case ProviderNominatim:
	case ProviderMapbox:
		if cfg.MapboxToken == "" {
			return errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	case ProviderGoogle:
		if cfg.GoogleAPIKey == "" {
			return errors.New("GEOCODER_PROVIDER is google but GOOGLE_API_KEY is not set")
		}
	default:
		return fmt.Errorf("invalid GEOCODER_PROVIDER %q", cfg.GeocoderProvider)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}
	if cfg.CSVPath == "" {
		return errors.New("CSV_PATH is required")
	}
	if cfg.SQLitePath == "" || cfg.SQLiteTable == "" {
		return errors.New("SQLITE_PATH and SQLITE_TABLE are required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
