// Package config loads the API server configuration from the environment,
// optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/citynav/citynav/internal/database"
)

// Config is the complete server configuration.
type Config struct {
	Port        string
	Environment string

	Telemetry Telemetry
	Transit   Transit
	Weather   Weather
	Database  database.Config

	// AdminAPIKey protects the mode catalog admin endpoints. Empty disables them.
	AdminAPIKey string

	// CORSAllowedOrigins lists the browser origins allowed to call the API.
	CORSAllowedOrigins []string

	// MaxRoutes caps the routes returned per calculation.
	MaxRoutes int
}

// Telemetry configures OpenTelemetry export.
type Telemetry struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

// Transit configures the stop lookup chain.
type Transit struct {
	OverpassURL       string
	LookupTimeout     time.Duration
	SyntheticFallback bool

	// StopsSQLitePath points at an offline stop index. Empty uses Overpass.
	StopsSQLitePath string
}

// Weather configures the optional weather provider.
type Weather struct {
	OpenWeatherMapAPIKey string
}

// Enabled reports whether a weather provider is configured.
func (w Weather) Enabled() bool {
	return w.OpenWeatherMapAPIKey != ""
}

// IsProduction reports whether the server runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadDotEnv loads .env and then .env.local, which overrides it. Missing
// files are ignored.
func LoadDotEnv(dir string) error {
	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	if err := godotenv.Overload(dir + "/.env.local"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env.local: %w", err)
	}
	return nil
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:        getEnv("APP_PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		Telemetry: Telemetry{
			Enabled:      parseBool("OTEL_ENABLED", false, &errs),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  parseFloat("OTEL_SAMPLE_RATIO", 1, &errs),
		},
		Transit: Transit{
			OverpassURL:       os.Getenv("OVERPASS_URL"),
			LookupTimeout:     parseDuration("TRANSIT_LOOKUP_TIMEOUT", 10*time.Second, &errs),
			SyntheticFallback: parseBool("TRANSIT_SYNTHETIC_FALLBACK", true, &errs),
			StopsSQLitePath:   os.Getenv("STOPS_SQLITE_PATH"),
		},
		Weather: Weather{
			OpenWeatherMapAPIKey: os.Getenv("OWM_API_KEY"),
		},
		Database:           database.ConfigFromEnv(),
		AdminAPIKey:        os.Getenv("ADMIN_API_KEY"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MaxRoutes:          parseInt("ENGINE_MAX_ROUTES", 6, &errs),
	}

	if cfg.MaxRoutes <= 0 {
		errs = append(errs, fmt.Errorf("ENGINE_MAX_ROUTES must be positive, got %d", cfg.MaxRoutes))
	}
	if cfg.Transit.LookupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("TRANSIT_LOOKUP_TIMEOUT must be positive, got %s", cfg.Transit.LookupTimeout))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool, errs *[]error) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func parseInt(key string, defaultValue int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func parseFloat(key string, defaultValue float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func parseDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
