package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultGeocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultWeatherURL = "https://api.open-meteo.com/v1/forecast"
)

type apiConfig struct {
	weather          WeatherClient
	metrics          *weatherMetrics
	validate         *validator.Validate
	ometeoGeocodeURL string
	ometeoWeatherURL string
	httpClient       *http.Client
	upstreamTimeout  time.Duration
	port             string
	version          string
	devMode          bool
	logger           *slog.Logger
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback)
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsDuration retrieves an environment variable as a time.Duration, with a fallback value.
// A bare integer is read as seconds.
func getEnvAsDuration(key string, fallback time.Duration, logger *slog.Logger) time.Duration {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		logger.Info("environment variable not set, using fallback", "key", key, "fallback", fallback.String())
		return fallback
	}
	if secs, err := strconv.Atoi(valStr); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val <= 0 {
		logger.Warn("invalid duration value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

func newLogger(devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func config() *apiConfig {
	// .env must be loaded before DEV_MODE is read. Its absence is logged once the logger exists.
	envErr := godotenv.Load()

	devMode, err := strconv.ParseBool(os.Getenv("DEV_MODE"))
	if err != nil {
		devMode = false
	}
	logger := newLogger(devMode)

	if envErr != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	version := getEnv("APP_VERSION", "0.1.0", logger)
	timeout := getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second, logger)
	metrics := newWeatherMetrics(version)

	cfg := apiConfig{
		metrics:          metrics,
		validate:         newQueryValidator(),
		ometeoGeocodeURL: getEnv("OMETEO_GEOCODE_URL", defaultGeocodeURL, logger),
		ometeoWeatherURL: getEnv("OMETEO_WEATHER_URL", defaultWeatherURL, logger),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &metricsTransport{wrapped: http.DefaultTransport, metrics: metrics},
		},
		upstreamTimeout: timeout,
		port:            strconv.Itoa(getEnvAsInt("PORT", 8000, logger)),
		version:         version,
		devMode:         devMode,
		logger:          logger,
	}

	geocoder := NewOMeteoGeocodingService(cfg.ometeoGeocodeURL, cfg.httpClient)
	cfg.weather = NewOMeteoWeatherClient(geocoder, cfg.ometeoWeatherURL, cfg.httpClient)

	return &cfg
}
