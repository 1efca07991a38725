package main

import (
	"net/http"
)

// This file contains the HTTP handlers for the application. The weather
// handlers share one pipeline (serveWeather) and differ only in the client
// call and in what they record on success.

const (
	healthPath         = "/api/health"
	configPath         = "/api/config"
	currentWeatherPath = "/api/weather/current"
	forecastPath       = "/api/weather/forecast"
	metricsPath        = "/metrics"
)

// handlerHealth reports that the API is running.
func (cfg *apiConfig) handlerHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handlerConfig tells client-side applications how the API is running.

// @Summary      Get application configuration
// @Description  Reports whether the API runs in development mode, its version and the upstream timeout.
// @Tags         configuration
// @Produce      json
// @Success      200  {object}  ConfigResponse
// @Router       /api/config [get]
func (cfg *apiConfig) handlerConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}
	cfg.respondWithJSON(w, http.StatusOK, ConfigResponse{
		DevMode:         cfg.devMode,
		Version:         cfg.version,
		UpstreamTimeout: cfg.upstreamTimeout.String(),
	})
}

// @Summary      Get current weather
// @Description  Retrieves the current weather conditions for a city.
// @Tags         weather
// @Produce      json
// @Param        city          query     string  true   "City name (e.g., 'Paris')"
// @Param        country_code  query     string  false  "ISO country code (e.g., FR, US)"
// @Success      200  {object}  WeatherResponse
// @Failure      404  {object}  ErrorResponse "City not found"
// @Failure      422  {object}  ErrorResponse "Invalid query parameters"
// @Failure      500  {object}  ErrorResponse "Weather API unreachable or internal error"
// @Router       /api/weather/current [get]
func (cfg *apiConfig) handlerCurrentWeather(w http.ResponseWriter, r *http.Request) {
	serveWeather(cfg, w, r, "current", "weather", cfg.weather.FetchCurrent, func(weather WeatherResponse) {
		cfg.metrics.updateWeatherMetrics(
			weather.City,
			weather.Country,
			weather.Weather.Temperature,
			weather.Weather.Humidity,
		)
	})
}

// @Summary      Get 7-day forecast
// @Description  Retrieves the daily forecast for the next 7 days for a city.
// @Tags         weather
// @Produce      json
// @Param        city          query     string  true   "City name (e.g., 'Paris')"
// @Param        country_code  query     string  false  "ISO country code (e.g., FR, US)"
// @Success      200  {object}  ForecastResponse
// @Failure      404  {object}  ErrorResponse "City not found"
// @Failure      422  {object}  ErrorResponse "Invalid query parameters"
// @Failure      500  {object}  ErrorResponse "Weather API unreachable or internal error"
// @Router       /api/weather/forecast [get]
func (cfg *apiConfig) handlerForecast(w http.ResponseWriter, r *http.Request) {
	serveWeather(cfg, w, r, "forecast", "forecast", cfg.weather.FetchForecast, nil)
}
