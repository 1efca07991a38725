package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// mockWeatherClient is a WeatherClient whose responses are set per test.
type mockWeatherClient struct {
	mu          sync.Mutex
	current     WeatherResponse
	forecast    ForecastResponse
	err         error
	calls       int
	lastCity    string
	lastCountry *string
	ctxErr      error
}

func (m *mockWeatherClient) record(ctx context.Context, city string, countryCode *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastCity = city
	m.lastCountry = countryCode
	m.ctxErr = ctx.Err()
}

func (m *mockWeatherClient) FetchCurrent(ctx context.Context, city string, countryCode *string) (WeatherResponse, error) {
	m.record(ctx, city, countryCode)
	if m.err != nil {
		return WeatherResponse{}, m.err
	}
	return m.current, nil
}

func (m *mockWeatherClient) FetchForecast(ctx context.Context, city string, countryCode *string) (ForecastResponse, error) {
	m.record(ctx, city, countryCode)
	if m.err != nil {
		return ForecastResponse{}, m.err
	}
	return m.forecast, nil
}

// newTestConfig returns an apiConfig with a fresh registry and a silent logger.
func newTestConfig(weather WeatherClient) *apiConfig {
	return &apiConfig{
		weather:  weather,
		metrics:  newWeatherMetrics("test"),
		validate: newQueryValidator(),
		version:  "test",
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sampleWeatherResponse() WeatherResponse {
	return WeatherResponse{
		City:      "Paris",
		Country:   strPtr("FR"),
		Latitude:  48.85341,
		Longitude: 2.3488,
		Timezone:  "Europe/Paris",
		Weather: CurrentWeatherJSON{
			Timestamp:     "2025-08-04T11:45:00+02:00",
			Temperature:   18.7,
			FeelsLike:     17.9,
			Humidity:      72,
			WindSpeed:     11.2,
			WindDirection: 245,
			Precipitation: 0.1,
			WeatherCode:   61,
			Description:   "slight rain",
		},
	}
}

func sampleForecastResponse() ForecastResponse {
	days := make([]ForecastDayJSON, forecastDays)
	for i := range days {
		days[i] = ForecastDayJSON{
			Date:           fmt.Sprintf("2025-08-%02d", 4+i),
			TemperatureMin: 13,
			TemperatureMax: 22,
			Humidity:       60,
			WeatherCode:    0,
			Description:    "clear sky",
		}
	}
	return ForecastResponse{
		City:      "Paris",
		Country:   strPtr("FR"),
		Latitude:  48.85341,
		Longitude: 2.3488,
		Timezone:  "Europe/Paris",
		Forecast:  days,
	}
}
