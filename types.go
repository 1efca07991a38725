package main

import "time"

// Location is a city resolved by the geocoding API.
type Location struct {
	CityName    string
	CountryCode *string
	Latitude    float64
	Longitude   float64
	Timezone    string
}

type CurrentWeather struct {
	Timestamp     time.Time
	Temperature   float64
	FeelsLike     float64
	Humidity      int
	WindSpeed     float64
	WindDirection int
	Precipitation float64
	WeatherCode   int
	Condition     string
}

type DailyForecast struct {
	ForecastDate             time.Time
	MinTemp                  float64
	MaxTemp                  float64
	Humidity                 int
	WindSpeed                float64
	Precipitation            float64
	PrecipitationProbability int
	WeatherCode              int
	Condition                string
}

// forecastDays is the length of every forecast returned by the API.
const forecastDays = 7

type CurrentWeatherJSON struct {
	Timestamp     string  `json:"timestamp"`
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feels_like"`
	Humidity      int     `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection int     `json:"wind_direction"`
	Precipitation float64 `json:"precipitation"`
	WeatherCode   int     `json:"weather_code"`
	Description   string  `json:"description"`
}

type ForecastDayJSON struct {
	Date                     string  `json:"date"`
	TemperatureMin           float64 `json:"temperature_min"`
	TemperatureMax           float64 `json:"temperature_max"`
	Humidity                 int     `json:"humidity"`
	WindSpeed                float64 `json:"wind_speed"`
	PrecipitationSum         float64 `json:"precipitation_sum"`
	PrecipitationProbability int     `json:"precipitation_probability"`
	WeatherCode              int     `json:"weather_code"`
	Description              string  `json:"description"`
}

// WeatherResponse is the body of GET /api/weather/current.
type WeatherResponse struct {
	City      string             `json:"city"`
	Country   *string            `json:"country"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Timezone  string             `json:"timezone,omitempty"`
	Weather   CurrentWeatherJSON `json:"weather"`
}

// ForecastResponse is the body of GET /api/weather/forecast.
type ForecastResponse struct {
	City      string            `json:"city"`
	Country   *string           `json:"country"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Timezone  string            `json:"timezone,omitempty"`
	Forecast  []ForecastDayJSON `json:"forecast"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ConfigResponse is the body of GET /api/config.
type ConfigResponse struct {
	DevMode         bool   `json:"dev_mode"`
	Version         string `json:"version"`
	UpstreamTimeout string `json:"upstream_timeout"`
}
