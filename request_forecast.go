package main

import (
	"context"
	"net/http"
	"time"
)

// This file contains the weather client adapter. A lookup resolves the city
// through the geocoding service, then issues one forecast request and shapes
// the parsed payload into the response models. Every failure leaves as an
// *UpstreamError so the handlers can classify it.

// WeatherClient fetches shaped weather data for a city. countryCode is nil
// when the caller did not provide one.
type WeatherClient interface {
	FetchCurrent(ctx context.Context, city string, countryCode *string) (WeatherResponse, error)
	FetchForecast(ctx context.Context, city string, countryCode *string) (ForecastResponse, error)
}

type OMeteoWeatherClient struct {
	geocoder   GeocodingService
	weatherURL string
	httpClient *http.Client
}

func NewOMeteoWeatherClient(geocoder GeocodingService, weatherURL string, httpClient *http.Client) *OMeteoWeatherClient {
	return &OMeteoWeatherClient{
		geocoder:   geocoder,
		weatherURL: weatherURL,
		httpClient: httpClient,
	}
}

func (c *OMeteoWeatherClient) FetchCurrent(ctx context.Context, city string, countryCode *string) (WeatherResponse, error) {
	location, err := c.geocoder.Geocode(ctx, city, countryCode)
	if err != nil {
		return WeatherResponse{}, err
	}

	url, err := WrapForCurrentWeather(c.weatherURL, location)
	if err != nil {
		return WeatherResponse{}, &UpstreamError{Kind: FailureUnknown, Err: err}
	}

	weather, loc, err := fetchForecastFromAPI(ctx, c.httpClient, url, ParseCurrentWeatherOMeteo)
	if err != nil {
		return WeatherResponse{}, err
	}

	return WeatherResponse{
		City:      location.CityName,
		Country:   location.CountryCode,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Timezone:  timezoneName(location, loc),
		Weather: CurrentWeatherJSON{
			Timestamp:     weather.Timestamp.Format(time.RFC3339),
			Temperature:   weather.Temperature,
			FeelsLike:     weather.FeelsLike,
			Humidity:      weather.Humidity,
			WindSpeed:     weather.WindSpeed,
			WindDirection: weather.WindDirection,
			Precipitation: weather.Precipitation,
			WeatherCode:   weather.WeatherCode,
			Description:   weather.Condition,
		},
	}, nil
}

func (c *OMeteoWeatherClient) FetchForecast(ctx context.Context, city string, countryCode *string) (ForecastResponse, error) {
	location, err := c.geocoder.Geocode(ctx, city, countryCode)
	if err != nil {
		return ForecastResponse{}, err
	}

	url, err := WrapForDailyForecast(c.weatherURL, location)
	if err != nil {
		return ForecastResponse{}, &UpstreamError{Kind: FailureUnknown, Err: err}
	}

	forecast, loc, err := fetchForecastFromAPI(ctx, c.httpClient, url, ParseDailyForecastOMeteo)
	if err != nil {
		return ForecastResponse{}, err
	}

	days := make([]ForecastDayJSON, len(forecast))
	for i, f := range forecast {
		days[i] = ForecastDayJSON{
			Date:                     f.ForecastDate.Format("2006-01-02"),
			TemperatureMin:           f.MinTemp,
			TemperatureMax:           f.MaxTemp,
			Humidity:                 f.Humidity,
			WindSpeed:                f.WindSpeed,
			PrecipitationSum:         f.Precipitation,
			PrecipitationProbability: f.PrecipitationProbability,
			WeatherCode:              f.WeatherCode,
			Description:              f.Condition,
		}
	}

	return ForecastResponse{
		City:      location.CityName,
		Country:   location.CountryCode,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Timezone:  timezoneName(location, loc),
		Forecast:  days,
	}, nil
}

// timezoneName prefers the zone reported by the forecast payload and falls
// back to the one from geocoding.
func timezoneName(location Location, loc *time.Location) string {
	if loc != nil && loc.String() != "UTC" {
		return loc.String()
	}
	if location.Timezone != "" {
		return location.Timezone
	}
	if loc != nil {
		return loc.String()
	}
	return ""
}
