package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// The Wrap... functions build the Open-Meteo forecast URL for a resolved location.
// Timestamps are requested as unix seconds and converted with the offset returned
// in the same payload.

func WrapForCurrentWeather(baseURL string, location Location) (string, error) {
	ometeoParameters := []string{
		"temperature_2m",
		"apparent_temperature",
		"relative_humidity_2m",
		"wind_speed_10m",
		"wind_direction_10m",
		"precipitation",
		"weather_code",
	}
	return wrapOMeteoURL(baseURL, location, map[string]string{
		"current": strings.Join(ometeoParameters, ","),
	})
}

func WrapForDailyForecast(baseURL string, location Location) (string, error) {
	ometeoParameters := []string{
		"temperature_2m_max",
		"temperature_2m_min",
		"relative_humidity_2m_mean",
		"wind_speed_10m_max",
		"precipitation_sum",
		"precipitation_probability_max",
		"weather_code",
	}
	return wrapOMeteoURL(baseURL, location, map[string]string{
		"daily":         strings.Join(ometeoParameters, ","),
		"forecast_days": strconv.Itoa(forecastDays),
	})
}

func wrapOMeteoURL(baseURL string, location Location, params map[string]string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base weather URL: %w", err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(location.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(location.Longitude, 'f', 4, 64))
	q.Set("timezone", "auto")
	q.Set("timeformat", "unixtime")
	for key, value := range params {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
