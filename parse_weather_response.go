package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"
)

// ParseCurrentWeatherOMeteo decodes an Open-Meteo forecast response requested
// with current=... and timeformat=unixtime.
func ParseCurrentWeatherOMeteo(body io.Reader) (CurrentWeather, *time.Location, error) {
	var response ResponseCurrentWeatherOMeteo

	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return CurrentWeather{}, nil, err
	}
	if response.CurrentWeather == nil {
		return CurrentWeather{}, nil, fmt.Errorf("response has no current block")
	}

	loc := responseLocation(response.Timezone, response.UTCOffsetSeconds)
	c := response.CurrentWeather
	weather := CurrentWeather{
		Timestamp:     time.Unix(c.Time, 0).In(loc),
		Temperature:   c.Temperature2m,
		FeelsLike:     c.ApparentTemperature,
		Humidity:      percent(c.RelativeHumidity2m),
		WindSpeed:     c.WindSpeed10m,
		WindDirection: int(math.Round(c.WindDirection10m)),
		Precipitation: c.Precipitation,
		WeatherCode:   c.WeatherCode,
		Condition:     interpretWeatherCode(c.WeatherCode),
	}

	return weather, loc, nil
}

// ParseDailyForecastOMeteo decodes an Open-Meteo forecast response requested
// with daily=... and returns exactly forecastDays entries ordered by date.
func ParseDailyForecastOMeteo(body io.Reader) ([]DailyForecast, *time.Location, error) {
	var response ResponseDailyForecastOMeteo

	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, nil, err
	}

	d := response.DailyForecast
	n := len(d.Time)
	if n < forecastDays {
		return nil, nil, fmt.Errorf("expected %d forecast days, got %d", forecastDays, n)
	}
	for name, l := range map[string]int{
		"temperature_2m_min":            len(d.Temperature2mMin),
		"temperature_2m_max":            len(d.Temperature2mMax),
		"relative_humidity_2m_mean":     len(d.RelativeHumidity2mMean),
		"wind_speed_10m_max":            len(d.WindSpeed10mMax),
		"precipitation_sum":             len(d.PrecipitationSum),
		"precipitation_probability_max": len(d.PrecipitationProbabilityMax),
		"weather_code":                  len(d.WeatherCode),
	} {
		if l != n {
			return nil, nil, fmt.Errorf("daily series %s has %d values, want %d", name, l, n)
		}
	}

	loc := responseLocation(response.Timezone, response.UTCOffsetSeconds)
	forecast := make([]DailyForecast, n)
	for i := range forecast {
		forecast[i] = DailyForecast{
			ForecastDate:             time.Unix(d.Time[i], 0).In(loc),
			MinTemp:                  d.Temperature2mMin[i],
			MaxTemp:                  d.Temperature2mMax[i],
			Humidity:                 percent(d.RelativeHumidity2mMean[i]),
			WindSpeed:                d.WindSpeed10mMax[i],
			Precipitation:            d.PrecipitationSum[i],
			PrecipitationProbability: d.PrecipitationProbabilityMax[i],
			WeatherCode:              d.WeatherCode[i],
			Condition:                interpretWeatherCode(d.WeatherCode[i]),
		}
	}

	sort.Slice(forecast, func(i, j int) bool {
		return forecast[i].ForecastDate.Before(forecast[j].ForecastDate)
	})

	return forecast[:forecastDays], loc, nil
}

// responseLocation builds the zone the upstream used for its timestamps.
func responseLocation(name string, offsetSeconds int) *time.Location {
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, offsetSeconds)
}

// percent clamps a relative humidity value to an integer in [0, 100].
func percent(v float64) int {
	p := int(math.Round(v))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

type ResponseCurrentWeatherOMeteo struct {
	Timezone         string   `json:"timezone"`
	UTCOffsetSeconds int      `json:"utc_offset_seconds"`
	CurrentWeather   *Current `json:"current"`
}

type ResponseDailyForecastOMeteo struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	DailyForecast    Daily  `json:"daily"`
}

type Current struct {
	Time                int64   `json:"time"`
	Temperature2m       float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
	WindSpeed10m        float64 `json:"wind_speed_10m"`
	WindDirection10m    float64 `json:"wind_direction_10m"`
	Precipitation       float64 `json:"precipitation"`
	WeatherCode         int     `json:"weather_code"`
}

type Daily struct {
	Time                        []int64   `json:"time"`
	Temperature2mMax            []float64 `json:"temperature_2m_max"`
	Temperature2mMin            []float64 `json:"temperature_2m_min"`
	RelativeHumidity2mMean      []float64 `json:"relative_humidity_2m_mean"`
	WindSpeed10mMax             []float64 `json:"wind_speed_10m_max"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
	WeatherCode                 []int     `json:"weather_code"`
}

func interpretWeatherCode(i int) string {
	switch i {
	case 0:
		return "clear sky"
	case 1:
		return "mainly clear"
	case 2:
		return "partly cloudy"
	case 3:
		return "overcast"
	case 45:
		return "fog"
	case 48:
		return "depositing rime fog"
	case 51:
		return "light drizzle"
	case 53:
		return "moderate drizzle"
	case 55:
		return "dense drizzle"
	case 56:
		return "light freezing drizzle"
	case 57:
		return "dense freezing drizzle"
	case 61:
		return "slight rain"
	case 63:
		return "moderate rain"
	case 65:
		return "heavy rain"
	case 66:
		return "light freezing rain"
	case 67:
		return "heavy freezing rain"
	case 71:
		return "slight snowfall"
	case 73:
		return "moderate snowfall"
	case 75:
		return "heavy snowfall"
	case 77:
		return "snow grains"
	case 80:
		return "slight showers"
	case 81:
		return "moderate showers"
	case 82:
		return "violent showers"
	case 85:
		return "slight snow showers"
	case 86:
		return "heavy snow showers"
	case 95:
		return "thunderstorm"
	case 96:
		return "thunderstorm with slight hail"
	case 99:
		return "thunderstorm with heavy hail"
	default:
		return "unknown code"
	}
}
