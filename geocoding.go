package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// This file provides the application's geocoding capabilities: turning a city
// name, optionally narrowed by an ISO country code, into coordinates using the
// Open-Meteo geocoding API. The weather client depends on the GeocodingService
// interface so tests can swap the provider out.

// ErrNoResultsFound is returned when a geocoding query yields no results.
var ErrNoResultsFound = errors.New("no results found for the given query")

type GeocodingService interface {
	Geocode(ctx context.Context, cityName string, countryCode *string) (Location, error)
}

// OMeteoGeocodingService is an implementation of GeocodingService backed by
// https://geocoding-api.open-meteo.com/v1/search.
type OMeteoGeocodingService struct {
	geocodeURL string
	httpClient *http.Client
}

func NewOMeteoGeocodingService(geocodeURL string, httpClient *http.Client) *OMeteoGeocodingService {
	return &OMeteoGeocodingService{
		geocodeURL: geocodeURL,
		httpClient: httpClient,
	}
}

// Geocode resolves cityName to the best matching location. Every error it
// returns is an *UpstreamError.
func (s *OMeteoGeocodingService) Geocode(ctx context.Context, cityName string, countryCode *string) (Location, error) {
	baseURL, err := url.Parse(s.geocodeURL)
	if err != nil {
		return Location{}, &UpstreamError{Kind: FailureUnknown, Err: fmt.Errorf("failed to parse base geocode URL: %w", err)}
	}

	q := baseURL.Query()
	q.Set("name", cityName)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")
	if countryCode != nil && strings.TrimSpace(*countryCode) != "" {
		q.Set("countryCode", strings.ToUpper(strings.TrimSpace(*countryCode)))
	}
	baseURL.RawQuery = q.Encode()

	resp, err := doUpstreamGet(ctx, s.httpClient, baseURL.String())
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	var response GeocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Location{}, &UpstreamError{Kind: FailureUnknown, Err: fmt.Errorf("failed to decode geocoding response: %w", err)}
	}

	if len(response.Results) == 0 {
		return Location{}, &UpstreamError{
			Kind:       FailureNotFound,
			StatusCode: http.StatusNotFound,
			Err:        fmt.Errorf("geocoding %q: %w", cityName, ErrNoResultsFound),
		}
	}

	return parseLocationFromResult(response.Results[0]), nil
}

func parseLocationFromResult(result GeocodingResult) Location {
	location := Location{
		CityName:  result.Name,
		Latitude:  result.Latitude,
		Longitude: result.Longitude,
		Timezone:  result.Timezone,
	}
	if result.CountryCode != "" {
		cc := result.CountryCode
		location.CountryCode = &cc
	}
	return location
}

// The following structs represent the Open-Meteo geocoding JSON response.
type GeocodingResponse struct {
	Results []GeocodingResult `json:"results"`
}

type GeocodingResult struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
	Timezone    string  `json:"timezone"`
}
