package main

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.
// All families are registered on a dedicated registry owned by weatherMetrics, which
// is built once at startup and handed to the handlers and middleware that record into it.
// Every family is written through a method taking exactly its label values, so a
// label schema mismatch cannot happen at request time.

const (
	apiName     = "open-meteo"
	appName     = "CY Weather API"
	unknownCode = "UNKNOWN"
)

type weatherMetrics struct {
	registry *prometheus.Registry

	// requestsTotal counts weather lookups by endpoint, lowercased city and outcome.
	requestsTotal *prometheus.CounterVec
	// externalAPIErrors counts upstream failures by provider and failure label.
	externalAPIErrors *prometheus.CounterVec
	// httpRequestsByStatus counts instrumented HTTP requests by method, path and status code.
	httpRequestsByStatus *prometheus.CounterVec
	// httpRequestsInProgress tracks the requests currently being served.
	httpRequestsInProgress *prometheus.GaugeVec
	// httpRequestDuration is the latency of instrumented HTTP requests as seen by the server.
	httpRequestDuration *prometheus.HistogramVec

	requestDuration     *prometheus.HistogramVec
	externalAPIDuration *prometheus.HistogramVec

	currentTemperature *prometheus.GaugeVec
	currentHumidity    *prometheus.GaugeVec
	citiesTracked      prometheus.Gauge

	// trackedCities only ever grows. The universe of cities queried is assumed small.
	trackedMu     sync.Mutex
	trackedCities map[string]struct{}
}

// newWeatherMetrics builds the registry and registers every metric family on it.
// Registration panics on a duplicate or inconsistent family, which surfaces at startup.
func newWeatherMetrics(version string) *weatherMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &weatherMetrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cy_weather_requests_total",
			Help: "Total number of weather requests.",
		}, []string{"endpoint", "city", "status"}),
		externalAPIErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cy_weather_external_api_errors_total",
			Help: "Total number of errors returned by calls to the external weather API.",
		}, []string{"api_name", "error_type"}),
		httpRequestsByStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cy_weather_http_requests_by_status_total",
			Help: "Total number of HTTP requests by method, endpoint and status code.",
		}, []string{"method", "endpoint", "status_code"}),
		httpRequestsInProgress: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cy_weather_http_requests_inprogress",
			Help: "Number of HTTP requests in progress.",
		}, []string{"method", "handler"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cy_weather_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by method and handler in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "handler"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cy_weather_request_duration_seconds",
			Help:    "Duration of weather requests in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 10.0},
		}, []string{"endpoint", "city"}),
		externalAPIDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cy_weather_external_api_duration_seconds",
			Help:    "Duration of calls to the external weather API in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"api_name", "endpoint"}),
		currentTemperature: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cy_weather_current_temperature_celsius",
			Help: "Current temperature in degrees Celsius.",
		}, []string{"city", "country"}),
		currentHumidity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cy_weather_current_humidity_percent",
			Help: "Current relative humidity in percent.",
		}, []string{"city", "country"}),
		citiesTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cy_weather_cities_tracked",
			Help: "Number of cities for which weather data has been retrieved.",
		}),
		trackedCities: make(map[string]struct{}),
	}

	factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cy_weather_app_info",
		Help: "Information about the CY Weather application.",
	}, []string{"version", "api_provider", "description"}).
		WithLabelValues(version, apiName, appName+" - weather application").Set(1)

	return m
}

func (m *weatherMetrics) trackWeatherRequest(endpoint, city, status string) {
	m.requestsTotal.WithLabelValues(endpoint, cityLabel(city), status).Inc()
}

func (m *weatherMetrics) trackExternalAPIError(errorType string) {
	m.externalAPIErrors.WithLabelValues(apiName, errorType).Inc()
}

func (m *weatherMetrics) trackHTTPRequest(method, endpoint string, statusCode int) {
	m.httpRequestsByStatus.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
}

// updateWeatherMetrics records the latest reading for a city and refreshes the
// tracked city count.
func (m *weatherMetrics) updateWeatherMetrics(city string, country *string, temperature float64, humidity int) {
	c := cityLabel(city)
	cc := countryLabel(country)

	m.currentTemperature.WithLabelValues(c, cc).Set(temperature)
	m.currentHumidity.WithLabelValues(c, cc).Set(float64(humidity))

	// The gauge is set under the lock so concurrent updates cannot publish a stale count.
	m.trackedMu.Lock()
	defer m.trackedMu.Unlock()
	m.trackedCities[c] = struct{}{}
	m.citiesTracked.Set(float64(len(m.trackedCities)))
}

// scopedTimer observes the elapsed time into its histogram exactly once,
// no matter how many times Stop is called.
type scopedTimer struct {
	timer *prometheus.Timer
	once  sync.Once
	took  time.Duration
}

func newScopedTimer(o prometheus.Observer) *scopedTimer {
	return &scopedTimer{timer: prometheus.NewTimer(o)}
}

func (t *scopedTimer) Stop() time.Duration {
	t.once.Do(func() {
		t.took = t.timer.ObserveDuration()
	})
	return t.took
}

func (m *weatherMetrics) timeWeatherRequest(endpoint, city string) *scopedTimer {
	return newScopedTimer(m.requestDuration.WithLabelValues(endpoint, cityLabel(city)))
}

func (m *weatherMetrics) timeHTTPRequest(method, handler string) *scopedTimer {
	return newScopedTimer(m.httpRequestDuration.WithLabelValues(method, handler))
}

func (m *weatherMetrics) timeExternalAPICall(endpoint string) *scopedTimer {
	return newScopedTimer(m.externalAPIDuration.WithLabelValues(apiName, endpoint))
}

// timed runs fn inside t and stops t on every exit path, panics included.
func timed[T any](t *scopedTimer, fn func() (T, error)) (T, error) {
	defer t.Stop()
	return fn()
}
