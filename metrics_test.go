package main

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeatherMetricsAppInfo(t *testing.T) {
	m := newWeatherMetrics("1.2.3")

	err := testutil.GatherAndCompare(m.registry, strings.NewReader(`
# HELP cy_weather_app_info Information about the CY Weather application.
# TYPE cy_weather_app_info gauge
cy_weather_app_info{api_provider="open-meteo",description="CY Weather API - weather application",version="1.2.3"} 1
`), "cy_weather_app_info")
	assert.NoError(t, err)
}

func TestNewWeatherMetricsIndependentRegistries(t *testing.T) {
	// Two instances must not collide, which they would on the default registry.
	a := newWeatherMetrics("a")
	b := newWeatherMetrics("b")

	a.trackWeatherRequest("current", "Paris", "success")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.requestsTotal.WithLabelValues("current", "paris", "success")))
	assert.Equal(t, 0, testutil.CollectAndCount(b.requestsTotal))
}

func TestTrackWeatherRequestLowercasesCity(t *testing.T) {
	m := newWeatherMetrics("test")

	m.trackWeatherRequest("current", "PARIS", "success")
	m.trackWeatherRequest("current", "Paris", "success")
	m.trackWeatherRequest("current", "  ", "success")
	m.trackWeatherRequest("forecast", "ÉVORA", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("current", "paris", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("current", "  ", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("forecast", "évora", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.requestsTotal))
}

func TestTrackExternalAPIError(t *testing.T) {
	m := newWeatherMetrics("test")

	m.trackExternalAPIError("connection_error")
	m.trackExternalAPIError("connection_error")
	m.trackExternalAPIError("http_status_error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.externalAPIErrors.WithLabelValues("open-meteo", "connection_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalAPIErrors.WithLabelValues("open-meteo", "http_status_error")))
}

func TestTrackHTTPRequest(t *testing.T) {
	m := newWeatherMetrics("test")

	m.trackHTTPRequest("GET", currentWeatherPath, 503)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsByStatus.WithLabelValues("GET", currentWeatherPath, "503")))
}

func TestUpdateWeatherMetrics(t *testing.T) {
	m := newWeatherMetrics("test")

	m.updateWeatherMetrics("Paris", strPtr("fr"), 18.7, 72)
	m.updateWeatherMetrics("Nicosia", nil, 31.2, 40)

	assert.Equal(t, 18.7, testutil.ToFloat64(m.currentTemperature.WithLabelValues("paris", "FR")))
	assert.Equal(t, 72.0, testutil.ToFloat64(m.currentHumidity.WithLabelValues("paris", "FR")))
	assert.Equal(t, 31.2, testutil.ToFloat64(m.currentTemperature.WithLabelValues("nicosia", "UNKNOWN")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.citiesTracked))

	// A repeat lookup overwrites the reading and does not grow the tracked set.
	m.updateWeatherMetrics("PARIS", strPtr("FR"), 20.1, 65)

	assert.Equal(t, 20.1, testutil.ToFloat64(m.currentTemperature.WithLabelValues("paris", "FR")))
	assert.Equal(t, 65.0, testutil.ToFloat64(m.currentHumidity.WithLabelValues("paris", "FR")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.citiesTracked))
}

func TestUpdateWeatherMetricsConcurrent(t *testing.T) {
	m := newWeatherMetrics("test")
	cities := []string{"paris", "london", "nicosia", "limassol"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.updateWeatherMetrics(cities[i%len(cities)], nil, float64(i), i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, float64(len(cities)), testutil.ToFloat64(m.citiesTracked))
}

func TestScopedTimerObservesOnce(t *testing.T) {
	m := newWeatherMetrics("test")

	timer := m.timeWeatherRequest("current", "Paris")
	first := timer.Stop()
	second := timer.Stop()

	assert.Equal(t, first, second, "repeated Stop must return the first duration")

	count, err := testutil.GatherAndCount(m.registry, "cy_weather_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := m.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "cy_weather_request_duration_seconds" {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
	}
}

func TestTimedStopsOnError(t *testing.T) {
	m := newWeatherMetrics("test")
	timer := m.timeExternalAPICall("/v1/forecast")

	_, err := timed(timer, func() (int, error) {
		return 0, assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	// Stop already ran inside timed, so this must not produce a second sample.
	timer.Stop()

	families, err := m.registry.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() != "cy_weather_external_api_duration_seconds" {
			continue
		}
		found = true
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
	}
	assert.True(t, found, "external API duration family not gathered")
}

func TestTimedStopsOnPanic(t *testing.T) {
	m := newWeatherMetrics("test")
	timer := m.timeWeatherRequest("forecast", "Paris")

	assert.Panics(t, func() {
		_, _ = timed(timer, func() (int, error) {
			panic("boom")
		})
	})

	count, err := testutil.GatherAndCount(m.registry, "cy_weather_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLabelHelpers(t *testing.T) {
	assert.Equal(t, "paris", cityLabel("PaRiS"))
	assert.Equal(t, "  ", cityLabel("  "), "blank city keeps its whitespace")
	assert.Equal(t, "são paulo", cityLabel("SÃO PAULO"))
	assert.Equal(t, "UNKNOWN", countryLabel(nil))
	assert.Equal(t, "UNKNOWN", countryLabel(strPtr("  ")))
	assert.Equal(t, "CY", countryLabel(strPtr("cy")))
}

func TestLabelHelpersInvalidUTF8(t *testing.T) {
	assert.Equal(t, "caf\uFFFD", cityLabel("Caf\xe9"))
	assert.Equal(t, "\uFFFD", cityLabel("\xff"))
	assert.Equal(t, "F\uFFFD", countryLabel(strPtr("f\xff")))
}

func TestInvalidUTF8CityDoesNotPanic(t *testing.T) {
	m := newWeatherMetrics("test")

	assert.NotPanics(t, func() {
		m.timeWeatherRequest("current", "\xff").Stop()
		m.trackWeatherRequest("current", "\xff", "error")
		m.updateWeatherMetrics("Caf\xe9", strPtr("\xff"), 20, 50)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("current", "\uFFFD", "error")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.currentTemperature.WithLabelValues("caf\uFFFD", "\uFFFD")))
}

func TestTimeHTTPRequest(t *testing.T) {
	m := newWeatherMetrics("test")

	m.timeHTTPRequest("GET", forecastPath).Stop()

	count, err := testutil.GatherAndCount(m.registry, "cy_weather_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
