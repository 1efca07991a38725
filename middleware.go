package main

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// This file contains the HTTP middleware functions used by the application.
// Middleware are handlers that wrap other handlers to provide cross-cutting
// functionality like logging, metrics, and CORS.

// instrumentedPaths are the routes recorded by metricsMiddleware. /metrics,
// /api/health and /api/config are left out, and so are unknown paths to keep
// label cardinality bounded.
var instrumentedPaths = map[string]bool{
	currentWeatherPath: true,
	forecastPath:       true,
}

// responseWriter is a wrapper around http.ResponseWriter that allows us to capture
// the HTTP status code written to the response. This is essential for metrics,
// as the standard ResponseWriter interface doesn't expose the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	// Default to 200 OK if WriteHeader is not called.
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before calling the underlying ResponseWriter's method.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// metricsMiddleware records the status code and latency of every instrumented
// response and tracks in-flight requests.
func (cfg *apiConfig) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !instrumentedPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		inProgress := cfg.metrics.httpRequestsInProgress.WithLabelValues(r.Method, r.URL.Path)
		inProgress.Inc()
		defer inProgress.Dec()

		timer := cfg.metrics.timeHTTPRequest(r.Method, r.URL.Path)
		defer timer.Stop()

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		cfg.metrics.trackHTTPRequest(r.Method, r.URL.Path, rw.statusCode)
	})
}

// requestLogMiddleware tags each request with an X-Request-ID (reusing the
// caller's when present) and writes one access log line per request.
func (cfg *apiConfig) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		cfg.logger.Info("request served",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware is a wrapping handler that allows cross-origin requests from
// any domain. OPTIONS requests are answered here and never reach the mux.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			} else {
				w.Header().Set("Access-Control-Allow-Headers", "*")
			}
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsTransport is a client-side middleware observing the latency of every
// outbound call on cy_weather_external_api_duration_seconds, failed calls included.
type metricsTransport struct {
	wrapped http.RoundTripper
	metrics *weatherMetrics
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	timer := t.metrics.timeExternalAPICall(req.URL.Path)
	defer timer.Stop()
	return t.wrapped.RoundTrip(req)
}
