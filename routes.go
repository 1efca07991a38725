package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes registers every endpoint and wraps the mux in the middleware chain.
func (cfg *apiConfig) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(healthPath, cfg.handlerHealth)
	mux.HandleFunc(configPath, cfg.handlerConfig)
	mux.HandleFunc(currentWeatherPath, cfg.handlerCurrentWeather)
	mux.HandleFunc(forecastPath, cfg.handlerForecast)
	mux.Handle(metricsPath, promhttp.HandlerFor(cfg.metrics.registry, promhttp.HandlerOpts{
		Registry: cfg.metrics.registry,
	}))

	return corsMiddleware(cfg.requestLogMiddleware(cfg.metricsMiddleware(mux)))
}
