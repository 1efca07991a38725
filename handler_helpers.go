package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// weatherQuery holds the validated query parameters shared by the weather
// endpoints. CountryCode is nil when country_code was not sent at all.
type weatherQuery struct {
	City        string  `query:"city" validate:"required,min=1"`
	CountryCode *string `query:"country_code" validate:"omitempty,max=2"`
}

// newQueryValidator returns a validator that reports fields by their query
// parameter name.
func newQueryValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// parseWeatherQuery extracts and validates city and country_code. The
// returned error message is safe to send to the client.
func (cfg *apiConfig) parseWeatherQuery(r *http.Request) (weatherQuery, error) {
	values := r.URL.Query()
	query := weatherQuery{City: values.Get("city")}
	if values.Has("country_code") {
		cc := values.Get("country_code")
		query.CountryCode = &cc
	}

	if err := cfg.validate.Struct(query); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return weatherQuery{}, fmt.Errorf("validation failed: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return weatherQuery{}, fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}
	return query, nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("query parameter '%s' is required", fe.Field())
	case "min":
		return fmt.Sprintf("query parameter '%s' must have at least %s character(s)", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("query parameter '%s' must have at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("query parameter '%s' is invalid", fe.Field())
	}
}

// serveWeather runs the request pipeline shared by the weather endpoints:
// validate, fetch inside a timed scope, record the outcome, respond.
// onSuccess runs after the success counter and before the response is written.
func serveWeather[T any](
	cfg *apiConfig,
	w http.ResponseWriter,
	r *http.Request,
	endpoint, subject string,
	fetch func(ctx context.Context, city string, countryCode *string) (T, error),
	onSuccess func(T),
) {
	if r.Method != http.MethodGet {
		cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
		return
	}

	query, err := cfg.parseWeatherQuery(r)
	if err != nil {
		f := validationFailure(err)
		cfg.logger.Debug("weather request rejected", "endpoint", endpoint, "error", err)
		cfg.respondWithError(w, f.status, f.message(subject, ""), nil)
		return
	}
	cfg.logger.Debug("weather request", "endpoint", endpoint, "city", query.City)

	// The upstream call is allowed to finish even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())

	timer := cfg.metrics.timeWeatherRequest(endpoint, query.City)
	result, err := timed(timer, func() (T, error) {
		return fetch(ctx, query.City, query.CountryCode)
	})
	if err != nil {
		cfg.respondWithFailure(w, endpoint, subject, query.City, err)
		return
	}

	cfg.metrics.trackWeatherRequest(endpoint, query.City, "success")
	if onSuccess != nil {
		onSuccess(result)
	}
	cfg.respondWithJSON(w, http.StatusOK, result)
}

// respondWithFailure classifies err, records the two failure metrics and
// writes the mapped error response.
func (cfg *apiConfig) respondWithFailure(w http.ResponseWriter, endpoint, subject, city string, err error) {
	f := classifyFailure(err)

	cfg.metrics.trackWeatherRequest(endpoint, city, "error")
	cfg.metrics.trackExternalAPIError(f.kind.errorType())

	cfg.logger.Warn("weather lookup failed",
		"endpoint", endpoint,
		"city", city,
		"kind", f.kind.String(),
		"status", f.status,
		"error", f.err,
	)
	// Already logged above; respondWithError only writes the body.
	cfg.respondWithError(w, f.status, f.message(subject, city), nil)
}
