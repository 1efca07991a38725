package main

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind classifies why a weather lookup failed. It decides both the
// external API error label and the HTTP status returned to the client.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureValidation
	FailureNotFound
	FailureUpstreamStatus
	FailureConnection
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureNotFound:
		return "not_found"
	case FailureUpstreamStatus:
		return "upstream_status"
	case FailureConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// errorType is the error_type label used on cy_weather_external_api_errors_total.
func (k FailureKind) errorType() string {
	switch k {
	case FailureNotFound, FailureUpstreamStatus:
		return "http_status_error"
	case FailureConnection:
		return "connection_error"
	default:
		return "unknown_error"
	}
}

// UpstreamError is the only error type returned by the weather client.
type UpstreamError struct {
	Kind       FailureKind
	StatusCode int // upstream HTTP status, set for FailureNotFound and FailureUpstreamStatus
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("open-meteo returned %d %s: %v", e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// failure is a classified upstream failure ready to be recorded and reported.
type failure struct {
	kind   FailureKind
	status int
	err    error
}

// classifyFailure maps any error returned by the weather client onto a
// failure. Errors that are not an *UpstreamError fall into FailureUnknown.
func classifyFailure(err error) failure {
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return failure{kind: FailureUnknown, status: http.StatusInternalServerError, err: err}
	}

	switch upErr.Kind {
	case FailureNotFound:
		return failure{kind: FailureNotFound, status: http.StatusNotFound, err: upErr}
	case FailureUpstreamStatus:
		status := upErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return failure{kind: FailureUpstreamStatus, status: status, err: upErr}
	case FailureConnection:
		return failure{kind: FailureConnection, status: http.StatusInternalServerError, err: upErr}
	default:
		return failure{kind: FailureUnknown, status: http.StatusInternalServerError, err: upErr}
	}
}

// validationFailure wraps a rejected query. It is never recorded on metrics.
func validationFailure(err error) failure {
	return failure{kind: FailureValidation, status: http.StatusUnprocessableEntity, err: err}
}

// message builds the client facing message for f. subject is "weather" or
// "forecast" and city is the name exactly as requested.
func (f failure) message(subject, city string) string {
	switch f.kind {
	case FailureValidation:
		return f.err.Error()
	case FailureNotFound:
		return fmt.Sprintf("City '%s' not found. Check the spelling or add the country code.", city)
	case FailureUpstreamStatus:
		return fmt.Sprintf("Error retrieving %s data: %v", subject, f.err)
	case FailureConnection:
		return fmt.Sprintf("Error connecting to the weather API: %v", f.err)
	default:
		return fmt.Sprintf("Internal server error: %v", f.err)
	}
}
