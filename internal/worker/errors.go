// Package worker provides the HTTP worker service for medialens.
package worker

import (
	"errors"
	"net/http"

	"github.com/thebtf/medialens/internal/analyze"
	"github.com/thebtf/medialens/internal/ingest"
)

// errNoInference is reported when an endpoint needs the inference
// service and none is configured.
var errNoInference = errors.New("inference service not configured")

// apiError is the wire shape for every error response. Status selects
// the HTTP code; the body carries code/error plus optional detail.
// Diagnostic detail is included deliberately: this is an operator-facing
// service, not a public one.
type apiError struct {
	Status     int      `json:"-"`
	Code       string   `json:"code"`
	Message    string   `json:"error"`
	Fields     []string `json:"fields,omitempty"`
	RetryAfter int      `json:"retryAfter,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

func errValidation(message string, fields []string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: "validation_error", Message: message, Fields: fields}
}

func errAuthMissing() *apiError {
	return &apiError{Status: http.StatusUnauthorized, Code: "auth_missing", Message: "missing X-API-Key header"}
}

func errAuthInvalid() *apiError {
	return &apiError{Status: http.StatusForbidden, Code: "auth_invalid", Message: "invalid API key"}
}

func errRateLimited(retryAfter int) *apiError {
	return &apiError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "rate limit exceeded", RetryAfter: retryAfter}
}

func errNotFound(message string) *apiError {
	return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: message}
}

func errUpstream(err error) *apiError {
	return &apiError{Status: http.StatusBadGateway, Code: "upstream_error", Message: err.Error()}
}

func errInternal(err error) *apiError {
	return &apiError{Status: http.StatusInternalServerError, Code: "internal_error", Message: err.Error()}
}

// mapError converts domain errors into the HTTP taxonomy.
func mapError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validation *ingest.ValidationError
	if errors.As(err, &validation) {
		return errValidation("invalid request", validation.Fields)
	}

	if errors.Is(err, analyze.ErrImageNotFound) {
		return errNotFound(err.Error())
	}

	var upstream *analyze.UpstreamError
	if errors.As(err, &upstream) {
		return errUpstream(err)
	}

	return errInternal(err)
}

// writeError renders an apiError response.
func writeError(w http.ResponseWriter, apiErr *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	writeBody(w, apiErr)
}
