// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors to status codes and error bodies.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value to encode.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter. The body is
// encoded before the status is written; a payload that cannot be encoded
// becomes a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	var body []byte
	if b.payload != nil {
		var err error
		body, err = json.Marshal(b.payload)
		if err != nil {
			slog.Error("Failed to encode response body",
				log.FieldComponent, log.ComponentHTTP,
				log.FieldStatusCode, b.statusCode,
				log.FieldError, err.Error())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write(internalErrorBody)
			return
		}
		body = append(body, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if body != nil {
		_, _ = w.Write(body)
	}
}

var internalErrorBody = []byte(`{"message":"Internal server error","code":"` + log.ErrorTypeInternal + `"}` + "\n")

// ErrorResponse creates an error response with the given status and body.
func ErrorResponse(statusCode int, body ErrorBody) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(body)
}

// BadRequestError creates a 400 response for malformed input.
func BadRequestError(field, message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, ErrorBody{
		Message: message,
		Field:   field,
		Code:    log.ErrorTypeValidation,
	})
}

// InternalServerError creates a 500 response with a generic message.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, ErrorBody{
		Message: "Internal server error",
		Code:    log.ErrorTypeInternal,
	})
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, ErrorBody{
		Message: "Rate limit exceeded. Please try again later.",
		Code:    log.ErrorTypeRateLimit,
	})
}

// FromError maps a service error to a response. A missing record is a 500
// with its own code, matching the published API contract.
func FromError(err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return BadRequestError(verr.Field, verr.Message)
	case core.IsNotFound(err):
		return ErrorResponse(http.StatusInternalServerError, ErrorBody{
			Message: "Transaction not found",
			Code:    log.ErrorTypeNotFound,
		})
	default:
		return InternalServerError()
	}
}

// errorType classifies err for log fields.
func errorType(err error) string {
	switch {
	case core.IsValidation(err):
		return log.ErrorTypeValidation
	case core.IsNotFound(err):
		return log.ErrorTypeNotFound
	default:
		return log.ErrorTypeInternal
	}
}
