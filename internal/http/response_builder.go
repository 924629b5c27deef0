// Package http serves the budgeting API.
//
// This file implements the builder used to write JSON responses and the
// single mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"anggaran/internal/core"
	"anggaran/internal/ledger"
	applog "anggaran/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
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

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorEnvelope{Error: ErrorBody{Code: code, Message: message}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", "internal server error")
}

// errorFor maps a domain error to its response.
func errorFor(err error) *JSONResponseBuilder {
	var (
		validation *core.ValidationError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation):
		b := ErrorResponse(http.StatusUnprocessableEntity, "validation", err.Error())
		b.body = errorEnvelope{Error: ErrorBody{Code: "validation", Message: err.Error(), Field: validation.Field}}
		return b
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrInUse):
		return ErrorResponse(http.StatusConflict, "in_use", err.Error())
	case errors.Is(err, core.ErrInsufficientFunds):
		return ErrorResponse(http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, core.ErrImport):
		return ErrorResponse(http.StatusBadRequest, "import_rejected", err.Error())
	case errors.Is(err, ledger.ErrUndoExpired):
		return ErrorResponse(http.StatusGone, "undo_expired", err.Error())
	case errors.Is(err, ledger.ErrUndoUsed):
		return ErrorResponse(http.StatusConflict, "undo_used", err.Error())
	case errors.As(err, &tooLarge):
		return ErrorResponse(http.StatusRequestEntityTooLarge, "too_large", "request body too large")
	case errors.Is(err, errMalformedBody):
		return BadRequestError(err.Error())
	default:
		return InternalServerError()
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	b := errorFor(err)
	if b.statusCode >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
	}
	b.Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
