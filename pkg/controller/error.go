// Package controller holds the HTTP request parsing and response helpers
// shared by the public API handlers.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mentneo/mentmine/pkg/observability/logger"
	"github.com/mentneo/mentmine/pkg/query"
)

// AppError is an error that carries its own HTTP status and client-safe message.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// ErrorResponse represents the consistent error response format.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewValidationError creates a 400 error for a malformed request parameter.
func NewValidationError(code, message string, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// MapError maps an error to a status and response body.
// Store failures never leak their cause to the client.
func MapError(ctx context.Context, err error) (int, ErrorResponse) {
	requestID := logger.RequestIDFromContext(ctx)

	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ErrorResponse{
			Error:     errorCategory(status),
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: requestID,
			Details:   appErr.Details,
		}
	case errors.Is(err, query.ErrInvalidConfig):
		return http.StatusBadRequest, ErrorResponse{
			Error:     errorCategory(http.StatusBadRequest),
			Code:      "query.invalid",
			Message:   err.Error(),
			RequestID: requestID,
		}
	case errors.Is(err, query.ErrDataAccess):
		return http.StatusBadGateway, ErrorResponse{
			Error:     errorCategory(http.StatusBadGateway),
			Code:      "store.unavailable",
			Message:   "the content store could not be read",
			RequestID: requestID,
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:     errorCategory(http.StatusInternalServerError),
			Message:   "an unexpected error occurred",
			RequestID: requestID,
		}
	}
}

func errorCategory(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadGateway:
		return "upstream_error"
	default:
		if status >= 500 {
			return "internal_server_error"
		}
		return "application_error"
	}
}
