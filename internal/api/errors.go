// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/models"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromDomainError maps conversion-layer errors to API responses. Engine
// stderr never reaches the client; only the error kind and a short summary.
func FromDomainError(err error) *APIError {
	switch models.KindOf(err) {
	case models.ErrKindUnsupportedConversion:
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "UNSUPPORTED_CONVERSION",
			Message: "this conversion is not supported",
		}
	case models.ErrKindAllEnginesFailed:
		var allErr *models.AllEnginesFailedError
		detail := "conversion failed"
		if errors.As(err, &allErr) {
			detail = fmt.Sprintf("all %d conversion engines failed", len(allErr.Attempted))
		}
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "CONVERSION_FAILED",
			Message: detail,
		}
	case models.ErrKindExtractionFailure:
		var pipeErr *models.PipelineError
		msg := "text extraction failed"
		if errors.As(err, &pipeErr) {
			msg = fmt.Sprintf("processing failed at stage: %s", pipeErr.Stage)
		}
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "EXTRACTION_FAILURE",
			Message: msg,
		}
	case models.ErrKindTranslationFailed:
		return NewServiceUnavailableError("translation service unavailable")
	default:
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "CONVERSION_FAILED",
			Message: "conversion failed",
		}
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
		}
	}

	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}
