package server

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rileyhilliard/serialmon/internal/errors"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 error.
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

// NewNotFoundError creates a 404 error.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewDeviceError maps a connection manager error onto a 502, keeping the
// structured error's code and suggestion.
func NewDeviceError(err error) *APIError {
	apiErr := &APIError{
		Status:  http.StatusBadGateway,
		Code:    "DEVICE_ERROR",
		Message: errors.Summarize(err),
	}
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		apiErr.Code = structured.Code
		apiErr.Details = structured.Suggestion
	}
	return apiErr
}

// NewInternalError creates a 500 error.
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

// ErrorHandler renders every error as an APIError.
// Usage: e.HTTPErrorHandler = ErrorHandler
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
		apiErr = NewInternalError("An unexpected error occurred", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
