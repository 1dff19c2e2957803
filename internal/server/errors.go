// Package server provides the HTTP API for the career-coach service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/documents"
	"github.com/jonathan/career-coach/internal/flows"
	"github.com/jonathan/career-coach/internal/jobs"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrUserNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	}

	var (
		validationErr  *flows.ValidationError
		generationErr  *flows.GenerationError
		configErr      *jobs.ConfigurationError
		upstreamErr    *jobs.UpstreamError
		documentErr    *documents.Error
		unsupportedErr *documents.UnsupportedTypeError
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validationErr), errors.As(err, &documentErr), errors.Is(err, db.ErrResetTokenInvalid):
		return http.StatusBadRequest
	case errors.As(err, &unsupportedErr):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, flows.ErrUnknownFlow):
		return http.StatusNotFound
	case errors.As(err, &configErr):
		return http.StatusPreconditionFailed
	case errors.As(err, &generationErr), errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the JSON error document for err. Model and upstream
// failures get a fixed message so provider details are not leaked to callers.
func errorBody(err error) map[string]any {
	var (
		validationErr *flows.ValidationError
		generationErr *flows.GenerationError
		configErr     *jobs.ConfigurationError
		upstreamErr   *jobs.UpstreamError
	)
	switch {
	case errors.As(err, &configErr):
		return map[string]any{"error": "setup_required", "missing": configErr.Missing}
	case errors.As(err, &validationErr):
		return map[string]any{"error": "invalid_input", "flow": validationErr.Flow, "fields": validationErr.Fields}
	case errors.As(err, &generationErr):
		return map[string]any{"error": "generation_failed", "flow": generationErr.Flow,
			"message": "The model response could not be used. Please try again."}
	case errors.As(err, &upstreamErr):
		body := map[string]any{"error": "upstream_unavailable", "message": "Job search is temporarily unavailable."}
		if upstreamErr.StatusCode != 0 {
			body["upstream_status"] = upstreamErr.StatusCode
		}
		return body
	}

	if HTTPStatus(err) == http.StatusInternalServerError {
		return map[string]any{"error": "internal_error"}
	}
	return map[string]any{"error": err.Error()}
}
