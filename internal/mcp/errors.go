package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/taskdeck/internal/dataservice"
	"github.com/ganot/taskdeck/internal/domain/client"
	"github.com/ganot/taskdeck/internal/domain/profile"
	"github.com/ganot/taskdeck/internal/domain/task"
)

var (
	// ErrMethodNotFound is returned for unknown JSON-RPC methods.
	ErrMethodNotFound = errors.New("method not found")
	// ErrInvalidParams is returned when params cannot be decoded.
	ErrInvalidParams = errors.New("invalid params")
)

// APIError represents a domain error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain and data service errors to stable error codes. It
// returns nil for errors without a mapping.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, profile.ErrNoSession):
		return &APIError{Code: "NO_SESSION", Message: "no authenticated session", RecoveryHint: "Authenticate with a bearer token"}
	case errors.Is(err, profile.ErrProfileNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "profile not found", RecoveryHint: "Provision the user with apikey add"}
	case errors.Is(err, task.ErrTaskNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "task not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, client.ErrClientNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "client not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, dataservice.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "row not found"}
	case errors.Is(err, task.ErrInvalidInput),
		errors.Is(err, client.ErrInvalidInput),
		errors.Is(err, profile.ErrInvalidInput),
		errors.Is(err, dataservice.ErrUnknownColumn):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, dataservice.ErrConstraint):
		return &APIError{Code: "CONSTRAINT_VIOLATION", Message: "write rejected by a data constraint", Details: err.Error(), RecoveryHint: "Check referenced ids and enum values"}
	case errors.Is(err, dataservice.ErrUnavailable):
		return &APIError{Code: "UNAVAILABLE", Message: "data service unavailable", RecoveryHint: "Retry later"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
