// Package services is the upward interface of studioflow: artifact
// production, workflow orchestration and monetization planning behind one
// facade.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/studioflow/pkg/persistence"
)

var (
	// ErrInvalidRequest marks client errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyBatch is returned for a batch without items.
	ErrEmptyBatch = errors.New("batch must contain at least one config")

	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrEmptyBatch)
}

// IsWorkflowNotFound checks if an error should return HTTP 404.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %w", ErrInvalidRequest, err),
	}
}
