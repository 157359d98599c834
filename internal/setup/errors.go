package setup

import (
	"errors"
	"fmt"

	"prosocial/zen-core/internal/constants"
)

// ValidationError signals malformed rule configuration or a dependency
// cycle. It is raised before any evaluation work happens.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// DataAccessError signals that the tenant does not exist or the store
// stayed unreachable after exhausting retries
type DataAccessError struct {
	Code    string
	Message string
	Err     error
}

func (e *DataAccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// NewNotFoundError builds the DataAccessError for an unknown studio slug
func NewNotFoundError(slug string) *DataAccessError {
	return &DataAccessError{
		Code:    constants.ErrCodeStudioNotFound,
		Message: fmt.Sprintf("studio not found: %s", slug),
	}
}

// NewStoreError builds the DataAccessError for an unreachable store
func NewStoreError(op string, err error) *DataAccessError {
	return &DataAccessError{
		Code:    constants.ErrCodeStoreUnreachable,
		Message: fmt.Sprintf("data store unavailable during %s", op),
		Err:     err,
	}
}

// IsNotFound reports whether err is the unknown-tenant case
func IsNotFound(err error) bool {
	var dae *DataAccessError
	return errors.As(err, &dae) && dae.Code == constants.ErrCodeStudioNotFound
}
