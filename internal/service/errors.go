package service

import (
	"fmt"

	"designmart/internal/repository"
)

// ValidationError reports malformed caller input. It is terminal: the caller
// must fix the field, not retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// storageErr tags transport-level database failures as
// repository.ErrStorageUnavailable so callers can tell the one retryable
// class apart from data-shaped errors, which pass through untouched.
func storageErr(err error) error {
	if repository.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", repository.ErrStorageUnavailable, err)
	}
	return err
}
