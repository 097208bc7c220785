package entities

import (
	"errors"
	"fmt"
)

// Common domain errors.
var (
	ErrMissingQuery         = errors.New("query field is required")
	ErrTenantConfigNotFound = errors.New("tenant config not found")
	ErrCollectionExists     = errors.New("collection already exists")
	ErrInvalidRules         = errors.New("invalid routing rules")
)

// ValidationError reports a malformed inbound request.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
