package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the workflow distinguishes.
var (
	// ErrConfiguration indicates a required capability or backend was
	// missing or invalid at startup. Fatal for initialization.
	ErrConfiguration = errors.New("configuration error")

	// ErrCapability indicates an external capability call (completion,
	// vector search) failed and no safe fallback existed at the stage
	// that issued it.
	ErrCapability = errors.New("capability failure")

	// ErrStepBudget indicates the workflow exceeded its stage-transition
	// ceiling. Fatal for the query, never retried.
	ErrStepBudget = errors.New("step budget exceeded")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")
)

// Capability wraps err as a capability failure, naming the capability that failed.
func Capability(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCapability, name, err)
}

// Configuration wraps err as a configuration error.
func Configuration(component string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrConfiguration, component, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
