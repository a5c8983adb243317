package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrMissingTenant   = errors.New("no tenant bound to request")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrVersionConflict is returned by a conditional write that lost to a
	// concurrent writer. Retryable: re-read and try again.
	ErrVersionConflict = errors.New("optimistic lock conflict")

	// ErrConcurrentModification is the terminal form of ErrVersionConflict,
	// reported once the retry ceiling is exhausted.
	ErrConcurrentModification = errors.New("concurrent modification, retries exhausted")
)

// InsufficientStockError rejects an adjustment that would drive the stock
// quantity negative. Terminal: the engine never retries it.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

// ProvisioningError wraps a failure to create or migrate a tenant schema.
// The tenant registry row already exists when this is returned; provisioning
// is idempotent and can be re-run to reach a consistent state.
type ProvisioningError struct {
	Schema string
	Err    error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning schema %s: %v", e.Schema, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
