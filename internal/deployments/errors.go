package deployments

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record matches a (name, namespace) key.
var ErrNotFound = errors.New("deployment not found")

// Operation names a store mutation.
type Operation string

const (
	OpCreate Operation = "create"
	OpDelete Operation = "delete"
)

// MutationFailed reports a create or delete whose I/O failed. The store is
// left in its prior state.
type MutationFailed struct {
	Operation Operation
	Cause     error
}

func (e *MutationFailed) Error() string {
	return fmt.Sprintf("%s deployment: %v", e.Operation, e.Cause)
}

func (e *MutationFailed) Unwrap() error {
	return e.Cause
}

// ValidationFailed reports a spec rejected before any request was sent.
type ValidationFailed struct {
	Field  string
	Reason string
}

func (e *ValidationFailed) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
