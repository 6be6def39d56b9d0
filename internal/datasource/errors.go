package datasource

import (
	"errors"
	"fmt"
)

// ErrSuppressed is returned for resources that have no mock counterpart
// (pods, deployment logs) while the canned dataset is active.
var ErrSuppressed = errors.New("not available while using mock data")

// FetchFailed reports a failed read of one resource. Prior data held by
// the caller must be left in place.
type FetchFailed struct {
	Resource Resource
	Cause    error
}

func (e *FetchFailed) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Resource, e.Cause)
}

func (e *FetchFailed) Unwrap() error {
	return e.Cause
}
