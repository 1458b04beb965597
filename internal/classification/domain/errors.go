package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound means the classification row no longer exists
var ErrNotFound = errors.New("classification not found")

// ErrNoUpdates means a write was attempted with no field changes
var ErrNoUpdates = errors.New("no field updates supplied")

// VersionConflictError reports a rejected conditional write. The record
// changed concurrently; Current carries the store's latest copy so the
// caller can offer overwrite/accept resolutions.
type VersionConflictError struct {
	Current *Classification
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: classification %d is at version %d", e.Current.ID, e.Current.Version)
}

// RemoteQueryError wraps a transport or database failure. Recoverable by
// user-initiated retry; never retried internally.
type RemoteQueryError struct {
	Op  string
	Err error
}

func (e *RemoteQueryError) Error() string {
	return fmt.Sprintf("remote query failed (%s): %v", e.Op, e.Err)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// ValidationError reports a value outside a field's closed enumeration
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q", e.Value, e.Field)
}
