package audit

import (
	"errors"
	"fmt"
)

// Domain errors for the audit package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, audit.ErrInvalidArgument) {
//	    // reject the input, nothing was written
//	}
var (
	// ErrInvalidArgument is returned when a write is rejected before any I/O:
	// non-positive identifiers or empty required strings.
	ErrInvalidArgument = errors.New("audit: invalid argument")

	// ErrRunNotFound is returned when finalising a run that does not exist.
	ErrRunNotFound = errors.New("audit: run not found")

	// ErrAlreadyFinalized is returned when finalising a run a second time.
	ErrAlreadyFinalized = errors.New("audit: run already finalized")
)

// StorageError reports a failure at the persistence layer during a
// transactional write. The transaction has been rolled back and the
// underlying cause is retained for unwrapping.
type StorageError struct {
	// Op is the logical operation that failed (e.g. "start_section").
	Op string

	// RecordID is the identifier the operation was acting on, or zero
	// when the record had not been assigned one yet.
	RecordID int64

	// Err is the underlying storage failure.
	Err error
}

// Error formats the failure with enough context to diagnose without
// inspecting the store directly.
func (e *StorageError) Error() string {
	if e.RecordID > 0 {
		return fmt.Sprintf("audit: %s failed for id %d: %v", e.Op, e.RecordID, e.Err)
	}
	return fmt.Sprintf("audit: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}
