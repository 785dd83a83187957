package audit

import (
	"fmt"
	"strings"
)

// validateID checks that an identifier is a strictly positive integer.
// Violations fail before any I/O is attempted.
func validateID(id int64, name string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s must be a positive integer", ErrInvalidArgument, name)
	}
	return nil
}

// validateNonEmpty checks that a required string is non-empty after trimming.
func validateNonEmpty(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidArgument, name)
	}
	return nil
}
