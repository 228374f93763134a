package helper

import "fmt"

// NewError wraps an error with the operation that failed.
// The context should name the operation, e.g. "build registry" or "scan".
func NewError(context string, err error) error {
	return fmt.Errorf("error in %s: %w", context, err)
}
