package helper

import "fmt"

// NewError wraps err with the failing operation so callers up the stack
// see where a database or pipeline call went wrong
func NewError(context string, err error) error {
	return fmt.Errorf("error in %s: %w", context, err)
}
