// Package errorutil has the tiny error-wrapping helpers the rest of the
// module annotates failures with.
package errorutil

import "fmt"

// Wrap gives err a short context prefix while keeping it matchable with
// errors.Is and errors.As.
func Wrap(err error, msg string) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a format string for the prefix.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
