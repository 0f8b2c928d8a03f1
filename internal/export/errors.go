package export

import (
	"errors"
	"fmt"
)

// ErrBundleExists is returned when the bundle directory already exists.
// Every export goes to a fresh directory.
var ErrBundleExists = errors.New("export directory already exists")

// IOError reports one bundle file that could not be written.
type IOError struct {
	// File is the path of the file relative to the bundle directory.
	File string

	Err error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("export %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IOError) Unwrap() error {
	return e.Err
}
