package persist

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSchema is returned when a session carries a schema kind the
// writer does not know.
var ErrUnsupportedSchema = errors.New("unsupported schema kind")

// SerializationError reports data that could not be encoded. The target file
// is left untouched.
type SerializationError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SerializationError) Unwrap() error {
	return e.Err
}

// AtomicWriteError reports a failed temporary-file write or swap. The target
// file is left untouched and the temporary file is removed.
type AtomicWriteError struct {
	// Path is the target file.
	Path string

	// Op names the failed step ("create", "write", "rename" and so on).
	Op string

	Err error
}

// Error implements the error interface.
func (e *AtomicWriteError) Error() string {
	return fmt.Sprintf("atomic write of %s failed at %s: %v", e.Path, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AtomicWriteError) Unwrap() error {
	return e.Err
}
