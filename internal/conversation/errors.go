package conversation

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for operations on an unknown conversation id.
// It indicates a caller-side programming error, not a transient condition.
var ErrNotFound = errors.New("conversation not found")

// StoreError wraps a failed store operation with its context. Any
// StoreError that is not ErrNotFound means durable persistence failed.
type StoreError struct {
	Op   string // operation name
	Path string // file path involved
	Err  error  // underlying error
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("conversation store [%s] path=%s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("conversation store [%s]: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(op, path string, err error) *StoreError {
	return &StoreError{Op: op, Path: path, Err: err}
}

// IsNotFound reports whether err is a missing-conversation error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
