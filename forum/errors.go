package forum

import (
	"errors"
	"fmt"
)

// ErrNotFound means the id no longer resolves to anything on the forum.
var ErrNotFound = errors.New("forum: reply not found")

// TransientError wraps a transport-level failure that is safe to retry on a
// later pass. Callers treat it as local to the item being fetched.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("forum: transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable transport failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
