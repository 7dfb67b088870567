package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is a routing signal, not a failure: no draft at the expected
// pointer means the caller redirects to the start of onboarding.
var ErrNotFound = errors.New("not found")

// PersistenceError wraps a local store read/write failure. Recoverable: the
// session surfaces it as a dismissible notice and keeps running on in-memory
// state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// RemoteSaveError wraps a rejected write to the property service. Message
// carries the server-provided text where available so screens can show it
// inline; local state is retained for retry.
type RemoteSaveError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteSaveError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote save: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("remote save: %s: %v", e.Op, e.Err)
}

func (e *RemoteSaveError) Unwrap() error { return e.Err }
