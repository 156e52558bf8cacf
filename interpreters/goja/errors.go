package goja

import (
	"errors"
	"fmt"
)

// ErrUnknownState is reported when a state name isn't in a Library.
var ErrUnknownState = errors.New("unknown state")

// StateError reports a problem with a named state.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %q: %s", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}
