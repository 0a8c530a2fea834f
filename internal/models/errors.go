package models

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced plan, day or exercise id does not
// resolve. Callers recover locally (empty state), it is not a failure of the
// store itself.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ValidationError reports malformed input to a create or update operation.
// It is raised before any storage call and carries a field-level message.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Msg)
}

// PersistenceError wraps a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// StateError reports an operation invoked in the wrong session state. It is
// a contract violation by the caller; the session is left unchanged.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStateError reports whether err is (or wraps) a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
