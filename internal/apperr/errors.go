package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	ErrRender      = errors.New("render failure")
	ErrPrint       = errors.New("print failure")
)

// Error carries one of the sentinel kinds above together with the operation that
// failed and a message that can be shown to the cashier as-is.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Conflict(op, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a driver or query error with the operation name.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: ErrPersistence, Op: op, Message: "database error", Err: err}
}

func Render(op string, err error) error {
	return &Error{Kind: ErrRender, Op: op, Message: "failed to render document", Err: err}
}

func Print(op string, err error) error {
	return &Error{Kind: ErrPrint, Op: op, Message: "failed to print", Err: err}
}

// Message returns the user-facing message of err, falling back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}

// OpOf returns the operation name recorded on err, if any.
func OpOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Op
	}
	return ""
}
