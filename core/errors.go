package core

import "github.com/pkg/errors"

// FieldError attaches an error message to a specific request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field errors that the HTTP error handler
// renders as a field map. With no fields, Err alone is surfaced.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdownError marks an integrity failure the server cannot recover from.
type shutdownError struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (err shutdownError) Error() string {
	return err.message
}

// IsShutdown reports whether err, at its cause, requires a graceful
// server shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
