package errors

import (
	"fmt"
)

// DriverError is the error interface returned by the volume engine. It wraps
// a named FatError sentinel so callers can still match on it with errors.Is
// after WithMessage/Wrap has attached command-specific context.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	Wrap(err error) DriverError
}

type customDriverError struct {
	message  string
	sentinel error
	cause    error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:  fmt.Sprintf("%s: %s", e.message, message),
		sentinel: e.sentinel,
		cause:    e.cause,
	}
}

func (e customDriverError) Wrap(err error) DriverError {
	return customDriverError{
		message:  fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		sentinel: e.sentinel,
		cause:    err,
	}
}

// Unwrap lets errors.Is/errors.As see both the FatError sentinel this error
// was derived from and any underlying cause passed to Wrap.
func (e customDriverError) Unwrap() []error {
	switch {
	case e.sentinel == nil:
		return []error{e.cause}
	case e.cause == nil:
		return []error{e.sentinel}
	default:
		return []error{e.sentinel, e.cause}
	}
}
