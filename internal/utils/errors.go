package utils

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks failures caused by caller input rather than the service.
var ErrInvalidArgument = errors.New("invalid argument")

// AppError tags a failure with the operation that raised it and a caller-facing message.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// Invalid reports bad input for op. The result matches both ErrInvalidArgument and err under errors.Is.
func Invalid(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Op: op, Msg: "invalid request", Err: fmt.Errorf("%w: %w", ErrInvalidArgument, err)}
}

// IsInvalid reports whether err was produced by Invalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
