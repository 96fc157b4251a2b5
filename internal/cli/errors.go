// Package cli provides shared configuration and utilities for the sqlast CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitConfig     = 2
	ExitOperation  = 3
	ExitDBConnect  = 4
	ExitInvalidSQL = 5
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode prints err to w and returns the process exit code for it.
func ExitCode(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_, _ = fmt.Fprintln(w, "Error:", exitErr.Error())
		return exitErr.Code
	}
	_, _ = fmt.Fprintln(w, "Error:", err)
	return ExitGeneral
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// OperationError creates an ExitError with ExitOperation code, for
// operation documents that cannot be read, parsed or built.
func OperationError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitOperation, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// InvalidSQLError creates an ExitError with ExitInvalidSQL code.
func InvalidSQLError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitInvalidSQL, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}
