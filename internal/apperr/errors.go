package apperr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
)

// ErrConsumerDisconnected is returned when the reader of standard output
// went away before all rows were written.
var ErrConsumerDisconnected = errors.New("output consumer disconnected")

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file %q not found", e.Path)
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// ColumnNotFoundError reports a requested column that is absent from the header row.
type ColumnNotFoundError struct {
	Column  string
	Headers []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in CSV headers: %q", e.Column, e.Headers)
}

// IsConsumerDisconnected reports whether err means the downstream reader closed its end.
func IsConsumerDisconnected(err error) bool {
	return errors.Is(err, ErrConsumerDisconnected) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe)
}

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps a run error to a process exit status.
// Interruption and consumer disconnection are expected and exit cleanly.
func ExitCode(err error) int {
	if err == nil || IsConsumerDisconnected(err) || errors.Is(err, context.Canceled) {
		return ExitOK
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ExitUsage
	}

	return ExitFailure
}
