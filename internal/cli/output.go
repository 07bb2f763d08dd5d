package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ledgerbook/internal/domain"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // business rule rejected the operation
	ExitCommandError = 2 // bad flags, unreadable database
)

// ExitError carries the process exit code for a failed command.
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

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Storage failures exit
// with ExitCommandError, everything else with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, domain.ErrStorage) {
		return ExitCommandError
	}
	return ExitFailure
}

// Output renders command results as text or JSON.
type Output struct {
	Format string
	Writer io.Writer
}

type response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success writes data; text mode prints the lines from text instead.
func (o *Output) Success(data any, text func(w io.Writer)) error {
	if o.Format == "json" {
		return json.NewEncoder(o.Writer).Encode(response{Status: "ok", Data: data})
	}
	text(o.Writer)
	return nil
}

func (o *Output) Fail(err error) {
	if o.Format == "json" {
		_ = json.NewEncoder(o.Writer).Encode(response{Status: "error", Error: err.Error()})
		return
	}
	fmt.Fprintf(o.Writer, "Error: %v\n", err)
}
