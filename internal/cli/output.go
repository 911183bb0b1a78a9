package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes. Success is 0.
const (
	ExitFailure      = 1 // a cluster, id, plan or scenario was rejected
	ExitCommandError = 2 // the command could not run (paths, ledger, arguments)
)

// ExitError carries an exit code out of a command's RunE.
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

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// Response is the envelope of all JSON output.
type Response struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is an error code and message. Codes are the E0xx/E1xx
// descriptor codes or an ir.ErrorCode such as NOT_FOUND.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Formatter writes command results as text or JSON.
type Formatter struct {
	Format  string // "text" | "json"
	Out     io.Writer
	Diag    io.Writer // verbose diagnostics; nil means Out
	Verbose bool
}

// JSON reports whether output is JSON.
func (f *Formatter) JSON() bool {
	return f.Format == "json"
}

// Respond writes resp as indented JSON.
func (f *Formatter) Respond(resp Response) error {
	enc := json.NewEncoder(f.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Success writes data as an ok response, or prints it in text mode.
func (f *Formatter) Success(data any) error {
	if f.JSON() {
		return f.Respond(Response{Status: statusOK, Data: data})
	}
	_, err := fmt.Fprintln(f.Out, data)
	return err
}

// Fail reports err under code and returns the ExitError for exit.
func (f *Formatter) Fail(exit int, code string, err error) error {
	if f.JSON() {
		_ = f.Respond(Response{Status: statusError, Error: &CLIError{Code: code, Message: err.Error()}})
	} else {
		fmt.Fprintf(f.Out, "Error [%s]: %v\n", code, err)
	}
	return WrapExitError(exit, code, err)
}

// VerboseLog prints a diagnostic line in verbose mode. Diagnostics go to
// Diag so JSON on Out stays parseable.
func (f *Formatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.Diag
	if w == nil {
		w = f.Out
	}
	fmt.Fprintf(w, format+"\n", args...)
}
