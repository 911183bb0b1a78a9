package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes identifier errors.
type ErrorCode string

const (
	// ErrCodeConfig indicates malformed or contradictory initialization input.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeNotFound indicates a lookup of an unregistered machine or thread.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeFatal indicates the plan exceeds the fixed-width id capacity.
	ErrCodeFatal ErrorCode = "FATAL"

	// ErrCodeFrozen indicates a mutation after the plan was frozen.
	ErrCodeFrozen ErrorCode = "FROZEN"
)

// NoMachine and NoThread mark IDError fields that do not apply.
const (
	NoMachine MachineID = -1
	NoThread  ThreadID  = -1
)

// IDError is the single error type returned by the identifier components.
//
// None of these errors are transient: every operation is deterministic
// in-memory arithmetic, so callers must not retry.
type IDError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Field names the offending input or id field, if any.
	Field string

	// MachineID is the affected machine, or NoMachine.
	MachineID MachineID

	// ThreadID is the affected thread, or NoThread.
	ThreadID ThreadID
}

// Error implements the error interface.
func (e *IDError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	switch {
	case e.MachineID != NoMachine && e.ThreadID != NoThread:
		return fmt.Sprintf("%s (machine=%d, thread=%d)", msg, e.MachineID, e.ThreadID)
	case e.MachineID != NoMachine:
		return fmt.Sprintf("%s (machine=%d)", msg, e.MachineID)
	}
	return msg
}

// NewConfigError creates an IDError for bad initialization input.
func NewConfigError(field, format string, args ...any) *IDError {
	return &IDError{
		Code:      ErrCodeConfig,
		Message:   fmt.Sprintf(format, args...),
		Field:     field,
		MachineID: NoMachine,
		ThreadID:  NoThread,
	}
}

// NewNotFoundError creates an IDError for an unregistered lookup.
func NewNotFoundError(field, format string, args ...any) *IDError {
	return &IDError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf(format, args...),
		Field:     field,
		MachineID: NoMachine,
		ThreadID:  NoThread,
	}
}

// NewFatalError creates an IDError for a field-width or counter overflow.
func NewFatalError(field string, machine MachineID, thread ThreadID, format string, args ...any) *IDError {
	return &IDError{
		Code:      ErrCodeFatal,
		Message:   fmt.Sprintf(format, args...),
		Field:     field,
		MachineID: machine,
		ThreadID:  thread,
	}
}

// NewFrozenError creates an IDError for a mutation after Freeze.
func NewFrozenError(op string) *IDError {
	return &IDError{
		Code:      ErrCodeFrozen,
		Message:   fmt.Sprintf("%s called after the plan was frozen", op),
		MachineID: NoMachine,
		ThreadID:  NoThread,
	}
}

// CodeOf returns the ErrorCode of err, or "" if err is not an IDError.
func CodeOf(err error) ErrorCode {
	var ie *IDError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// IsConfigError returns true if err is a configuration error.
func IsConfigError(err error) bool { return CodeOf(err) == ErrCodeConfig }

// IsNotFound returns true if err is a lookup failure.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsFatal returns true if err reports an id capacity overflow.
func IsFatal(err error) bool { return CodeOf(err) == ErrCodeFatal }

// IsFrozen returns true if err reports a mutation after Freeze.
func IsFrozen(err error) bool { return CodeOf(err) == ErrCodeFrozen }
