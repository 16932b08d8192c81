package main

import "fmt"

// Exit codes for the mztab CLI.
const (
	ExitOK      = 0 // Every file is valid.
	ExitInvalid = 1 // At least one file has error-level findings.
	ExitUsage   = 2 // Bad flags or arguments.
	ExitIO      = 3 // A file could not be read or a report not stored.
)

type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. An empty message prints nothing.
func exitError(code int, format string, args ...any) *exitCodeError {
	return &exitCodeError{code: code, msg: fmt.Sprintf(format, args...)}
}
