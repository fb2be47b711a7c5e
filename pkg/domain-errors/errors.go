// Package derrors provides coded domain errors. Services return these so the
// transport layer can translate failures into explainable responses without
// string matching, and so callers can branch on the kind of failure with
// HasCode while errors.As still reaches any typed payload underneath.
package derrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure. Validation failures are recoverable and
// local; CodeAuditWriteFailure is the one fatal class, because no mutation may
// commit without its audit entry.
type Code string

const (
	CodeInvalidInput        Code = "invalid_input"
	CodeInvalidRange        Code = "invalid_range"
	CodeAlreadyDecided      Code = "already_decided"
	CodeOverlapConflict     Code = "overlap_conflict"
	CodeLeaveConflict       Code = "leave_conflict"
	CodeDuplicateAssignment Code = "duplicate_assignment"
	CodeNotFound            Code = "not_found"
	CodeAuditWriteFailure   Code = "audit_write_failure"
	CodeUnauthorized        Code = "unauthorized"
	CodeForbidden           Code = "forbidden"
	CodeInternal            Code = "internal"
	CodeTimeout             Code = "timeout"
)

// Error carries a code, a human message, and an optional wrapped cause. The
// cause may be a typed conflict error (e.g. the overlapping leave interval)
// reachable through errors.As.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
