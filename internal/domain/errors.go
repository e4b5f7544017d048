package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// ErrorKindValidation: the command is malformed; nothing was attempted.
	ErrorKindValidation ErrorKind = "validation_error"
	// ErrorKindConflict: a record already exists and overwrite was not
	// requested; nothing was attempted.
	ErrorKindConflict ErrorKind = "conflict_error"
	// ErrorKindNotFound: the identifier resolves to no record (or no journal
	// entry); nothing was attempted.
	ErrorKindNotFound ErrorKind = "not_found_error"
	// ErrorKindPipeline: a mutation step failed after validation. The
	// mutation is aborted and the failure journaled; whether a durable write
	// survived depends on where in the pipeline the step sat.
	ErrorKindPipeline ErrorKind = "pipeline_error"
	// ErrorKindSync: the search index rejected a mirror write. Never
	// surfaced to callers; logged and counted only.
	ErrorKindSync ErrorKind = "sync_error"
)

type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "recipe operation failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (op=%s kind=%s): %v", e.Message, e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s (op=%s kind=%s)", e.Message, e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func Validationf(op, format string, args ...any) error {
	return &Error{Kind: ErrorKindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(op, format string, args ...any) error {
	return &Error{Kind: ErrorKindConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(op, format string, args ...any) error {
	return &Error{Kind: ErrorKindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

func PipelineErr(op, message string, cause error) error {
	return &Error{Kind: ErrorKindPipeline, Op: op, Message: message, Cause: cause}
}

// KindOf extracts the error kind, defaulting unknown errors to pipeline so
// callers always get a machine-readable code.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) && de.Kind != "" {
		return de.Kind
	}
	return ErrorKindPipeline
}

func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
