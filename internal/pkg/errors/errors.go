package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code carried across API and CLI
// boundaries.
type Code string

const (
	CodeInvalidReference  Code = "invalid_reference"
	CodeMalformedResponse Code = "malformed_response"
	CodeInvalidRubric     Code = "invalid_rubric"
	CodeTransientStorage  Code = "transient_storage"
	CodePermanentStorage  Code = "permanent_storage"
	CodeTimeout           Code = "timeout"
	CodePolicyDenied      Code = "policy_denied"
)

type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the stable code from err, mapping context deadline errors to
// CodeTimeout. Returns "" when err carries no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return ""
}

func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
