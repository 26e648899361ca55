package apierr

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps coded domain errors to HTTP status envelopes.
func FromError(err error) *Error {
	code := pkgerrors.CodeOf(err)
	switch code {
	case pkgerrors.CodeInvalidReference, pkgerrors.CodeInvalidRubric:
		return New(http.StatusBadRequest, string(code), err)
	case pkgerrors.CodePolicyDenied:
		return New(http.StatusForbidden, string(code), err)
	case pkgerrors.CodeTimeout:
		return New(http.StatusGatewayTimeout, string(code), err)
	case pkgerrors.CodeMalformedResponse:
		return New(http.StatusBadGateway, string(code), err)
	case pkgerrors.CodeTransientStorage:
		return New(http.StatusServiceUnavailable, string(code), err)
	case pkgerrors.CodePermanentStorage:
		return New(http.StatusInternalServerError, string(code), err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
