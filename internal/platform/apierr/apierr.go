package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidInput  = "invalid_input"
	CodeBodyTooLarge  = "body_too_large"
	CodePredictFailed = "prediction_failed"
	CodeNotReady      = "not_ready"
	CodeInternal      = "internal_error"
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

func BadRequest(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidInput, err)
}

// From maps any error to an *Error; unknown errors become a 500.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}
