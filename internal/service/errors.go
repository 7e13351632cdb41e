package service

import (
	"errors"
	"fmt"
)

// Errors returned by service clients before a request is sent.
var (
	ErrInvalidUnit       = errors.New("unit must be words or characters")
	ErrInvalidMode       = errors.New("mode must be shorten or lengthen")
	ErrInvalidTarget     = errors.New("target length out of range for unit")
	ErrTooManyParagraphs = fmt.Errorf("too many paragraphs (max %d per request)", MaxParagraphsPerRequest)
	ErrParagraphTooLong  = fmt.Errorf("paragraph too long (max %d characters)", MaxParagraphLength)
	ErrEmptyRequest      = errors.New("request has no content")
)

// Error is a failed service call. StatusCode is the HTTP status (0 when the
// request never reached the service) and Detail is the service's own message
// when one could be extracted from the response body.
type Error struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("service: %s: %s (status %d)", e.Op, e.Detail, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("service: %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("service: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("service: %s failed", e.Op)
	}
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-invoking the same operation may succeed.
// Transport failures and 5xx/429 responses are transient; other 4xx are not.
func (e *Error) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == 429 || e.StatusCode >= 500
}
