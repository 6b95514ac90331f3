package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for retry and HTTP-mapping decisions.
type Kind int

const (
	// KindUnknown is the zero value; treated as a permanent backend failure.
	KindUnknown Kind = iota

	// KindValidation marks malformed or missing input. Never retried.
	KindValidation

	// KindNotFound marks a missing target resource.
	KindNotFound

	// KindTransient marks a network, timeout, or 5xx failure from a
	// collaborator. Retryable up to the configured bound.
	KindTransient

	// KindPermanent marks a non-retryable remote error, e.g. a response
	// that could not be parsed after exhausting retries.
	KindPermanent

	// KindConfig marks missing or invalid settings at construction time.
	// Fatal to the component, surfaced immediately.
	KindConfig

	// KindAuth marks a missing or rejected credential.
	KindAuth
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Error is a classified error carrying the HTTP status code to use when the
// failure is reported through the REST API.
type Error struct {
	Kind Kind
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with the default status code for its kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Code: defaultCode(kind), Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates a classified error wrapping a cause.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Code: defaultCode(kind), Msg: msg, Err: err}
}

// WithCode overrides the HTTP status code, e.g. to carry the remote status.
func (e *Error) WithCode(code int) *Error {
	if code > 0 {
		e.Code = code
	}
	return e
}

func defaultCode(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTransient:
		return http.StatusServiceUnavailable
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the classification of err, or KindUnknown if err carries
// no *Error anywhere in its chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// HTTPStatus returns the status code to report err with.
func HTTPStatus(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return http.StatusInternalServerError
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// IsNotFound reports whether err marks a missing resource.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsValidation reports whether err marks rejected input.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
