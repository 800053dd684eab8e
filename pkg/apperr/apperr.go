// Package apperr defines the error taxonomy shared by services, stores and
// HTTP handlers. Handlers map a Kind to a status code; nothing else about
// the error is shown to clients.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind uint8

const (
	Internal Kind = iota
	Validation
	NotFound
	Unauthenticated
	InvalidToken
	Forbidden
	Conflict
	Upstream
)

var kindNames = map[Kind]string{
	Internal:        "internal",
	Validation:      "validation",
	NotFound:        "not_found",
	Unauthenticated: "unauthenticated",
	InvalidToken:    "invalid_token",
	Forbidden:       "forbidden",
	Conflict:        "conflict",
	Upstream:        "upstream",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal"
}

// Status is the HTTP status code reported for k. A wrong owner is reported
// as 401, matching the public API contract.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthenticated, InvalidToken, Forbidden:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a client-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so errors.Is(err, apperr.ErrNotFound)
// works for any NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// E builds an *Error. cause may be nil.
func E(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound  = &Error{Kind: NotFound}
	ErrConflict  = &Error{Kind: Conflict}
	ErrForbidden = &Error{Kind: Forbidden}
)

// KindOf returns the Kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the client-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" && e.Kind != Internal && e.Kind != Upstream {
		return e.Msg
	}
	if errors.As(err, &e) && e.Kind == Upstream {
		return "Upstream service error"
	}
	return "Server Error"
}

func NotFoundf(msg string) *Error  { return E(NotFound, msg, nil) }
func Invalid(msg string) *Error    { return E(Validation, msg, nil) }
func Conflictf(msg string) *Error  { return E(Conflict, msg, nil) }
func Forbiddenf(msg string) *Error { return E(Forbidden, msg, nil) }

// Wrap classifies err as Internal unless it already carries a Kind.
func Wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return E(Internal, msg, err)
}
