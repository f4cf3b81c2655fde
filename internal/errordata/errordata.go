package errordata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. Every error returned by the services carries
// exactly one Kind.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindNotFound           Kind = "NOT_FOUND"
	KindUpstreamTimeout    Kind = "UPSTREAM_TIMEOUT"
	KindUpstreamError      Kind = "UPSTREAM_ERROR"
	KindPersistenceFailure Kind = "PERSISTENCE_FAILURE"
	KindUnauthorized       Kind = "UNAUTHORIZED"
)

// User-visible codes.
const (
	CodeTimeInputInvalid = "TIME_INPUT_INVALID"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeServerError      = "SERVER_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func InvalidTime(err error) *Error {
	return New(KindValidation, CodeTimeInputInvalid, "time must be formatted as yyyy-MM-dd HH:mm:ss", err)
}

func InvalidInput(message string) *Error {
	return New(KindValidation, CodeInvalidInput, message, nil)
}

func RoomNotFound(err error) *Error {
	return New(KindNotFound, CodeRoomNotFound, "chat room not found", err)
}

func Persistence(err error) *Error {
	return New(KindPersistenceFailure, CodeServerError, "internal server error", err)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, CodeUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(KindUnauthorized, CodeForbidden, message, nil)
}

// Upstream classifies a failed call to an external service: deadline
// expiries become UPSTREAM_TIMEOUT, everything else UPSTREAM_ERROR.
func Upstream(service string, err error) *Error {
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		return New(KindUpstreamTimeout, CodeServerError, service+" did not respond in time", err)
	}
	return New(KindUpstreamError, CodeServerError, service+" request failed", err)
}

// KindOf returns the Kind carried by err, treating untyped errors as
// persistence failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistenceFailure
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeServerError
}

// MessageOf returns the human-readable part only; wrapped causes are never exposed.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamError:
		return http.StatusBadGateway
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf maps err to an HTTP status. FORBIDDEN is the one code that
// refines the status of its kind.
func StatusOf(err error) int {
	if CodeOf(err) == CodeForbidden {
		return http.StatusForbidden
	}
	return HTTPStatus(KindOf(err))
}
