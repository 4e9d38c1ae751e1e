// Package apperror defines the error taxonomy shared by services and handlers.
// Handlers translate a Kind into an HTTP status; services only decide the Kind.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindTransport
	KindDecoding
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	case KindDecoding:
		return "decoding"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// TransportMessage is what users see for any store/broker/identity failure.
const TransportMessage = "connection or technical error, please try again"

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by Kind and Message so sentinels work with errors.Is
// even after being wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message && t.Err == nil
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Decoding(msg string, err error) *Error {
	return &Error{Kind: KindDecoding, Message: msg, Err: err}
}

// Transport wraps an adapter failure. The cause is kept for logging only.
func Transport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Message: op, Err: err}
}

// KindOf reports the Kind of err, KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the text safe to return to clients.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal Server Error"
	}
	switch e.Kind {
	case KindTransport:
		return TransportMessage
	case KindInternal:
		return "Internal Server Error"
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error()
}
