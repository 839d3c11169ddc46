package action

import (
	"errors"
	"fmt"

	"github.com/malikkrehic/action/internal/validation"
)

// Kind classifies a dispatch failure.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidHandler Kind = "invalid_handler"
	KindMissingData    Kind = "missing_data"
	KindValidation     Kind = "validation"
	KindCoercion       Kind = "coercion"
	KindUnimplemented  Kind = "unimplemented"
	KindHandlerFailure Kind = "handler_failure"
	KindConflict       Kind = "conflict"
)

// Sentinel errors, one per Kind. An *Error matches the sentinel of its kind
// under errors.Is.
var (
	ErrNotFound       = errors.New("action not found")
	ErrInvalidHandler = errors.New("invalid action handler")
	ErrMissingData    = errors.New("data must be provided before executing action")
	ErrValidation     = errors.New("validation failed")
	ErrCoercion       = errors.New("invalid data format")
	ErrUnimplemented  = errors.New("action handler not implemented")
	ErrHandlerFailure = errors.New("action execution failed")
	ErrConflict       = errors.New("request conflicts with an earlier one")
)

// ErrIdempotencyConflict is wrapped by the KindConflict error returned when an
// idempotency key is reused with a different payload.
var ErrIdempotencyConflict = errors.New("idempotency key already used with a different payload")

// ErrDuplicateAction is wrapped by the KindInvalidHandler error returned when a
// name is registered twice.
var ErrDuplicateAction = errors.New("action already registered")

var kindSentinels = map[Kind]error{
	KindNotFound:       ErrNotFound,
	KindInvalidHandler: ErrInvalidHandler,
	KindMissingData:    ErrMissingData,
	KindValidation:     ErrValidation,
	KindCoercion:       ErrCoercion,
	KindUnimplemented:  ErrUnimplemented,
	KindHandlerFailure: ErrHandlerFailure,
	KindConflict:       ErrConflict,
}

// Error is the structured failure returned by every dispatch operation.
type Error struct {
	Kind    Kind
	Action  string
	Message string
	// Fields holds per-field violations for KindValidation.
	Fields validation.Violations
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		if s, ok := kindSentinels[e.Kind]; ok {
			msg = s.Error()
		} else {
			msg = string(e.Kind)
		}
	}
	if e.Action != "" {
		msg = fmt.Sprintf("%s: %s", e.Action, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func newError(kind Kind, name, msg string, err error) *Error {
	return &Error{Kind: kind, Action: name, Message: msg, Err: err}
}

func notFound(name string) *Error {
	return newError(KindNotFound, name, "", nil)
}

// asHandlerFailure passes *Error values through and wraps anything else. A
// handler's *Error is never modified; a copy carries the action name.
func asHandlerFailure(name string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Action != "" {
			return ae
		}
		cp := *ae
		cp.Action = name
		return &cp
	}
	return newError(KindHandlerFailure, name, err.Error(), err)
}
