package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInput       Kind = "INPUT"
	KindExternal    Kind = "EXTERNAL_SERVICE"
	KindComputation Kind = "COMPUTATION"
	KindPersistence Kind = "PERSISTENCE"
	KindIO          Kind = "IO"
)

// Error is the error contract shared by every pipeline stage.
type Error struct {
	Kind    Kind
	Op      string // operation name, ex: "clients.Diarize"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind Kind, op, msg string, err error) error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// Fatal reports whether err must fail the whole job. Only persistence and
// I/O failures do; everything else degrades locally.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	var ae *Error
	if !errors.As(err, &ae) {
		return true
	}
	return ae.Kind == KindPersistence || ae.Kind == KindIO
}

// Outcome carries the result of a collaborator call together with whether a
// fallback value was substituted for it.
type Outcome[T any] struct {
	Value    T
	Degraded bool
	Cause    error
}

func OK[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

func Fallback[T any](v T, cause error) Outcome[T] {
	return Outcome[T]{Value: v, Degraded: true, Cause: cause}
}
