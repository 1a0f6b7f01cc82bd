// Package errors provides the typed error carrier used throughout mcfit.
// Every fatal failure mode of the fitting core maps to a Kind so that the
// outer orchestrator (and the CLI exit path) can classify failures with
// errors.Is without parsing message strings.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies a failure category of the fitting core.
type Kind int

const (
	// KindUnknown is the catch-all for uncategorised errors.
	KindUnknown Kind = iota

	// KindStructureIncomplete: a required sidechain atom is missing before
	// fitting begins.
	KindStructureIncomplete

	// KindNoViableConformers: the candidate list is empty after clash
	// filtering.
	KindNoViableConformers

	// KindSolverFailure: the QP/MIQP solve is infeasible or diverged.
	KindSolverFailure

	// KindIOFailure: a file read or write failed.
	KindIOFailure

	// KindMaskEmpty: the union footprint contains zero voxels.
	KindMaskEmpty

	// KindNotImplemented: the requested fitter surface is a stub.
	KindNotImplemented

	// KindInvalidParam: a configuration value is out of range.
	KindInvalidParam
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStructureIncomplete:
		return "structure-incomplete"
	case KindNoViableConformers:
		return "no-viable-conformers"
	case KindSolverFailure:
		return "solver-failure"
	case KindIOFailure:
		return "io-failure"
	case KindMaskEmpty:
		return "mask-empty"
	case KindNotImplemented:
		return "not-implemented"
	case KindInvalidParam:
		return "invalid-param"
	}
	return "unknown"
}

// Error is the structured error type. It satisfies the standard error
// interface and supports errors.Is / errors.As / errors.Unwrap so a Kind can
// be matched anywhere along a wrapped chain.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates an Error with the given kind and formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind and message. Returns nil if err is nil.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports kind equality, so errors.Is(err, &Error{Kind: k}) matches any
// Error of kind k regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// IsKind reports whether any error in err's chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
