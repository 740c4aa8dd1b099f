// Package calcerr defines the error taxonomy shared by every calculator stage.
//
// Each failure is a *Error carrying a Kind. errors.Is matches an *Error
// against the sentinel of its kind, so callers can write
//
//	if errors.Is(err, calcerr.ErrUnsupportedSpecies) { ... }
//
// without caring which stage produced it. None of the kinds is retried
// internally: every failure is deterministic for a given input.
package calcerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

// Failure kinds.
const (
	KindConfiguration Kind = iota + 1
	KindLoad
	KindDevice
	KindUnsupportedSpecies
	KindInference
	KindUnsupportedProperty
)

// Sentinels, one per kind.
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrLoad                = errors.New("artifact load error")
	ErrDevice              = errors.New("device error")
	ErrUnsupportedSpecies  = errors.New("unsupported species")
	ErrInference           = errors.New("inference error")
	ErrUnsupportedProperty = errors.New("unsupported property")
)

// Errors that are not tied to a stage.
var (
	ErrNotCalculated = errors.New("no results: structure has not been calculated")
	ErrShapeMismatch = errors.New("property shapes differ between calculators")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindLoad:
		return ErrLoad
	case KindDevice:
		return ErrDevice
	case KindUnsupportedSpecies:
		return ErrUnsupportedSpecies
	case KindInference:
		return ErrInference
	case KindUnsupportedProperty:
		return ErrUnsupportedProperty
	default:
		return nil
	}
}

// String returns the kind name.
func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown error"
}

// Error is a classified calculator failure.
type Error struct {
	Kind   Kind   // Failure class
	Op     string // Stage or operation (e.g. "load", "adapt", "query")
	Detail string // Human-readable detail
	Err    error  // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// New builds an *Error without an underlying cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around err. It returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// SpeciesError reports atoms whose species the model was not trained on.
type SpeciesError struct {
	Atoms   []int // Offending atom indices
	Numbers []int // Their atomic numbers, index-aligned with Atoms
	Known   []int // The model's vocabulary (nil means 1..118)
}

// Error implements the error interface.
func (e *SpeciesError) Error() string {
	if len(e.Atoms) == 1 {
		return fmt.Sprintf("atom %d has atomic number %d", e.Atoms[0], e.Numbers[0])
	}
	return fmt.Sprintf("%d atoms have unknown atomic numbers %v", len(e.Atoms), e.Numbers)
}

// Is matches ErrUnsupportedSpecies.
func (e *SpeciesError) Is(target error) bool {
	return target == ErrUnsupportedSpecies
}
