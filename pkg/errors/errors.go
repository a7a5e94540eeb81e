package errors

import (
	"errors"
	"fmt"
)

// StackError is the interface implemented by all stackjs errors.
type StackError interface {
	error
	// Kind returns the error kind, e.g. "Type", "Reference", "Resolve", "Load" or "Eval".
	Kind() string
	// Message returns the specific error message without the kind prefix.
	Message() string
	// Unwrap returns the underlying cause for errors.Is and errors.As.
	Unwrap() error
}

// --- Concrete Error Types ---

// TypeError reports a VM value of the wrong shape for a requested
// conversion or argument.
type TypeError struct {
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *TypeError) Error() string   { return "Type error: " + e.Msg }
func (e *TypeError) Kind() string    { return "Type" }
func (e *TypeError) Message() string { return e.Msg }
func (e *TypeError) Unwrap() error   { return e.Cause }
func (e *TypeError) CausedBy(cause error) *TypeError {
	e.Cause = cause
	return e
}

// ReferenceError reports a missing property or slot that was expected to exist.
type ReferenceError struct {
	Msg   string
	Cause error
}

func (e *ReferenceError) Error() string   { return "Reference error: " + e.Msg }
func (e *ReferenceError) Kind() string    { return "Reference" }
func (e *ReferenceError) Message() string { return e.Msg }
func (e *ReferenceError) Unwrap() error   { return e.Cause }
func (e *ReferenceError) CausedBy(cause error) *ReferenceError {
	e.Cause = cause
	return e
}

// ResolveError reports a module specifier that cannot be mapped to a
// canonical id.
type ResolveError struct {
	Specifier string
	Msg       string
	Cause     error
}

func (e *ResolveError) Error() string {
	if e.Specifier == "" {
		return "Resolve error: " + e.Msg
	}
	return fmt.Sprintf("Resolve error: %s: %s", e.Specifier, e.Msg)
}
func (e *ResolveError) Kind() string    { return "Resolve" }
func (e *ResolveError) Message() string { return e.Msg }
func (e *ResolveError) Unwrap() error   { return e.Cause }
func (e *ResolveError) CausedBy(cause error) *ResolveError {
	e.Cause = cause
	return e
}

// LoadError reports a registered loader that failed to read, parse or
// execute module content.
type LoadError struct {
	ID    string // Canonical module id
	Msg   string
	Cause error
}

func (e *LoadError) Error() string {
	if e.ID == "" {
		return "Load error: " + e.Msg
	}
	return fmt.Sprintf("Load error: %s: %s", e.ID, e.Msg)
}
func (e *LoadError) Kind() string    { return "Load" }
func (e *LoadError) Message() string { return e.Msg }
func (e *LoadError) Unwrap() error   { return e.Cause }
func (e *LoadError) CausedBy(cause error) *LoadError {
	e.Cause = cause
	return e
}

// EvalError is a VM-side exception. Name, Msg and Stack are extracted from
// the thrown error object; Value keeps the thrown value itself so it can be
// rethrown unchanged when the error crosses back into the VM.
type EvalError struct {
	Name  string
	Msg   string
	Stack string
	Value any
	Cause error
}

func (e *EvalError) Error() string {
	if e.Name != "" && e.Name != "Error" {
		return fmt.Sprintf("Eval error: %s: %s", e.Name, e.Msg)
	}
	return "Eval error: " + e.Msg
}
func (e *EvalError) Kind() string    { return "Eval" }
func (e *EvalError) Message() string { return e.Msg }
func (e *EvalError) Unwrap() error   { return e.Cause }
func (e *EvalError) CausedBy(cause error) *EvalError {
	e.Cause = cause
	return e
}

// --- Helpers ---

// NewTypeError formats a TypeError.
func NewTypeError(format string, args ...any) *TypeError {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}

// NewReferenceError formats a ReferenceError.
func NewReferenceError(format string, args ...any) *ReferenceError {
	return &ReferenceError{Msg: fmt.Sprintf(format, args...)}
}

// NewResolveError formats a ResolveError for the given specifier.
func NewResolveError(specifier, format string, args ...any) *ResolveError {
	return &ResolveError{Specifier: specifier, Msg: fmt.Sprintf(format, args...)}
}

// NewLoadError formats a LoadError for the given module id.
func NewLoadError(id, format string, args ...any) *LoadError {
	return &LoadError{ID: id, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first StackError in err's chain, or ""
// when err carries none.
func KindOf(err error) string {
	var se StackError
	if errors.As(err, &se) {
		return se.Kind()
	}
	return ""
}

// Re-exported so callers importing this package under the name "errors"
// keep access to the standard helpers.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
