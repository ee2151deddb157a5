// Package xerror defines the error kinds from §7 as sentinel errors plus
// a handful of structured error types, following the same idiom as the
// teacher's pkg/anchor/adapter/errors.go: sentinels for errors.Is checks,
// structs for errors carrying context, Is hand-implemented, and a
// non-double-wrapping Wrap helper.
package xerror

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, one per §7 bullet that has no further structure.
var (
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrLocator            = errors.New("locator error")
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrTemporaryRequired  = errors.New("temporary resource required")
	ErrNetwork            = errors.New("network error")
	ErrTimeout            = errors.New("timeout")
	ErrCancelled          = errors.New("cancelled")
	ErrInternal           = errors.New("internal error")
)

// Span locates a parse error in source text, for diagnostic rendering
// (§4.B, TypeScript-subset parser errors in particular).
type Span struct {
	File   string
	Line   int
	Column int
	Snippet string
}

func (s Span) String() string {
	if s.File == "" && s.Line == 0 {
		return ""
	}
	if s.File == "" {
		return fmt.Sprintf("line %d, column %d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// ParseError is returned by every schema codec's parse direction.
type ParseError struct {
	Span    Span
	Message string
}

func (e *ParseError) Error() string {
	if loc := e.Span.String(); loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}

// UnsupportedType is returned when a codec's render direction is asked to
// emit a DataType its target dialect cannot express at all (as opposed to
// one it can only approximate, which instead produces a Warning).
type UnsupportedType struct {
	DataType string
	Target   string
}

func (e *UnsupportedType) Error() string {
	return fmt.Sprintf("%s has no representation in %s", e.DataType, e.Target)
}

func (e *UnsupportedType) Is(target error) bool {
	return errors.Is(target, ErrUnsupportedFeature)
}

// UnsupportedFeatureError reports a driver operation that was invoked
// without being advertised in the driver's FeatureSet (§4.D, §8.8).
type UnsupportedFeatureError struct {
	Driver    string
	Operation string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Driver, e.Operation)
}

func (e *UnsupportedFeatureError) Is(target error) bool {
	return errors.Is(target, ErrUnsupportedFeature)
}

// SchemaMismatchError reports an options/schema combination the planner
// rejects before opening any stream (§4.G step 3, upsert key validation).
type SchemaMismatchError struct {
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s", e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return errors.Is(target, ErrSchemaMismatch)
}

// LocatorError reports a malformed or unrecognized locator string.
type LocatorError struct {
	Locator string
	Reason  string
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("invalid locator %q: %s", e.Locator, e.Reason)
}

func (e *LocatorError) Is(target error) bool {
	return errors.Is(target, ErrLocator)
}

// Wrap attaches an operation label to err without double-wrapping an
// error that is already one of this package's structured types.
func Wrap(operation string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	var ut *UnsupportedType
	var uf *UnsupportedFeatureError
	var sm *SchemaMismatchError
	var le *LocatorError
	if errors.As(err, &pe) || errors.As(err, &ut) || errors.As(err, &uf) || errors.As(err, &sm) || errors.As(err, &le) {
		return err
	}
	return fmt.Errorf("%s: %w", operation, err)
}
