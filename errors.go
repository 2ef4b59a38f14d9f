package xmlb

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// BindingError is returned when a type cannot be mapped to a binding, for
// example an unsupported kind or a malformed property declaration.
type BindingError struct {
	Type     string
	Property string
	Reason   string
	Err      error
}

func (e *BindingError) Error() string {
	target := e.Type
	if e.Property != "" {
		target += "." + e.Property
	}
	msg := fmt.Sprintf("cannot bind %s: %s", target, e.Reason)
	if e.Err != nil {
		msg += ", " + e.Err.Error()
	}
	return msg
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// ValueConversionError is returned when the text form of a scalar cannot be
// decoded into its target type.
type ValueConversionError struct {
	// Path to the offending property, e.g. "server.port".
	Path  string
	Value string
	Type  string
	Err   error
}

func (e *ValueConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %q to %s", e.Value, e.Type)
	if e.Path != "" {
		msg = "at " + e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ", " + e.Err.Error()
	}
	return msg
}

func (e *ValueConversionError) Unwrap() error {
	return e.Err
}

// StructuralMismatchError is returned when an operation does not fit the
// shape of the target: merging into a non-composite value, or a source
// element that cannot be decoded into the expected shape.
type StructuralMismatchError struct {
	Type   string
	Reason string
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("structural mismatch for %s: %s", e.Type, e.Reason)
}

// SourceLoadError wraps failures reading, parsing or expanding a document.
type SourceLoadError struct {
	Location string
	Err      error
}

func (e *SourceLoadError) Error() string {
	return fmt.Sprintf("failed to load %s, %v", e.Location, e.Err)
}

func (e *SourceLoadError) Unwrap() error {
	return e.Err
}

// SerializationError is the catch-all for unexpected failures while
// serializing or deserializing a value of the named type.
type SerializationError struct {
	TypeName string
	Op       string
	Err      error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot %s %s, %v", e.Op, e.TypeName, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IsDomainError reports whether err is, or wraps, one of the errors callers
// are expected to handle individually.
func IsDomainError(err error) bool {
	var (
		be *BindingError
		ve *ValueConversionError
		se *StructuralMismatchError
		le *SourceLoadError
	)
	return errors.As(err, &be) || errors.As(err, &ve) ||
		errors.As(err, &se) || errors.As(err, &le)
}

// WithPath prefixes the path of a ValueConversionError found in err. Other
// errors are returned unchanged.
func WithPath(err error, prefix string) error {
	var ve *ValueConversionError
	if !errors.As(err, &ve) {
		return err
	}
	out := *ve
	if out.Path == "" {
		out.Path = prefix
	} else {
		out.Path = prefix + "." + out.Path
	}
	return &out
}
