package serializer

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/logging"
)

// normalize passes domain errors through and wraps anything else in a
// *xmlb.SerializationError naming the type of v.
func (s *Serializer) normalize(err error, v any, op string) error {
	return s.wrap(err, typeName(v), op)
}

func (s *Serializer) normalizeType(err error, t reflect.Type, op string) error {
	return s.wrap(err, t.String(), op)
}

func (s *Serializer) wrap(err error, name, op string) error {
	if err == nil || xmlb.IsDomainError(err) {
		return err
	}
	var se *xmlb.SerializationError
	if errors.As(err, &se) {
		return err
	}
	wrapped := &xmlb.SerializationError{TypeName: name, Op: op, Err: err}
	s.options.Logger.Logf(logging.Warn, "%v", wrapped)
	return wrapped
}

// guard converts a panic raised while handling v into an error.
func (s *Serializer) guard(err *error, v any, op string) {
	if r := recover(); r != nil {
		*err = s.wrap(errors.Newf("panic: %v", r), typeName(v), op)
	}
}

func (s *Serializer) guardType(err *error, t reflect.Type, op string) {
	if r := recover(); r != nil {
		*err = s.wrap(errors.Newf("panic: %v", r), t.String(), op)
	}
}
