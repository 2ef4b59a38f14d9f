package xmlb

import (
	"reflect"
	"strings"
)

// Accessor reads and writes one named property of a bound composite type.
//
// The bean passed to Get and Set is always a pointer to the composite type.
// How an Accessor was derived (struct tags, a declarative Schema, generated
// code) is of no concern to the bindings that use it.
type Accessor interface {
	// Name is the property name, used as the attribute or element name.
	Name() string

	// Type is the declared Go type of the property.
	Type() reflect.Type

	// Get returns the current value of the property on bean.
	Get(bean any) (any, error)

	// Set writes v to the property on bean. A nil v writes the zero value.
	Set(bean any, v any) error

	// Default returns the declared default value of the property, if any.
	Default() (any, bool)

	// Traits returns the layout traits applied to the property.
	Traits() Traits
}

// Filter decides whether a property's current value is written during
// serialization.
type Filter interface {
	Accepts(a Accessor, bean any) bool
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(a Accessor, bean any) bool

// Accepts calls f(a, bean).
func (f FilterFunc) Accepts(a Accessor, bean any) bool {
	return f(a, bean)
}

// BeanDelegator is implemented by filters that hand the decision over to a
// bean implementing SelfFilter.
type BeanDelegator interface {
	DelegatesToBean() bool
}

// SelfFilter is an optional capability of a bound type: the bean itself
// decides whether a property should be serialized, for example to suppress a
// value equal to a context-dependent default.
type SelfFilter interface {
	AcceptsProperty(a Accessor) bool
}

// Initializer is an optional capability of a bound type. InitDefaults is
// called on every freshly allocated instance, and the values it sets become
// the declared defaults of the type's properties.
type Initializer interface {
	InitDefaults()
}

// TypeInfo describes the shape of a composite type.
type TypeInfo struct {
	// Name is the element name used when the type is written at the top
	// level or as a list item.
	Name string

	// Properties in declaration order.
	Properties []Accessor

	// New allocates a default instance and returns a pointer to it.
	New func() any
}

// Introspector supplies TypeInfo for composite types.
type Introspector interface {
	Introspect(t reflect.Type) (*TypeInfo, error)
}

// Kind enumerates the binding variants.
type Kind int

// Enumerates binding kinds.
const (
	KindComposite Kind = iota
	KindSequence
	KindMapping
	KindScalar
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindComposite:
		return "composite"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindScalar:
		return "scalar"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// TypeKey identifies a bound type in the binding cache. Instantiations of a
// generic type are distinct reflect.Types, so the key carries the type
// argument signature.
type TypeKey struct {
	typ reflect.Type
}

// KeyOf returns the cache key of t.
func KeyOf(t reflect.Type) TypeKey {
	return TypeKey{typ: t}
}

// Type returns the keyed type.
func (k TypeKey) Type() reflect.Type {
	return k.typ
}

func (k TypeKey) String() string {
	if k.typ == nil {
		return "<nil>"
	}
	return k.typ.String()
}

// ElementName returns the default element name of a type: its declared name
// without package qualifier or generic arguments.
func ElementName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name, _, _ := strings.Cut(t.Name(), "[")
	if name == "" {
		return "bean"
	}
	return name
}
