package xmlb

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Schema declares the properties of a composite type explicitly, as an
// alternative to struct tag reflection. Schemas are registered in a
// TypeRegistry.
type Schema struct {
	name       string
	typ        reflect.Type
	properties []Accessor
}

// SchemaOptions configures a new Schema.
type SchemaOptions struct {
	properties []Accessor
}

// WithProperty adds a property to the schema. Properties are serialized in
// the order they are added.
//
// Traits provided here override any traits already on the accessor if there
// is collision.
func WithProperty(a Accessor, traits ...Trait) func(*SchemaOptions) {
	return func(o *SchemaOptions) {
		if len(traits) != 0 {
			a = &traitedAccessor{Accessor: a, traits: a.Traits().With(traits...)}
		}
		o.properties = append(o.properties, a)
	}
}

// NewSchema returns a schema for T with the given element name and
// properties.
func NewSchema[T any](name string, opts ...func(*SchemaOptions)) *Schema {
	var o SchemaOptions
	for _, opt := range opts {
		opt(&o)
	}

	typ := reflect.TypeOf((*T)(nil)).Elem()
	if name == "" {
		name = ElementName(typ)
	}

	return &Schema{
		name:       name,
		typ:        typ,
		properties: o.properties,
	}
}

// Name returns the element name of the schema's type.
func (s *Schema) Name() string {
	return s.name
}

// Type returns the Go type the schema describes.
func (s *Schema) Type() reflect.Type {
	return s.typ
}

// Properties returns the declared properties in order.
func (s *Schema) Properties() []Accessor {
	return s.properties
}

// Property returns the named property from the schema.
func (s *Schema) Property(name string) Accessor {
	for _, p := range s.properties {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// PropertyOptions configures a declared property.
type PropertyOptions struct {
	Default    any
	HasDefault bool
	Traits     []Trait
}

// WithDefault declares the default value of a property.
func WithDefault(v any) func(*PropertyOptions) {
	return func(o *PropertyOptions) {
		o.Default = v
		o.HasDefault = true
	}
}

// WithPropertyTraits applies layout traits to a property.
func WithPropertyTraits(traits ...Trait) func(*PropertyOptions) {
	return func(o *PropertyOptions) {
		o.Traits = append(o.Traits, traits...)
	}
}

// Property declares a property of T with value type V. A nil set makes the
// property read-only: it is serialized but left untouched on deserialize.
func Property[T, V any](name string, get func(*T) V, set func(*T, V), opts ...func(*PropertyOptions)) Accessor {
	var o PropertyOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &property[T, V]{
		name:    name,
		get:     get,
		set:     set,
		dflt:    o.Default,
		hasDflt: o.HasDefault,
		traits:  NewTraits(o.Traits...),
	}
}

type property[T, V any] struct {
	name    string
	get     func(*T) V
	set     func(*T, V)
	dflt    any
	hasDflt bool
	traits  Traits
}

func (p *property[T, V]) Name() string         { return p.name }
func (p *property[T, V]) Traits() Traits       { return p.traits }
func (p *property[T, V]) Default() (any, bool) { return p.dflt, p.hasDflt }

func (p *property[T, V]) Type() reflect.Type {
	return reflect.TypeOf((*V)(nil)).Elem()
}

func (p *property[T, V]) Get(bean any) (any, error) {
	b, ok := bean.(*T)
	if !ok || b == nil {
		return nil, errors.Newf("property %s: expected %T, got %T", p.name, (*T)(nil), bean)
	}
	return p.get(b), nil
}

func (p *property[T, V]) Set(bean any, v any) error {
	if p.set == nil {
		return nil
	}
	b, ok := bean.(*T)
	if !ok || b == nil {
		return errors.Newf("property %s: expected %T, got %T", p.name, (*T)(nil), bean)
	}
	tv, ok := v.(V)
	if !ok {
		rv, err := assignable(v, p.Type())
		if err != nil {
			return errors.Wrapf(err, "property %s", p.name)
		}
		tv = rv.Interface().(V)
	}
	p.set(b, tv)
	return nil
}

// traitedAccessor overrides the traits of a wrapped accessor.
type traitedAccessor struct {
	Accessor
	traits Traits
}

func (a *traitedAccessor) Traits() Traits { return a.traits }
