package xmlb

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/configstore/xmlb/internal/clone"
	"github.com/configstore/xmlb/internal/scalar"
	"github.com/configstore/xmlb/traits"
)

const (
	// tagName is the struct tag holding the property name and layout options:
	// `xmlb:"name,attr|elem|text|flat,item=entry"` or `xmlb:"-"`.
	tagName = "xmlb"

	// defaultTagName is the struct tag holding the declared default in the
	// scalar text form, e.g. `default:"8080"`.
	defaultTagName = "default"
)

var initializerType = reflect.TypeOf((*Initializer)(nil)).Elem()

// ReflectTypeInfo derives the TypeInfo of a struct type from its exported
// fields. Promoted fields of embedded structs are treated as the embedding
// type's own properties.
func ReflectTypeInfo(t reflect.Type) (*TypeInfo, error) {
	return reflectTypeInfo(t, reflectOnly)
}

var reflectOnly Introspector = &introspector{}

func reflectTypeInfo(t reflect.Type, nested Introspector) (*TypeInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, &BindingError{Type: t.String(), Reason: "not a struct type"}
	}

	var props []Accessor
	seen := map[string]struct{}{}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		tag, tagged := f.Tag.Lookup(tagName)
		if tag == "-" {
			continue
		}
		if f.Anonymous && !tagged && f.Type.Kind() == reflect.Struct {
			// promoted fields are visited on their own
			continue
		}
		if f.Anonymous && !tagged && f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct {
			continue
		}

		acc, err := newFieldAccessor(t, f, tag)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[acc.name]; dup {
			return nil, &BindingError{Type: t.String(), Property: acc.name, Reason: "duplicate property name"}
		}
		seen[acc.name] = struct{}{}
		props = append(props, acc)
	}

	newFn, err := newInstance(t, props, nested)
	if err != nil {
		return nil, err
	}
	return &TypeInfo{
		Name:       ElementName(t),
		Properties: props,
		New:        newFn,
	}, nil
}

type declaredDefault struct {
	prop  Accessor
	value any
}

type nestedDefault struct {
	prop  Accessor
	newFn func() any
}

// newInstance returns a constructor of *t. Struct-valued properties without
// a declared default start from a default instance of their own type, then
// the declared defaults of props are applied, then InitDefaults when *t
// implements Initializer. Declared defaults are copied into every instance.
func newInstance(t reflect.Type, props []Accessor, nested Introspector) (func() any, error) {
	var (
		declared []declaredDefault
		structs  []nestedDefault
	)
	for _, p := range props {
		d, ok := p.Default()
		if !ok {
			if newFn, ok := nestedConstructor(p.Type(), nested); ok {
				structs = append(structs, nestedDefault{prop: p, newFn: newFn})
			}
			continue
		}
		if _, err := assignable(d, p.Type()); err != nil {
			return nil, &BindingError{Type: t.String(), Property: p.Name(), Reason: "invalid default", Err: err}
		}
		declared = append(declared, declaredDefault{prop: p, value: clone.Value(d)})
	}
	initializes := reflect.PointerTo(t).Implements(initializerType)

	return func() any {
		bean := reflect.New(t).Interface()
		for _, n := range structs {
			_ = n.prop.Set(bean, reflect.ValueOf(n.newFn()).Elem().Interface())
		}
		for _, d := range declared {
			// assignability was checked above
			_ = d.prop.Set(bean, clone.Value(d.value))
		}
		if initializes {
			bean.(Initializer).InitDefaults()
		}
		return bean
	}, nil
}

// nestedConstructor returns the constructor of a struct-valued property type
// that is bound as a composite.
func nestedConstructor(t reflect.Type, in Introspector) (func() any, bool) {
	if in == nil || t.Kind() != reflect.Struct {
		return nil, false
	}
	if _, ok := scalar.Lookup(t); ok {
		return nil, false
	}
	info, err := in.Introspect(t)
	if err != nil || info.New == nil {
		return nil, false
	}
	return info.New, true
}

type fieldAccessor struct {
	owner   reflect.Type
	name    string
	index   []int
	typ     reflect.Type
	dflt    any
	hasDflt bool
	traits  Traits
}

func newFieldAccessor(owner reflect.Type, f reflect.StructField, tag string) (*fieldAccessor, error) {
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}

	var ts []Trait
	for _, opt := range strings.Split(opts, ",") {
		switch {
		case opt == "":
		case opt == "attr":
			ts = append(ts, &traits.XMLAttribute{})
		case opt == "elem":
			ts = append(ts, &traits.XMLElement{})
		case opt == "text":
			ts = append(ts, &traits.XMLText{})
		case opt == "flat":
			ts = append(ts, &traits.XMLFlattened{})
		case strings.HasPrefix(opt, "item="):
			ts = append(ts, &traits.XMLItemName{Name: strings.TrimPrefix(opt, "item=")})
		default:
			return nil, &BindingError{Type: owner.String(), Property: name, Reason: "unknown tag option " + opt}
		}
	}

	a := &fieldAccessor{
		owner:  owner,
		name:   name,
		index:  f.Index,
		typ:    f.Type,
		traits: NewTraits(ts...),
	}

	if text, ok := f.Tag.Lookup(defaultTagName); ok {
		v, err := parseDefault(f.Type, text)
		if err != nil {
			return nil, &BindingError{Type: owner.String(), Property: name, Reason: "invalid default", Err: err}
		}
		a.dflt, a.hasDflt = v, true
	}
	return a, nil
}

// parseDefault reads a default tag for a scalar or pointer-to-scalar field.
func parseDefault(t reflect.Type, text string) (any, error) {
	if t.Kind() == reflect.Pointer {
		v, err := scalar.Parse(t.Elem(), text)
		if err != nil {
			return nil, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	}
	return scalar.Parse(t, text)
}

func (a *fieldAccessor) Name() string         { return a.name }
func (a *fieldAccessor) Type() reflect.Type   { return a.typ }
func (a *fieldAccessor) Traits() Traits       { return a.traits }
func (a *fieldAccessor) Default() (any, bool) { return a.dflt, a.hasDflt }

func (a *fieldAccessor) bean(bean any) (reflect.Value, error) {
	v := reflect.ValueOf(bean)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Type().Elem() != a.owner {
		return reflect.Value{}, errors.Newf("property %s: expected *%s, got %T", a.name, a.owner, bean)
	}
	return v.Elem(), nil
}

func (a *fieldAccessor) Get(bean any) (any, error) {
	v, err := a.bean(bean)
	if err != nil {
		return nil, err
	}
	f, err := v.FieldByIndexErr(a.index)
	if err != nil {
		// nil embedded pointer, the property has its zero value
		return reflect.Zero(a.typ).Interface(), nil
	}
	return f.Interface(), nil
}

func (a *fieldAccessor) Set(bean any, val any) error {
	v, err := a.bean(bean)
	if err != nil {
		return err
	}
	for i, x := range a.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}

	rv, err := assignable(val, a.typ)
	if err != nil {
		return errors.Wrapf(err, "property %s", a.name)
	}
	v.Set(rv)
	return nil
}

// assignable converts val to a reflect.Value assignable to t.
func assignable(val any, t reflect.Type) (reflect.Value, error) {
	if val == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(val)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Newf("cannot assign %s to %s", rv.Type(), t)
}
