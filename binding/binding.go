// Package binding converts Go values to etree elements and back. A Binding
// is built once per Go type, cached in a Cache and shared by all callers.
package binding

import (
	"reflect"

	"github.com/beevik/etree"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/internal/scalar"
)

// Default element names of top-level values that are not composites.
const (
	scalarElementName   = "option"
	sequenceElementName = "list"
	mappingElementName  = "map"
	itemElementName     = "item"
	entryElementName    = "entry"
	keyName             = "key"
	valueName           = "value"
)

// Binding writes values of one Go type as XML.
type Binding interface {
	// Kind is the shape of the bound type. It never depends on whether the
	// binding finished initializing.
	Kind() xmlb.Kind

	// Type is the bound Go type.
	Type() reflect.Type

	// Serialize writes v as an element called name. An empty name selects
	// the binding's default element name. A nil element with a nil error
	// means there is nothing to write, such as a nil pointer.
	Serialize(v any, name string, f xmlb.Filter) (*etree.Element, error)
}

// Deserializer is implemented by bindings that can construct a value of
// their type from an element.
type Deserializer interface {
	Deserialize(el *etree.Element) (any, error)
}

// resolver returns the binding of a type within a build session.
type resolver interface {
	resolve(t reflect.Type) (Binding, error)
}

// initializer is implemented by bindings that resolve nested bindings after
// they were published into their build session.
type initializer interface {
	init(r resolver) error
}

var rawType = reflect.TypeOf((*etree.Element)(nil))

// Classify returns the binding kind of t without building a binding.
func Classify(t reflect.Type) (xmlb.Kind, error) {
	switch {
	case t == nil:
		return 0, &xmlb.BindingError{Type: "<nil>", Reason: "untyped nil"}
	case t == rawType:
		return xmlb.KindRaw, nil
	case t.Kind() == reflect.Pointer:
		return Classify(t.Elem())
	}
	if _, ok := scalar.Lookup(t); ok {
		return xmlb.KindScalar, nil
	}
	switch t.Kind() {
	case reflect.Struct:
		return xmlb.KindComposite, nil
	case reflect.Slice, reflect.Array:
		return xmlb.KindSequence, nil
	case reflect.Map:
		return xmlb.KindMapping, nil
	}
	return 0, &xmlb.BindingError{Type: t.String(), Reason: "unsupported kind " + t.Kind().String()}
}

// CompositeOf returns the composite binding behind b, looking through
// pointer bindings.
func CompositeOf(b Binding) (*Composite, bool) {
	switch b := b.(type) {
	case *Composite:
		return b, true
	case *Pointer:
		return CompositeOf(b.elem)
	}
	return nil, false
}

// formatScalar formats a scalar or pointer-to-scalar value. ok is false for a
// nil pointer.
func formatScalar(b Binding, v any) (text string, ok bool, err error) {
	switch b := b.(type) {
	case *Scalar:
		text, err = b.Format(v)
		return text, err == nil, err
	case *Pointer:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.IsNil() {
			return "", false, nil
		}
		return formatScalar(b.elem, rv.Elem().Interface())
	}
	return "", false, &xmlb.StructuralMismatchError{Type: b.Type().String(), Reason: "not a scalar"}
}

// parseScalar parses text into a value of b's type.
func parseScalar(b Binding, text string) (any, error) {
	switch b := b.(type) {
	case *Scalar:
		return b.Parse(text)
	case *Pointer:
		v, err := parseScalar(b.elem, text)
		if err != nil {
			return nil, err
		}
		p := reflect.New(b.typ.Elem())
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	}
	return nil, &xmlb.StructuralMismatchError{Type: b.Type().String(), Reason: "not a scalar"}
}

// defaultItemName is the element name of a sequence item or map wrapper
// child. Composites and raw elements keep their own names.
func defaultItemName(b Binding) string {
	switch b.Kind() {
	case xmlb.KindComposite, xmlb.KindRaw:
		return ""
	}
	return itemElementName
}

func deserialize(b Binding, el *etree.Element) (any, error) {
	d, ok := b.(Deserializer)
	if !ok {
		return nil, &xmlb.StructuralMismatchError{Type: b.Type().String(), Reason: "binding cannot construct values"}
	}
	return d.Deserialize(el)
}

// valueOf returns a reflect.Value of type t holding v, the zero value when v
// is nil.
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

// ElementName returns the element name b writes when no name is given. Raw
// bindings keep the name of the element they copy and return "".
func ElementName(b Binding) string {
	if c, ok := CompositeOf(b); ok {
		return c.Name()
	}
	switch b.Kind() {
	case xmlb.KindScalar:
		return scalarElementName
	case xmlb.KindSequence:
		return sequenceElementName
	case xmlb.KindMapping:
		return mappingElementName
	}
	return ""
}
