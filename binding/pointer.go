package binding

import (
	"reflect"

	"github.com/beevik/etree"

	"github.com/configstore/xmlb"
)

// Pointer binds an optional value. A nil pointer is not written.
type Pointer struct {
	typ  reflect.Type
	kind xmlb.Kind
	elem Binding
}

func newPointer(t reflect.Type) (*Pointer, error) {
	kind, err := Classify(t.Elem())
	if err != nil {
		return nil, err
	}
	return &Pointer{typ: t, kind: kind}, nil
}

func (b *Pointer) init(r resolver) error {
	elem, err := r.resolve(b.typ.Elem())
	if err != nil {
		return err
	}
	b.elem = elem
	return nil
}

// Kind returns the kind of the pointed-to type.
func (b *Pointer) Kind() xmlb.Kind    { return b.kind }
func (b *Pointer) Type() reflect.Type { return b.typ }

// Elem returns the binding of the pointed-to type.
func (b *Pointer) Elem() Binding { return b.elem }

func (b *Pointer) Serialize(v any, name string, f xmlb.Filter) (*etree.Element, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.IsNil() {
		return nil, nil
	}
	if _, ok := b.elem.(*Composite); ok {
		// composites serialize through the pointer so self-filtering beans
		// see the caller's instance
		return b.elem.Serialize(v, name, f)
	}
	return b.elem.Serialize(rv.Elem().Interface(), name, f)
}

func (b *Pointer) Deserialize(el *etree.Element) (any, error) {
	if c, ok := b.elem.(*Composite); ok {
		return c.deserializePtr(el)
	}
	v, err := deserialize(b.elem, el)
	if err != nil {
		return nil, err
	}
	p := reflect.New(b.typ.Elem())
	p.Elem().Set(valueOf(v, b.typ.Elem()))
	return p.Interface(), nil
}

// Raw binds *etree.Element properties. Elements are copied, never shared
// with the source tree.
type Raw struct{}

func (Raw) Kind() xmlb.Kind    { return xmlb.KindRaw }
func (Raw) Type() reflect.Type { return rawType }

// Serialize copies v and renames it to name when name is set.
func (Raw) Serialize(v any, name string, _ xmlb.Filter) (*etree.Element, error) {
	el, _ := v.(*etree.Element)
	if el == nil {
		return nil, nil
	}
	out := el.Copy()
	if name != "" {
		out.Space, out.Tag = "", name
	}
	return out, nil
}

func (Raw) Deserialize(el *etree.Element) (any, error) {
	return el.Copy(), nil
}
