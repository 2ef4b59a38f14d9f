package binding

import (
	"reflect"
	"strconv"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"

	"github.com/configstore/xmlb"
)

// Sequence binds slices and arrays. Items are written as child elements in
// order: scalars as <item value=".."/>, composites under their own element
// name and nested collections as <item>. Nil items are dropped.
type Sequence struct {
	typ  reflect.Type
	elem Binding
}

func newSequence(t reflect.Type) *Sequence {
	return &Sequence{typ: t}
}

func (b *Sequence) init(r resolver) error {
	elem, err := r.resolve(b.typ.Elem())
	if err != nil {
		return err
	}
	b.elem = elem
	return nil
}

func (b *Sequence) Kind() xmlb.Kind    { return xmlb.KindSequence }
func (b *Sequence) Type() reflect.Type { return b.typ }

// Elem returns the binding of the item type.
func (b *Sequence) Elem() Binding { return b.elem }

// Serialize writes v as an element holding one child per item. A nil slice
// is not written.
func (b *Sequence) Serialize(v any, name string, f xmlb.Filter) (*etree.Element, error) {
	return b.serialize(v, name, "", f)
}

func (b *Sequence) serialize(v any, name, itemName string, f xmlb.Filter) (*etree.Element, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, nil
	}
	if name == "" {
		name = sequenceElementName
	}
	el := etree.NewElement(name)
	if err := b.writeItems(v, itemName, el, f); err != nil {
		return nil, err
	}
	return el, nil
}

// writeItems appends the items of v to parent. An empty itemName selects the
// default item name of the element binding.
func (b *Sequence) writeItems(v any, itemName string, parent *etree.Element, f xmlb.Filter) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Type() != b.typ {
		return errors.Newf("cannot serialize %s as %s", rv.Type(), b.typ)
	}
	if itemName == "" {
		itemName = defaultItemName(b.elem)
	}

	for i := 0; i < rv.Len(); i++ {
		child, err := b.elem.Serialize(rv.Index(i).Interface(), itemName, f)
		if err != nil {
			return xmlb.WithPath(err, strconv.Itoa(i))
		}
		if child == nil {
			continue
		}
		parent.AddChild(child)
	}
	return nil
}

// Deserialize decodes every child element of el as an item.
func (b *Sequence) Deserialize(el *etree.Element) (any, error) {
	return b.readItems(el.ChildElements())
}

func (b *Sequence) readItems(items []*etree.Element) (any, error) {
	var out reflect.Value
	if b.typ.Kind() == reflect.Array {
		out = reflect.New(b.typ).Elem()
		if len(items) > b.typ.Len() {
			items = items[:b.typ.Len()]
		}
	} else {
		out = reflect.MakeSlice(b.typ, 0, len(items))
	}

	et := b.typ.Elem()
	for i, item := range items {
		v, err := deserialize(b.elem, item)
		if err != nil {
			return nil, xmlb.WithPath(err, strconv.Itoa(i))
		}
		if b.typ.Kind() == reflect.Array {
			out.Index(i).Set(valueOf(v, et))
		} else {
			out = reflect.Append(out, valueOf(v, et))
		}
	}
	return out.Interface(), nil
}
