package binding

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/configstore/xmlb"
)

// Mapping binds maps as a list of <entry> elements ordered by the text form
// of their keys. Scalar keys and values are written as key and value
// attributes, others are wrapped in <key> and <value> child elements.
// Decoding keeps the last entry of a duplicated key.
type Mapping struct {
	typ   reflect.Type
	key   Binding
	value Binding
}

func newMapping(t reflect.Type) *Mapping {
	return &Mapping{typ: t}
}

func (b *Mapping) init(r resolver) error {
	key, err := r.resolve(b.typ.Key())
	if err != nil {
		return err
	}
	value, err := r.resolve(b.typ.Elem())
	if err != nil {
		return err
	}
	b.key, b.value = key, value
	return nil
}

func (b *Mapping) Kind() xmlb.Kind    { return xmlb.KindMapping }
func (b *Mapping) Type() reflect.Type { return b.typ }

type mapEntry struct {
	key     reflect.Value
	sortKey string
}

// Serialize writes v as an element of entries. A nil map is not written.
func (b *Mapping) Serialize(v any, name string, f xmlb.Filter) (*etree.Element, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.IsNil() {
		return nil, nil
	}
	if rv.Type() != b.typ {
		return nil, errors.Newf("cannot serialize %s as %s", rv.Type(), b.typ)
	}
	if name == "" {
		name = mappingElementName
	}

	entries := lo.Map(rv.MapKeys(), func(k reflect.Value, _ int) mapEntry {
		return mapEntry{key: k, sortKey: b.sortKey(k)}
	})
	slices.SortStableFunc(entries, func(x, y mapEntry) int {
		return strings.Compare(x.sortKey, y.sortKey)
	})

	el := etree.NewElement(name)
	for _, e := range entries {
		entry := el.CreateElement(entryElementName)
		if err := b.writePart(entry, keyName, b.key, e.key.Interface(), f); err != nil {
			return nil, xmlb.WithPath(err, e.sortKey)
		}
		if err := b.writePart(entry, valueName, b.value, rv.MapIndex(e.key).Interface(), f); err != nil {
			return nil, xmlb.WithPath(err, e.sortKey)
		}
	}
	return el, nil
}

func (b *Mapping) sortKey(k reflect.Value) string {
	if b.key.Kind() == xmlb.KindScalar {
		if text, ok, err := formatScalar(b.key, k.Interface()); err == nil && ok {
			return text
		}
	}
	return fmt.Sprint(k.Interface())
}

func (b *Mapping) writePart(entry *etree.Element, name string, pb Binding, v any, f xmlb.Filter) error {
	if pb.Kind() == xmlb.KindScalar {
		text, ok, err := formatScalar(pb, v)
		if err != nil || !ok {
			return err
		}
		entry.CreateAttr(name, text)
		return nil
	}

	child, err := pb.Serialize(v, defaultItemName(pb), f)
	if err != nil || child == nil {
		return err
	}
	entry.CreateElement(name).AddChild(child)
	return nil
}

// Deserialize decodes the <entry> children of el.
func (b *Mapping) Deserialize(el *etree.Element) (any, error) {
	entries := el.SelectElements(entryElementName)
	out := reflect.MakeMapWithSize(b.typ, len(entries))

	for i, entry := range entries {
		k, ok, err := b.readPart(entry, keyName, b.key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &xmlb.StructuralMismatchError{Type: b.typ.String(), Reason: fmt.Sprintf("entry %d has no key", i)}
		}
		v, _, err := b.readPart(entry, valueName, b.value)
		if err != nil {
			return nil, err
		}
		out.SetMapIndex(valueOf(k, b.typ.Key()), valueOf(v, b.typ.Elem()))
	}
	return out.Interface(), nil
}

func (b *Mapping) readPart(entry *etree.Element, name string, pb Binding) (any, bool, error) {
	if pb.Kind() == xmlb.KindScalar {
		a := entry.SelectAttr(name)
		if a == nil {
			return nil, false, nil
		}
		v, err := parseScalar(pb, a.Value)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}

	w := entry.SelectElement(name)
	if w == nil {
		return nil, false, nil
	}
	children := w.ChildElements()
	if len(children) == 0 {
		return nil, false, nil
	}
	v, err := deserialize(pb, children[0])
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}
