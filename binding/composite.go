package binding

import (
	"reflect"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/document"
	"github.com/configstore/xmlb/internal/clone"
	"github.com/configstore/xmlb/traits"
)

type layout int

const (
	layoutAttr layout = iota
	layoutElem
	layoutText
	layoutFlat
)

var selfFilterType = reflect.TypeOf((*xmlb.SelfFilter)(nil)).Elem()

// Composite binds a struct type through its property accessors.
//
// Scalar properties are written as attributes unless traited otherwise,
// every other property as a child element named after the property.
type Composite struct {
	typ        reflect.Type
	info       *xmlb.TypeInfo
	properties []*property
	selfFilter bool
}

type property struct {
	xmlb.Accessor
	binding  Binding
	kind     xmlb.Kind
	layout   layout
	itemName string
	dflt     any
}

// Default returns the declared default, or the value of the property on a
// freshly constructed instance.
func (p *property) Default() (any, bool) {
	return p.dflt, true
}

func newComposite(t reflect.Type, info *xmlb.TypeInfo) *Composite {
	return &Composite{
		typ:        t,
		info:       info,
		selfFilter: reflect.PointerTo(t).Implements(selfFilterType),
	}
}

func (b *Composite) Kind() xmlb.Kind    { return xmlb.KindComposite }
func (b *Composite) Type() reflect.Type { return b.typ }

// Name returns the element name of the bound type.
func (b *Composite) Name() string { return b.info.Name }

// Properties returns the accessors in serialization order. Their Default
// reports the effective default used by filters.
func (b *Composite) Properties() []xmlb.Accessor {
	out := make([]xmlb.Accessor, len(b.properties))
	for i, p := range b.properties {
		out[i] = p
	}
	return out
}

// New allocates a default instance and returns a pointer to it.
func (b *Composite) New() any {
	return b.info.New()
}

func (b *Composite) init(r resolver) error {
	fresh := b.info.New()

	var hasText bool
	props := make([]*property, 0, len(b.info.Properties))
	for _, a := range b.info.Properties {
		pb, err := r.resolve(a.Type())
		if err != nil {
			var be *xmlb.BindingError
			if errors.As(err, &be) && be.Property != "" {
				return err
			}
			return &xmlb.BindingError{Type: b.typ.String(), Property: a.Name(), Reason: "unsupported property type", Err: err}
		}

		p := &property{Accessor: a, binding: pb, kind: pb.Kind()}
		if err := b.plan(p); err != nil {
			return err
		}
		if p.layout == layoutText {
			if hasText {
				return &xmlb.BindingError{Type: b.typ.String(), Property: a.Name(), Reason: "more than one text property"}
			}
			hasText = true
		}

		if d, ok := a.Default(); ok {
			p.dflt = clone.Value(d)
		} else if p.dflt, err = a.Get(fresh); err != nil {
			return &xmlb.BindingError{Type: b.typ.String(), Property: a.Name(), Reason: "cannot read default", Err: err}
		}
		props = append(props, p)
	}
	b.properties = props
	return nil
}

// plan picks the layout of p from its traits and kind.
func (b *Composite) plan(p *property) error {
	ts := p.Traits()
	fail := func(reason string) error {
		return &xmlb.BindingError{Type: b.typ.String(), Property: p.Name(), Reason: reason}
	}

	switch {
	case ts.Has((*traits.XMLText)(nil).TraitID()):
		if p.kind != xmlb.KindScalar {
			return fail("text layout requires a scalar")
		}
		p.layout = layoutText
	case ts.Has((*traits.XMLFlattened)(nil).TraitID()):
		if _, ok := p.binding.(*Sequence); !ok {
			return fail("flattened layout requires a slice or array")
		}
		p.layout = layoutFlat
	case ts.Has((*traits.XMLAttribute)(nil).TraitID()):
		if p.kind != xmlb.KindScalar {
			return fail("attribute layout requires a scalar")
		}
		p.layout = layoutAttr
	case ts.Has((*traits.XMLElement)(nil).TraitID()):
		p.layout = layoutElem
	case p.kind == xmlb.KindScalar:
		p.layout = layoutAttr
	default:
		p.layout = layoutElem
	}

	if it, ok := xmlb.AccessorTrait[*traits.XMLItemName](p); ok {
		p.itemName = it.Name
	}
	return nil
}

// bean returns v as a *T. Struct values are copied into a new instance.
func (b *Composite) bean(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return nil, nil
	case rv.Type() == reflect.PointerTo(b.typ):
		if rv.IsNil() {
			return nil, nil
		}
		return v, nil
	case rv.Type() == b.typ:
		p := reflect.New(b.typ)
		p.Elem().Set(rv)
		return p.Interface(), nil
	}
	return nil, errors.Newf("cannot serialize %T as %s", v, b.typ)
}

// Serialize writes v, a T or *T, as an element. Properties rejected by f are
// skipped; a nil f accepts every property.
func (b *Composite) Serialize(v any, name string, f xmlb.Filter) (*etree.Element, error) {
	bean, err := b.bean(v)
	if err != nil || bean == nil {
		return nil, err
	}
	if name == "" {
		name = b.info.Name
	}
	el := etree.NewElement(name)
	if err := b.write(bean, el, f); err != nil {
		return nil, err
	}
	return el, nil
}

// SerializeInto writes the properties of v into target, keeping the content
// target already has. Attributes of the same name are overwritten, child
// elements are appended.
func (b *Composite) SerializeInto(v any, target *etree.Element, f xmlb.Filter) error {
	bean, err := b.bean(v)
	if err != nil {
		return err
	}
	if bean == nil {
		return nil
	}
	return b.write(bean, target, f)
}

func (b *Composite) accepts(p *property, bean any, f xmlb.Filter) bool {
	if f == nil {
		return true
	}
	if b.selfFilter {
		if d, ok := f.(xmlb.BeanDelegator); ok && d.DelegatesToBean() {
			return bean.(xmlb.SelfFilter).AcceptsProperty(p)
		}
	}
	return f.Accepts(p, bean)
}

func (b *Composite) write(bean any, el *etree.Element, f xmlb.Filter) error {
	for _, p := range b.properties {
		if !b.accepts(p, bean, f) {
			continue
		}
		v, err := p.Get(bean)
		if err != nil {
			return errors.Wrapf(err, "get %s.%s", b.typ, p.Name())
		}

		switch p.layout {
		case layoutAttr, layoutText:
			text, ok, err := formatScalar(p.binding, v)
			if err != nil {
				return xmlb.WithPath(err, p.Name())
			}
			if !ok {
				continue
			}
			if p.layout == layoutAttr {
				el.CreateAttr(p.Name(), text)
			} else {
				el.SetText(text)
			}

		case layoutFlat:
			seq := p.binding.(*Sequence)
			itemName := p.itemName
			if itemName == "" {
				itemName = p.Name()
			}
			if err := seq.writeItems(v, itemName, el, f); err != nil {
				return err
			}

		case layoutElem:
			var child *etree.Element
			if seq, ok := p.binding.(*Sequence); ok && p.itemName != "" {
				child, err = seq.serialize(v, p.Name(), p.itemName, f)
			} else {
				child, err = p.binding.Serialize(v, p.Name(), f)
			}
			if err != nil {
				return err
			}
			if child != nil {
				el.AddChild(child)
			}
		}
	}
	return nil
}

// Deserialize constructs a default instance and merges el into it. The
// result is a T.
func (b *Composite) Deserialize(el *etree.Element) (any, error) {
	bean, err := b.deserializePtr(el)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(bean).Elem().Interface(), nil
}

func (b *Composite) deserializePtr(el *etree.Element) (any, error) {
	bean := b.info.New()
	if err := b.DeserializeInto(bean, el); err != nil {
		return nil, err
	}
	return bean, nil
}

// DeserializeInto merges el into bean, a *T. Properties present in el are
// written, absent ones are left untouched and unknown names are ignored.
// Nested composites that already hold a value are merged recursively. On
// error the properties before the failing one have already been written.
func (b *Composite) DeserializeInto(bean any, el *etree.Element) error {
	rv := reflect.ValueOf(bean)
	if !rv.IsValid() || rv.Type() != reflect.PointerTo(b.typ) || rv.IsNil() {
		return &xmlb.StructuralMismatchError{Type: b.typ.String(), Reason: "cannot merge into " + typeName(bean)}
	}

	for _, p := range b.properties {
		if err := b.read(p, bean, el); err != nil {
			return xmlb.WithPath(err, p.Name())
		}
	}
	return nil
}

func (b *Composite) read(p *property, bean any, el *etree.Element) error {
	switch p.layout {
	case layoutAttr:
		a := el.SelectAttr(p.Name())
		if a == nil {
			return nil
		}
		v, err := parseScalar(p.binding, a.Value)
		if err != nil {
			return err
		}
		return p.Set(bean, v)

	case layoutText:
		if !document.HasText(el) {
			return nil
		}
		v, err := parseScalar(p.binding, document.Text(el))
		if err != nil {
			return err
		}
		return p.Set(bean, v)

	case layoutFlat:
		items := el.SelectElements(p.Name())
		if p.itemName != "" {
			items = el.SelectElements(p.itemName)
		}
		if len(items) == 0 {
			return nil
		}
		v, err := p.binding.(*Sequence).readItems(items)
		if err != nil {
			return err
		}
		return p.Set(bean, valueOf(v, p.Type()).Interface())
	}

	child := el.SelectElement(p.Name())
	if child == nil {
		return nil
	}
	if p.kind == xmlb.KindComposite {
		return b.merge(p, bean, child)
	}
	v, err := deserialize(p.binding, child)
	if err != nil {
		return err
	}
	return p.Set(bean, v)
}

// merge decodes a nested composite into the value the property already
// holds, allocating one when it is nil.
func (b *Composite) merge(p *property, bean any, child *etree.Element) error {
	nested, ok := CompositeOf(p.binding)
	if !ok {
		return &xmlb.StructuralMismatchError{Type: p.Type().String(), Reason: "not a composite"}
	}
	cur, err := p.Get(bean)
	if err != nil {
		return err
	}

	switch pb := p.binding.(type) {
	case *Composite:
		ptr := reflect.New(pb.typ)
		ptr.Elem().Set(valueOf(cur, pb.typ))
		if err := nested.DeserializeInto(ptr.Interface(), child); err != nil {
			return err
		}
		return p.Set(bean, ptr.Elem().Interface())

	case *Pointer:
		rv := reflect.ValueOf(cur)
		if pb.elem == nested && rv.IsValid() && !rv.IsNil() {
			return nested.DeserializeInto(cur, child)
		}
	}

	v, err := deserialize(p.binding, child)
	if err != nil {
		return err
	}
	return p.Set(bean, v)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
