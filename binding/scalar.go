package binding

import (
	"reflect"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/document"
	"github.com/configstore/xmlb/internal/scalar"
)

// Scalar binds a primitive type written as text.
type Scalar struct {
	typ   reflect.Type
	codec scalar.Codec
}

func newScalar(t reflect.Type, c scalar.Codec) *Scalar {
	return &Scalar{typ: t, codec: c}
}

func (b *Scalar) Kind() xmlb.Kind    { return xmlb.KindScalar }
func (b *Scalar) Type() reflect.Type { return b.typ }

// Format returns the text form of v.
func (b *Scalar) Format(v any) (string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		rv = reflect.Zero(b.typ)
	}
	if rv.Type() != b.typ {
		if !rv.Type().ConvertibleTo(b.typ) {
			return "", errors.Newf("cannot format %s as %s", rv.Type(), b.typ)
		}
		rv = rv.Convert(b.typ)
	}
	return b.codec.Format(rv)
}

// Parse decodes text. Malformed text is reported as a
// *xmlb.ValueConversionError.
func (b *Scalar) Parse(text string) (any, error) {
	v, err := b.codec.Parse(text)
	if err != nil {
		return nil, &xmlb.ValueConversionError{Value: text, Type: b.typ.String(), Err: err}
	}
	return v.Interface(), nil
}

// Serialize writes <name value="text"/>.
func (b *Scalar) Serialize(v any, name string, _ xmlb.Filter) (*etree.Element, error) {
	text, err := b.Format(v)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = scalarElementName
	}
	el := etree.NewElement(name)
	el.CreateAttr(valueName, text)
	return el, nil
}

// Deserialize reads the value attribute, or the element text when there is
// none.
func (b *Scalar) Deserialize(el *etree.Element) (any, error) {
	if a := el.SelectAttr(valueName); a != nil {
		return b.Parse(a.Value)
	}
	return b.Parse(document.Text(el))
}
