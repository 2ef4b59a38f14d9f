// Package filter provides the serialization filters deciding which property
// values are written.
package filter

import (
	"reflect"

	"github.com/samber/lo"

	"github.com/configstore/xmlb"
)

// AcceptAll writes every property.
var AcceptAll xmlb.Filter = xmlb.FilterFunc(func(xmlb.Accessor, any) bool { return true })

// SkipDefaults suppresses properties whose value equals their default. Beans
// implementing xmlb.SelfFilter decide for themselves.
type SkipDefaults struct{}

// Accepts reports whether the property differs from its default.
func (SkipDefaults) Accepts(a xmlb.Accessor, bean any) bool {
	return DiffersFromDefault(a, bean)
}

// DelegatesToBean returns true.
func (SkipDefaults) DelegatesToBean() bool { return true }

// DiffersFromDefault reports whether the current value of a on bean differs
// from the accessor's default. Properties without a default, or whose value
// cannot be read, always differ.
func DiffersFromDefault(a xmlb.Accessor, bean any) bool {
	d, ok := a.Default()
	if !ok {
		return true
	}
	v, err := a.Get(bean)
	if err != nil {
		return true
	}
	return !Equal(v, d)
}

// Equal compares property values deeply. Nil and empty slices and maps are
// equal, as are nil pointers of any type.
func Equal(x, y any) bool {
	if isEmpty(x) && isEmpty(y) {
		return true
	}
	return reflect.DeepEqual(x, y)
}

func isEmpty(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Excluding wraps base and never writes the named properties. When base
// delegates to the bean, beans implementing xmlb.SelfFilter decide about the
// remaining properties. A nil base accepts the remaining properties.
func Excluding(base xmlb.Filter, names ...string) xmlb.Filter {
	return &excluding{base: base, names: lo.Keyify(names)}
}

type excluding struct {
	base  xmlb.Filter
	names map[string]struct{}
}

func (f *excluding) Accepts(a xmlb.Accessor, bean any) bool {
	if _, ok := f.names[a.Name()]; ok {
		return false
	}
	if f.base == nil {
		return true
	}
	if sf, ok := bean.(xmlb.SelfFilter); ok && delegates(f.base) {
		return sf.AcceptsProperty(a)
	}
	return f.base.Accepts(a, bean)
}

func delegates(f xmlb.Filter) bool {
	d, ok := f.(xmlb.BeanDelegator)
	return ok && d.DelegatesToBean()
}
