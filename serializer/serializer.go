// Package serializer is the entry point of the binding engine: it turns
// values into etree elements and back using bindings from a shared cache.
package serializer

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/binding"
	"github.com/configstore/xmlb/document"
	"github.com/configstore/xmlb/filter"
	"github.com/configstore/xmlb/logging"
	"github.com/configstore/xmlb/metrics"
	"github.com/configstore/xmlb/xinclude"
)

var rawType = reflect.TypeOf((*etree.Element)(nil))

// Options configures a Serializer.
type Options struct {
	// Logger receives warnings about unexpected failures and the debug
	// output of the binding cache.
	Logger logging.Logger

	// Registry holds declarative schemas. Defaults to xmlb.DefaultRegistry.
	Registry *xmlb.TypeRegistry

	// Introspector overrides how composite types are described. Defaults to
	// the Registry, then struct tags.
	Introspector xmlb.Introspector

	// Resolver expands inclusions of documents loaded from a Source.
	// Defaults to an xinclude.Includer.
	Resolver xinclude.Resolver

	// Cache shares bindings between serializers. A new cache is created
	// when nil.
	Cache *binding.Cache

	// Registerer receives the binding cache collectors when set.
	Registerer prometheus.Registerer
}

// Serializer converts values to XML and back. It is safe for concurrent use.
type Serializer struct {
	options Options
	cache   *binding.Cache
}

// New returns a Serializer.
func New(optFns ...func(*Options)) *Serializer {
	var o Options
	for _, fn := range optFns {
		fn(&o)
	}
	o.Logger = logging.OrNoop(o.Logger)
	if o.Registry == nil {
		o.Registry = xmlb.DefaultRegistry
	}
	if o.Introspector == nil {
		o.Introspector = xmlb.NewIntrospector(o.Registry)
	}
	if o.Resolver == nil {
		o.Resolver = xinclude.New(func(xo *xinclude.Options) {
			xo.Logger = o.Logger
		})
	}
	if o.Cache == nil {
		o.Cache = binding.NewCache(func(co *binding.CacheOptions) {
			co.Introspector = o.Introspector
			co.Logger = o.Logger
		})
	}
	if o.Registerer != nil {
		if err := metrics.Register(o.Registerer); err != nil {
			o.Logger.Logf(logging.Warn, "binding cache metrics not registered, %v", err)
		}
	}
	return &Serializer{options: o, cache: o.Cache}
}

var (
	defaultOnce       sync.Once
	defaultSerializer *Serializer
)

// Default returns the process-wide Serializer.
func Default() *Serializer {
	defaultOnce.Do(func() {
		defaultSerializer = New()
	})
	return defaultSerializer
}

// ClearBindingCache drops the bindings of the process-wide Serializer.
func ClearBindingCache() {
	Default().ClearBindingCache()
}

// DefaultFilter returns the filter suppressing values equal to their
// defaults and delegating to self-filtering beans. The filter is stateless,
// so every call returns an identical value without allocating.
func DefaultFilter() xmlb.Filter {
	return filter.SkipDefaults{}
}

// Binding returns the cached binding of t.
func (s *Serializer) Binding(t reflect.Type) (binding.Binding, error) {
	return s.cache.Binding(t)
}

// ClearBindingCache drops every cached binding. It must not be called
// while a type is being redefined on another goroutine.
func (s *Serializer) ClearBindingCache() {
	s.cache.Clear()
}

// Serialize writes obj as an element. A nil f writes every property.
//
// When obj is a composite whose serialization is empty, or a nil pointer,
// the result is nil unless createIfEmpty is set, in which case an empty
// element is returned. Other values always produce an element, except a nil
// *etree.Element, which has no name to create one from and yields nil.
func (s *Serializer) Serialize(obj any, f xmlb.Filter, createIfEmpty bool) (el *etree.Element, err error) {
	defer s.guard(&err, obj, "serialize")
	if obj == nil {
		return nil, nil
	}

	b, err := s.cache.Binding(reflect.TypeOf(obj))
	if err != nil {
		return nil, s.normalize(err, obj, "serialize")
	}
	el, err = b.Serialize(obj, "", f)
	if err != nil {
		return nil, s.normalize(err, obj, "serialize")
	}

	if b.Kind() == xmlb.KindComposite {
		if el != nil && !document.IsEmpty(el) {
			return el, nil
		}
		if !createIfEmpty {
			return nil, nil
		}
	}
	if el == nil {
		if name := binding.ElementName(b); name != "" {
			el = etree.NewElement(name)
		}
	}
	return el, nil
}

// SerializeExcluding serializes obj with the default filter, never writing
// the named properties.
func (s *Serializer) SerializeExcluding(obj any, names ...string) (*etree.Element, error) {
	return s.Serialize(obj, filter.Excluding(DefaultFilter(), names...), false)
}

// SerializeObjectInto writes obj into target, keeping target's content.
//
// When obj is an *etree.Element its attributes and children are moved onto
// target, leaving obj empty. Otherwise obj must be a composite and a nil f
// selects the default filter.
func (s *Serializer) SerializeObjectInto(obj any, target *etree.Element, f xmlb.Filter) (err error) {
	defer s.guard(&err, obj, "serialize")
	if src, ok := obj.(*etree.Element); ok {
		document.MoveContent(src, target)
		return nil
	}
	if obj == nil {
		return &xmlb.StructuralMismatchError{Type: "nil", Reason: "nothing to serialize"}
	}

	b, err := s.cache.Binding(reflect.TypeOf(obj))
	if err != nil {
		return s.normalize(err, obj, "serialize")
	}
	c, ok := binding.CompositeOf(b)
	if !ok {
		return &xmlb.StructuralMismatchError{Type: typeName(obj), Reason: "only composites can be written into an element"}
	}
	if f == nil {
		f = DefaultFilter()
	}
	return s.normalize(c.SerializeInto(obj, target, f), obj, "serialize")
}

// Deserialize decodes el as a T. When T is *etree.Element, el itself is
// returned.
func Deserialize[T any](s *Serializer, el *etree.Element) (T, error) {
	var zero T
	v, err := s.DeserializeType(el, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, &xmlb.StructuralMismatchError{Type: fmt.Sprintf("%T", zero), Reason: fmt.Sprintf("decoded %T", v)}
	}
	return out, nil
}

// DeserializeType decodes el as a value of type t.
func (s *Serializer) DeserializeType(el *etree.Element, t reflect.Type) (v any, err error) {
	defer s.guardType(&err, t, "deserialize")
	if t == rawType {
		return el, nil
	}
	if el == nil {
		return nil, &xmlb.StructuralMismatchError{Type: t.String(), Reason: "no element"}
	}

	b, err := s.cache.Binding(t)
	if err != nil {
		return nil, s.normalizeType(err, t, "deserialize")
	}
	d, ok := b.(binding.Deserializer)
	if !ok {
		return nil, &xmlb.StructuralMismatchError{Type: t.String(), Reason: "binding cannot construct values"}
	}
	v, err = d.Deserialize(el)
	if err != nil {
		return nil, s.normalizeType(err, t, "deserialize")
	}
	return v, nil
}

// DeserializeInto merges el into bean, which must be a non-nil pointer to a
// composite. See binding.Composite.DeserializeInto.
func (s *Serializer) DeserializeInto(bean any, el *etree.Element) (err error) {
	defer s.guard(&err, bean, "deserialize")
	t := reflect.TypeOf(bean)
	if t == nil || t.Kind() != reflect.Pointer || reflect.ValueOf(bean).IsNil() {
		return &xmlb.StructuralMismatchError{Type: typeName(bean), Reason: "merge target must be a non-nil pointer"}
	}

	b, err := s.cache.Binding(t.Elem())
	if err != nil {
		return s.normalize(err, bean, "deserialize")
	}
	c, ok := b.(*binding.Composite)
	if !ok {
		return &xmlb.StructuralMismatchError{Type: t.Elem().String(), Reason: "cannot merge into a " + b.Kind().String()}
	}
	return s.normalize(c.DeserializeInto(bean, el), bean, "deserialize")
}

// DeserializeSource loads the document behind src, expands its inclusions
// and decodes its root element as a T.
func DeserializeSource[T any](ctx context.Context, s *Serializer, src document.Source) (T, error) {
	var zero T
	root, err := s.Load(ctx, src)
	if err != nil {
		return zero, err
	}
	return Deserialize[T](s, root)
}

// Load reads the document behind src and expands its inclusions. Failures
// are returned as *xmlb.SourceLoadError.
func (s *Serializer) Load(ctx context.Context, src document.Source) (*etree.Element, error) {
	ctx = logging.ContextWithFields(ctx, zap.String("source", src.Location()))
	doc, err := document.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	doc, err = s.options.Resolver.Resolve(ctx, doc, src.Location())
	if err != nil {
		var le *xmlb.SourceLoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &xmlb.SourceLoadError{Location: src.Location(), Err: err}
	}
	logging.WithContext(ctx, s.options.Logger).Logf(logging.Debug, "loaded %s", src.Location())
	return doc.Root(), nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
