package binding

import (
	"reflect"
	"sync"

	"go.uber.org/atomic"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/internal/scalar"
	"github.com/configstore/xmlb/logging"
	"github.com/configstore/xmlb/metrics"
)

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Introspector supplies the properties of composite types. Defaults to
	// struct tag reflection.
	Introspector xmlb.Introspector

	// Logger receives build and rollback entries at Debug level.
	Logger logging.Logger
}

// Cache holds one Binding per Go type.
//
// A miss opens a build session. Every binding the session constructs is
// visible to the rest of the session before its own initialization runs,
// so self-referential and mutually recursive types resolve to the instance
// already under construction. Only when the whole session succeeds are its
// bindings published, first writer wins, so other goroutines never observe
// a partially initialized binding. A failed session publishes nothing.
// Reads are lock-free and no lock is held while bindings initialize.
type Cache struct {
	entries    sync.Map // xmlb.TypeKey -> Binding
	generation atomic.Uint64

	introspector xmlb.Introspector
	logger       logging.Logger
}

// NewCache returns an empty Cache.
func NewCache(optFns ...func(*CacheOptions)) *Cache {
	var o CacheOptions
	for _, fn := range optFns {
		fn(&o)
	}
	if o.Introspector == nil {
		o.Introspector = xmlb.NewIntrospector(nil)
	}
	return &Cache{
		introspector: o.Introspector,
		logger:       logging.OrNoop(o.Logger),
	}
}

// Binding returns the binding of t, building it on first use. Repeated calls
// with the same type return the same instance until Clear.
func (c *Cache) Binding(t reflect.Type) (Binding, error) {
	if b, ok := c.entries.Load(xmlb.KeyOf(t)); ok {
		metrics.CacheLookups.WithLabelValues(metrics.ResultHit).Inc()
		return b.(Binding), nil
	}
	metrics.CacheLookups.WithLabelValues(metrics.ResultMiss).Inc()

	s := &session{
		cache:      c,
		generation: c.generation.Load(),
		built:      map[xmlb.TypeKey]Binding{},
	}
	b, err := s.resolve(t)
	if err != nil {
		c.logger.Logf(logging.Debug, "binding of %s rolled back, %d pending bindings discarded: %v", t, len(s.order), err)
		return nil, err
	}
	return s.publish(t, b), nil
}

// Clear drops every cached binding. Lookups in flight may still complete
// with a binding built before the clear. Clearing while a type is being
// redefined on another goroutine is unsafe.
func (c *Cache) Clear() {
	c.generation.Inc()
	c.entries.Clear()
	metrics.CacheClears.Inc()
	c.logger.Logf(logging.Debug, "binding cache cleared")
}

// Len returns the number of cached bindings.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *Cache) construct(t reflect.Type) (Binding, error) {
	kind, err := Classify(t)
	if err != nil {
		return nil, err
	}

	switch {
	case kind == xmlb.KindRaw && t == rawType:
		return Raw{}, nil
	case t.Kind() == reflect.Pointer:
		return newPointer(t)
	}

	switch kind {
	case xmlb.KindScalar:
		codec, _ := scalar.Lookup(t)
		return newScalar(t, codec), nil
	case xmlb.KindComposite:
		info, err := c.introspector.Introspect(t)
		if err != nil {
			return nil, err
		}
		return newComposite(t, info), nil
	case xmlb.KindSequence:
		return newSequence(t), nil
	case xmlb.KindMapping:
		return newMapping(t), nil
	}
	return nil, &xmlb.BindingError{Type: t.String(), Reason: "unsupported kind " + kind.String()}
}

// session is the arena of one top-level lookup.
type session struct {
	cache      *Cache
	generation uint64
	built      map[xmlb.TypeKey]Binding
	order      []xmlb.TypeKey
}

func (s *session) resolve(t reflect.Type) (Binding, error) {
	key := xmlb.KeyOf(t)
	if b, ok := s.cache.entries.Load(key); ok {
		return b.(Binding), nil
	}
	if b, ok := s.built[key]; ok {
		return b, nil
	}

	b, err := s.cache.construct(t)
	if err != nil {
		return nil, err
	}
	s.built[key] = b
	s.order = append(s.order, key)

	kind := b.Kind().String()
	if in, ok := b.(initializer); ok {
		if err := in.init(s); err != nil {
			metrics.Builds.WithLabelValues(kind, metrics.OutcomeFailure).Inc()
			return nil, err
		}
	}
	metrics.Builds.WithLabelValues(kind, metrics.OutcomeSuccess).Inc()
	s.cache.logger.Logf(logging.Debug, "built %s binding for %s", kind, key)
	return b, nil
}

// publish stores the session's bindings and returns the cached binding of
// root. Sessions that started before a Clear do not publish.
func (s *session) publish(root reflect.Type, b Binding) Binding {
	if s.cache.generation.Load() != s.generation {
		return b
	}
	out := b
	rootKey := xmlb.KeyOf(root)
	for _, k := range s.order {
		actual, _ := s.cache.entries.LoadOrStore(k, s.built[k])
		if k == rootKey {
			out = actual.(Binding)
		}
	}
	return out
}
