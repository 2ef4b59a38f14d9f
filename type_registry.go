package xmlb

import (
	"fmt"
	"reflect"
	"sync"
)

// DefaultRegistry is the registry used by serializers that are not given
// one.
var DefaultRegistry = NewTypeRegistry()

// TypeRegistry holds declarative schemas and constructors for composite
// types. Types that are not registered fall back to struct tag reflection.
type TypeRegistry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*TypeRegistryEntry
}

// TypeRegistryEntry binds a Go type to its schema and constructor.
type TypeRegistryEntry struct {
	Schema *Schema

	// New returns a pointer to a default instance. When nil, instances are
	// allocated with the declared property defaults applied.
	New func() any
}

// RegistryEntry creates a type registry entry for T. It panics if schema
// describes another type.
func RegistryEntry[T any](schema *Schema) *TypeRegistryEntry {
	if t := reflect.TypeOf((*T)(nil)).Elem(); schema.Type() != t {
		panic(fmt.Sprintf("xmlb: schema of %s registered for %s", schema.Type(), t))
	}
	return &TypeRegistryEntry{Schema: schema}
}

// RegistryEntryFunc creates a type registry entry whose instances are built
// by newFn. Declared defaults are not applied to them.
func RegistryEntryFunc[T any](schema *Schema, newFn func() *T) *TypeRegistryEntry {
	return &TypeRegistryEntry{
		Schema: schema,
		New: func() any {
			return newFn()
		},
	}
}

// NewTypeRegistry returns a registry holding the given entries.
func NewTypeRegistry(entries ...*TypeRegistryEntry) *TypeRegistry {
	r := &TypeRegistry{}
	r.Register(entries...)
	return r
}

// Register adds entries to the registry, replacing previous entries for the
// same types. Bindings already built for a replaced type stay cached until
// the binding cache is cleared.
func (r *TypeRegistry) Register(entries ...*TypeRegistryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[reflect.Type]*TypeRegistryEntry, len(entries))
	}
	for _, e := range entries {
		r.entries[e.Schema.Type()] = e
	}
}

// Lookup returns the entry registered for t.
func (r *TypeRegistry) Lookup(t reflect.Type) (*TypeRegistryEntry, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[t]
	return e, ok
}

// NewIntrospector returns an Introspector that consults the registry first
// and falls back to ReflectTypeInfo. A nil registry uses reflection only.
func NewIntrospector(r *TypeRegistry) Introspector {
	return &introspector{registry: r}
}

type introspector struct {
	registry *TypeRegistry
}

func (i *introspector) Introspect(t reflect.Type) (*TypeInfo, error) {
	if e, ok := i.registry.Lookup(t); ok {
		newFn := e.New
		if newFn == nil {
			var err error
			if newFn, err = newInstance(t, e.Schema.Properties(), i); err != nil {
				return nil, err
			}
		}
		return &TypeInfo{
			Name:       e.Schema.Name(),
			Properties: e.Schema.Properties(),
			New:        newFn,
		}, nil
	}
	return reflectTypeInfo(t, i)
}
