package xmlb

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/configstore/xmlb/traits"
)

type declared struct {
	name  string
	size  int
	label string
}

func declaredSchema(opts ...func(*PropertyOptions)) *Schema {
	return NewSchema[declared]("Declared",
		WithProperty(Property("name",
			func(d *declared) string { return d.name },
			func(d *declared, v string) { d.name = v })),
		WithProperty(Property("size",
			func(d *declared) int { return d.size },
			func(d *declared, v int) { d.size = v },
			opts...), &traits.XMLElement{}),
		WithProperty(Property[declared, string]("label",
			func(d *declared) string { return d.label },
			nil)),
	)
}

func TestSchemaProperties(t *testing.T) {
	s := declaredSchema(WithDefault(5))

	if e, a := "Declared", s.Name(); e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
	if e, a := reflect.TypeOf(declared{}), s.Type(); e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
	if e, a := 3, len(s.Properties()); e != a {
		t.Fatalf("expected %v properties, got %v", e, a)
	}

	size := s.Property("size")
	if size == nil {
		t.Fatalf("expected size property")
	}
	if !size.Traits().Has((*traits.XMLElement)(nil).TraitID()) {
		t.Errorf("expected size to carry the element trait")
	}
	if e, a := reflect.TypeOf(0), size.Type(); e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
	if d, ok := size.Default(); !ok || d != 5 {
		t.Errorf("expected default 5, got %v, %v", d, ok)
	}
	if s.Property("missing") != nil {
		t.Errorf("expected no property")
	}
}

func TestSchemaDefaultName(t *testing.T) {
	if e, a := "declared", NewSchema[declared]("").Name(); e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
}

func TestDeclaredPropertyAccess(t *testing.T) {
	s := declaredSchema()
	bean := &declared{label: "fixed"}

	if err := s.Property("name").Set(bean, "n"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := s.Property("size").Set(bean, int64(4)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := s.Property("label").Set(bean, "changed"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff(&declared{name: "n", size: 4, label: "fixed"}, bean, cmp.AllowUnexported(declared{})); len(diff) != 0 {
		t.Errorf("bean mismatch (-expect +actual):\n%s", diff)
	}

	v, err := s.Property("name").Get(bean)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := "n", v; e != a {
		t.Errorf("expected %v, got %v", e, a)
	}

	if _, err := s.Property("name").Get(declared{}); err == nil {
		t.Errorf("expected error reading a non-pointer bean")
	}
	if err := s.Property("name").Set(bean, []int{1}); err == nil {
		t.Errorf("expected error assigning a slice to a string")
	}
}

func TestRegistryEntryTypeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	RegistryEntry[Base](declaredSchema())
}

func TestIntrospector(t *testing.T) {
	registry := NewTypeRegistry(RegistryEntry[declared](declaredSchema(WithDefault(7))))
	i := NewIntrospector(registry)

	info, err := i.Introspect(reflect.TypeOf(declared{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := "Declared", info.Name; e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
	if diff := cmp.Diff(&declared{size: 7}, info.New(), cmp.AllowUnexported(declared{})); len(diff) != 0 {
		t.Errorf("instance mismatch (-expect +actual):\n%s", diff)
	}

	info, err = i.Introspect(reflect.TypeOf(Base{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := "Base", info.Name; e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
}

func TestIntrospectorNestedRegistryDefaults(t *testing.T) {
	type holder struct {
		D declared `xmlb:"d"`
	}
	registry := NewTypeRegistry(RegistryEntry[declared](declaredSchema(WithDefault(7))))

	info, err := NewIntrospector(registry).Introspect(reflect.TypeOf(holder{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := 7, info.New().(*holder).D.size; e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
}

func TestSchemaReferenceDefaultsNotShared(t *testing.T) {
	type bag struct {
		labels map[string]string
		ports  []int
	}
	source := map[string]string{"a": "1"}
	schema := NewSchema[bag]("bag",
		WithProperty(Property("labels",
			func(b *bag) map[string]string { return b.labels },
			func(b *bag, v map[string]string) { b.labels = v },
			WithDefault(source))),
		WithProperty(Property("ports",
			func(b *bag) []int { return b.ports },
			func(b *bag, v []int) { b.ports = v },
			WithDefault([]int{80}))),
	)
	info, err := NewIntrospector(NewTypeRegistry(RegistryEntry[bag](schema))).Introspect(reflect.TypeOf(bag{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	source["a"] = "changed"
	first := info.New().(*bag)
	first.labels["b"] = "2"
	first.ports[0] = 443

	second := info.New().(*bag)
	if diff := cmp.Diff(map[string]string{"a": "1"}, second.labels); len(diff) != 0 {
		t.Errorf("labels mismatch (-expect +actual):\n%s", diff)
	}
	if diff := cmp.Diff([]int{80}, second.ports); len(diff) != 0 {
		t.Errorf("ports mismatch (-expect +actual):\n%s", diff)
	}
}

func TestIntrospectorConstructor(t *testing.T) {
	registry := NewTypeRegistry()
	registry.Register(RegistryEntryFunc(declaredSchema(WithDefault(7)), func() *declared {
		return &declared{label: "built"}
	}))

	info, err := NewIntrospector(registry).Introspect(reflect.TypeOf(declared{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff(&declared{label: "built"}, info.New(), cmp.AllowUnexported(declared{})); len(diff) != 0 {
		t.Errorf("instance mismatch (-expect +actual):\n%s", diff)
	}
}

func TestIntrospectorInvalidDefault(t *testing.T) {
	registry := NewTypeRegistry(RegistryEntry[declared](declaredSchema(WithDefault("big"))))

	_, err := NewIntrospector(registry).Introspect(reflect.TypeOf(declared{}))
	if _, ok := err.(*BindingError); !ok {
		t.Errorf("expected BindingError, got %v", err)
	}
}

func TestNilRegistry(t *testing.T) {
	if _, ok := (*TypeRegistry)(nil).Lookup(reflect.TypeOf(declared{})); ok {
		t.Errorf("expected no entry")
	}
	info, err := NewIntrospector(nil).Introspect(reflect.TypeOf(Base{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := 1, len(info.Properties); e != a {
		t.Errorf("expected %v properties, got %v", e, a)
	}
}
