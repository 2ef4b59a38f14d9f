package xmlb

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/configstore/xmlb/traits"
)

type Base struct {
	ID string `xmlb:"id"`
}

type tagged struct {
	*Base
	Host    string   `xmlb:"host" default:"localhost"`
	Port    int      `xmlb:"port,elem" default:"8080"`
	Limit   *int     `xmlb:"limit" default:"10"`
	Notes   string   `xmlb:"notes,text"`
	Tags    []string `xmlb:"tags,item=tag"`
	Lines   []string `xmlb:"line,flat"`
	Skipped string   `xmlb:"-"`
	Plain   bool
	hidden  int
}

type initialized struct {
	Name  string `xmlb:"name" default:"declared"`
	Level int    `xmlb:"level"`
}

func (i *initialized) InitDefaults() {
	i.Level = 3
}

type wrapper struct {
	Inner initialized `xmlb:"inner"`
	Point struct {
		X int `xmlb:"x" default:"1"`
	} `xmlb:"point"`
}

type Box[T any] struct {
	Value T `xmlb:"value"`
}

func TestReflectTypeInfo(t *testing.T) {
	info, err := ReflectTypeInfo(reflect.TypeOf(tagged{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if e, a := "tagged", info.Name; e != a {
		t.Errorf("expected %v, got %v", e, a)
	}

	var names []string
	for _, p := range info.Properties {
		names = append(names, p.Name())
	}
	expect := []string{"id", "host", "port", "limit", "notes", "tags", "line", "Plain"}
	if diff := cmp.Diff(expect, names); len(diff) != 0 {
		t.Errorf("property mismatch (-expect +actual):\n%s", diff)
	}

	byName := map[string]Accessor{}
	for _, p := range info.Properties {
		byName[p.Name()] = p
	}
	if !byName["port"].Traits().Has((*traits.XMLElement)(nil).TraitID()) {
		t.Errorf("expected port to carry the element trait")
	}
	if !byName["notes"].Traits().Has((*traits.XMLText)(nil).TraitID()) {
		t.Errorf("expected notes to carry the text trait")
	}
	if !byName["line"].Traits().Has((*traits.XMLFlattened)(nil).TraitID()) {
		t.Errorf("expected line to carry the flattened trait")
	}
	if it, ok := AccessorTrait[*traits.XMLItemName](byName["tags"]); !ok || it.Name != "tag" {
		t.Errorf("expected tags item name tag, got %v", it)
	}
	if d, ok := byName["port"].Default(); !ok || d != 8080 {
		t.Errorf("expected port default 8080, got %v, %v", d, ok)
	}
	if _, ok := byName["Plain"].Default(); ok {
		t.Errorf("expected Plain to have no declared default")
	}
}

func TestReflectTypeInfoNew(t *testing.T) {
	info, err := ReflectTypeInfo(reflect.TypeOf(tagged{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	first := info.New().(*tagged)
	second := info.New().(*tagged)

	ten := 10
	expect := &tagged{Host: "localhost", Port: 8080, Limit: &ten}
	if diff := cmp.Diff(expect, first, cmp.AllowUnexported(tagged{})); len(diff) != 0 {
		t.Errorf("instance mismatch (-expect +actual):\n%s", diff)
	}
	if first.Limit == second.Limit {
		t.Errorf("expected instances not to share pointer defaults")
	}
}

func TestReflectTypeInfoInitializer(t *testing.T) {
	info, err := ReflectTypeInfo(reflect.TypeOf(initialized{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff(&initialized{Name: "declared", Level: 3}, info.New()); len(diff) != 0 {
		t.Errorf("instance mismatch (-expect +actual):\n%s", diff)
	}
}

func TestReflectTypeInfoNestedDefaults(t *testing.T) {
	info, err := ReflectTypeInfo(reflect.TypeOf(wrapper{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	w := info.New().(*wrapper)
	if diff := cmp.Diff(initialized{Name: "declared", Level: 3}, w.Inner); len(diff) != 0 {
		t.Errorf("nested instance mismatch (-expect +actual):\n%s", diff)
	}
	if e, a := 1, w.Point.X; e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
}

func TestReflectTypeInfoErrors(t *testing.T) {
	cases := map[string]any{
		"not a struct": 5,
		"unknown option": struct {
			A int `xmlb:"a,sideways"`
		}{},
		"duplicate name": struct {
			A int `xmlb:"x"`
			B int `xmlb:"x"`
		}{},
		"invalid default": struct {
			A int `xmlb:"a" default:"many"`
		}{},
		"default on composite": struct {
			A []int `xmlb:"a" default:"1"`
		}{},
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReflectTypeInfo(reflect.TypeOf(v))
			if _, ok := err.(*BindingError); !ok {
				t.Errorf("expected BindingError, got %v", err)
			}
		})
	}
}

func TestFieldAccessorEmbedded(t *testing.T) {
	info, err := ReflectTypeInfo(reflect.TypeOf(tagged{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	id := info.Properties[0]
	bean := &tagged{}

	v, err := id.Get(bean)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := "", v; e != a {
		t.Errorf("expected %q, got %v", e, a)
	}

	if err := id.Set(bean, "abc"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if bean.Base == nil || bean.Base.ID != "abc" {
		t.Errorf("expected embedded base to be allocated, got %v", bean.Base)
	}
}

func TestFieldAccessorErrors(t *testing.T) {
	info, err := ReflectTypeInfo(reflect.TypeOf(tagged{}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	host := info.Properties[1]

	if _, err := host.Get(tagged{}); err == nil {
		t.Errorf("expected error reading a non-pointer bean")
	}
	if err := host.Set(&tagged{}, struct{}{}); err == nil {
		t.Errorf("expected error assigning a struct to a string")
	}
	if err := host.Set(&initialized{}, "x"); err == nil {
		t.Errorf("expected error writing another type")
	}
}

func TestElementName(t *testing.T) {
	cases := map[string]struct {
		typ    reflect.Type
		expect string
	}{
		"struct":    {typ: reflect.TypeOf(tagged{}), expect: "tagged"},
		"pointer":   {typ: reflect.TypeOf(&Base{}), expect: "Base"},
		"generic":   {typ: reflect.TypeOf(Box[int]{}), expect: "Box"},
		"anonymous": {typ: reflect.TypeOf(struct{}{}), expect: "bean"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if e, a := c.expect, ElementName(c.typ); e != a {
				t.Errorf("expected %v, got %v", e, a)
			}
		})
	}
}

func TestTypeKey(t *testing.T) {
	ints, strs := KeyOf(reflect.TypeOf(Box[int]{})), KeyOf(reflect.TypeOf(Box[string]{}))
	if ints == strs {
		t.Errorf("expected distinct keys for distinct instantiations")
	}
	if ints != KeyOf(reflect.TypeOf(Box[int]{})) {
		t.Errorf("expected equal keys for the same instantiation")
	}
	if e, a := "xmlb.Box[int]", ints.String(); e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
	if e, a := "<nil>", (TypeKey{}).String(); e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
}
