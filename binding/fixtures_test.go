package binding

import (
	"reflect"
	"testing"

	"github.com/beevik/etree"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/document"
)

type Point struct {
	X int `xmlb:"x"`
	Y int `xmlb:"y"`
}

type Server struct {
	Host   string         `xmlb:"host" default:"localhost"`
	Port   int            `xmlb:"port" default:"8080"`
	Tags   []string       `xmlb:"tags"`
	Limits map[string]int `xmlb:"limits"`
	Backup *Server        `xmlb:"backup"`
}

type Node struct {
	Name     string `xmlb:"name"`
	Children []Node `xmlb:"children"`
	Next     *Node  `xmlb:"next"`
}

type Even struct {
	N   int  `xmlb:"n"`
	Odd *Odd `xmlb:"odd"`
}

type Odd struct {
	N    int   `xmlb:"n"`
	Even *Even `xmlb:"even"`
}

type Article struct {
	Title  string   `xmlb:"title,elem"`
	Body   string   `xmlb:"body,text"`
	Lines  []string `xmlb:"line,flat"`
	Points []Point  `xmlb:"points,item=pt"`
}

type Broken struct {
	Name string   `xmlb:"name"`
	Feed chan int `xmlb:"feed"`
}

type Outer struct {
	Origin Point  `xmlb:"origin"`
	Broken Broken `xmlb:"broken"`
}

type box[T any] struct {
	Value T `xmlb:"value"`
}

type Base struct {
	ID string `xmlb:"id"`
}

type Derived struct {
	*Base
	Name string
}

type Envelope struct {
	Kind  string         `xmlb:"kind"`
	Extra *etree.Element `xmlb:"extra"`
}

type Listener struct {
	Port int `xmlb:"port" default:"8080"`
}

type Gateway struct {
	Name     string   `xmlb:"name"`
	Listener Listener `xmlb:"listener"`
}

type bag struct {
	labels map[string]string
	ports  []int
}

func bagSchema() *xmlb.Schema {
	return xmlb.NewSchema[bag]("bag",
		xmlb.WithProperty(xmlb.Property("labels",
			func(b *bag) map[string]string { return b.labels },
			func(b *bag, v map[string]string) { b.labels = v },
			xmlb.WithDefault(map[string]string{"a": "1"}))),
		xmlb.WithProperty(xmlb.Property("ports",
			func(b *bag) []int { return b.ports },
			func(b *bag, v []int) { b.ports = v },
			xmlb.WithDefault([]int{80}))),
	)
}

type Private struct {
	Name  string `xmlb:"name"`
	Token string `xmlb:"token"`
}

func (p *Private) AcceptsProperty(a xmlb.Accessor) bool {
	return a.Name() != "token"
}

// delegating accepts everything unless the bean filters itself.
type delegating struct{}

func (delegating) Accepts(xmlb.Accessor, any) bool { return true }
func (delegating) DelegatesToBean() bool           { return true }

func mustBinding(t *testing.T, c *Cache, v any) Binding {
	t.Helper()
	b, err := c.Binding(reflect.TypeOf(v))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return b
}

func mustParse(t *testing.T, s string) *etree.Element {
	t.Helper()
	el, err := document.Parse(s)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return el
}

func mustSerialize(t *testing.T, b Binding, v any, f xmlb.Filter) string {
	t.Helper()
	el, err := b.Serialize(v, "", f)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return document.String(el)
}
