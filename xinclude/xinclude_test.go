package xinclude

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/logging"
)

const xi = `xmlns:xi="http://www.w3.org/2001/XInclude"`

type recordingLogger struct {
	entries []string
}

func (l *recordingLogger) Logf(c logging.Classification, format string, v ...interface{}) {
	l.entries = append(l.entries, string(c)+" "+fmt.Sprintf(format, v...))
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	return dir
}

func resolveFile(t *testing.T, in *Includer, path string) (*etree.Document, error) {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return in.Resolve(context.Background(), doc, path)
}

func render(t *testing.T, doc *etree.Document) string {
	t.Helper()
	root := doc.Root().Copy()
	out := etree.NewDocument()
	out.SetRoot(root)
	s, err := out.WriteToString()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return s
}

func TestResolve(t *testing.T) {
	cases := map[string]struct {
		files  map[string]string
		expect string
	}{
		"xml": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="part.xml"/></app>`,
				"part.xml": `<server port="8080"/>`,
			},
			expect: `<server port="8080"/>`,
		},
		"nested relative": {
			files: map[string]string{
				"main.xml":   `<app ` + xi + `><xi:include href="conf/a.xml"/></app>`,
				"conf/a.xml": `<a ` + xi + `><xi:include href="b.xml"/></a>`,
				"conf/b.xml": `<b/>`,
			},
			expect: `<a xmlns:xi="http://www.w3.org/2001/XInclude"><b/></a>`,
		},
		"text": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><note><xi:include href="note.txt" parse="text"/></note></app>`,
				"note.txt": `hello`,
			},
			expect: `<note>hello</note>`,
		},
		"xpointer path": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="all.xml" xpointer="xpointer(/all/server)"/></app>`,
				"all.xml":  `<all><server name="a"/><client/><server name="b"/></all>`,
			},
			expect: `<server name="a"/><server name="b"/>`,
		},
		"xpointer shorthand": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="all.xml" xpointer="db"/></app>`,
				"all.xml":  `<all><store id="cache"/><store id="db" url="x"/></all>`,
			},
			expect: `<store id="db" url="x"/>`,
		},
		"fallback": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="missing.xml"><xi:fallback><default/></xi:fallback></xi:include></app>`,
			},
			expect: `<default/>`,
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeFiles(t, c.files)
			doc, err := resolveFile(t, New(), filepath.Join(dir, "main.xml"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if a := render(t, doc); !strings.Contains(a, c.expect) {
				t.Errorf("expected %v in %v", c.expect, a)
			}
			if a := render(t, doc); strings.Contains(a, "xi:include") {
				t.Errorf("expected includes to be expanded, got %v", a)
			}
		})
	}
}

func TestResolveOrderPreserved(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.xml": `<app ` + xi + `><first/><xi:include href="part.xml"/><last/></app>`,
		"part.xml": `<middle/>`,
	})

	doc, err := resolveFile(t, New(), filepath.Join(dir, "main.xml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var tags []string
	for _, el := range doc.Root().ChildElements() {
		tags = append(tags, el.Tag)
	}
	if e, a := "first,middle,last", strings.Join(tags, ","); e != a {
		t.Errorf("expected %v, got %v", e, a)
	}
}

func TestResolveFallbackLogsWarning(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.xml": `<app ` + xi + `><xi:include href="missing.xml"><xi:fallback/></xi:include></app>`,
	})
	logger := &recordingLogger{}

	if _, err := resolveFile(t, New(func(o *Options) { o.Logger = logger }), filepath.Join(dir, "main.xml")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := 1, len(logger.entries); e != a {
		t.Fatalf("expected %v log entries, got %v", e, a)
	}
	if !strings.HasPrefix(logger.entries[0], "WARN ") {
		t.Errorf("expected warning, got %v", logger.entries[0])
	}
}

func TestResolveErrors(t *testing.T) {
	cases := map[string]struct {
		files   map[string]string
		options func(*Options)
		expect  string
	}{
		"missing": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="missing.xml"/></app>`,
			},
			expect: "missing.xml",
		},
		"cycle": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="a.xml"/></app>`,
				"a.xml":    `<a ` + xi + `><xi:include href="b.xml"/></a>`,
				"b.xml":    `<b ` + xi + `><xi:include href="a.xml"/></b>`,
			},
			expect: "cycle",
		},
		"depth": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="a.xml"/></app>`,
				"a.xml":    `<a ` + xi + `><xi:include href="b.xml"/></a>`,
				"b.xml":    `<b/>`,
			},
			options: func(o *Options) { o.MaxDepth = 1 },
			expect:  "depth",
		},
		"xpointer no match": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="a.xml" xpointer="xpointer(/a/none)"/></app>`,
				"a.xml":    `<a/>`,
			},
			expect: "selected nothing",
		},
		"bad parse": {
			files: map[string]string{
				"main.xml": `<app ` + xi + `><xi:include href="a.xml" parse="json"/></app>`,
				"a.xml":    `<a/>`,
			},
			expect: "unsupported parse",
		},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeFiles(t, c.files)
			var opts []func(*Options)
			if c.options != nil {
				opts = append(opts, c.options)
			}

			_, err := resolveFile(t, New(opts...), filepath.Join(dir, "main.xml"))
			if err == nil {
				t.Fatalf("expected error")
			}
			var le *xmlb.SourceLoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected SourceLoadError, got %T %v", err, err)
			}
			if !strings.Contains(err.Error(), c.expect) {
				t.Errorf("expected %q in %v", c.expect, err)
			}
		})
	}
}

func TestResolveHref(t *testing.T) {
	cases := map[string]struct {
		base, href, expect string
	}{
		"relative file": {base: "/etc/app/main.xml", href: "part.xml", expect: "/etc/app/part.xml"},
		"parent dir":    {base: "/etc/app/main.xml", href: "../shared/x.xml", expect: "/etc/shared/x.xml"},
		"absolute":      {base: "/etc/app/main.xml", href: "/opt/x.xml", expect: "/opt/x.xml"},
		"url base":      {base: "https://example.com/conf/main.xml", href: "part.xml", expect: "https://example.com/conf/part.xml"},
		"absolute url":  {base: "/etc/main.xml", href: "file:///opt/x.xml", expect: "file:///opt/x.xml"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if e, a := c.expect, resolveHref(c.base, c.href); e != a {
				t.Errorf("expected %v, got %v", e, a)
			}
		})
	}
}

func TestNopResolver(t *testing.T) {
	doc := etree.NewDocument()
	doc.SetRoot(etree.NewElement("app"))

	out, err := Nop.Resolve(context.Background(), doc, "inline")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e, a := doc, out; e != a {
		t.Errorf("expected the same document")
	}
}
