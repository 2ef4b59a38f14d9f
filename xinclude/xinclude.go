// Package xinclude expands XInclude directives in etree documents.
//
// Supported: href resolved against the including document, parse="xml" and
// parse="text", the xpointer(path) scheme using etree path syntax, bare
// shorthand pointers matching an id attribute, and xi:fallback.
package xinclude

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"

	"github.com/configstore/xmlb"
	"github.com/configstore/xmlb/logging"
)

// Namespace is the XInclude namespace URI.
const Namespace = "http://www.w3.org/2001/XInclude"

// DefaultMaxDepth bounds nested inclusion.
const DefaultMaxDepth = 16

// Resolver expands inclusion directives in doc, which was loaded from base.
type Resolver interface {
	Resolve(ctx context.Context, doc *etree.Document, base string) (*etree.Document, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, doc *etree.Document, base string) (*etree.Document, error)

// Resolve calls fn.
func (fn ResolverFunc) Resolve(ctx context.Context, doc *etree.Document, base string) (*etree.Document, error) {
	return fn(ctx, doc, base)
}

// Nop returns documents unchanged.
var Nop Resolver = ResolverFunc(func(_ context.Context, doc *etree.Document, _ string) (*etree.Document, error) {
	return doc, nil
})

// Options configures an Includer.
type Options struct {
	// MaxDepth bounds nested inclusion. Zero uses DefaultMaxDepth.
	MaxDepth int

	// Logger receives a warning whenever a fallback replaces a failed
	// inclusion.
	Logger logging.Logger

	// Open reads an included resource. Defaults to reading local files,
	// with file:// URLs accepted.
	Open func(ctx context.Context, location string) (io.ReadCloser, error)
}

// Includer is the XInclude Resolver.
type Includer struct {
	options Options
}

// New returns an Includer.
func New(optFns ...func(*Options)) *Includer {
	var o Options
	for _, fn := range optFns {
		fn(&o)
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	o.Logger = logging.OrNoop(o.Logger)
	if o.Open == nil {
		o.Open = openFile
	}
	return &Includer{options: o}
}

// Resolve expands every xi:include in doc in place and returns doc. Errors
// are returned as *xmlb.SourceLoadError naming the resource that failed.
func (in *Includer) Resolve(ctx context.Context, doc *etree.Document, base string) (*etree.Document, error) {
	if err := in.resolve(ctx, &state{stack: []string{base}}, doc, base); err != nil {
		return nil, err
	}
	return doc, nil
}

type state struct {
	stack []string
}

func (in *Includer) resolve(ctx context.Context, st *state, doc *etree.Document, base string) error {
	root := doc.Root()
	if root == nil {
		return nil
	}

	if isInclude(root) {
		toks, err := in.include(ctx, st, root, base)
		if err != nil {
			return err
		}
		var elems []*etree.Element
		for _, tok := range toks {
			if el, ok := tok.(*etree.Element); ok {
				elems = append(elems, el)
			}
		}
		if len(elems) != 1 {
			return &xmlb.SourceLoadError{Location: base, Err: errors.Newf("root inclusion produced %d elements", len(elems))}
		}
		doc.SetRoot(elems[0])
		return nil
	}

	return in.expand(ctx, st, root, base)
}

func (in *Includer) expand(ctx context.Context, st *state, el *etree.Element, base string) error {
	for i := 0; i < len(el.Child); {
		child, ok := el.Child[i].(*etree.Element)
		if !ok {
			i++
			continue
		}
		if !isInclude(child) {
			if err := in.expand(ctx, st, child, base); err != nil {
				return err
			}
			i++
			continue
		}

		toks, err := in.include(ctx, st, child, base)
		if err != nil {
			return err
		}
		el.RemoveChildAt(i)
		for j, tok := range toks {
			el.InsertChildAt(i+j, tok)
		}
		i += len(toks)
	}
	return nil
}

func (in *Includer) include(ctx context.Context, st *state, inc *etree.Element, base string) ([]etree.Token, error) {
	href := inc.SelectAttrValue("href", "")
	loc := resolveHref(base, href)

	toks, err := in.load(ctx, st, inc, loc)
	if err == nil {
		return toks, nil
	}

	fb := fallback(inc)
	if fb == nil {
		var le *xmlb.SourceLoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, &xmlb.SourceLoadError{Location: loc, Err: err}
	}

	logging.WithContext(ctx, in.options.Logger).Logf(logging.Warn, "xinclude: using fallback for %s, %v", loc, err)
	if err := in.expand(ctx, st, fb, base); err != nil {
		return nil, err
	}
	return slices.Clone(fb.Child), nil
}

func (in *Includer) load(ctx context.Context, st *state, inc *etree.Element, loc string) ([]etree.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if inc.SelectAttrValue("href", "") == "" {
		return nil, errors.New("same-document inclusion is not supported")
	}
	if slices.Contains(st.stack, loc) {
		return nil, errors.Newf("inclusion cycle: %s", strings.Join(append(st.stack, loc), " -> "))
	}
	if len(st.stack) > in.options.MaxDepth {
		return nil, errors.Newf("inclusion depth exceeds %d", in.options.MaxDepth)
	}

	r, err := in.options.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	switch parse := inc.SelectAttrValue("parse", "xml"); parse {
	case "text":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return []etree.Token{etree.NewText(string(b))}, nil
	case "xml":
	default:
		return nil, errors.Newf("unsupported parse value %q", parse)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("included document has no root element")
	}

	st.stack = append(st.stack, loc)
	defer func() { st.stack = st.stack[:len(st.stack)-1] }()

	if err := in.resolve(ctx, st, doc, loc); err != nil {
		return nil, err
	}

	elems, err := selectElements(doc, inc.SelectAttrValue("xpointer", ""))
	if err != nil {
		return nil, err
	}
	toks := make([]etree.Token, 0, len(elems))
	for _, el := range elems {
		toks = append(toks, el.Copy())
	}
	return toks, nil
}

// selectElements applies an XPointer to doc. An empty pointer selects the
// root element.
func selectElements(doc *etree.Document, pointer string) ([]*etree.Element, error) {
	if pointer == "" {
		return []*etree.Element{doc.Root()}, nil
	}

	var expr string
	switch {
	case strings.HasPrefix(pointer, "xpointer(") && strings.HasSuffix(pointer, ")"):
		expr = strings.TrimSuffix(strings.TrimPrefix(pointer, "xpointer("), ")")
	case !strings.ContainsAny(pointer, "(/[]'\""):
		expr = "//*[@id='" + pointer + "']"
	default:
		return nil, errors.Newf("unsupported xpointer %q", pointer)
	}

	path, err := etree.CompilePath(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid xpointer %q", pointer)
	}
	elems := doc.FindElementsPath(path)
	if len(elems) == 0 {
		return nil, errors.Newf("xpointer %q selected nothing", pointer)
	}
	return elems, nil
}

func isInclude(el *etree.Element) bool {
	return el.Tag == "include" && inNamespace(el)
}

func fallback(inc *etree.Element) *etree.Element {
	for _, c := range inc.ChildElements() {
		if c.Tag == "fallback" && inNamespace(c) {
			return c
		}
	}
	return nil
}

func inNamespace(el *etree.Element) bool {
	if ns := el.NamespaceURI(); ns != "" {
		return ns == Namespace
	}
	return el.Space == "xi"
}

// resolveHref resolves href against the location of the including document.
func resolveHref(base, href string) string {
	if href == "" {
		return base
	}
	if u, err := url.Parse(href); err == nil && len(u.Scheme) > 1 {
		return href
	}
	if filepath.IsAbs(href) {
		return filepath.Clean(href)
	}
	if u, err := url.Parse(base); err == nil && len(u.Scheme) > 1 {
		ref, err := url.Parse(href)
		if err == nil {
			return u.ResolveReference(ref).String()
		}
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(href))
}

func openFile(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		if u.Scheme != "file" {
			return nil, errors.Newf("unsupported scheme %q", u.Scheme)
		}
		location = u.Path
	}
	return os.Open(location)
}
