package xml

import (
	"io"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// SortXML reads a document from r and returns its canonical form.
func SortXML(r io.Reader, ignoreIndentation bool) (string, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return "", err
	}
	root := doc.Root()
	if root == nil {
		return "", nil
	}
	return SortElement(root, ignoreIndentation), nil
}

// SortElement returns the canonical form of el. el is not modified.
func SortElement(el *etree.Element, ignoreIndentation bool) string {
	c := el.Copy()
	sortElement(c, ignoreIndentation)

	doc := etree.NewDocument()
	doc.SetRoot(c)
	s, _ := doc.WriteToString()
	return s
}

func sortElement(el *etree.Element, ignoreIndentation bool) {
	slices.SortStableFunc(el.Attr, func(a, b etree.Attr) int {
		if c := strings.Compare(a.Space, b.Space); c != 0 {
			return c
		}
		if c := strings.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})

	for i := 0; i < len(el.Child); {
		switch t := el.Child[i].(type) {
		case *etree.Element:
			sortElement(t, ignoreIndentation)
		case *etree.CharData:
			if ignoreIndentation && t.IsWhitespace() {
				el.RemoveChildAt(i)
				continue
			}
		case *etree.Comment, *etree.ProcInst:
			el.RemoveChildAt(i)
			continue
		}
		i++
	}
}
