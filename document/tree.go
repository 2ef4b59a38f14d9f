package document

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"
)

// MoveContent moves the attributes and child tokens of src onto dst. Children
// are appended after the existing children of dst, attributes with the same
// key overwrite those on dst. src is left without attributes or children.
func MoveContent(src, dst *etree.Element) {
	if src == nil || dst == nil || src == dst {
		return
	}

	for _, a := range src.Attr {
		dst.CreateAttr(a.FullKey(), a.Value)
	}
	src.Attr = nil

	children := append([]etree.Token(nil), src.Child...)
	for _, c := range children {
		// AddChild detaches the token from src
		dst.AddChild(c)
	}
	src.Child = nil
}

// IsEmpty reports whether el has no attributes, no child elements and no
// text other than whitespace.
func IsEmpty(el *etree.Element) bool {
	if el == nil {
		return true
	}
	return len(el.Attr) == 0 && len(el.ChildElements()) == 0 && !HasText(el)
}

// HasText reports whether el directly contains non-whitespace character data.
func HasText(el *etree.Element) bool {
	for _, c := range el.Child {
		if cd, ok := c.(*etree.CharData); ok && strings.TrimSpace(cd.Data) != "" {
			return true
		}
	}
	return false
}

// Text returns the concatenated character data directly under el.
func Text(el *etree.Element) string {
	var sb strings.Builder
	for _, c := range el.Child {
		if cd, ok := c.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

// String writes el as a standalone XML fragment. el is not modified.
func String(el *etree.Element) string {
	if el == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// Parse reads an XML fragment and returns its root element, detached from
// the document it was parsed into.
func Parse(data string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(data); err != nil {
		return nil, errors.Wrap(err, "parse xml")
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.Wrap(errNoRoot, "parse xml")
	}
	doc.RemoveChild(root)
	return root, nil
}

var errNoRoot = errors.New("document has no root element")
