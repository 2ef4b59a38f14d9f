// Package xml is an xml testing package that puts documents in a canonical
// form so they can be compared as strings. Attributes are sorted by name and
// indentation can be dropped; the order of child elements is preserved since
// it is significant to the documents under test.
package xml
