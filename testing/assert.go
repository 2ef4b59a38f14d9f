// Package testing provides assertions for the documents produced by the
// serializer.
package testing

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"

	"github.com/configstore/xmlb/testing/xml"
)

// T provides the testing interface for capturing failures with testing assert
// utilities.
type T interface {
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Helper()
}

// XMLEqual compares two XML documents after sorting their attributes and
// dropping indentation. Child element order is significant. In case of
// mismatch the error contains the diff between the two documents.
func XMLEqual(expectBytes, actualBytes []byte) error {
	expect, err := xml.SortXML(bytes.NewReader(expectBytes), true)
	if err != nil {
		return fmt.Errorf("failed to read expected document, %v", err)
	}

	actual, err := xml.SortXML(bytes.NewReader(actualBytes), true)
	if err != nil {
		return fmt.Errorf("failed to read actual document, %v", err)
	}

	if diff := cmp.Diff(expect, actual); len(diff) != 0 {
		return fmt.Errorf("XML mismatch (-expect +actual):\n%s", diff)
	}

	return nil
}

// AssertXMLEqual compares two XML documents and identifies if the documents
// contain the same values. Emits a testing error, and returns false if the
// documents are not equal.
func AssertXMLEqual(t T, expect, actual []byte) bool {
	t.Helper()

	if err := XMLEqual(expect, actual); err != nil {
		t.Errorf("expect XML documents to be equal, %v", err)
		return false
	}

	return true
}

// ElementEqual compares an element against the expected document text. A
// nil element only matches an empty expectation.
func ElementEqual(expect string, actual *etree.Element) error {
	if actual == nil {
		if expect == "" {
			return nil
		}
		return fmt.Errorf("expected %s, got no element", expect)
	}
	return XMLEqual([]byte(expect), []byte(xml.SortElement(actual, true)))
}

// AssertElement compares an element against the expected document text.
// Emits a testing error, and returns false if they are not equal.
func AssertElement(t T, expect string, actual *etree.Element) bool {
	t.Helper()

	if err := ElementEqual(expect, actual); err != nil {
		t.Errorf("expect element to match, %v", err)
		return false
	}

	return true
}
