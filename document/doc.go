// Package document provides helpers over etree elements and the sources XML
// documents are loaded from.
package document
