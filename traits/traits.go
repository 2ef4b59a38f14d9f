// Package traits defines the XML layout traits that may be applied to bound
// properties, either through struct tags or declarative schemas.
package traits

// XMLAttribute places a scalar property in an attribute of the owning
// element. This is the default layout for scalars.
type XMLAttribute struct{}

// TraitID identifies the trait.
func (*XMLAttribute) TraitID() string { return "xmlb#attribute" }

// XMLElement places a scalar property in a child element of its own,
// written as <name value="..."/>.
type XMLElement struct{}

// TraitID identifies the trait.
func (*XMLElement) TraitID() string { return "xmlb#element" }

// XMLText places a scalar property in the character data of the owning
// element. At most one property of a type may carry it.
type XMLText struct{}

// TraitID identifies the trait.
func (*XMLText) TraitID() string { return "xmlb#text" }

// XMLFlattened writes the items of a list property directly under the owning
// element, each named after the property, instead of inside a wrapper.
type XMLFlattened struct{}

// TraitID identifies the trait.
func (*XMLFlattened) TraitID() string { return "xmlb#flattened" }

// XMLItemName overrides the element name used for the items of a list.
type XMLItemName struct {
	Name string
}

// TraitID identifies the trait.
func (*XMLItemName) TraitID() string { return "xmlb#itemName" }
