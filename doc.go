// Package xmlb binds Go values to XML elements and back.
//
// A value is described by a binding chosen from its type: composites (structs
// described by property accessors), sequences (slices and arrays), mappings,
// scalars with a text form, and raw *etree.Element values that are copied
// verbatim. Composite types are introspected from struct tags
//
//	type Server struct {
//		Host  string   `xmlb:"host" default:"localhost"`
//		Port  int      `xmlb:"port" default:"8080"`
//		Tags  []string `xmlb:"tags,item=tag"`
//		Notes string   `xmlb:"notes,text"`
//	}
//
// or declared explicitly with a Schema registered in a TypeRegistry.
//
// The serializer package holds the entry points, the binding package the
// bindings and their cache, and the filter package the property filters
// used to suppress default values.
package xmlb
