package xmlb

// Trait represents a trait applied to a bound property. Traits change how a
// property is laid out in XML (attribute, child element, text, flattened
// list) without changing the property's Go type.
type Trait interface {
	TraitID() string
}

// Traits is a set of traits keyed by trait ID.
type Traits map[string]Trait

// NewTraits returns a trait set holding the given traits. Later traits
// override earlier ones with the same ID.
func NewTraits(traits ...Trait) Traits {
	ts := make(Traits, len(traits))
	for _, t := range traits {
		ts[t.TraitID()] = t
	}
	return ts
}

// Has reports whether the set contains a trait with the given ID.
func (ts Traits) Has(id string) bool {
	_, ok := ts[id]
	return ok
}

// With returns a copy of the set with the given traits added.
func (ts Traits) With(traits ...Trait) Traits {
	out := make(Traits, len(ts)+len(traits))
	for id, t := range ts {
		out[id] = t
	}
	for _, t := range traits {
		out[t.TraitID()] = t
	}
	return out
}

// TraitOf returns the target trait from the set if it exists.
func TraitOf[T Trait](ts Traits) (T, bool) {
	var trait T

	opaque, ok := ts[trait.TraitID()]
	if !ok {
		return trait, false
	}

	tt, ok := opaque.(T)
	return tt, ok
}

// AccessorTrait returns the target trait on the accessor if it exists.
func AccessorTrait[T Trait](a Accessor) (T, bool) {
	return TraitOf[T](a.Traits())
}
