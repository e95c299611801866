package gen

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/grace/schema"
)

// =============================================================================
// Sorted traversal helpers
// =============================================================================
//
// Every helper returns a fresh slice ordered by the name of the related
// object, with ties broken by the object id and then the relationship
// number, so that regenerating an unchanged model yields identical output.

// sortedByKey returns a sorted copy of items, ordered by key.
func sortedByKey[T any, K cmp.Ordered](items []T, key func(T) K) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
	return out
}

// sortedBy returns a copy of items sorted by the related object's name.
func sortedBy[T any](items []T, obj func(T) *schema.Object) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return compareObjects(obj(a), obj(b))
	})
	return out
}

func compareObjects(a, b *schema.Object) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func sortedObjects(objs []*schema.Object) []*schema.Object {
	return sortedBy(objs, func(o *schema.Object) *schema.Object { return o })
}

// mapped applies fn to every item.
func mapped[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

// SubtypesOf returns the subtypes of one isa relationship.
func (g *Graph) SubtypesOf(isa *schema.Isa) ([]*schema.Object, error) {
	if len(isa.Subtypes) == 0 {
		name := ""
		if isa.Supertype != nil {
			name = isa.Supertype.Name
		}
		return nil, NewModelInconsistencyError(name, "subtype", "R"+strconv.Itoa(isa.Num)+" has no subtypes")
	}
	return sortedObjects(isa.Subtypes), nil
}

// SubtypeObjectsOf returns the subtypes of every isa relationship the
// object is the supertype of. It fails if the object is not a supertype.
func (g *Graph) SubtypeObjectsOf(o *schema.Object) ([]*schema.Object, error) {
	isas := g.Model.IsasAsSupertype(o)
	if len(isas) == 0 {
		return nil, NewModelInconsistencyError(o.Name, "supertype", "object is not a supertype")
	}
	var subs []*schema.Object
	for _, isa := range sortedByKey(isas, func(i *schema.Isa) int { return i.Num }) {
		s, err := g.SubtypesOf(isa)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s...)
	}
	return sortedObjects(subs), nil
}

// SupertypesOf returns the isa relationships the object is a subtype
// of, ordered by supertype name.
func (g *Graph) SupertypesOf(o *schema.Object) []*schema.Isa {
	return sortedBy(g.Model.IsasAsSubtype(o), func(i *schema.Isa) *schema.Object { return i.Supertype })
}

// SupertypeObjectsOf returns the supertypes of the object.
func (g *Graph) SupertypeObjectsOf(o *schema.Object) []*schema.Object {
	return mapped(g.SupertypesOf(o), func(i *schema.Isa) *schema.Object { return i.Supertype })
}

func binaryNumber(b *schema.Binary) int { return b.Num }

// ReferentsOf returns the binary relationships the object refers through,
// ordered by referent name.
func (g *Graph) ReferentsOf(o *schema.Object) []*schema.Binary {
	rels := sortedByKey(g.Model.BinariesAsReferrer(o), binaryNumber)
	return sortedBy(rels, func(b *schema.Binary) *schema.Object { return b.Referent.Object })
}

// ReferentObjectsOf returns the objects the object refers to.
func (g *Graph) ReferentObjectsOf(o *schema.Object) []*schema.Object {
	return mapped(g.ReferentsOf(o), func(b *schema.Binary) *schema.Object { return b.Referent.Object })
}

// ReferrersOf returns the binary relationships that refer to the object,
// ordered by referrer name.
func (g *Graph) ReferrersOf(o *schema.Object) []*schema.Binary {
	rels := sortedByKey(g.Model.BinariesAsReferent(o), binaryNumber)
	return sortedBy(rels, func(b *schema.Binary) *schema.Object { return b.Referrer.Object })
}

// ReferrerObjectsOf returns the objects that refer to the object.
func (g *Graph) ReferrerObjectsOf(o *schema.Object) []*schema.Object {
	return mapped(g.ReferrersOf(o), func(b *schema.Binary) *schema.Object { return b.Referrer.Object })
}

// AssociativeEnd pairs an associative relationship with one of its
// referents.
type AssociativeEnd struct {
	Rel      *schema.Associative
	Referent *schema.AssociativeReferent
}

// AssociativeReferentsOf returns the referents of every associative
// relationship the object is the associative object of, ordered by
// referent name.
func (g *Graph) AssociativeReferentsOf(o *schema.Object) ([]AssociativeEnd, error) {
	var ends []AssociativeEnd
	for _, a := range g.Model.AssociativesAsReferrer(o) {
		if len(a.Referents) == 0 {
			return nil, NewModelInconsistencyError(o.Name, "associative referent", "R"+strconv.Itoa(a.Num)+" has no referents")
		}
		for _, r := range a.Referents {
			ends = append(ends, AssociativeEnd{Rel: a, Referent: r})
		}
	}
	return sortedBy(ends, func(e AssociativeEnd) *schema.Object { return e.Referent.Object }), nil
}

// AssociativeReferentObjectsOf returns the objects the associative object
// relates.
func (g *Graph) AssociativeReferentObjectsOf(o *schema.Object) ([]*schema.Object, error) {
	ends, err := g.AssociativeReferentsOf(o)
	if err != nil {
		return nil, err
	}
	return mapped(ends, func(e AssociativeEnd) *schema.Object { return e.Referent.Object }), nil
}

// AssociativeReferrersOf returns the associative relationships the
// object is a referent of, ordered by associative object name.
func (g *Graph) AssociativeReferrersOf(o *schema.Object) []*schema.Associative {
	return sortedBy(g.Model.AssociativesAsReferent(o), func(a *schema.Associative) *schema.Object { return a.Referrer.Object })
}

// AssociativeReferrerObjectsOf returns the associative objects that
// relate the object.
func (g *Graph) AssociativeReferrerObjectsOf(o *schema.Object) []*schema.Object {
	return mapped(g.AssociativeReferrersOf(o), func(a *schema.Associative) *schema.Object { return a.Referrer.Object })
}

// AttributesOf returns the attributes of the object in declaration
// order, with "id" first.
func (g *Graph) AttributesOf(o *schema.Object) []*schema.Attribute {
	attrs := g.Model.Attributes(o)
	out := make([]*schema.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.Name == "id" {
			out = append([]*schema.Attribute{a}, out...)
			continue
		}
		out = append(out, a)
	}
	return out
}
