package gen

import (
	"github.com/syssam/grace/schema"
)

// Class is the emitted shape of an object.
type Class uint8

// Object shapes.
const (
	// ClassConst is a singleton: a unit type identified by a constant id.
	ClassConst Class = iota
	// ClassStruct is an ordinary data record.
	ClassStruct
	// ClassHybrid is a supertype with payload: a struct wrapping a
	// subtype enum.
	ClassHybrid
	// ClassEnum is a plain discriminated union of its subtypes.
	ClassEnum
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassConst:
		return "const"
	case ClassStruct:
		return "struct"
	case ClassHybrid:
		return "hybrid"
	case ClassEnum:
		return "enum"
	}
	return "invalid"
}

// =============================================================================
// Local predicates
// =============================================================================
//
// Each predicate is a pure function of the object, the configuration and
// the model that holds it.

// IsSupertype reports whether o is the supertype of an isa relationship.
func IsSupertype(o *schema.Object, _ *GraceConfig, m schema.Model) bool {
	return len(m.IsasAsSupertype(o)) > 0
}

// IsSubtype reports whether o is a subtype of an isa relationship.
func IsSubtype(o *schema.Object, _ *GraceConfig, m schema.Model) bool {
	return len(m.IsasAsSubtype(o)) > 0
}

// IsReferrer reports whether o refers to another object through a binary
// relationship or is the associative object of an associative one.
func IsReferrer(o *schema.Object, _ *GraceConfig, m schema.Model) bool {
	return len(m.BinariesAsReferrer(o)) > 0 || len(m.AssociativesAsReferrer(o)) > 0
}

// IsSingleton reports whether o carries nothing but its identity.
func IsSingleton(o *schema.Object, c *GraceConfig, m schema.Model) bool {
	if c != nil {
		if _, ext := c.External(o.ID); ext {
			return false
		}
	}
	return len(m.Attributes(o)) < 2 && !IsReferrer(o, c, m) && !IsSupertype(o, c, m)
}

// IsHybrid reports whether o is a supertype that carries payload of its
// own.
func IsHybrid(o *schema.Object, c *GraceConfig, m schema.Model) bool {
	return IsSupertype(o, c, m) && (len(m.Attributes(o)) > 1 || IsReferrer(o, c, m))
}

// IsEnum reports whether o is a supertype without payload.
func IsEnum(o *schema.Object, c *GraceConfig, m schema.Model) bool {
	return IsSupertype(o, c, m) && !IsHybrid(o, c, m)
}

// IsStruct reports whether o is an ordinary data record.
func IsStruct(o *schema.Object, c *GraceConfig, m schema.Model) bool {
	return !IsSupertype(o, c, m) && !IsSingleton(o, c, m)
}

// IsConst reports whether o is emitted as a constant.
func IsConst(o *schema.Object, c *GraceConfig, m schema.Model) bool {
	return IsSingleton(o, c, m) && !IsSupertype(o, c, m)
}

// Classify returns the single shape of o. It fails when the predicates
// do not select exactly one shape.
func Classify(o *schema.Object, c *GraceConfig, m schema.Model) (Class, error) {
	var (
		found []Class
		preds = []struct {
			class Class
			fn    func(*schema.Object, *GraceConfig, schema.Model) bool
		}{
			{ClassConst, IsConst},
			{ClassStruct, IsStruct},
			{ClassHybrid, IsHybrid},
			{ClassEnum, IsEnum},
		}
	)
	for _, p := range preds {
		if p.fn(o, c, m) {
			found = append(found, p.class)
		}
	}
	if len(found) != 1 {
		return ClassStruct, NewModelInconsistencyError(o.Name, "classification", "object matches "+classList(found))
	}
	return found[0], nil
}

func classList(cs []Class) string {
	if len(cs) == 0 {
		return "no shape"
	}
	s := ""
	for i, c := range cs {
		if i > 0 {
			s += ", "
		}
		s += c.String()
	}
	return s
}

// =============================================================================
// Import-aware predicates
// =============================================================================
//
// An imported object is classified in its origin domain.

// resolve returns the object, configuration and model that classify o.
func (g *Graph) resolve(o *schema.Object) (*schema.Object, *GraceConfig, schema.Model) {
	if org, ok := g.origins[o.ID]; ok {
		return org.object, org.grace, org.model
	}
	return o, g.Grace, g.Model
}

// IsSupertype is the import-aware form of IsSupertype.
func (g *Graph) IsSupertype(o *schema.Object) bool {
	return IsSupertype(g.resolve(o))
}

// IsSubtype is the import-aware form of IsSubtype.
func (g *Graph) IsSubtype(o *schema.Object) bool {
	return IsSubtype(g.resolve(o))
}

// IsReferrer is the import-aware form of IsReferrer.
func (g *Graph) IsReferrer(o *schema.Object) bool {
	return IsReferrer(g.resolve(o))
}

// IsSingleton is the import-aware form of IsSingleton.
func (g *Graph) IsSingleton(o *schema.Object) bool {
	return IsSingleton(g.resolve(o))
}

// IsHybrid is the import-aware form of IsHybrid.
func (g *Graph) IsHybrid(o *schema.Object) bool {
	return IsHybrid(g.resolve(o))
}

// IsEnum is the import-aware form of IsEnum.
func (g *Graph) IsEnum(o *schema.Object) bool {
	return IsEnum(g.resolve(o))
}

// IsStruct is the import-aware form of IsStruct.
func (g *Graph) IsStruct(o *schema.Object) bool {
	return IsStruct(g.resolve(o))
}

// IsConst is the import-aware form of IsConst.
func (g *Graph) IsConst(o *schema.Object) bool {
	return IsConst(g.resolve(o))
}

// Classify is the import-aware form of Classify.
func (g *Graph) Classify(o *schema.Object) (Class, error) {
	return Classify(g.resolve(o))
}

// IsEnumShaped reports whether the emitted type of o exposes its id
// through an id() method rather than a field. Constants always do; enums
// do unless the vec discipline wraps them in a struct that holds the slot
// index.
func (g *Graph) IsEnumShaped(o *schema.Object) (bool, error) {
	c, err := g.Classify(o)
	if err != nil {
		return false, err
	}
	switch c {
	case ClassConst:
		return true, nil
	case ClassEnum:
		return g.Storage == StorageHashMap, nil
	}
	return false, nil
}
