package schema

import (
	"github.com/google/uuid"
)

// Model exposes the relationship navigation the generator needs over a
// domain. Every method returns entities in model order; callers that
// need a deterministic order sort the result themselves.
type Model interface {
	// Name returns the domain name.
	Name() string
	// Description returns the domain description.
	Description() string
	// Objects returns all objects of the domain.
	Objects() []*Object
	// Object returns the object with the given id.
	Object(id uuid.UUID) (*Object, bool)
	// ObjectByName returns the object with the given name.
	ObjectByName(name string) (*Object, bool)
	// Relationships returns all relationships of the domain.
	Relationships() []Relationship
	// Attributes returns the attributes of o.
	Attributes(o *Object) []*Attribute
	// IsasAsSupertype returns the isa relationships where o is the supertype.
	IsasAsSupertype(o *Object) []*Isa
	// IsasAsSubtype returns the isa relationships where o is a subtype.
	IsasAsSubtype(o *Object) []*Isa
	// BinariesAsReferrer returns the binary relationships where o is the referrer.
	BinariesAsReferrer(o *Object) []*Binary
	// BinariesAsReferent returns the binary relationships where o is the referent.
	BinariesAsReferent(o *Object) []*Binary
	// AssociativesAsReferrer returns the associative relationships where o
	// is the associative object.
	AssociativesAsReferrer(o *Object) []*Associative
	// AssociativesAsReferent returns the associative relationships where o
	// is one of the referents.
	AssociativesAsReferent(o *Object) []*Associative
	// States returns the states of o.
	States(o *Object) []*State
	// Events returns the events of o.
	Events(o *Object) []*Event
}

// Domain is the in-memory Model implementation. It is immutable once
// built and safe for concurrent readers.
type Domain struct {
	name        string
	description string
	objects     []*Object
	rels        []Relationship
	byID        map[uuid.UUID]*Object
	byName      map[string]*Object

	supers    map[uuid.UUID][]*Isa
	subs      map[uuid.UUID][]*Isa
	referrers map[uuid.UUID][]*Binary
	referents map[uuid.UUID][]*Binary
	assocFrom map[uuid.UUID][]*Associative
	assocTo   map[uuid.UUID][]*Associative
}

var _ Model = (*Domain)(nil)

// newDomain indexes the given objects and relationships.
func newDomain(name, description string, objects []*Object, rels []Relationship) *Domain {
	d := &Domain{
		name:        name,
		description: description,
		objects:     objects,
		rels:        rels,
		byID:        make(map[uuid.UUID]*Object, len(objects)),
		byName:      make(map[string]*Object, len(objects)),
		supers:      make(map[uuid.UUID][]*Isa),
		subs:        make(map[uuid.UUID][]*Isa),
		referrers:   make(map[uuid.UUID][]*Binary),
		referents:   make(map[uuid.UUID][]*Binary),
		assocFrom:   make(map[uuid.UUID][]*Associative),
		assocTo:     make(map[uuid.UUID][]*Associative),
	}
	for _, o := range objects {
		d.byID[o.ID] = o
		d.byName[o.Name] = o
	}
	for _, r := range rels {
		switch r := r.(type) {
		case *Isa:
			d.supers[r.Supertype.ID] = append(d.supers[r.Supertype.ID], r)
			for _, s := range r.Subtypes {
				d.subs[s.ID] = append(d.subs[s.ID], r)
			}
		case *Binary:
			d.referrers[r.Referrer.Object.ID] = append(d.referrers[r.Referrer.Object.ID], r)
			d.referents[r.Referent.Object.ID] = append(d.referents[r.Referent.Object.ID], r)
		case *Associative:
			d.assocFrom[r.Referrer.Object.ID] = append(d.assocFrom[r.Referrer.Object.ID], r)
			seen := make(map[uuid.UUID]bool, len(r.Referents))
			for _, ref := range r.Referents {
				if seen[ref.Object.ID] {
					continue
				}
				seen[ref.Object.ID] = true
				d.assocTo[ref.Object.ID] = append(d.assocTo[ref.Object.ID], r)
			}
		}
	}
	return d
}

// Name implements Model.
func (d *Domain) Name() string { return d.name }

// Description implements Model.
func (d *Domain) Description() string { return d.description }

// Objects implements Model.
func (d *Domain) Objects() []*Object { return d.objects }

// Object implements Model.
func (d *Domain) Object(id uuid.UUID) (*Object, bool) {
	o, ok := d.byID[id]
	return o, ok
}

// ObjectByName implements Model.
func (d *Domain) ObjectByName(name string) (*Object, bool) {
	o, ok := d.byName[name]
	return o, ok
}

// Relationships implements Model.
func (d *Domain) Relationships() []Relationship { return d.rels }

// Attributes implements Model.
func (d *Domain) Attributes(o *Object) []*Attribute { return o.Attributes }

// IsasAsSupertype implements Model.
func (d *Domain) IsasAsSupertype(o *Object) []*Isa { return d.supers[o.ID] }

// IsasAsSubtype implements Model.
func (d *Domain) IsasAsSubtype(o *Object) []*Isa { return d.subs[o.ID] }

// BinariesAsReferrer implements Model.
func (d *Domain) BinariesAsReferrer(o *Object) []*Binary { return d.referrers[o.ID] }

// BinariesAsReferent implements Model.
func (d *Domain) BinariesAsReferent(o *Object) []*Binary { return d.referents[o.ID] }

// AssociativesAsReferrer implements Model.
func (d *Domain) AssociativesAsReferrer(o *Object) []*Associative { return d.assocFrom[o.ID] }

// AssociativesAsReferent implements Model.
func (d *Domain) AssociativesAsReferent(o *Object) []*Associative { return d.assocTo[o.ID] }

// States implements Model.
func (d *Domain) States(o *Object) []*State { return o.States }

// Events implements Model.
func (d *Domain) Events(o *Object) []*Event { return o.Events }
