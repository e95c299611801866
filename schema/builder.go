package schema

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/grace/schema/field"
)

// Namespace returns the v5 namespace of a domain. Entity ids the
// builder derives, and the UUID_NS constant of the generated code, are
// rooted here.
func Namespace(domain string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(domain))
}

// Builder assembles a Domain.
//
//	b := schema.NewBuilder("ownership")
//	b.Object("Ownership")
//	b.Object("Owned")
//	b.Object("Borrowed")
//	b.Isa(1, "Ownership", "Owned", "Borrowed")
//	d, err := b.Build()
type Builder struct {
	name        string
	description string
	ns          uuid.UUID
	objects     []*ObjectBuilder
	binaries    []BinarySpec
	isas        []isaSpec
	assocs      []AssociativeSpec
	modified    time.Time
}

// NewBuilder returns a builder for the named domain.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, ns: Namespace(name)}
}

// Description sets the domain description.
func (b *Builder) Description(d string) *Builder {
	b.description = d
	return b
}

// ModifiedAt sets the default modification time of every entity that
// does not carry its own.
func (b *Builder) ModifiedAt(t time.Time) *Builder {
	b.modified = t
	return b
}

// ObjectBuilder configures one Object.
type ObjectBuilder struct {
	obj   *Object
	attrs []*field.Descriptor
}

// Object adds an object with the given attributes. An "id" attribute of
// type uuid is prepended when the list does not declare one.
func (b *Builder) Object(name string, attrs ...*field.Builder) *ObjectBuilder {
	ob := &ObjectBuilder{obj: &Object{Name: name}}
	hasID := false
	for _, a := range attrs {
		d := a.Descriptor()
		if d.Name == "id" {
			hasID = true
		}
		ob.attrs = append(ob.attrs, d)
	}
	if !hasID {
		ob.attrs = append([]*field.Descriptor{field.UUID("id").Descriptor()}, ob.attrs...)
	}
	b.objects = append(b.objects, ob)
	return ob
}

// ID sets the object id. By default it is derived from the domain and
// object names.
func (ob *ObjectBuilder) ID(id uuid.UUID) *ObjectBuilder {
	ob.obj.ID = id
	return ob
}

// Describe sets the object description.
func (ob *ObjectBuilder) Describe(d string) *ObjectBuilder {
	ob.obj.Description = d
	return ob
}

// KeyLetters sets the object key letters.
func (ob *ObjectBuilder) KeyLetters(kl string) *ObjectBuilder {
	ob.obj.KeyLetters = kl
	return ob
}

// ModifiedAt sets the object modification time.
func (ob *ObjectBuilder) ModifiedAt(t time.Time) *ObjectBuilder {
	ob.obj.Modified = t
	return ob
}

// State adds a lifecycle state.
func (ob *ObjectBuilder) State(name string, modified time.Time) *ObjectBuilder {
	ob.obj.States = append(ob.obj.States, &State{Name: name, Modified: modified})
	return ob
}

// Event adds a lifecycle event.
func (ob *ObjectBuilder) Event(name string, modified time.Time) *ObjectBuilder {
	ob.obj.Events = append(ob.obj.Events, &Event{Name: name, Modified: modified})
	return ob
}

// BinarySpec describes a binary relationship by object names.
type BinarySpec struct {
	Number int
	// Referrer is the name of the referring object.
	Referrer            string
	ReferrerDescription string
	ReferrerCardinality Cardinality
	// ReferrerConditionality tells whether a referent may exist without
	// a referrer.
	ReferrerConditionality Conditionality
	// Attribute is the referential attribute name on the referrer.
	Attribute string
	// Referent is the name of the referred-to object.
	Referent               string
	ReferentDescription    string
	ReferentCardinality    Cardinality
	ReferentConditionality Conditionality
	Modified               time.Time
}

// Binary adds a binary relationship.
func (b *Builder) Binary(spec BinarySpec) *Builder {
	b.binaries = append(b.binaries, spec)
	return b
}

type isaSpec struct {
	number    int
	supertype string
	subtypes  []string
}

// Isa adds a supertype/subtype relationship.
func (b *Builder) Isa(number int, supertype string, subtypes ...string) *Builder {
	b.isas = append(b.isas, isaSpec{number: number, supertype: supertype, subtypes: subtypes})
	return b
}

// AssociativeSpec describes an associative relationship by object names.
type AssociativeSpec struct {
	Number      int
	Referrer    string
	Cardinality Cardinality
	Referents   []AssociativeEnd
	Modified    time.Time
}

// AssociativeEnd is one referent of an AssociativeSpec.
type AssociativeEnd struct {
	Object         string
	Attribute      string
	Description    string
	Cardinality    Cardinality
	Conditionality Conditionality
}

// Associative adds an associative relationship.
func (b *Builder) Associative(spec AssociativeSpec) *Builder {
	b.assocs = append(b.assocs, spec)
	return b
}

// Build validates the collected definitions and returns the Domain.
// All problems found are reported together.
func (b *Builder) Build() (*Domain, error) {
	var (
		errs    []error
		objects = make([]*Object, 0, len(b.objects))
		byName  = make(map[string]*Object, len(b.objects))
		ids     = make(map[uuid.UUID]string, len(b.objects))
	)
	for _, ob := range b.objects {
		o := ob.obj
		if o.Name == "" {
			errs = append(errs, errors.New("schema: object with empty name"))
			continue
		}
		if _, ok := byName[o.Name]; ok {
			errs = append(errs, fmt.Errorf("schema: duplicate object %q", o.Name))
			continue
		}
		if o.ID == uuid.Nil {
			o.ID = uuid.NewSHA1(b.ns, []byte("object:"+o.Name))
		}
		if other, ok := ids[o.ID]; ok {
			errs = append(errs, fmt.Errorf("schema: objects %q and %q share id %s", other, o.Name, o.ID))
			continue
		}
		if o.Modified.IsZero() {
			o.Modified = b.modified
		}
		o.Attributes = o.Attributes[:0]
		for _, d := range ob.attrs {
			if d.Err != nil {
				errs = append(errs, fmt.Errorf("schema: object %q: %w", o.Name, d.Err))
				continue
			}
			a := &Attribute{
				ID:       uuid.NewSHA1(o.ID, []byte("attribute:"+d.Name)),
				Name:     d.Name,
				Type:     *d.Info,
				Comment:  d.Comment,
				Modified: d.Modified,
			}
			if a.Modified.IsZero() {
				a.Modified = o.Modified
			}
			o.Attributes = append(o.Attributes, a)
		}
		for _, s := range o.States {
			s.ID = uuid.NewSHA1(o.ID, []byte("state:"+s.Name))
		}
		for _, e := range o.Events {
			e.ID = uuid.NewSHA1(o.ID, []byte("event:"+e.Name))
		}
		byName[o.Name] = o
		ids[o.ID] = o.Name
		objects = append(objects, o)
	}
	lookup := func(rel int, name string) *Object {
		o, ok := byName[name]
		if !ok {
			errs = append(errs, fmt.Errorf("schema: R%d references unknown object %q", rel, name))
		}
		return o
	}
	var rels []Relationship
	for _, s := range b.isas {
		sup := lookup(s.number, s.supertype)
		if len(s.subtypes) == 0 {
			errs = append(errs, fmt.Errorf("schema: R%d has no subtypes", s.number))
			continue
		}
		isa := &Isa{
			ID:       uuid.NewSHA1(b.ns, []byte("isa:"+strconv.Itoa(s.number))),
			Num:      s.number,
			Modified: b.modified,
		}
		isa.Supertype = sup
		for _, name := range s.subtypes {
			if sub := lookup(s.number, name); sub != nil {
				isa.Subtypes = append(isa.Subtypes, sub)
			}
		}
		if sup != nil {
			rels = append(rels, isa)
		}
	}
	for _, s := range b.binaries {
		from, to := lookup(s.Number, s.Referrer), lookup(s.Number, s.Referent)
		if from == nil || to == nil {
			continue
		}
		if s.Attribute == "" {
			errs = append(errs, fmt.Errorf("schema: R%d has no referential attribute", s.Number))
			continue
		}
		modified := s.Modified
		if modified.IsZero() {
			modified = b.modified
		}
		rels = append(rels, &Binary{
			ID:  uuid.NewSHA1(b.ns, []byte("binary:"+strconv.Itoa(s.Number))),
			Num: s.Number,
			Referrer: &Referrer{
				Object:               from,
				Description:          s.ReferrerDescription,
				Cardinality:          s.ReferrerCardinality,
				Conditionality:       s.ReferrerConditionality,
				ReferentialAttribute: s.Attribute,
				Modified:             modified,
			},
			Referent: &Referent{
				Object:         to,
				Description:    s.ReferentDescription,
				Cardinality:    s.ReferentCardinality,
				Conditionality: s.ReferentConditionality,
				Modified:       modified,
			},
			Modified: modified,
		})
	}
	for _, s := range b.assocs {
		from := lookup(s.Number, s.Referrer)
		if from == nil {
			continue
		}
		modified := s.Modified
		if modified.IsZero() {
			modified = b.modified
		}
		a := &Associative{
			ID:       uuid.NewSHA1(b.ns, []byte("associative:"+strconv.Itoa(s.Number))),
			Num:      s.Number,
			Referrer: &AssociativeReferrer{Object: from, Cardinality: s.Cardinality, Modified: modified},
			Modified: modified,
		}
		for _, end := range s.Referents {
			to := lookup(s.Number, end.Object)
			if to == nil {
				continue
			}
			a.Referents = append(a.Referents, &AssociativeReferent{
				Object:               to,
				Description:          end.Description,
				Cardinality:          end.Cardinality,
				Conditionality:       end.Conditionality,
				ReferentialAttribute: end.Attribute,
				Modified:             modified,
			})
		}
		if len(a.Referents) == 0 {
			errs = append(errs, fmt.Errorf("schema: R%d has no referents", s.Number))
			continue
		}
		rels = append(rels, a)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return newDomain(b.name, b.description, objects, rels), nil
}
