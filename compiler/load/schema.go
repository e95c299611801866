package load

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/grace/schema"
	"github.com/syssam/grace/schema/field"
)

// Model represents a domain model document as it is stored on disk.
type Model struct {
	Domain        string          `json:"domain" yaml:"domain" msgpack:"domain"`
	Description   string          `json:"description,omitempty" yaml:"description,omitempty" msgpack:"description,omitempty"`
	Modified      time.Time       `json:"modified,omitempty" yaml:"modified,omitempty" msgpack:"modified,omitempty"`
	Objects       []*Object       `json:"objects,omitempty" yaml:"objects,omitempty" msgpack:"objects,omitempty"`
	Relationships []*Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty" msgpack:"relationships,omitempty"`
}

// Object represents a schema.Object in a model document.
type Object struct {
	ID          string       `json:"id,omitempty" yaml:"id,omitempty" msgpack:"id,omitempty"`
	Name        string       `json:"name" yaml:"name" msgpack:"name"`
	KeyLetters  string       `json:"key_letters,omitempty" yaml:"key_letters,omitempty" msgpack:"key_letters,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" msgpack:"description,omitempty"`
	Modified    time.Time    `json:"modified,omitempty" yaml:"modified,omitempty" msgpack:"modified,omitempty"`
	Attributes  []*Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty" msgpack:"attributes,omitempty"`
	States      []*Lifecycle `json:"states,omitempty" yaml:"states,omitempty" msgpack:"states,omitempty"`
	Events      []*Lifecycle `json:"events,omitempty" yaml:"events,omitempty" msgpack:"events,omitempty"`
}

// Attribute represents a schema.Attribute in a model document.
type Attribute struct {
	Name     string    `json:"name" yaml:"name" msgpack:"name"`
	Type     string    `json:"type" yaml:"type" msgpack:"type"`
	Ident    string    `json:"ident,omitempty" yaml:"ident,omitempty" msgpack:"ident,omitempty"`
	Path     string    `json:"path,omitempty" yaml:"path,omitempty" msgpack:"path,omitempty"`
	Comment  string    `json:"comment,omitempty" yaml:"comment,omitempty" msgpack:"comment,omitempty"`
	Modified time.Time `json:"modified,omitempty" yaml:"modified,omitempty" msgpack:"modified,omitempty"`
}

// Lifecycle represents a state or an event in a model document.
type Lifecycle struct {
	Name     string    `json:"name" yaml:"name" msgpack:"name"`
	Modified time.Time `json:"modified,omitempty" yaml:"modified,omitempty" msgpack:"modified,omitempty"`
}

// Relationship kinds.
const (
	KindBinary      = "binary"
	KindIsa         = "isa"
	KindAssociative = "associative"
)

// Relationship represents any of the three relationship kinds. Only the
// fields of its Kind are read.
type Relationship struct {
	Kind     string    `json:"kind" yaml:"kind" msgpack:"kind"`
	Number   int       `json:"number" yaml:"number" msgpack:"number"`
	Modified time.Time `json:"modified,omitempty" yaml:"modified,omitempty" msgpack:"modified,omitempty"`
	// Binary.
	Referrer *End `json:"referrer,omitempty" yaml:"referrer,omitempty" msgpack:"referrer,omitempty"`
	Referent *End `json:"referent,omitempty" yaml:"referent,omitempty" msgpack:"referent,omitempty"`
	// Isa.
	Supertype string   `json:"supertype,omitempty" yaml:"supertype,omitempty" msgpack:"supertype,omitempty"`
	Subtypes  []string `json:"subtypes,omitempty" yaml:"subtypes,omitempty" msgpack:"subtypes,omitempty"`
	// Associative.
	Associative *End   `json:"associative,omitempty" yaml:"associative,omitempty" msgpack:"associative,omitempty"`
	Referents   []*End `json:"referents,omitempty" yaml:"referents,omitempty" msgpack:"referents,omitempty"`
}

// End is one side of a binary or associative relationship.
type End struct {
	Object      string `json:"object" yaml:"object" msgpack:"object"`
	Attribute   string `json:"attribute,omitempty" yaml:"attribute,omitempty" msgpack:"attribute,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" msgpack:"description,omitempty"`
	Cardinality string `json:"cardinality,omitempty" yaml:"cardinality,omitempty" msgpack:"cardinality,omitempty"`
	Conditional bool   `json:"conditional,omitempty" yaml:"conditional,omitempty" msgpack:"conditional,omitempty"`
}

func (e *End) cardinality() (schema.Cardinality, error) {
	switch e.Cardinality {
	case "", "one", "1":
		return schema.One, nil
	case "many", "M", "*":
		return schema.Many, nil
	}
	return schema.One, fmt.Errorf("object %q: unknown cardinality %q", e.Object, e.Cardinality)
}

func (e *End) conditionality() schema.Conditionality {
	if e.Conditional {
		return schema.Conditional
	}
	return schema.Unconditional
}

// MarshalModel encodes a model document into JSON.
func MarshalModel(m *Model) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalModel decodes the given JSON buffer to a model document.
func UnmarshalModel(buf []byte) (*Model, error) {
	m := &Model{}
	if err := json.Unmarshal(buf, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Build converts the document into a schema.Domain.
func (m *Model) Build() (*schema.Domain, error) {
	if m.Domain == "" {
		return nil, fmt.Errorf("load: model without domain name")
	}
	b := schema.NewBuilder(m.Domain).
		Description(m.Description).
		ModifiedAt(m.Modified)
	for _, o := range m.Objects {
		attrs := make([]*field.Builder, 0, len(o.Attributes))
		for _, a := range o.Attributes {
			fb, err := a.builder()
			if err != nil {
				return nil, fmt.Errorf("load: object %q: %w", o.Name, err)
			}
			attrs = append(attrs, fb)
		}
		ob := b.Object(o.Name, attrs...).
			Describe(o.Description).
			KeyLetters(o.KeyLetters).
			ModifiedAt(o.Modified)
		if o.ID != "" {
			id, err := uuid.Parse(o.ID)
			if err != nil {
				return nil, fmt.Errorf("load: object %q: %w", o.Name, err)
			}
			ob.ID(id)
		}
		for _, s := range o.States {
			ob.State(s.Name, s.Modified)
		}
		for _, e := range o.Events {
			ob.Event(e.Name, e.Modified)
		}
	}
	for _, r := range m.Relationships {
		if err := r.add(b); err != nil {
			return nil, fmt.Errorf("load: R%d: %w", r.Number, err)
		}
	}
	return b.Build()
}

func (a *Attribute) builder() (*field.Builder, error) {
	t, err := field.ParseType(a.Type)
	if err != nil {
		return nil, err
	}
	var fb *field.Builder
	switch t {
	case field.TypeBool:
		fb = field.Bool(a.Name)
	case field.TypeFloat:
		fb = field.Float(a.Name)
	case field.TypeInt:
		fb = field.Int(a.Name)
	case field.TypeString:
		fb = field.String(a.Name)
	case field.TypeUUID:
		fb = field.UUID(a.Name)
	case field.TypeExternal:
		fb = field.External(a.Name, a.Ident, a.Path)
	default:
		return nil, fmt.Errorf("attribute %q: type %s is not allowed on attributes", a.Name, t)
	}
	return fb.Comment(a.Comment).ModifiedAt(a.Modified), nil
}

func (r *Relationship) add(b *schema.Builder) error {
	switch r.Kind {
	case KindIsa:
		b.Isa(r.Number, r.Supertype, r.Subtypes...)
	case KindBinary:
		if r.Referrer == nil || r.Referent == nil {
			return fmt.Errorf("binary relationship needs a referrer and a referent")
		}
		from, err := r.Referrer.cardinality()
		if err != nil {
			return err
		}
		to, err := r.Referent.cardinality()
		if err != nil {
			return err
		}
		b.Binary(schema.BinarySpec{
			Number:                 r.Number,
			Referrer:               r.Referrer.Object,
			ReferrerDescription:    r.Referrer.Description,
			ReferrerCardinality:    from,
			ReferrerConditionality: r.Referrer.conditionality(),
			Attribute:              r.Referrer.Attribute,
			Referent:               r.Referent.Object,
			ReferentDescription:    r.Referent.Description,
			ReferentCardinality:    to,
			ReferentConditionality: r.Referent.conditionality(),
			Modified:               r.Modified,
		})
	case KindAssociative:
		if r.Associative == nil {
			return fmt.Errorf("associative relationship needs an associative object")
		}
		card, err := r.Associative.cardinality()
		if err != nil {
			return err
		}
		spec := schema.AssociativeSpec{
			Number:      r.Number,
			Referrer:    r.Associative.Object,
			Cardinality: card,
			Modified:    r.Modified,
		}
		for _, e := range r.Referents {
			c, err := e.cardinality()
			if err != nil {
				return err
			}
			spec.Referents = append(spec.Referents, schema.AssociativeEnd{
				Object:         e.Object,
				Attribute:      e.Attribute,
				Description:    e.Description,
				Cardinality:    c,
				Conditionality: e.conditionality(),
			})
		}
		b.Associative(spec)
	default:
		return fmt.Errorf("unknown relationship kind %q", r.Kind)
	}
	return nil
}
