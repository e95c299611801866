package schema

import (
	"time"

	"github.com/google/uuid"

	"github.com/syssam/grace/schema/field"
)

// Object is a named modeled entity of a domain.
type Object struct {
	ID          uuid.UUID
	Name        string
	KeyLetters  string
	Description string
	Modified    time.Time
	Attributes  []*Attribute
	States      []*State
	Events      []*Event
}

// Attribute is a typed value carried by an Object.
type Attribute struct {
	ID       uuid.UUID
	Name     string
	Type     field.TypeInfo
	Comment  string
	Modified time.Time
}

// State is a lifecycle state of an Object.
type State struct {
	ID       uuid.UUID
	Name     string
	Modified time.Time
}

// Event is a lifecycle event of an Object.
type Event struct {
	ID       uuid.UUID
	Name     string
	Modified time.Time
}

// Cardinality of a relationship end.
type Cardinality uint8

// Cardinality values.
const (
	One Cardinality = iota
	Many
)

// String returns the "1" / "M" notation used in generated docs.
func (c Cardinality) String() string {
	if c == Many {
		return "M"
	}
	return "1"
}

// Conditionality of a relationship end.
type Conditionality uint8

// Conditionality values.
const (
	Unconditional Conditionality = iota
	Conditional
)

// String returns the "c" / "" notation used in generated docs.
func (c Conditionality) String() string {
	if c == Conditional {
		return "c"
	}
	return ""
}

// Relationship is implemented by Binary, Isa and Associative.
type Relationship interface {
	// Number returns the modeler-assigned relationship number.
	Number() int
	// Timestamp returns the newest modification time of the relationship
	// and its ends.
	Timestamp() time.Time
	relationship()
}

// Binary is a relationship between a referrer and a referent Object.
// The referrer holds a reference to the referent through a referential
// attribute.
type Binary struct {
	ID       uuid.UUID
	Num      int
	Referrer *Referrer
	Referent *Referent
	Modified time.Time
}

// Referrer is the referring end of a Binary relationship.
type Referrer struct {
	Object         *Object
	Description    string
	Cardinality    Cardinality
	Conditionality Conditionality
	// ReferentialAttribute is the name of the generated field that
	// stores the referent's id.
	ReferentialAttribute string
	Modified             time.Time
}

// Referent is the referred-to end of a Binary relationship.
type Referent struct {
	Object         *Object
	Description    string
	Cardinality    Cardinality
	Conditionality Conditionality
	Modified       time.Time
}

// Number implements Relationship.
func (b *Binary) Number() int { return b.Num }

// Timestamp implements Relationship.
func (b *Binary) Timestamp() time.Time {
	return latest(b.Modified, b.Referrer.Modified, b.Referent.Modified)
}

func (*Binary) relationship() {}

// Conditional reports if the referrer may exist without a referent.
func (b *Binary) Conditional() bool {
	return b.Referent.Conditionality == Conditional
}

// Isa is a supertype/subtype relationship.
type Isa struct {
	ID        uuid.UUID
	Num       int
	Supertype *Object
	Subtypes  []*Object
	Modified  time.Time
}

// Number implements Relationship.
func (i *Isa) Number() int { return i.Num }

// Timestamp implements Relationship.
func (i *Isa) Timestamp() time.Time { return i.Modified }

func (*Isa) relationship() {}

// Associative relates one associative Object to N referent Objects.
type Associative struct {
	ID        uuid.UUID
	Num       int
	Referrer  *AssociativeReferrer
	Referents []*AssociativeReferent
	Modified  time.Time
}

// AssociativeReferrer is the associative Object end of an Associative
// relationship.
type AssociativeReferrer struct {
	Object      *Object
	Cardinality Cardinality
	Modified    time.Time
}

// AssociativeReferent is one of the referred-to ends of an Associative
// relationship.
type AssociativeReferent struct {
	Object               *Object
	Description          string
	Cardinality          Cardinality
	Conditionality       Conditionality
	ReferentialAttribute string
	Modified             time.Time
}

// Number implements Relationship.
func (a *Associative) Number() int { return a.Num }

// Timestamp implements Relationship.
func (a *Associative) Timestamp() time.Time {
	ts := latest(a.Modified, a.Referrer.Modified)
	for _, r := range a.Referents {
		ts = latest(ts, r.Modified)
	}
	return ts
}

func (*Associative) relationship() {}

func latest(ts ...time.Time) time.Time {
	var t time.Time
	for _, x := range ts {
		if x.After(t) {
			t = x
		}
	}
	return t
}
