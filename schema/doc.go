// Package schema holds the domain model the generator reads: objects
// with typed attributes, and the binary, isa and associative
// relationships between them.
//
// A Domain is assembled with a Builder:
//
//	b := schema.NewBuilder("pets").Description("Pets and their owners.")
//	b.Object("Person", field.String("name"))
//	b.Object("Dog", field.String("name"), field.Int("age"))
//	b.Binary(schema.BinarySpec{
//	    Number:              1,
//	    Referrer:            "Dog",
//	    ReferrerCardinality: schema.Many,
//	    Attribute:           "owner",
//	    Referent:            "Person",
//	})
//	d, err := b.Build()
//
// Every object gets an "id" attribute of type uuid unless it declares
// one. Ids of objects, attributes and relationships are v5 UUIDs rooted
// at Namespace(domain), so building the same definitions twice yields
// the same ids.
//
// # Relationships
//
//   - Binary: the referrer holds the referent's id in a referential
//     attribute. Each end has a cardinality (One, Many) and a
//     conditionality (Unconditional, Conditional).
//   - Isa: a supertype with one or more subtypes.
//   - Associative: an associative object referring to two or more
//     referents, one referential attribute each.
//
// # Navigation
//
// The Model interface answers the questions the generator asks: which
// relationships an object takes part in, and in which role. Domain is
// its in-memory implementation and is safe for concurrent readers.
package schema
