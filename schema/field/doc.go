// Package field provides builders for object attributes.
//
//	field.String("name")
//	field.Int("age").Comment("Age in years.")
//	field.Float("wingspan")
//	field.Bool("tame")
//	field.UUID("token")
//	field.External("born", "SystemTime", "std::time::SystemTime")
//
// # Types
//
// Scalar types map to built-in types of the emitted code:
//
//	bool    bool
//	float   f64
//	int     i64
//	string  String
//	uuid    Uuid
//
// External types name a type defined outside the domain by identifier
// and use path. Object types name another object of the domain; they
// are produced by referential attributes and cannot be declared
// directly.
package field
