package field

import "fmt"

// A Type represents an attribute type.
type Type uint8

// List of attribute types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeFloat
	TypeInt
	TypeString
	TypeUUID
	TypeExternal
	TypeObject
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:  "invalid",
	TypeBool:     "bool",
	TypeFloat:    "float",
	TypeInt:      "int",
	TypeString:   "string",
	TypeUUID:     "uuid",
	TypeExternal: "external",
	TypeObject:   "object",
}

// rustTypes holds the emitted spelling of each scalar type.
var rustTypes = [...]string{
	TypeBool:   "bool",
	TypeFloat:  "f64",
	TypeInt:    "i64",
	TypeString: "String",
	TypeUUID:   "Uuid",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Scalar reports if the type maps to a built-in type of the target language.
func (t Type) Scalar() bool {
	return t >= TypeBool && t <= TypeUUID
}

// ParseType returns the Type for the given name. It accepts the names
// returned by String as well as a few aliases used by model documents.
func ParseType(s string) (Type, error) {
	switch s {
	case "bool", "boolean":
		return TypeBool, nil
	case "float", "f64":
		return TypeFloat, nil
	case "int", "integer", "i64":
		return TypeInt, nil
	case "string", "s_string":
		return TypeString, nil
	case "uuid":
		return TypeUUID, nil
	case "external":
		return TypeExternal, nil
	case "object":
		return TypeObject, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown attribute type %q", s)
}

// TypeInfo holds the information of an attribute type.
type TypeInfo struct {
	Type Type
	// Ident is the name of an external or object type, e.g. "SystemTime".
	Ident string
	// Path is the use path of an external type, e.g. "std::time::SystemTime".
	Path string
}

// String returns the emitted type name.
func (t TypeInfo) String() string {
	switch {
	case t.Type.Scalar():
		return rustTypes[t.Type]
	case t.Ident != "":
		return t.Ident
	default:
		return t.Type.String()
	}
}

// Valid reports if the type info is complete.
func (t TypeInfo) Valid() bool {
	switch t.Type {
	case TypeExternal, TypeObject:
		return t.Ident != ""
	default:
		return t.Type.Scalar()
	}
}

// Equal reports whether the two types are the same nominal type.
// External and object types match by name only.
func (t TypeInfo) Equal(o TypeInfo) bool {
	if t.Type != o.Type {
		return false
	}
	if t.Type == TypeExternal || t.Type == TypeObject {
		return t.Ident == o.Ident
	}
	return true
}
