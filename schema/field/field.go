package field

import "time"

// Descriptor for attribute configuration.
type Descriptor struct {
	Name     string
	Info     *TypeInfo
	Comment  string
	Modified time.Time
	Err      error
}

// Builder is the builder for attributes.
type Builder struct {
	desc *Descriptor
}

// Bool returns a new attribute with type bool.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Float returns a new attribute with type float.
func Float(name string) *Builder { return newBuilder(name, TypeFloat) }

// Int returns a new attribute with type int.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// String returns a new attribute with type string.
func String(name string) *Builder { return newBuilder(name, TypeString) }

// UUID returns a new attribute with type uuid.
func UUID(name string) *Builder { return newBuilder(name, TypeUUID) }

// External returns a new attribute whose type lives outside the domain.
//
//	field.External("clock", "SystemTime", "std::time::SystemTime")
func External(name, ident, path string) *Builder {
	b := newBuilder(name, TypeExternal)
	b.desc.Info.Ident = ident
	b.desc.Info.Path = path
	return b
}

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{
		Name: name,
		Info: &TypeInfo{Type: t},
	}}
}

// Comment sets the comment of the attribute.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// ModifiedAt sets the last-modified time of the attribute.
func (b *Builder) ModifiedAt(t time.Time) *Builder {
	b.desc.Modified = t
	return b
}

// Descriptor returns the attribute descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Err == nil && !b.desc.Info.Valid() {
		b.desc.Err = &invalidTypeError{name: b.desc.Name, info: *b.desc.Info}
	}
	return b.desc
}

type invalidTypeError struct {
	name string
	info TypeInfo
}

func (e *invalidTypeError) Error() string {
	return "field: attribute " + e.name + " has incomplete type " + e.info.Type.String()
}
