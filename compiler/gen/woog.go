package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/grace/schema"
	"github.com/syssam/grace/schema/field"
)

// =============================================================================
// Type model
// =============================================================================

// GraceType is the type of a variable, parameter or expression in an
// emitted function. It is one of Ty, Reference, WoogOption or Function.
type GraceType interface {
	// String returns the printable type description used in diagnostics.
	String() string
	graceType()
}

// TyKind enumerates the named types.
type TyKind uint8

// Named type kinds.
const (
	TyBoolean TyKind = iota
	TyFloat
	TyInteger
	TyString
	TyUuid
	// TyKey is the store key of an object: Uuid under hashmap storage
	// and usize under vec storage.
	TyKey
	TyObject
	TyExternal
	TyStore
)

// Ty is a named type.
type Ty struct {
	Kind TyKind
	// Object is set for TyObject.
	Object *schema.Object
	// Name is the type name of TyExternal.
	Name string
}

// Reference is a borrowed value of Target.
type Reference struct {
	Target  GraceType
	Mutable bool
}

// WoogOption is an optional value of Inner.
type WoogOption struct {
	Inner GraceType
}

// Function is the type of a function.
type Function struct {
	Params []GraceType
	Return GraceType
}

func (*Ty) graceType()         {}
func (*Reference) graceType()  {}
func (*WoogOption) graceType() {}
func (*Function) graceType()   {}

// String implements GraceType.
func (t *Ty) String() string {
	switch t.Kind {
	case TyBoolean:
		return "bool"
	case TyFloat:
		return "f64"
	case TyInteger:
		return "i64"
	case TyString:
		return "String"
	case TyUuid:
		return "Uuid"
	case TyKey:
		return "Key"
	case TyObject:
		if t.Object == nil {
			return "<object>"
		}
		return t.Object.Name
	case TyExternal:
		return t.Name
	case TyStore:
		return "ObjectStore"
	}
	return fmt.Sprintf("Ty(%d)", t.Kind)
}

// String implements GraceType.
func (r *Reference) String() string {
	if r.Mutable {
		return "&mut " + r.Target.String()
	}
	return "&" + r.Target.String()
}

// String implements GraceType.
func (o *WoogOption) String() string {
	return "Option<" + o.Inner.String() + ">"
}

// String implements GraceType.
func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	ret := "()"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") -> " + ret
}

// Named type constructors.
var (
	BoolType   = &Ty{Kind: TyBoolean}
	FloatType  = &Ty{Kind: TyFloat}
	IntType    = &Ty{Kind: TyInteger}
	StringType = &Ty{Kind: TyString}
	UuidType   = &Ty{Kind: TyUuid}
	KeyType    = &Ty{Kind: TyKey}
	StoreType  = &Ty{Kind: TyStore}
)

// ObjectType returns the named type of o.
func ObjectType(o *schema.Object) *Ty { return &Ty{Kind: TyObject, Object: o} }

// ExternalType returns the named external type.
func ExternalType(name string) *Ty { return &Ty{Kind: TyExternal, Name: name} }

// RefTo returns a shared reference to t.
func RefTo(t GraceType) *Reference { return &Reference{Target: t} }

// OptionOf returns an optional t.
func OptionOf(t GraceType) *WoogOption { return &WoogOption{Inner: t} }

// AttributeType returns the type of an attribute.
func AttributeType(info field.TypeInfo) (GraceType, error) {
	switch info.Type {
	case field.TypeBool:
		return BoolType, nil
	case field.TypeFloat:
		return FloatType, nil
	case field.TypeInt:
		return IntType, nil
	case field.TypeString:
		return StringType, nil
	case field.TypeUUID:
		return UuidType, nil
	case field.TypeExternal:
		return ExternalType(info.Ident), nil
	}
	return nil, NewUnsupportedError("attribute type %s", info.Type)
}

// TypesEqual reports whether a and b are the same type. Objects compare
// by id and externals by name. keyIsUuid tells whether TyKey is Uuid.
func TypesEqual(a, b GraceType, keyIsUuid bool) bool {
	switch a := a.(type) {
	case *Ty:
		b, ok := b.(*Ty)
		if !ok {
			return false
		}
		ak, bk := a.Kind, b.Kind
		if keyIsUuid {
			if ak == TyKey {
				ak = TyUuid
			}
			if bk == TyKey {
				bk = TyUuid
			}
		}
		if ak != bk {
			return false
		}
		switch ak {
		case TyObject:
			return a.Object != nil && b.Object != nil && a.Object.ID == b.Object.ID
		case TyExternal:
			return a.Name == b.Name
		}
		return true
	case *Reference:
		b, ok := b.(*Reference)
		return ok && a.Mutable == b.Mutable && TypesEqual(a.Target, b.Target, keyIsUuid)
	case *WoogOption:
		b, ok := b.(*WoogOption)
		return ok && TypesEqual(a.Inner, b.Inner, keyIsUuid)
	case *Function:
		b, ok := b.(*Function)
		if !ok || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !TypesEqual(a.Params[i], b.Params[i], keyIsUuid) {
				return false
			}
		}
		if a.Return == nil || b.Return == nil {
			return a.Return == nil && b.Return == nil
		}
		return TypesEqual(a.Return, b.Return, keyIsUuid)
	}
	return false
}

// =============================================================================
// Expression model
// =============================================================================

// Variable is a named, typed value: a function parameter or a let binding.
type Variable struct {
	Name string
	Type GraceType
}

// Expression is one of Literal, VariableRef, StructExpression or Call.
type Expression interface {
	// ExprType returns the type of the expression.
	ExprType() GraceType
	expression()
}

// Literal is a literal value or constant in emitted syntax.
type Literal struct {
	Value string
	Type  GraceType
}

// VariableRef refers to a variable.
type VariableRef struct {
	Var *Variable
}

// FieldExpression initializes one field of a struct expression.
type FieldExpression struct {
	Name  string
	Value Expression
	// Target is the declared type of the field.
	Target GraceType
	// Variant, when set, wraps the value in a subtype enum variant,
	// e.g. "AnimalEnum::Dog".
	Variant string
}

// StructExpression builds a value of a struct-shaped object.
type StructExpression struct {
	Object *schema.Object
	// Name is the emitted type name, which may differ from the object's
	// name for external entities.
	Name   string
	Fields []*FieldExpression
}

// Call is a function or method call.
type Call struct {
	// Func is the callee in emitted syntax, e.g. "Uuid::new_v5".
	Func string
	Args []Expression
	Type GraceType
}

func (*Literal) expression()          {}
func (*VariableRef) expression()      {}
func (*StructExpression) expression() {}
func (*Call) expression()             {}

// ExprType implements Expression.
func (l *Literal) ExprType() GraceType { return l.Type }

// ExprType implements Expression.
func (v *VariableRef) ExprType() GraceType {
	if v.Var == nil {
		return nil
	}
	return v.Var.Type
}

// ExprType implements Expression.
func (s *StructExpression) ExprType() GraceType { return ObjectType(s.Object) }

// ExprType implements Expression.
func (c *Call) ExprType() GraceType { return c.Type }

// Statement is one of Let or Item.
type Statement interface {
	statement()
}

// Let binds an expression to a variable.
type Let struct {
	Var   *Variable
	Value Expression
}

// Item is an expression evaluated for its effect, such as interning a
// value into the store.
type Item struct {
	Expr Expression
}

func (*Let) statement()  {}
func (*Item) statement() {}

// Func is an emitted function: a signature plus the body statements that
// are built while rendering it.
type Func struct {
	Name string
	Doc  string
	// Params are the parameters in declaration order.
	Params []*Variable
	// Return is the return type; nil for unit.
	Return GraceType
	Body   []Statement
	// Result is the expression returned by the function, if any.
	Result Expression
}

// Type returns the function type.
func (f *Func) Type() *Function {
	params := make([]GraceType, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return &Function{Params: params, Return: f.Return}
}

// Param returns the parameter with the given name.
func (f *Func) Param(name string) (*Variable, error) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, NewModelInconsistencyError(f.Name, "parameter", name)
}

// Let appends a let binding to the body and returns the variable.
func (f *Func) Let(name string, value Expression) *Variable {
	v := &Variable{Name: name, Type: value.ExprType()}
	f.Body = append(f.Body, &Let{Var: v, Value: value})
	return v
}

// Do appends an expression statement to the body.
func (f *Func) Do(e Expression) {
	f.Body = append(f.Body, &Item{Expr: e})
}
