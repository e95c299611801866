package gen

import (
	"strings"

	"github.com/syssam/grace/schema"
)

// Coerce returns the emitted expression that converts source into a
// value of the target type. It is the only place that decides how a
// value crosses types, so checking and emitting cannot disagree:
//
//	target                 source                   emitted
//	Reference(O)           Ty(O) or Reference(O)    source as is
//	Ty(T)                  Ty(T)                    source as is
//	Ty(Uuid) or Ty(Key)    Reference(O)             source.id or source.id()
//	Option(Uuid/Key/&O)    Option(Reference(O))     source.map(|x| x.id)
//	Ty(External E)         Ty(External E)           source as is
//
// Reads go through the lock accessor of the uber store, and optional
// reads under an async store through an OptionFuture. Every other pair
// is a TypeMismatchError; function types are unsupported.
func (g *Graph) Coerce(target GraceType, source Expression) (string, error) {
	if target == nil || source == nil {
		return "", NewUnsupportedError("coercion without a type")
	}
	if v, ok := source.(*VariableRef); ok && v.Var == nil {
		return "", NewModelInconsistencyError("", "variable", "reference to a missing variable")
	}
	st := source.ExprType()
	if st == nil {
		return "", NewUnsupportedError("expression without a type")
	}
	if isFunction(target) || isFunction(st) {
		return "", NewUnsupportedError("coercion of %s into %s", st, target)
	}
	if opt, ok := st.(*WoogOption); ok {
		if ref, ok := opt.Inner.(*Reference); ok {
			if tgt, ok := target.(*WoogOption); ok && g.acceptsID(tgt.Inner, ref) {
				return g.optionID(source, ref)
			}
		}
	}
	if ref, ok := st.(*Reference); ok {
		if g.acceptsID(target, ref) && !isReference(target) {
			return g.refID(source, ref)
		}
	}
	if g.identity(target, st) {
		return g.Emit(source)
	}
	return "", NewTypeMismatchError(target.String(), st.String(), exprName(source))
}

// TypeCheck reports whether source can be coerced into target.
func (g *Graph) TypeCheck(target GraceType, source Expression) error {
	_, err := g.Coerce(target, source)
	return err
}

// identity reports whether a value of st can be used as t unchanged.
func (g *Graph) identity(t, st GraceType) bool {
	keyIsUuid := g.Storage == StorageHashMap
	if TypesEqual(t, st, keyIsUuid) {
		return true
	}
	if ref, ok := t.(*Reference); ok && !ref.Mutable {
		if ty, ok := st.(*Ty); ok && ty.Kind == TyObject {
			return TypesEqual(ref.Target, ty, keyIsUuid)
		}
	}
	return false
}

// acceptsID reports whether t can hold the id of the object ref points
// to. An optional referent field is modeled either as an optional id or
// as an optional reference.
func (g *Graph) acceptsID(t GraceType, ref *Reference) bool {
	o := refObject(ref)
	if o == nil {
		return false
	}
	switch t := t.(type) {
	case *Ty:
		return TypesEqual(t, g.IDTypeOf(o), g.Storage == StorageHashMap)
	case *Reference:
		return TypesEqual(t.Target, ref.Target, true)
	}
	return false
}

// IDTypeOf returns the type that holds the id of o: constants are
// always identified by a Uuid, stored objects by their store key.
func (g *Graph) IDTypeOf(o *schema.Object) *Ty {
	if g.IsConst(o) {
		return UuidType
	}
	return KeyType
}

// Wrapped reports whether values of o are wrapped by the uber store.
func (g *Graph) Wrapped(o *schema.Object) bool {
	if !g.UberStore.Enabled() || g.IsConst(o) {
		return false
	}
	if e, ok := g.Grace.External(o.ID); ok {
		return e.IsUber
	}
	return true
}

// accessor returns the read accessor and id suffix of o, e.g.
// ".read().unwrap()" and ".id".
func (g *Graph) accessor(o *schema.Object) (string, string, error) {
	enum, err := g.IsEnumShaped(o)
	if err != nil {
		return "", "", err
	}
	id := ".id"
	if enum {
		id = ".id()"
	}
	if g.Wrapped(o) {
		return g.UberStore.Read(), id, nil
	}
	return "", id, nil
}

func (g *Graph) refID(source Expression, ref *Reference) (string, error) {
	read, id, err := g.accessor(refObject(ref))
	if err != nil {
		return "", err
	}
	src, err := g.Emit(source)
	if err != nil {
		return "", err
	}
	return src + read + id, nil
}

func (g *Graph) optionID(source Expression, ref *Reference) (string, error) {
	o := refObject(ref)
	read, id, err := g.accessor(o)
	if err != nil {
		return "", err
	}
	src, err := g.Emit(source)
	if err != nil {
		return "", err
	}
	if g.UberStore.IsAsync() && g.Wrapped(o) {
		return "futures::future::OptionFuture::from(" + src + ".map(|x| async move { x" + read + id + " })).await", nil
	}
	return src + ".map(|x| x" + read + id + ")", nil
}

// Emit returns the emitted text of an expression.
func (g *Graph) Emit(e Expression) (string, error) {
	switch e := e.(type) {
	case *Literal:
		if e.Value == "" {
			return "", NewUnsupportedError("empty literal of type %s", e.Type)
		}
		return e.Value, nil
	case *VariableRef:
		if e.Var == nil || e.Var.Name == "" {
			return "", NewModelInconsistencyError("", "variable", "reference to an unnamed variable")
		}
		return e.Var.Name, nil
	case *StructExpression:
		return g.StructLiteral(e)
	case *Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			s, err := g.Emit(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return e.Func + "(" + strings.Join(args, ", ") + ")", nil
	}
	return "", NewUnsupportedError("expression %T", e)
}

func refObject(ref *Reference) *schema.Object {
	if ty, ok := ref.Target.(*Ty); ok && ty.Kind == TyObject {
		return ty.Object
	}
	return nil
}

func isFunction(t GraceType) bool {
	_, ok := t.(*Function)
	return ok
}

func isReference(t GraceType) bool {
	_, ok := t.(*Reference)
	return ok
}

func exprName(e Expression) string {
	if v, ok := e.(*VariableRef); ok && v.Var != nil {
		return v.Var.Name
	}
	return ""
}
