package rust

import (
	"strings"

	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/schema"
)

// =============================================================================
// Constructors
// =============================================================================

// storeParam is the last parameter of every constructor.
func storeParam() *gen.Variable {
	return &gen.Variable{Name: "store", Type: &gen.Reference{Target: gen.StoreType, Mutable: true}}
}

// subtypeValue returns the value a subtype enum variant holds: the id
// constant of a singleton, or the id read from the subtype parameter,
// which is appended to f.
func (b *Backend) subtypeValue(f *gen.Func, s *schema.Object) (gen.Expression, gen.GraceType, error) {
	target := b.g.IDTypeOf(s)
	if b.g.IsConst(s) {
		return &gen.Literal{Value: gen.ConstName(s.Name), Type: gen.UuidType}, target, nil
	}
	p := &gen.Variable{Name: gen.Ident(s.Name), Type: gen.RefTo(gen.ObjectType(s))}
	f.Params = append(f.Params, p)
	return b.bind(f, p, p.Name, target)
}

// bind coerces p into target and, when that takes more than naming p,
// binds the result to name so the value is computed once.
func (b *Backend) bind(f *gen.Func, p *gen.Variable, name string, target gen.GraceType) (gen.Expression, gen.GraceType, error) {
	src := &gen.VariableRef{Var: p}
	v, err := b.g.Coerce(target, src)
	if err != nil {
		return nil, nil, err
	}
	if v == p.Name {
		return src, target, nil
	}
	return &gen.VariableRef{Var: f.Let(name, &gen.Literal{Value: v, Type: target})}, target, nil
}

// structCtor builds the constructor of a struct, or of one subtype of a
// hybrid when sub is set. Under hashmap storage the id is derived from
// the content; under vec storage the store hands out the slot index.
func (b *Backend) structCtor(o *schema.Object, name string, fs []*structField, sub *schema.Object) (*gen.Func, error) {
	f := &gen.Func{
		Name:   name,
		Doc:    "Inter a new '" + o.Name + "' in the store, and return it's `id`.",
		Return: gen.ObjectType(o),
	}
	for _, fd := range fs {
		if fd.param != nil {
			f.Params = append(f.Params, &gen.Variable{Name: fd.name, Type: fd.param})
		}
	}
	var inits []*gen.FieldExpression
	if sub != nil {
		f.Doc = "Inter a new '" + o.Name + "' in the store, and return it's `id`, with subtype '" + sub.Name + "'."
		v, target, err := b.subtypeValue(f, sub)
		if err != nil {
			return nil, err
		}
		inits = append(inits, &gen.FieldExpression{
			Name:    "subtype",
			Value:   v,
			Target:  target,
			Variant: b.enumName(o) + "::" + b.typeName(sub),
		})
	}
	id := &gen.Variable{Name: "id", Type: gen.KeyType}
	for _, fd := range fs {
		if fd.name == "id" {
			inits = append(inits, &gen.FieldExpression{Name: "id", Value: &gen.VariableRef{Var: id}, Target: gen.KeyType})
			continue
		}
		p, err := f.Param(fd.name)
		if err != nil {
			return nil, err
		}
		var v gen.Expression = &gen.VariableRef{Var: p}
		switch {
		case fd.referent != nil && fd.copyable:
			if v, _, err = b.bind(f, p, fd.name, fd.ty); err != nil {
				return nil, err
			}
		case b.vec() && !fd.copyable:
			v = &gen.Literal{Value: p.Name + ownedSuffix(fd.ty), Type: fd.ty}
		}
		inits = append(inits, &gen.FieldExpression{Name: fd.name, Value: v, Target: fd.ty})
	}
	f.Params = append(f.Params, storeParam())

	lit := &gen.StructExpression{Object: o, Name: b.typeName(o), Fields: inits}
	inter := "store.inter_" + gen.Ident(o.Name)
	if b.vec() {
		s, err := b.g.StructLiteral(lit)
		if err != nil {
			return nil, err
		}
		f.Result = &gen.Literal{Value: inter + "(|id| " + s + ")" + b.await(), Type: gen.ObjectType(o)}
		return f, nil
	}
	uuid, err := b.g.UUIDSynthesis(f, inits)
	if err != nil {
		return nil, err
	}
	f.Do(&gen.Literal{Value: strings.TrimSuffix(uuid, ";")})
	n := f.Let("new", lit)
	f.Do(&gen.Literal{Value: inter + "(new.clone())" + b.await()})
	f.Result = &gen.VariableRef{Var: n}
	return f, nil
}

// ownedSuffix returns the call that copies a non-Copy value out of the
// vec constructor closure.
func ownedSuffix(t gen.GraceType) string {
	if ty, ok := t.(*gen.Ty); ok && ty.Kind == gen.TyString {
		return ".to_owned()"
	}
	return ".clone()"
}

// enumCtor builds the constructor of one variant of an enum under
// hashmap storage.
func (b *Backend) enumCtor(o, s *schema.Object) (*gen.Func, error) {
	f := &gen.Func{
		Name:   "new_" + gen.Ident(s.Name),
		Doc:    "Create a new instance of " + b.typeName(o) + "::" + b.typeName(s),
		Return: gen.ObjectType(o),
	}
	v, target, err := b.subtypeValue(f, s)
	if err != nil {
		return nil, err
	}
	val, err := b.g.Coerce(target, v)
	if err != nil {
		return nil, err
	}
	f.Params = append(f.Params, storeParam())
	value := "Self::" + b.typeName(s) + "(" + val + ")"
	if b.g.Wrapped(o) {
		value = b.g.UberStore.New(value)
	}
	n := f.Let("new", &gen.Literal{Value: value, Type: gen.ObjectType(o)})
	f.Do(&gen.Literal{Value: "store.inter_" + gen.Ident(o.Name) + "(new.clone())" + b.await()})
	f.Result = &gen.VariableRef{Var: n}
	return f, nil
}

// renderFunc writes a function: its doc comment, signature, body
// statements and result.
func (b *Backend) renderFunc(w *buffer.Buffer, f *gen.Func) error {
	w.Lines(gen.DocComment(f.Doc, "    /// ", "", gen.DocWidth))
	if b.g.DocTest && f.Return != nil {
		w.Lines(b.docTest(f))
	}
	sig, err := b.g.MethodSignature(f)
	if err != nil {
		return err
	}
	w.Line("    ", sig)
	for _, s := range f.Body {
		switch s := s.(type) {
		case *gen.Let:
			v, err := b.g.Emit(s.Value)
			if err != nil {
				return err
			}
			w.Line("        let ", s.Var.Name, " = ", v, ";")
		case *gen.Item:
			v, err := b.g.Emit(s.Expr)
			if err != nil {
				return err
			}
			w.Line("        ", v, ";")
		}
	}
	if f.Result != nil {
		v, err := b.g.Emit(f.Result)
		if err != nil {
			return err
		}
		w.Line("        ", v)
	}
	w.Line("    }")
	return nil
}

// docTest returns an ignored doc example calling f.
func (b *Backend) docTest(f *gen.Func) []string {
	ty, ok := f.Return.(*gen.Ty)
	if !ok || ty.Object == nil {
		return nil
	}
	args := make([]string, len(f.Params))
	for i, p := range f.Params {
		switch t := p.Type.(type) {
		case *gen.Reference:
			if t.Mutable {
				args[i] = "&mut " + p.Name
			} else {
				args[i] = "&" + p.Name
			}
		case *gen.WoogOption:
			args[i] = "Some(" + p.Name + ")"
			if _, ok := t.Inner.(*gen.Reference); ok {
				args[i] = "Some(&" + p.Name + ")"
			}
		default:
			args[i] = p.Name
		}
	}
	return []string{
		"    /// # Example",
		"    ///",
		"    /// ```ignore",
		"    /// let " + gen.Ident(ty.Object.Name) + " = " + b.typeName(ty.Object) + "::" + f.Name + "(" + strings.Join(args, ", ") + ")" + b.await() + ";",
		"    /// ```",
	}
}
