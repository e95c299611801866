package gen

import (
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/go-wordwrap"

	"github.com/syssam/grace/schema"
)

// DocWidth is the column limit of generated doc comments.
const DocWidth = 90

// RustType returns the emitted spelling of t. Object types are wrapped by
// the uber store when wrap is set and the object is stored.
func (g *Graph) RustType(t GraceType, wrap bool) (string, error) {
	switch t := t.(type) {
	case *Ty:
		switch t.Kind {
		case TyKey:
			return g.Storage.IDType(), nil
		case TyStore:
			return "ObjectStore", nil
		case TyObject:
			if t.Object == nil {
				return "", NewModelInconsistencyError("", "object", "object type without an object")
			}
			name := TypeName(t.Object.Name)
			if n, ok := g.Type(t.Object); ok {
				name = n.TypeName()
			}
			if wrap && g.Wrapped(t.Object) {
				return g.UberStore.Wrap(name), nil
			}
			return name, nil
		}
		return t.String(), nil
	case *Reference:
		inner, err := g.RustType(t.Target, wrap)
		if err != nil {
			return "", err
		}
		if t.Mutable {
			return "&mut " + inner, nil
		}
		return "&" + inner, nil
	case *WoogOption:
		inner, err := g.RustType(t.Inner, wrap)
		if err != nil {
			return "", err
		}
		return "Option<" + inner + ">", nil
	case *Function:
		return "", NewUnsupportedError("function type %s", t)
	}
	return "", NewUnsupportedError("type %T", t)
}

// MethodSignature returns the opening line of f:
//
//	pub [async] fn name(a: A, store: &mut ObjectStore) -> Return {
//
// Object types of parameters and of the return value are wrapped by the
// uber store; the store parameter never is.
func (g *Graph) MethodSignature(f *Func) (string, error) {
	if f.Name == "" {
		return "", NewModelInconsistencyError("", "function name", "unnamed function")
	}
	var b strings.Builder
	b.WriteString("pub ")
	b.WriteString(g.UberStore.Async())
	b.WriteString("fn ")
	b.WriteString(f.Name)
	b.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		ty, err := g.RustType(p.Type, p.Name != "store")
		if err != nil {
			return "", err
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(ty)
	}
	b.WriteString(")")
	if f.Return != nil {
		ret, err := g.RustType(f.Return, true)
		if err != nil {
			return "", err
		}
		b.WriteString(" -> ")
		b.WriteString(ret)
	}
	b.WriteString(" {")
	return b.String(), nil
}

// UUIDSynthesis returns the let statement that derives the id of a new
// value from its content: a version 5 UUID in the domain namespace over
// the debug formatting of every field value. Equal content yields equal
// ids across runs.
func (g *Graph) UUIDSynthesis(f *Func, fields []*FieldExpression) (string, error) {
	var (
		verbs []string
		args  []string
	)
	for _, fe := range fields {
		if fe.Name == "id" {
			continue
		}
		v, err := g.fieldValue(fe)
		if err != nil {
			return "", err
		}
		verbs = append(verbs, "{:?}")
		args = append(args, v)
	}
	if len(args) == 0 {
		return "", NewModelInconsistencyError(f.Name, "parameter", "no content to derive an id from")
	}
	return "let id = Uuid::new_v5(&UUID_NS, format!(\"" + strings.Join(verbs, ":") + "\", " +
		strings.Join(args, ", ") + ").as_bytes());", nil
}

// fieldValue returns the coerced value of a struct literal field,
// wrapped in its enum variant when it has one.
func (g *Graph) fieldValue(fe *FieldExpression) (string, error) {
	if fe.Value == nil {
		return "", NewModelInconsistencyError("", "field value", "field "+fe.Name+" has no value")
	}
	target := fe.Target
	if target == nil {
		target = fe.Value.ExprType()
	}
	v, err := g.Coerce(target, fe.Value)
	if err != nil {
		return "", err
	}
	if fe.Variant != "" {
		v = fe.Variant + "(" + v + ")"
	}
	return v, nil
}

// StructLiteral renders a struct expression, wrapped in the uber store
// constructor when values of the object are wrapped:
//
//	Arc::new(RwLock::new(Dog { id, name, owner: owner.read().unwrap().id }))
func (g *Graph) StructLiteral(e *StructExpression) (string, error) {
	if e.Object == nil {
		return "", NewModelInconsistencyError(e.Name, "object", "struct expression without an object")
	}
	name := e.Name
	if name == "" {
		name = TypeName(e.Object.Name)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		v, err := g.fieldValue(fe)
		if err != nil {
			return "", err
		}
		if v == fe.Name {
			parts = append(parts, v)
		} else {
			parts = append(parts, fe.Name+": "+v)
		}
	}
	lit := name + " {"
	if len(parts) > 0 {
		lit += " " + strings.Join(parts, ", ") + " "
	}
	lit += "}"
	if g.Wrapped(e.Object) {
		return g.UberStore.New(lit), nil
	}
	return lit, nil
}

// DocComment reflows text into comment lines no wider than width,
// including prefix and suffix, and ends the block with a blank comment
// line. Words are never split; a word longer than the line stays whole.
// Empty text yields no lines.
func DocComment(text, prefix, suffix string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lim := width - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(suffix)
	if lim < 1 {
		lim = 1
	}
	var lines []string
	for _, l := range strings.Split(wordwrap.WrapString(text, uint(lim)), "\n") {
		lines = append(lines, strings.TrimRight(prefix+strings.TrimSpace(l), " ")+suffix)
	}
	return append(lines, strings.TrimRight(prefix, " ")+suffix)
}

// ObjectDoc returns the doc comment lines of o.
func (g *Graph) ObjectDoc(o *schema.Object, prefix string) []string {
	return DocComment(g.Grace.Description(o), prefix, "", DocWidth)
}
