package rust

import (
	"fmt"

	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/schema"
)

// =============================================================================
// Relationship navigation
// =============================================================================

type navKind uint8

const (
	// navForward follows a referential attribute from referrer to referent.
	navForward navKind = iota
	// navBackward finds the referrers whose referential attribute holds
	// the id of self.
	navBackward
	// navSupertype finds the supertype instance of a subtype.
	navSupertype
)

// navigation is one generated navigation method.
type navigation struct {
	kind   navKind
	name   string
	num    int
	target *schema.Object
	// attr is the referential attribute followed or compared.
	attr string
	// optional reports whether attr holds an Option.
	optional bool
	// many reports whether the backward navigation may find several.
	many bool
	// conditional reports whether the backward navigation may find none.
	conditional bool
	// enumPath is the use path of the supertype's subtype enum.
	enumPath string
	doc      string
}

// navigations returns the navigation methods of o, ordered by kind and
// then by related object name.
func (b *Backend) navigations(o *schema.Object) ([]*navigation, error) {
	var navs []*navigation
	add := func(n *navigation) {
		if b.stored(n.target) {
			navs = append(navs, n)
		}
	}
	for _, rel := range b.g.ReferentsOf(o) {
		add(b.forward(rel.Num, rel.Referrer.ReferentialAttribute, rel.Referent.Object,
			rel.Referent.Conditionality == schema.Conditional, rel.Referent.Cardinality, rel.Referrer.Cardinality))
	}
	ends, err := b.g.AssociativeReferentsOf(o)
	if err != nil {
		return nil, err
	}
	for _, e := range ends {
		add(b.forward(e.Rel.Num, e.Referent.ReferentialAttribute, e.Referent.Object,
			e.Referent.Conditionality == schema.Conditional, e.Referent.Cardinality, e.Rel.Referrer.Cardinality))
	}
	for _, rel := range b.g.ReferrersOf(o) {
		r := rel.Referrer.Object
		n := &navigation{
			kind:        navBackward,
			num:         rel.Num,
			target:      r,
			attr:        attrName(rel.Referrer.ReferentialAttribute, o),
			optional:    rel.Referent.Conditionality == schema.Conditional,
			many:        rel.Referrer.Cardinality == schema.Many,
			conditional: rel.Referrer.Conditionality == schema.Conditional,
		}
		n.name = fmt.Sprintf("r%d_%s", rel.Num, gen.Ident(r.Name))
		if n.conditional {
			n.name = fmt.Sprintf("r%dc_%s", rel.Num, gen.Ident(r.Name))
		}
		if r.ID == o.ID {
			n.name += "_by_" + n.attr
		}
		n.doc = fmt.Sprintf("Navigate to [`%s`] across R%d(1-%s%s)", b.typeName(r), rel.Num, rel.Referrer.Cardinality, rel.Referrer.Conditionality)
		add(n)
	}
	for _, a := range b.g.AssociativeReferrersOf(o) {
		var mine []*schema.AssociativeReferent
		for _, e := range a.Referents {
			if e.Object.ID == o.ID {
				mine = append(mine, e)
			}
		}
		for _, e := range mine {
			r := a.Referrer.Object
			n := &navigation{
				kind:        navBackward,
				num:         a.Num,
				target:      r,
				attr:        attrName(e.ReferentialAttribute, o),
				optional:    e.Conditionality == schema.Conditional,
				many:        a.Referrer.Cardinality == schema.Many,
				conditional: true,
			}
			n.name = fmt.Sprintf("r%d_%s", a.Num, gen.Ident(r.Name))
			if len(mine) > 1 {
				n.name += "_by_" + n.attr
			}
			n.doc = fmt.Sprintf("Navigate to [`%s`] across R%d(1-%sc)", b.typeName(r), a.Num, a.Referrer.Cardinality)
			add(n)
		}
	}
	for _, isa := range b.g.SupertypesOf(o) {
		s := isa.Supertype
		n := &navigation{
			kind:   navSupertype,
			num:    isa.Num,
			target: s,
			name:   fmt.Sprintf("r%d_%s", isa.Num, gen.Ident(s.Name)),
			doc:    fmt.Sprintf("Navigate to [`%s`] across R%d(isa)", b.typeName(s), isa.Num),
		}
		enum, err := b.g.IsEnumShaped(s)
		if err != nil {
			return nil, err
		}
		if !enum {
			if t, ok := b.g.Type(s); ok {
				n.enumPath = cratePath(t.Module() + "::" + b.enumName(s))
			}
		}
		add(n)
	}
	seen := make(map[string]bool, len(navs))
	for _, n := range navs {
		if seen[n.name] {
			return nil, gen.NewModelInconsistencyError(o.Name, "navigation", "duplicate method "+n.name)
		}
		seen[n.name] = true
	}
	return navs, nil
}

func (b *Backend) forward(num int, attr string, r *schema.Object, cond bool, card, back schema.Cardinality) *navigation {
	n := &navigation{
		kind:     navForward,
		num:      num,
		target:   r,
		attr:     attrName(attr, r),
		optional: cond,
		name:     fmt.Sprintf("r%d_%s", num, gen.Ident(r.Name)),
	}
	c := ""
	if cond {
		n.name = fmt.Sprintf("r%dc_%s", num, gen.Ident(r.Name))
		c = "c"
	}
	n.doc = fmt.Sprintf("Navigate to [`%s`] across R%d(%s-%s%s)", b.typeName(r), num, back, card, c)
	return n
}

// attrName returns the field name of a referential attribute, which
// defaults to the referent's name.
func attrName(attr string, referent *schema.Object) string {
	if attr == "" {
		attr = referent.Name
	}
	return gen.Ident(attr)
}

// navMethods writes every navigation method in its own block.
func (b *Backend) navMethods(w *buffer.Buffer, t *gen.Type, navs []*navigation) error {
	for _, n := range navs {
		err := w.Block(buffer.IgnoreOrig, t.Ident()+"-struct-impl-nav-"+n.name, func() error {
			w.Lines(gen.DocComment(n.doc, "    /// ", "", gen.DocWidth))
			w.Line("    ", b.navSignature(n))
			var (
				body []string
				err  error
			)
			switch n.kind {
			case navForward:
				body = b.navForward(n)
			case navBackward:
				body, err = b.navBackward(t.Object, n)
			case navSupertype:
				body, err = b.navSupertype(t.Object, n)
			}
			if err != nil {
				return err
			}
			for _, l := range body {
				w.Line("        ", l)
			}
			w.Line("    }")
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// navSignature returns the opening line of a navigation method. Without
// an uber store the result borrows from the store.
func (b *Backend) navSignature(n *navigation) string {
	ret := "Vec<" + b.refType(n.target) + ">"
	if b.g.UberStore.Enabled() {
		return "pub " + b.async() + "fn " + n.name + "(&self, store: &ObjectStore) -> " + ret + " {"
	}
	return "pub fn " + n.name + "<'a>(&'a self, store: &'a ObjectStore) -> " + ret + " {"
}

func (b *Backend) exhume(target *schema.Object, arg string) string {
	return "store.exhume_" + gen.Ident(target.Name) + "(" + arg + ")" + b.await()
}

func (b *Backend) iter(target *schema.Object) string {
	return "store.iter_" + gen.Ident(target.Name) + "()" + b.await()
}

func (b *Backend) navForward(n *navigation) []string {
	if !n.optional {
		return []string{"vec![" + b.exhume(n.target, "&self."+n.attr) + ".unwrap()]"}
	}
	return []string{
		"match self." + n.attr + " {",
		"    Some(ref " + n.attr + ") => vec![" + b.exhume(n.target, n.attr) + ".unwrap()],",
		"    None => Vec::new(),",
		"}",
	}
}

// navBackward filters the referrers by their referential attribute.
func (b *Backend) navBackward(o *schema.Object, n *navigation) ([]string, error) {
	id, err := b.idExpr("self", o)
	if err != nil {
		return nil, err
	}
	x := gen.Ident(n.target.Name)
	if b.g.UberStore.IsAsync() {
		want := "id"
		if n.optional {
			want = "Some(id)"
		}
		cond := b.read(x, n.target) + "." + n.attr + " == " + want
		return b.asyncFind(id, x, cond, n.many), nil
	}
	want := id
	if n.optional {
		want = "Some(" + id + ")"
	}
	pred := "|" + x + "| " + b.read(x, n.target) + "." + n.attr + " == " + want
	switch {
	case n.many:
		return []string{b.iter(n.target) + ".filter(" + pred + ").collect()"}, nil
	case n.conditional:
		return []string{b.iter(n.target) + ".find(" + pred + ").into_iter().collect()"}, nil
	}
	return []string{"vec![" + b.iter(n.target) + ".find(" + pred + ").unwrap()]"}, nil
}

// navSupertype finds the supertype: by id when the supertype is an enum
// keyed by its subtype's id, by its subtype field otherwise.
func (b *Backend) navSupertype(o *schema.Object, n *navigation) ([]string, error) {
	id, err := b.idExpr("self", o)
	if err != nil {
		return nil, err
	}
	if n.enumPath == "" {
		return []string{"vec![" + b.exhume(n.target, "&"+id) + ".unwrap()]"}, nil
	}
	x := gen.Ident(n.target.Name)
	variant := b.enumName(n.target) + "::" + b.typeName(o)
	if b.g.UberStore.IsAsync() {
		cond := "matches!(" + b.read(x, n.target) + ".subtype, " + variant + "(sid) if sid == id)"
		return b.asyncFind(id, x, cond, false), nil
	}
	pred := "|" + x + "| matches!(" + b.read(x, n.target) + ".subtype, " + variant + "(id) if id == " + id + ")"
	return []string{"vec![" + b.iter(n.target) + ".find(" + pred + ").unwrap()]"}, nil
}

// asyncFind filters the instance stream of a type by cond, with the id
// of self bound to id.
func (b *Backend) asyncFind(self, x, cond string, many bool) []string {
	lines := []string{
		"let id = " + self + ";",
		"store",
		"    .iter_" + x + "()",
		"    .await",
		"    .filter_map(move |" + x + "| async move {",
		"        if " + cond + " {",
		"            Some(" + x + ")",
		"        } else {",
		"            None",
		"        }",
		"    })",
	}
	if !many {
		lines = append(lines, "    .take(1)")
	}
	return append(lines, "    .collect::<Vec<_>>()", "    .await")
}
