package rust

import (
	"slices"

	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/schema"
)

// GenTypes renders types.rs: one module per generated object and the
// re-export of everything it defines.
func (b *Backend) GenTypes() (*buffer.Buffer, error) {
	w := buffer.New()
	domain := gen.Ident(b.g.Model.Name())
	err := w.Block(buffer.IgnoreOrig, domain+"-type-modules", func() error {
		for _, t := range b.g.Generated() {
			w.Line("pub mod ", t.Ident(), ";")
		}
		w.Blank()
		for _, t := range b.g.Generated() {
			names, err := b.exports(t)
			if err != nil {
				return err
			}
			for _, n := range names {
				w.Line("pub use ", cratePath(t.Module()), "::", n, ";")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// exports returns the public names the file of t defines.
func (b *Backend) exports(t *gen.Type) ([]string, error) {
	c, err := t.Class()
	if err != nil {
		return nil, err
	}
	names := []string{t.TypeName()}
	switch {
	case c == gen.ClassConst:
		names = append(names, t.Const())
	case c == gen.ClassHybrid, c == gen.ClassEnum && b.vec():
		names = append(names, b.enumName(t.Object))
	}
	slices.Sort(names)
	return names, nil
}

// GenModule renders mod.rs: the domain documentation, the id namespace
// and the submodules.
func (b *Backend) GenModule() (*buffer.Buffer, error) {
	w := buffer.New()
	domain := gen.Ident(b.g.Model.Name())
	err := w.Block(buffer.IgnoreOrig, domain+"-module-definition-file", func() error {
		w.Lines(gen.DocComment(b.g.Model.Description(), "//! ", "", gen.DocWidth))
		w.Line("use uuid::{uuid, Uuid};")
		w.Blank()
		if b.g.From != nil {
			w.Line("pub mod from;")
		}
		w.Line("pub mod store;")
		w.Line("pub mod types;")
		w.Blank()
		w.Line("pub use store::ObjectStore;")
		w.Line("pub use types::*;")
		w.Blank()
		w.Line("/// The namespace every id derived by this domain lives in.")
		w.Line("pub const UUID_NS: Uuid = uuid!(\"", schema.Namespace(b.g.Model.Name()).String(), "\");")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// =============================================================================
// Conversions from another domain
// =============================================================================

// GenFrom renders from.rs: conversions from the store of the domain
// configured as the source, for every object both domains define with
// the same shape.
func (b *Backend) GenFrom() (*buffer.Buffer, error) {
	if b.g.From == nil {
		return nil, gen.NewConfigError("FromPath", nil, "no domain to convert from")
	}
	if b.vec() || b.g.UberStore.Enabled() {
		return nil, gen.NewUnsupportedError("conversions from %s under %s storage and %s uber store", b.g.FromModule, b.g.Storage, b.g.UberStore)
	}
	stored, err := b.g.Stored()
	if err != nil {
		return nil, err
	}
	type pair struct {
		to   *gen.Type
		from *schema.Object
	}
	var pairs []pair
	for _, t := range stored {
		fo, ok := b.g.From.ObjectByName(t.Object.Name)
		if !ok {
			continue
		}
		same, err := b.sameShape(t, fo)
		if err != nil {
			return nil, err
		}
		if same {
			pairs = append(pairs, pair{to: t, from: fo})
		}
	}

	w := buffer.New()
	domain := gen.Ident(b.g.Model.Name())
	err = w.Block(buffer.IgnoreOrig, domain+"-from-impl-file", func() error {
		var u uses
		from := cratePath(b.g.FromModule)
		u.add(from+"::ObjectStore as FromStore", b.storePath())
		for _, p := range pairs {
			u.add(from+"::types::"+gen.Ident(p.from.Name)+"::"+gen.TypeName(p.from.Name)+" as From"+p.to.TypeName(), b.typePath(p.to.Object))
			if c, _ := p.to.Class(); c == gen.ClassHybrid {
				u.add(from+"::types::"+gen.Ident(p.from.Name)+"::"+gen.TypeName(p.from.Name)+"Enum as From"+p.to.TypeName()+"Enum",
					cratePath(p.to.Module()+"::"+b.enumName(p.to.Object)))
			}
		}
		w.Lines(u.lines())
		w.Blank()
		if err := w.Block(buffer.IgnoreOrig, domain+"-from-impl-store", func() error {
			w.Line("impl From<&FromStore> for ObjectStore {")
			w.Line("    fn from(from: &FromStore) -> Self {")
			w.Line("        let mut to = ObjectStore::new();")
			for _, p := range pairs {
				x := p.to.Ident()
				w.Blank()
				w.Line("        for instance in from.iter_", gen.Ident(p.from.Name), "() {")
				w.Line("            let instance = ", p.to.TypeName(), "::from(instance);")
				w.Line("            to.inter_", x, "(instance);")
				w.Line("        }")
			}
			w.Blank()
			w.Line("        to")
			w.Line("    }")
			w.Line("}")
			return nil
		}); err != nil {
			return err
		}
		for _, p := range pairs {
			w.Blank()
			if err := w.Block(buffer.IgnoreOrig, domain+"-from-impl-"+p.to.Ident(), func() error {
				return b.fromImpl(w, p.to)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// sameShape reports whether the source object fo converts field by
// field, or variant by variant, into t.
func (b *Backend) sameShape(t *gen.Type, fo *schema.Object) (bool, error) {
	c, err := t.Class()
	if err != nil {
		return false, err
	}
	fc, err := gen.Classify(fo, nil, b.g.From)
	if err != nil || fc != c {
		return false, nil
	}
	if c != gen.ClassStruct && c != gen.ClassHybrid {
		mine, err := b.g.SubtypeObjectsOf(t.Object)
		if err != nil {
			return false, err
		}
		return slices.Equal(objectNames(mine), b.fromSubtypes(fo)), nil
	}
	if c == gen.ClassHybrid && !slices.Equal(b.subtypeNames(t.Object), b.fromSubtypes(fo)) {
		return false, nil
	}
	fs, err := b.fields(t.Object)
	if err != nil {
		return false, err
	}
	theirs := make(map[string]bool)
	for _, a := range b.g.From.Attributes(fo) {
		theirs[gen.Ident(a.Name)] = true
	}
	for _, r := range b.g.From.BinariesAsReferrer(fo) {
		theirs[attrName(r.Referrer.ReferentialAttribute, r.Referent.Object)] = true
	}
	for _, a := range b.g.From.AssociativesAsReferrer(fo) {
		for _, e := range a.Referents {
			theirs[attrName(e.ReferentialAttribute, e.Object)] = true
		}
	}
	for _, f := range fs {
		if !theirs[f.name] {
			return false, nil
		}
	}
	return true, nil
}

func (b *Backend) subtypeNames(o *schema.Object) []string {
	subs, err := b.g.SubtypeObjectsOf(o)
	if err != nil {
		return nil
	}
	return objectNames(subs)
}

// fromSubtypes returns the sorted subtype names of fo in the source domain.
func (b *Backend) fromSubtypes(fo *schema.Object) []string {
	var names []string
	for _, isa := range b.g.From.IsasAsSupertype(fo) {
		for _, s := range isa.Subtypes {
			names = append(names, s.Name)
		}
	}
	slices.Sort(names)
	return names
}

func objectNames(objs []*schema.Object) []string {
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = o.Name
	}
	slices.Sort(names)
	return names
}

// fromImpl writes the conversion of one object.
func (b *Backend) fromImpl(w *buffer.Buffer, t *gen.Type) error {
	c, err := t.Class()
	if err != nil {
		return err
	}
	name := t.TypeName()
	w.Line("impl From<&From", name, "> for ", name, " {")
	w.Line("    fn from(src: &From", name, ") -> Self {")
	switch c {
	case gen.ClassEnum:
		subs, err := b.g.SubtypeObjectsOf(t.Object)
		if err != nil {
			return err
		}
		w.Line("        match src {")
		for _, s := range subs {
			v := b.typeName(s)
			w.Line("            From", name, "::", v, "(src) => ", name, "::", v, "(*src),")
		}
		w.Line("        }")
	default:
		fs, err := b.fields(t.Object)
		if err != nil {
			return err
		}
		w.Line("        Self {")
		if c == gen.ClassHybrid {
			subs, err := b.g.SubtypeObjectsOf(t.Object)
			if err != nil {
				return err
			}
			enum := b.enumName(t.Object)
			w.Line("            subtype: match src.subtype {")
			for _, s := range subs {
				v := b.typeName(s)
				w.Line("                From", enum, "::", v, "(src) => ", enum, "::", v, "(src),")
			}
			w.Line("            },")
		}
		for _, f := range fs {
			w.Line("            ", f.name, ": src.", f.name, cloneSuffix(f), ",")
		}
		w.Line("        }")
	}
	w.Line("    }")
	w.Line("}")
	return nil
}

// cloneSuffix returns ".clone()" for fields that are not Copy.
func cloneSuffix(f *structField) string {
	if f.copyable {
		return ""
	}
	return ".clone()"
}
