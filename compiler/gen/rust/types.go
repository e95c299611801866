package rust

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/schema"
	"github.com/syssam/grace/schema/field"
)

// GenType renders the file of one object: its use statements, its
// definition, its constructors and its navigation methods.
//
// Generated code (hashmap storage, uber store disabled):
//
//	pub struct Dog {
//	    pub id: Uuid,
//	    pub name: String,
//	    /// R1: [`Dog`] 'is owned by' [`Person`]
//	    pub owner: Uuid,
//	}
//
//	impl Dog {
//	    pub fn new(name: String, owner: &Person, store: &mut ObjectStore) -> Dog { ... }
//	    pub fn r1_person<'a>(&'a self, store: &'a ObjectStore) -> Vec<&'a Person> { ... }
//	}
func (b *Backend) GenType(t *gen.Type) (*buffer.Buffer, error) {
	c, err := t.Class()
	if err != nil {
		return nil, err
	}
	w := buffer.New()
	w.Line("//! ", b.g.Model.Name(), " Object: ", t.TypeName())
	err = w.Block(buffer.AllowEditing, t.Ident()+"-struct-definition-file", func() error {
		navs, err := b.navigations(t.Object)
		if err != nil {
			return err
		}
		if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-use-statements", func() error {
			lines, err := b.typeUses(t, c, navs)
			if err != nil {
				return err
			}
			w.Lines(lines)
			return nil
		}); err != nil {
			return err
		}
		w.Blank()
		switch c {
		case gen.ClassConst:
			return b.constType(w, t, navs)
		case gen.ClassStruct:
			return b.structType(w, t, navs)
		case gen.ClassHybrid:
			return b.hybridType(w, t, navs)
		case gen.ClassEnum:
			if b.vec() {
				return b.hybridType(w, t, navs)
			}
			return b.enumType(w, t, navs)
		}
		return gen.NewUnsupportedError("object class %s", c)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// typeUses returns the use statements of a type file.
func (b *Backend) typeUses(t *gen.Type, c gen.Class, navs []*navigation) ([]string, error) {
	var (
		u uses
		o = t.Object
	)
	u.add("uuid::Uuid")
	if c == gen.ClassConst {
		u.add("uuid::uuid")
	}
	derive := b.g.Grace.Derive(o.ID)
	if slices.Contains(derive, "Serialize") || slices.Contains(derive, "Deserialize") {
		u.add("serde::{Deserialize, Serialize}")
	}
	if c != gen.ClassConst || len(navs) > 0 {
		u.add(b.storePath())
		if b.g.UberStore.Enabled() {
			u.add(b.g.UberStore.UsePath())
		}
	}
	if !b.vec() && (c == gen.ClassStruct || c == gen.ClassHybrid) {
		u.add(cratePath(b.g.Module + "::UUID_NS"))
	}
	for _, r := range b.g.ReferentObjectsOf(o) {
		u.add(b.typePath(r))
	}
	refs, err := b.g.AssociativeReferentObjectsOf(o)
	if err != nil {
		return nil, err
	}
	for _, r := range refs {
		u.add(b.typePath(r))
	}
	if b.g.IsSupertype(o) {
		subs, err := b.g.SubtypeObjectsOf(o)
		if err != nil {
			return nil, err
		}
		for _, s := range subs {
			u.add(b.typePath(s))
			if b.g.IsConst(s) {
				u.add(b.constPath(s))
			}
		}
	}
	for _, n := range navs {
		u.add(b.typePath(n.target))
		if n.kind == navSupertype && n.enumPath != "" {
			u.add(n.enumPath)
		}
		if n.kind != navForward && b.g.UberStore.IsAsync() {
			u.add("futures::stream::StreamExt")
		}
	}
	u.add(b.g.Grace.UsePaths(o.ID)...)
	return u.lines(), nil
}

// constPath returns the use path of the id constant of a singleton.
func (b *Backend) constPath(o *schema.Object) string {
	return cratePath(b.g.Module + "::types::" + gen.Ident(o.Name) + "::" + gen.ConstName(o.Name))
}

// enumName returns the name of the subtype enum of a hybrid, or of an
// enum under vec storage.
func (b *Backend) enumName(o *schema.Object) string {
	return b.typeName(o) + "Enum"
}

// documentation writes the doc comment of the object in its own block.
func (b *Backend) documentation(w *buffer.Buffer, t *gen.Type, kind string) error {
	return w.Block(buffer.IgnoreOrig, t.Ident()+"-"+kind+"-documentation", func() error {
		w.Lines(b.g.ObjectDoc(t.Object, "/// "))
		return nil
	})
}

// =============================================================================
// Fields
// =============================================================================

// structField is a field of a generated struct.
type structField struct {
	name string
	// ty is the declared type of the field.
	ty gen.GraceType
	// param is the constructor parameter type; nil for the id.
	param gen.GraceType
	doc   string
	// referent is set on referential fields.
	referent *schema.Object
	copyable bool
}

// fields returns the fields of o: id, attributes, binary referential
// fields and associative referential fields.
func (b *Backend) fields(o *schema.Object) ([]*structField, error) {
	var fs []*structField
	for _, a := range b.g.AttributesOf(o) {
		if a.Name == "id" {
			fs = append(fs, &structField{name: "id", ty: gen.KeyType, copyable: true})
			continue
		}
		ty, err := gen.AttributeType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute %s of %s: %w", a.Name, o.Name, err)
		}
		fs = append(fs, &structField{
			name:     gen.Ident(a.Name),
			ty:       ty,
			param:    ty,
			doc:      a.Comment,
			copyable: a.Type.Type != field.TypeString && a.Type.Type != field.TypeExternal,
		})
	}
	for _, rel := range b.g.ReferentsOf(o) {
		doc := fmt.Sprintf("R%d: [`%s`] '%s' [`%s`]", rel.Num, b.typeName(o), rel.Referrer.Description, b.typeName(rel.Referent.Object))
		fs = append(fs, b.referentialField(rel.Referrer.ReferentialAttribute, rel.Referent.Object, rel.Referent.Conditionality, doc))
	}
	ends, err := b.g.AssociativeReferentsOf(o)
	if err != nil {
		return nil, err
	}
	for _, e := range ends {
		doc := fmt.Sprintf("R%d: [`%s`] '%s' [`%s`]", e.Rel.Num, b.typeName(o), e.Referent.Description, b.typeName(e.Referent.Object))
		fs = append(fs, b.referentialField(e.Referent.ReferentialAttribute, e.Referent.Object, e.Referent.Conditionality, doc))
	}
	seen := make(map[string]bool, len(fs))
	for _, f := range fs {
		if seen[f.name] {
			return nil, gen.NewModelInconsistencyError(o.Name, "field", "duplicate field "+f.name)
		}
		seen[f.name] = true
	}
	return fs, nil
}

func (b *Backend) referentialField(attr string, r *schema.Object, c schema.Conditionality, doc string) *structField {
	if attr == "" {
		attr = r.Name
	}
	f := &structField{name: gen.Ident(attr), doc: doc, referent: r, copyable: true}
	if e, ok := b.g.Grace.External(r.ID); ok {
		f.ty, f.param, f.copyable = gen.ExternalType(e.Name), gen.ExternalType(e.Name), false
	} else {
		f.ty, f.param = b.g.IDTypeOf(r), gen.RefTo(gen.ObjectType(r))
	}
	if c == schema.Conditional {
		f.ty, f.param = gen.OptionOf(f.ty), gen.OptionOf(f.param)
	}
	return f
}

// fieldLines writes the declaration of each field.
func (b *Backend) fieldLines(w *buffer.Buffer, fs []*structField) error {
	for _, f := range fs {
		ty, err := b.g.RustType(f.ty, false)
		if err != nil {
			return err
		}
		w.Lines(gen.DocComment(f.doc, "    /// ", "", gen.DocWidth))
		w.Line("    pub ", f.name, ": ", ty, ",")
	}
	return nil
}

// =============================================================================
// Definitions
// =============================================================================

// constType renders a singleton: an id constant and a unit struct.
func (b *Backend) constType(w *buffer.Buffer, t *gen.Type, navs []*navigation) error {
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-const-definition", func() error {
		w.Line("pub const ", t.Const(), ": Uuid = uuid!(\"", t.ID.String(), "\");")
		return nil
	}); err != nil {
		return err
	}
	w.Blank()
	if err := b.documentation(w, t, "struct"); err != nil {
		return err
	}
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-struct-definition", func() error {
		w.Line(b.derives(t.Object, "Copy", "Eq", "Hash", "PartialEq"))
		w.Line("pub struct ", t.TypeName(), ";")
		return nil
	}); err != nil {
		return err
	}
	w.Blank()
	return w.Block(buffer.IgnoreOrig, t.Ident()+"-implementation", func() error {
		w.Line("impl ", t.TypeName(), " {")
		w.Line("    pub fn new() -> Self {")
		w.Line("        Self {}")
		w.Line("    }")
		w.Blank()
		w.Line("    pub fn id(&self) -> Uuid {")
		w.Line("        ", t.Const())
		w.Line("    }")
		if err := b.navMethods(w, t, navs); err != nil {
			return err
		}
		w.Line("}")
		return nil
	})
}

// structType renders an ordinary data record.
func (b *Backend) structType(w *buffer.Buffer, t *gen.Type, navs []*navigation) error {
	fs, err := b.fields(t.Object)
	if err != nil {
		return err
	}
	if err := b.documentation(w, t, "struct"); err != nil {
		return err
	}
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-struct-definition", func() error {
		w.Line(b.structDerives(t.Object))
		w.Line("pub struct ", t.TypeName(), " {")
		if err := b.fieldLines(w, fs); err != nil {
			return err
		}
		w.Line("}")
		return nil
	}); err != nil {
		return err
	}
	w.Blank()
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-implementation", func() error {
		w.Line("impl ", t.TypeName(), " {")
		if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-struct-impl-new", func() error {
			f, err := b.structCtor(t.Object, "new", fs, nil)
			if err != nil {
				return err
			}
			return b.renderFunc(w, f)
		}); err != nil {
			return err
		}
		if err := b.navMethods(w, t, navs); err != nil {
			return err
		}
		w.Line("}")
		return nil
	}); err != nil {
		return err
	}
	return b.partialEq(w, t, fs, false)
}

// hybridType renders a supertype with payload, and an enum under vec
// storage: a struct holding a subtype enum next to its fields.
func (b *Backend) hybridType(w *buffer.Buffer, t *gen.Type, navs []*navigation) error {
	fs, err := b.fields(t.Object)
	if err != nil {
		return err
	}
	subs, err := b.g.SubtypeObjectsOf(t.Object)
	if err != nil {
		return err
	}
	if err := b.documentation(w, t, "hybrid"); err != nil {
		return err
	}
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-hybrid-struct-definition", func() error {
		w.Line(b.structDerives(t.Object))
		w.Line("pub struct ", t.TypeName(), " {")
		w.Line("    pub subtype: ", b.enumName(t.Object), ",")
		if err := b.fieldLines(w, fs); err != nil {
			return err
		}
		w.Line("}")
		return nil
	}); err != nil {
		return err
	}
	w.Blank()
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-hybrid-enum-definition", func() error {
		w.Line(b.derives(t.Object, "Copy", "Eq", "Hash", "PartialEq"))
		w.Line("pub enum ", b.enumName(t.Object), " {")
		for _, s := range subs {
			ty, err := b.g.RustType(b.g.IDTypeOf(s), false)
			if err != nil {
				return err
			}
			w.Line("    ", b.typeName(s), "(", ty, "),")
		}
		w.Line("}")
		return nil
	}); err != nil {
		return err
	}
	w.Blank()
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-implementation", func() error {
		w.Line("impl ", t.TypeName(), " {")
		for _, s := range subs {
			if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-struct-impl-new-"+gen.Ident(s.Name), func() error {
				f, err := b.structCtor(t.Object, "new_"+gen.Ident(s.Name), fs, s)
				if err != nil {
					return err
				}
				return b.renderFunc(w, f)
			}); err != nil {
				return err
			}
		}
		if err := b.navMethods(w, t, navs); err != nil {
			return err
		}
		w.Line("}")
		return nil
	}); err != nil {
		return err
	}
	return b.partialEq(w, t, fs, true)
}

// enumType renders a supertype without payload under hashmap storage:
// an enum whose variants hold the id of the subtype.
func (b *Backend) enumType(w *buffer.Buffer, t *gen.Type, navs []*navigation) error {
	subs, err := b.g.SubtypeObjectsOf(t.Object)
	if err != nil {
		return err
	}
	if err := b.documentation(w, t, "enum"); err != nil {
		return err
	}
	if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-enum-definition", func() error {
		w.Line(b.derives(t.Object, "Copy", "Eq", "Hash", "PartialEq"))
		w.Line("pub enum ", t.TypeName(), " {")
		for _, s := range subs {
			w.Line("    ", b.typeName(s), "(Uuid),")
		}
		w.Line("}")
		return nil
	}); err != nil {
		return err
	}
	w.Blank()
	return w.Block(buffer.IgnoreOrig, t.Ident()+"-implementation", func() error {
		w.Line("impl ", t.TypeName(), " {")
		for _, s := range subs {
			if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-new-impl-"+gen.Ident(s.Name), func() error {
				f, err := b.enumCtor(t.Object, s)
				if err != nil {
					return err
				}
				return b.renderFunc(w, f)
			}); err != nil {
				return err
			}
		}
		if err := w.Block(buffer.IgnoreOrig, t.Ident()+"-get-id-impl", func() error {
			w.Line("    pub fn id(&self) -> Uuid {")
			w.Line("        match self {")
			for _, s := range subs {
				w.Line("            Self::", b.typeName(s), "(id) => *id,")
			}
			w.Line("        }")
			w.Line("    }")
			return nil
		}); err != nil {
			return err
		}
		if err := b.navMethods(w, t, navs); err != nil {
			return err
		}
		w.Line("}")
		return nil
	})
}

// structDerives returns the derive list of a struct. Under vec storage
// equality ignores the slot index, so PartialEq is implemented by hand.
func (b *Backend) structDerives(o *schema.Object) string {
	if !b.vec() {
		return b.derives(o)
	}
	d := without(b.g.Grace.Derive(o.ID), "PartialEq", "Eq")
	return "#[derive(" + strings.Join(d, ", ") + ")]"
}

// partialEq writes the equality that the vec store deduplicates by:
// every field but the slot index.
func (b *Backend) partialEq(w *buffer.Buffer, t *gen.Type, fs []*structField, subtype bool) error {
	if !b.vec() {
		return nil
	}
	w.Blank()
	return w.Block(buffer.IgnoreOrig, t.Ident()+"-implementation-partial-eq", func() error {
		var cmps []string
		if subtype {
			cmps = append(cmps, "self.subtype == other.subtype")
		}
		for _, f := range fs {
			if f.name != "id" {
				cmps = append(cmps, "self."+f.name+" == other."+f.name)
			}
		}
		if len(cmps) == 0 {
			cmps = append(cmps, "true")
		}
		w.Line("impl PartialEq for ", t.TypeName(), " {")
		w.Line("    fn eq(&self, other: &Self) -> bool {")
		w.Line("        ", strings.Join(cmps, " && "))
		w.Line("    }")
		w.Line("}")
		return nil
	})
}
