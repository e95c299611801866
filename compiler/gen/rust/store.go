package rust

import (
	"strings"

	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
)

// GenStore renders the ObjectStore of the domain.
//
// Generated code (hashmap storage, StdRwLock uber store):
//
//	pub struct ObjectStore {
//	    dog: Arc<RwLock<HashMap<Uuid, Arc<RwLock<Dog>>>>>,
//	}
//
//	impl ObjectStore {
//	    pub fn new() -> Self { ... }
//	    pub fn inter_dog(&self, dog: Arc<RwLock<Dog>>) { ... }
//	    pub fn exhume_dog(&self, id: &Uuid) -> Option<Arc<RwLock<Dog>>> { ... }
//	    pub fn exorcise_dog(&self, id: &Uuid) -> Option<Arc<RwLock<Dog>>> { ... }
//	    pub fn iter_dog(&self) -> impl Iterator<Item = Arc<RwLock<Dog>>> + '_ { ... }
//	}
func (b *Backend) GenStore() (*buffer.Buffer, error) {
	stored, err := b.g.Stored()
	if err != nil {
		return nil, err
	}
	w := buffer.New()
	domain := gen.Ident(b.g.Model.Name())
	w.Line("//! ", b.g.Model.Name(), " Object Store")
	w.Line("//!")
	w.Line("//! The ObjectStore contains instances of objects in the domain.")
	if b.vec() {
		w.Line("//! The instances are stored in a vector, indexed by the object's `id`.")
	} else {
		w.Line("//! The instances are stored in a hash map, keyed by the object's `id`.")
	}
	w.Line("//!")
	w.Line("//! The store itself is persisted using serde. The `persist` method will")
	w.Line("//! persist the store to a directory of JSON files.")
	w.Line("//!")
	w.Line("//! # Contents")
	w.Line("//!")
	w.Line("//! The following types are contained in the store:")
	for _, t := range stored {
		w.Line("//! * [`", t.TypeName(), "`]")
	}
	err = w.Block(buffer.IgnoreOrig, domain+"-object-store-file", func() error {
		if err := w.Block(buffer.IgnoreOrig, domain+"-object-store-definition", func() error {
			paths, err := b.singletonPaths()
			if err != nil {
				return err
			}
			w.Lines(b.storeUses(stored, paths))
			w.Blank()
			w.Line(b.storeDerive())
			w.Line("pub struct ObjectStore {")
			for _, t := range stored {
				for _, f := range b.containers(t) {
					w.Line("    ", f.name, ": ", f.ty, ",")
				}
			}
			w.Line("}")
			w.Blank()
			w.Line("impl ObjectStore {")
			b.storeNew(w, stored, paths)
			return nil
		}); err != nil {
			return err
		}
		for _, t := range stored {
			if err := w.Block(buffer.IgnoreOrig, domain+"-object-store-methods-"+t.Ident(), func() error {
				return b.storeMethods(w, t)
			}); err != nil {
				return err
			}
		}
		if b.g.Persist {
			if err := w.Block(buffer.IgnoreOrig, domain+"-object-store-persistence", func() error {
				return b.persistence(w, stored)
			}); err != nil {
				return err
			}
		}
		w.Line("}")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// storeUses returns the use statements of the store file.
func (b *Backend) storeUses(stored []*gen.Type, paths []gen.SingletonPath) []string {
	var u uses
	if !b.vec() || b.hasNamed(stored) {
		u.add("std::collections::HashMap")
	}
	u.add("uuid::Uuid")
	if b.g.PersistTimestamps {
		u.add("std::time::SystemTime")
	}
	if b.g.Persist {
		u.add("std::{fs, io::{self, prelude::*}, path::Path}")
		if b.serde() {
			u.add("serde::{Deserialize, Serialize}")
		}
	}
	u.add(b.g.UberStore.UsePath())
	var names []string
	for _, t := range stored {
		names = append(names, t.TypeName())
	}
	for _, p := range paths {
		names = append(names, gen.ConstName(p.Singleton().Name))
		if b.vec() {
			for _, o := range p[:len(p)-1] {
				names = append(names, b.enumName(o))
			}
		}
	}
	if len(names) > 0 {
		u.add(cratePath(b.g.Module+"::types") + "::{" + strings.Join(sortedUnique(names), ", ") + "}")
	}
	return u.lines()
}

// serde reports whether the store derives the serde traits.
func (b *Backend) serde() bool {
	return b.g.Persist && b.g.UberStore.Serializable()
}

func (b *Backend) storeDerive() string {
	if b.serde() {
		return "#[derive(Clone, Debug, Deserialize, Serialize)]"
	}
	return "#[derive(Clone, Debug)]"
}

func (b *Backend) hasNamed(stored []*gen.Type) bool {
	for _, t := range stored {
		if t.Named() {
			return true
		}
	}
	return false
}

// =============================================================================
// Containers
// =============================================================================

// container is a field of the ObjectStore.
type container struct {
	name string
	ty   string
	init string
}

// containers returns the store fields that hold instances of t.
func (b *Backend) containers(t *gen.Type) []container {
	u := b.g.UberStore
	wrap := func(ty string) string {
		if u.IsLock() {
			return u.Wrap(ty)
		}
		return ty
	}
	init := func(expr string) string {
		if u.IsLock() {
			return u.New(expr)
		}
		return expr
	}
	entry := b.valueType(t.Object)
	if b.g.PersistTimestamps {
		entry = "(" + entry + ", SystemTime)"
	}
	id := b.g.Storage.IDType()
	var cs []container
	if b.vec() {
		cs = append(cs,
			container{name: t.Ident(), ty: wrap("Vec<Option<" + entry + ">>"), init: init("Vec::new()")},
			container{name: t.Ident() + "_free_list", ty: wrap("Vec<usize>"), init: init("Vec::new()")},
		)
	} else {
		cs = append(cs, container{name: t.Ident(), ty: wrap("HashMap<Uuid, " + entry + ">"), init: init("HashMap::default()")})
	}
	if t.Named() {
		cs = append(cs, container{name: t.Ident() + "_id_by_name", ty: wrap("HashMap<String, " + id + ">"), init: init("HashMap::default()")})
	}
	return cs
}

// field returns the expression accessing a container of recv for
// reading or writing.
func (b *Backend) field(recv, name string, write bool) string {
	u := b.g.UberStore
	if !u.IsLock() {
		return recv + "." + name
	}
	if write {
		return recv + "." + name + u.Write()
	}
	return recv + "." + name + u.Read()
}

// mutSelf returns the receiver of methods that modify the store.
func (b *Backend) mutSelf() string {
	if b.g.UberStore.IsLock() {
		return "&self"
	}
	return "&mut self"
}

// letStore returns the binding of a store being filled.
func (b *Backend) letStore() string {
	if b.g.UberStore.IsLock() {
		return "let store"
	}
	return "let mut store"
}

// entry returns the stored entry of value v.
func (b *Backend) entry(v string) string {
	if b.g.PersistTimestamps {
		return "(" + v + ", SystemTime::now())"
	}
	return v
}

// value returns the value of stored entry e.
func (b *Backend) value(e string) string {
	if b.g.PersistTimestamps {
		return e + ".0"
	}
	return e
}

// =============================================================================
// Construction
// =============================================================================

// singletonPaths returns the singletons interned by new(), without the
// ones whose chain leaves this domain's store.
func (b *Backend) singletonPaths() ([]gen.SingletonPath, error) {
	paths, err := b.g.SingletonPaths()
	if err != nil {
		return nil, err
	}
	out := paths[:0]
	for _, p := range paths {
		ok := true
		for _, o := range p[:len(p)-1] {
			if !b.stored(o) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// storeNew writes new(), which interns every singleton subtype of the
// enums, level by level from the singleton up.
func (b *Backend) storeNew(w *buffer.Buffer, stored []*gen.Type, paths []gen.SingletonPath) {
	w.Line("    pub ", b.async(), "fn new() -> Self {")
	w.Line("        ", b.letStore(), " = Self {")
	for _, t := range stored {
		for _, c := range b.containers(t) {
			w.Line("            ", c.name, ": ", c.init, ",")
		}
	}
	w.Line("        };")
	if len(paths) > 0 {
		w.Blank()
		w.Line("        // Initialize Singleton Subtypes")
	}
	for _, p := range paths {
		for _, l := range b.internPath(p) {
			w.Line("        ", l)
		}
	}
	w.Blank()
	w.Line("        store")
	w.Line("    }")
}

// internPath returns the statements interning the singleton of p and
// every enum on the way to it.
func (b *Backend) internPath(p gen.SingletonPath) []string {
	var (
		lines []string
		u     = b.g.UberStore
		inner = gen.ConstName(p.Singleton().Name)
	)
	for k := len(p) - 2; k >= 0; k-- {
		o, sub := p[k], p[k+1]
		inter := "store.inter_" + gen.Ident(o.Name)
		if !b.vec() {
			value := b.typeName(o) + "::" + b.typeName(sub) + "(" + inner + ")"
			lines = append(lines, inter+"("+u.New(value)+")"+b.await()+";")
			inner = value + ".id()"
			continue
		}
		v := gen.Ident(o.Name) + "_" + gen.Ident(p.Singleton().Name)
		value := b.typeName(o) + " { subtype: " + b.enumName(o) + "::" + b.typeName(sub) + "(" + inner + "), id }"
		if k == 0 {
			lines = append(lines, inter+"(|id| "+u.New(value)+")"+b.await()+";")
			break
		}
		lines = append(lines,
			"let "+v+" = "+inter+"(|id| "+u.New(value)+")"+b.await()+";",
			"let "+v+"_id = "+v+u.Read()+".id;",
		)
		inner = v + "_id"
	}
	return lines
}

// =============================================================================
// Methods
// =============================================================================

// storeMethods writes inter, exhume, exorcise, the by-name lookup, iter
// and the timestamp accessor of t.
func (b *Backend) storeMethods(w *buffer.Buffer, t *gen.Type) error {
	var (
		x    = t.Ident()
		name = t.TypeName()
		val  = b.valueType(t.Object)
		u    = b.g.UberStore
	)
	id, err := b.idExpr(b.read(x, t.Object), t.Object)
	if err != nil {
		return err
	}
	idType := b.g.Storage.IDType()

	w.Line("    /// Inter (insert) [`", name, "`] into the store.")
	if b.vec() {
		b.vecInter(w, t)
	} else {
		w.Line("    pub ", b.async(), "fn inter_", x, "(", b.mutSelf(), ", ", x, ": ", val, ") {")
		w.Line("        let id = ", id, ";")
		if t.Named() {
			w.Line("        let name = ", b.read(x, t.Object), ".name.to_owned();")
			w.Line("        ", b.field("self", x+"_id_by_name", true), ".insert(name, id);")
		}
		w.Line("        ", b.field("self", x, true), ".insert(id, ", b.entry(x), ");")
		w.Line("    }")
	}
	w.Blank()

	w.Line("    /// Exhume (get) [`", name, "`] from the store.")
	switch {
	case !u.Enabled():
		w.Line("    pub fn exhume_", x, "(&self, id: &", idType, ") -> Option<&", name, "> {")
		w.Line("        self.", x, ".get(id)", b.mapValue("&"))
	case b.vec():
		w.Line("    pub ", b.async(), "fn exhume_", x, "(&self, id: &usize) -> Option<", val, "> {")
		w.Line("        match ", b.field("self", x, false), ".get(*id) {")
		w.Line("            Some(Some(", x, ")) => Some(", b.value(x), ".clone()),")
		w.Line("            _ => None,")
		w.Line("        }")
	default:
		w.Line("    pub ", b.async(), "fn exhume_", x, "(&self, id: &Uuid) -> Option<", val, "> {")
		w.Line("        ", b.field("self", x, false), ".get(id).map(|", x, "| ", b.value(x), ".clone())")
	}
	w.Line("    }")
	w.Blank()

	if !u.Enabled() {
		w.Line("    /// Exhume mut [`", name, "`] from the store.")
		w.Line("    pub fn exhume_", x, "_mut(&mut self, id: &Uuid) -> Option<&mut ", name, "> {")
		w.Line("        self.", x, ".get_mut(id)", b.mapValue("&mut "))
		w.Line("    }")
		w.Blank()
	}

	w.Line("    /// Exorcise (remove) [`", name, "`] from the store.")
	w.Line("    pub ", b.async(), "fn exorcise_", x, "(", b.mutSelf(), ", id: &", idType, ") -> Option<", val, "> {")
	if b.vec() {
		w.Line("        let result = ", b.field("self", x, true), ".get_mut(*id).and_then(|", x, "| ", x, ".take());")
		w.Line("        if result.is_some() {")
		w.Line("            ", b.field("self", x+"_free_list", true), ".push(*id);")
		w.Line("        }")
	} else {
		w.Line("        let result = ", b.field("self", x, true), ".remove(id);")
	}
	if t.Named() {
		w.Line("        if let Some(", x, ") = &result {")
		w.Line("            ", b.field("self", x+"_id_by_name", true), ".remove(&", b.read(b.value(x), t.Object), ".name);")
		w.Line("        }")
	}
	w.Line("        result", b.mapValue(""))
	w.Line("    }")
	w.Blank()

	if t.Named() {
		w.Line("    /// Exhume [`", name, "`] id from the store by name.")
		w.Line("    pub ", b.async(), "fn exhume_", x, "_id_by_name(&self, name: &str) -> Option<", idType, "> {")
		w.Line("        ", b.field("self", x+"_id_by_name", false), ".get(name).copied()")
		w.Line("    }")
		w.Blank()
	}

	w.Line("    /// Get an iterator over the instances of [`", name, "`].")
	values := ".values()"
	if b.vec() {
		values = ".iter().flatten()"
	}
	switch {
	case !u.Enabled():
		w.Line("    pub fn iter_", x, "(&self) -> impl Iterator<Item = &", name, "> {")
		w.Line("        self.", x, values, b.mapValue("&"))
	case u.IsAsync():
		w.Line("    pub async fn iter_", x, "(&self) -> impl futures::Stream<Item = ", val, "> + '_ {")
		w.Line("        let values: Vec<", val, "> = ", b.field("self", x, false), values)
		w.Line("            .map(|", x, "| ", b.value(x), ".clone())")
		w.Line("            .collect();")
		w.Line("        futures::stream::iter(values)")
	case u.IsLock():
		w.Line("    pub fn iter_", x, "(&self) -> impl Iterator<Item = ", val, "> + '_ {")
		w.Line("        let values: Vec<", val, "> = ", b.field("self", x, false), values)
		w.Line("            .map(|", x, "| ", b.value(x), ".clone())")
		w.Line("            .collect();")
		w.Line("        values.into_iter()")
	default:
		w.Line("    pub fn iter_", x, "(&self) -> impl Iterator<Item = ", val, "> + '_ {")
		w.Line("        self.", x, values, ".map(|", x, "| ", b.value(x), ".clone())")
	}
	w.Line("    }")

	if b.g.PersistTimestamps {
		w.Blank()
		w.Line("    /// Get the timestamp for [`", name, "`].")
		w.Line("    pub ", b.async(), "fn ", x, "_timestamp(&self, ", x, ": &", name, ") -> SystemTime {")
		key, err := b.idExpr(x, t.Object)
		if err != nil {
			return err
		}
		if b.vec() {
			w.Line("        ", b.field("self", x, false), ".get(", key, ")")
			w.Line("            .and_then(|", x, "| ", x, ".as_ref())")
		} else {
			w.Line("        ", b.field("self", x, false), ".get(&", key, ")")
		}
		w.Line("            .map(|", x, "| ", x, ".1)")
		w.Line("            .unwrap_or(SystemTime::now())")
		w.Line("    }")
	}
	w.Blank()
	return nil
}

// mapValue returns the map that takes the value out of an optional
// entry, or nothing when entries are bare values.
func (b *Backend) mapValue(ref string) string {
	if !b.g.PersistTimestamps {
		return ""
	}
	return ".map(|x| " + ref + "x.0)"
}

// vecInter writes the vec discipline inter: take a free slot or append
// one, build the value for its index, and return an equal value already
// stored instead of storing a duplicate.
func (b *Backend) vecInter(w *buffer.Buffer, t *gen.Type) {
	var (
		x   = t.Ident()
		val = b.valueType(t.Object)
		u   = b.g.UberStore
	)
	w.Line("    pub ", b.async(), "fn inter_", x, "<F>(", b.mutSelf(), ", ", x, ": F) -> ", val)
	w.Line("    where")
	w.Line("        F: Fn(usize) -> ", val, ",")
	w.Line("    {")
	w.Line("        let _index = if let Some(_index) = ", b.field("self", x+"_free_list", true), ".pop() {")
	w.Line("            _index")
	w.Line("        } else {")
	if u.IsLock() {
		w.Line("            let mut slots = ", b.field("self", x, true), ";")
		w.Line("            slots.push(None);")
		w.Line("            slots.len() - 1")
	} else {
		w.Line("            self.", x, ".push(None);")
		w.Line("            self.", x, ".len() - 1")
	}
	w.Line("        };")
	w.Line("        let ", x, " = ", x, "(_index);")
	w.Line("        let mut found = None;")
	w.Line("        for stored in ", b.field("self", x, false), ".iter().flatten() {")
	w.Line("            if *", b.read(b.value("stored"), t.Object), " == *", b.read(x, t.Object), " {")
	w.Line("                found = Some(", b.value("stored"), ".clone());")
	w.Line("                break;")
	w.Line("            }")
	w.Line("        }")
	w.Line("        if let Some(", x, ") = found {")
	w.Line("            ", b.field("self", x+"_free_list", true), ".push(_index);")
	w.Line("            ", x)
	w.Line("        } else {")
	if t.Named() {
		w.Line("            let name = ", b.read(x, t.Object), ".name.to_owned();")
		w.Line("            ", b.field("self", x+"_id_by_name", true), ".insert(name, _index);")
	}
	w.Line("            ", b.field("self", x, true), "[_index] = Some(", b.entry(x+".clone()"), ");")
	w.Line("            ", x)
	w.Line("        }")
	w.Line("    }")
}

func sortedUnique(ss []string) []string {
	var u uses
	for _, s := range ss {
		u.add(s)
	}
	out := make([]string, 0, len(ss))
	for _, l := range u.lines() {
		out = append(out, strings.TrimSuffix(strings.TrimPrefix(l, "use "), ";"))
	}
	return out
}
