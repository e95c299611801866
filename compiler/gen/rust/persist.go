package rust

import (
	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
)

// =============================================================================
// Persistence
// =============================================================================
//
// The JSON layout is one directory per object under <path>/<domain>.json,
// one file per instance named after its id:
//
//	store.json/
//	└── dog/
//	    ├── 0b2a...json
//	    └── 1c3d...json

// persistence writes the persist and load methods of the store, and
// their bincode variants when the uber store can be serialized.
func (b *Backend) persistence(w *buffer.Buffer, stored []*gen.Type) error {
	if b.serde() {
		b.bincode(w)
	}
	if err := b.persistJSON(w, stored); err != nil {
		return err
	}
	return b.loadJSON(w, stored)
}

func (b *Backend) bincode(w *buffer.Buffer) {
	w.Line("    /// Persist the store.")
	w.Line("    ///")
	w.Line("    /// The store is persisted as a binary file.")
	w.Line("    pub fn persist_bincode<P: AsRef<Path>>(&self, path: P) -> io::Result<()> {")
	w.Line("        let mut bin_file = fs::File::create(path)?;")
	w.Line("        let encoded: Vec<u8> = bincode::serialize(&self)")
	w.Line("            .map_err(|e| io::Error::new(io::ErrorKind::Other, e))?;")
	w.Line("        bin_file.write_all(&encoded)?;")
	w.Line("        Ok(())")
	w.Line("    }")
	w.Blank()
	w.Line("    /// Load the store.")
	w.Line("    ///")
	w.Line("    /// The store is loaded from a binary file.")
	w.Line("    pub fn load_bincode<P: AsRef<Path>>(path: P) -> io::Result<Self> {")
	w.Line("        let bin_file = fs::File::open(path)?;")
	w.Line("        let store: Self = bincode::deserialize_from(bin_file)")
	w.Line("            .map_err(|e| io::Error::new(io::ErrorKind::Other, e))?;")
	w.Line("        Ok(store)")
	w.Line("    }")
	w.Blank()
}

// persistJSON writes persist. With timestamps an instance whose file
// already holds the same value is not rewritten. Files of instances no
// longer in the store are removed.
func (b *Backend) persistJSON(w *buffer.Buffer, stored []*gen.Type) error {
	domain := gen.Ident(b.g.Model.Name())
	values := ".values()"
	if b.vec() {
		values = ".iter().flatten()"
	}
	w.Line("    /// Persist the store.")
	w.Line("    ///")
	w.Line("    /// The store is persisted as a directory of JSON files. The intention")
	w.Line("    /// is that this directory can be checked into version control.")
	w.Line("    pub ", b.async(), "fn persist<P: AsRef<Path>>(&self, path: P) -> io::Result<()> {")
	w.Line("        let path = path.as_ref();")
	w.Line("        fs::create_dir_all(path)?;")
	w.Line("        let path = path.join(\"", domain, ".json\");")
	w.Line("        fs::create_dir_all(&path)?;")
	for _, t := range stored {
		x := t.Ident()
		inner := b.read(b.value(x+"_entry"), t.Object)
		id, err := b.idExpr(inner, t.Object)
		if err != nil {
			return err
		}
		deref := inner
		if b.g.Wrapped(t.Object) {
			deref = "*" + inner
		}
		w.Blank()
		w.Line("        // Persist ", t.TypeName(), ".")
		w.Line("        {")
		w.Line("            let path = path.join(\"", x, "\");")
		w.Line("            fs::create_dir_all(&path)?;")
		w.Line("            for ", x, "_entry in ", b.field("self", x, false), values, " {")
		w.Line("                let path = path.join(format!(\"{}.json\", ", id, "));")
		if b.g.PersistTimestamps {
			w.Line("                if path.exists() {")
			w.Line("                    let file = fs::File::open(&path)?;")
			w.Line("                    let reader = io::BufReader::new(file);")
			w.Line("                    let on_disk: (", t.TypeName(), ", SystemTime) = serde_json::from_reader(reader)?;")
			w.Line("                    if on_disk.0 == ", deref, " {")
			w.Line("                        continue;")
			w.Line("                    }")
			w.Line("                }")
			w.Line("                let file = fs::File::create(path)?;")
			w.Line("                let mut writer = io::BufWriter::new(file);")
			w.Line("                serde_json::to_writer_pretty(&mut writer, &(", inner, ".clone(), ", x, "_entry.1))?;")
		} else {
			w.Line("                let file = fs::File::create(path)?;")
			w.Line("                let mut writer = io::BufWriter::new(file);")
			w.Line("                serde_json::to_writer_pretty(&mut writer, &*", inner, ")?;")
		}
		w.Line("            }")
		w.Line("            for file in fs::read_dir(&path)? {")
		w.Line("                let file = file?;")
		w.Line("                let path = file.path();")
		w.Line("                let Some(id) = path.file_stem().and_then(|s| s.to_str()) else {")
		w.Line("                    continue;")
		w.Line("                };")
		if b.vec() {
			w.Line("                if let Ok(id) = id.parse::<usize>() {")
			w.Line("                    if !matches!(", b.field("self", x, false), ".get(id), Some(Some(_))) {")
		} else {
			w.Line("                if let Ok(id) = Uuid::parse_str(id) {")
			w.Line("                    if !", b.field("self", x, false), ".contains_key(&id) {")
		}
		w.Line("                        fs::remove_file(path)?;")
		w.Line("                    }")
		w.Line("                }")
		w.Line("            }")
		w.Line("        }")
	}
	w.Blank()
	w.Line("        Ok(())")
	w.Line("    }")
	w.Blank()
	return nil
}

// loadJSON writes load, which starts from new() so the singletons are
// present, reads every instance file and rebuilds the free lists and the
// by-name indexes.
func (b *Backend) loadJSON(w *buffer.Buffer, stored []*gen.Type) error {
	domain := gen.Ident(b.g.Model.Name())
	u := b.g.UberStore
	w.Line("    /// Load the store.")
	w.Line("    ///")
	w.Line("    /// The store is loaded from a directory of JSON files.")
	w.Line("    pub ", b.async(), "fn load<P: AsRef<Path>>(path: P) -> io::Result<Self> {")
	w.Line("        let path = path.as_ref();")
	w.Line("        let path = path.join(\"", domain, ".json\");")
	w.Line("        ", b.letStore(), " = Self::new()", b.await(), ";")
	for _, t := range stored {
		x := t.Ident()
		ty := t.TypeName()
		if b.g.PersistTimestamps {
			ty = "(" + ty + ", SystemTime)"
		}
		id, err := b.idExpr(b.value(x), t.Object)
		if err != nil {
			return err
		}
		wrapped := u.New(b.value(x))
		if !b.g.Wrapped(t.Object) {
			wrapped = b.value(x)
		}
		entry := wrapped
		if b.g.PersistTimestamps {
			entry = "(" + wrapped + ", " + x + ".1)"
		}
		w.Blank()
		w.Line("        // Load ", t.TypeName(), ".")
		w.Line("        {")
		w.Line("            let path = path.join(\"", x, "\");")
		w.Line("            if path.exists() {")
		w.Line("                for entry in fs::read_dir(path)? {")
		w.Line("                    let entry = entry?;")
		w.Line("                    let file = fs::File::open(entry.path())?;")
		w.Line("                    let reader = io::BufReader::new(file);")
		w.Line("                    let ", x, ": ", ty, " = serde_json::from_reader(reader)?;")
		w.Line("                    let id = ", id, ";")
		if t.Named() {
			w.Line("                    ", b.field("store", x+"_id_by_name", true), ".insert(", b.value(x), ".name.to_owned(), id);")
		}
		if b.vec() {
			if u.IsLock() {
				w.Line("                    let mut slots = ", b.field("store", x, true), ";")
			} else {
				w.Line("                    let slots = &mut store.", x, ";")
			}
			w.Line("                    if slots.len() <= id {")
			w.Line("                        slots.resize_with(id + 1, || None);")
			w.Line("                    }")
			w.Line("                    slots[id] = Some(", entry, ");")
		} else {
			w.Line("                    ", b.field("store", x, true), ".insert(id, ", entry, ");")
		}
		w.Line("                }")
		w.Line("            }")
		if b.vec() {
			free := b.field("store", x+"_free_list", true)
			if u.IsLock() {
				free = "*" + free
			}
			w.Line("            ", free, " = ", b.field("store", x, false))
			w.Line("                .iter()")
			w.Line("                .enumerate()")
			w.Line("                .filter(|(_, slot)| slot.is_none())")
			w.Line("                .map(|(index, _)| index)")
			w.Line("                .collect();")
		}
		w.Line("        }")
	}
	w.Blank()
	w.Line("        Ok(store)")
	w.Line("    }")
	return nil
}
