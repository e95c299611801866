package gen

import (
	"github.com/syssam/grace/compiler/buffer"
)

// =============================================================================
// Interface Segregation: backends implement only what they render
// =============================================================================

// TypeGenerator renders per-object code.
// GenType is called once per generated object.
type TypeGenerator interface {
	// GenType renders the file of one object (types/{ident}.rs).
	GenType(t *Type) (*buffer.Buffer, error)
}

// DomainGenerator renders domain-level code.
// Each method is called once per generation run.
type DomainGenerator interface {
	// GenStore renders the object store (store.rs).
	GenStore() (*buffer.Buffer, error)
	// GenTypes renders the module listing every object module (types.rs).
	GenTypes() (*buffer.Buffer, error)
	// GenModule renders the domain module (mod.rs).
	GenModule() (*buffer.Buffer, error)
}

// FromGenerator renders conversions from the domain configured with
// WithFromDomain. It is optional.
type FromGenerator interface {
	// GenFrom renders the conversion module (from.rs).
	GenFrom() (*buffer.Buffer, error)
}

// Backend is the minimum a target language backend implements.
type Backend interface {
	// Name returns the backend name (e.g., "rust").
	Name() string
	TypeGenerator
	DomainGenerator
}

// Output file names, relative to the target directory.
const (
	StoreFile  = "store.rs"
	TypesFile  = "types.rs"
	ModuleFile = "mod.rs"
	FromFile   = "from.rs"
)

// TypeFile returns the file name of an object's type file.
func TypeFile(t *Type) string {
	return "types/" + t.Ident() + ".rs"
}
