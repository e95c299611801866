// Package gen provides code generation for grace domain models.
//
// This package turns a domain model (objects, attributes and binary, isa
// and associative relationships) into the files of a Rust module: one
// type file per object, an ObjectStore and the module glue.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	Model document (domain.json, domain.yaml)
//	        ↓
//	   load.Loader (cached, reloaded on change)
//	        ↓
//	   schema.Domain
//	        ↓
//	   Graph (configuration + import resolution)
//	        ↓
//	   Backend (target language, e.g. rust)
//	        ↓
//	   Writer (merge with existing file, format, write)
//
// # Key Types
//
//   - Graph: the model with its configuration; every predicate and
//     traversal hangs off it so imported objects are resolved in their
//     origin domain
//   - Type: one object of the domain and its emitted names
//   - GraceConfig: the layered per-object configuration parsed from
//     object descriptions
//   - Func, Variable, Expression: the small function model constructors
//     are built from; Coerce is the single place values cross types
//
// # Interface Hierarchy
//
//	Backend
//	├── Name() string
//	├── TypeGenerator
//	│   └── GenType
//	└── DomainGenerator
//	    └── GenStore, GenTypes, GenModule
//
//	FromGenerator (optional)
//	└── GenFrom
//
// # Error Handling
//
//   - ModelInconsistencyError: the model lacks an entity a traversal needs
//   - TypeMismatchError: a value cannot be coerced into a type
//   - UnsupportedError: a type-system case no backend renders
//   - ConfigError: a bad option or object configuration
//   - GenerationError: rendering or writing one file failed
//
// Example error handling:
//
//	if err := rust.Generate(ctx, graph); err != nil {
//	    if gen.IsTypeMismatch(err) {
//	        // the model asks for a conversion that does not exist
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithTarget("src/domain/sarzak"),
//	    gen.WithModule("domain::sarzak"),
//	    gen.WithPersist(true),
//	    gen.WithUberStore(gen.UberStdRwLock),
//	)
//
// # Staleness
//
// An object's file is regenerated when it was never generated, when the
// generator binary is newer than the last generation, or when the object
// or anything it relates to changed since. The generation times are kept
// by a Ledger; without one every object is regenerated.
//
// # Generated Output
//
//	{target}/
//	├── mod.rs          // UUID_NS and the submodules
//	├── types.rs        // pub mod and pub use of every object
//	├── store.rs        // ObjectStore
//	├── from.rs         // conversions from another domain (optional)
//	└── types/
//	    └── {object}.rs // type, constructors, navigation
package gen
