// Package rust renders grace domain models as Rust source.
//
// Usage:
//
//	import (
//	    "github.com/syssam/grace/compiler/gen"
//	    "github.com/syssam/grace/compiler/gen/rust"
//	)
//
//	generator := gen.NewGenerator(graph)
//	generator.WithBackend(rust.NewBackend(graph))
//	generator.Generate(ctx)
//
// Generated code structure:
//
//	{target}/
//	├── mod.rs          # Domain module, UUID_NS
//	├── types.rs        # One module per object, re-exported
//	├── store.rs        # ObjectStore
//	├── from.rs         # Conversions from another domain (optional)
//	└── types/
//	    └── {object}.rs # Definition, constructors, navigation
package rust

import (
	"context"
	"slices"
	"strings"

	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/schema"
)

// Generate is a convenience function that renders the graph into its
// target directory, formatting every file with rustfmt.
//
// Example:
//
//	import "github.com/syssam/grace/compiler/gen/rust"
//	err := rust.Generate(ctx, graph)
func Generate(ctx context.Context, g *gen.Graph) error {
	if g.Config == nil || g.Target == "" {
		return gen.NewConfigError("Target", nil, "missing target directory in config")
	}
	return gen.NewGenerator(g).
		WithBackend(NewBackend(g)).
		WithFormatter(buffer.Rustfmt{}).
		Generate(ctx)
}

// Backend implements gen.Backend for Rust.
type Backend struct {
	g *gen.Graph
}

// NewBackend creates a Rust backend for the graph.
func NewBackend(g *gen.Graph) *Backend {
	return &Backend{g: g}
}

var (
	_ gen.Backend       = (*Backend)(nil)
	_ gen.FromGenerator = (*Backend)(nil)
)

// Name returns the backend name.
func (b *Backend) Name() string {
	return "rust"
}

// =============================================================================
// Shared helpers
// =============================================================================

// cratePath returns the absolute use path of a module path.
func cratePath(path string) string {
	return "crate::" + strings.Trim(path, ":")
}

// uses collects use declarations and renders them sorted and deduplicated.
type uses struct {
	paths []string
}

func (u *uses) add(paths ...string) {
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			u.paths = append(u.paths, p)
		}
	}
}

func (u *uses) lines() []string {
	var out []string
	for _, p := range u.paths {
		for _, l := range strings.Split(p, "\n") {
			l = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(l), "use "), ";")
			out = append(out, "use "+l+";")
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// idExpr returns the expression reading the id of value v of o, e.g.
// "self.id" or "self.id()".
func (b *Backend) idExpr(v string, o *schema.Object) (string, error) {
	enum, err := b.g.IsEnumShaped(o)
	if err != nil {
		return "", err
	}
	if enum {
		return v + ".id()", nil
	}
	return v + ".id", nil
}

// read returns the guard expression reading a wrapped value of o.
func (b *Backend) read(v string, o *schema.Object) string {
	if b.g.Wrapped(o) {
		return v + b.g.UberStore.Read()
	}
	return v
}

// typeName returns the emitted type name of o.
func (b *Backend) typeName(o *schema.Object) string {
	if t, ok := b.g.Type(o); ok {
		return t.TypeName()
	}
	return gen.TypeName(o.Name)
}

// valueType returns the stored type of o: the type name wrapped by the
// uber store.
func (b *Backend) valueType(o *schema.Object) string {
	return b.g.UberStore.Wrap(b.typeName(o))
}

// refType returns the type navigation methods return for o.
func (b *Backend) refType(o *schema.Object) string {
	if b.g.UberStore.Enabled() {
		return b.valueType(o)
	}
	return "&'a " + b.typeName(o)
}

// typePath returns the use path of o's type.
func (b *Backend) typePath(o *schema.Object) string {
	if t, ok := b.g.Type(o); ok {
		if e, ok := b.g.Grace.External(o.ID); ok {
			return e.Path
		}
		return cratePath(t.TypePath())
	}
	return cratePath(b.g.Module + "::types::" + gen.Ident(o.Name) + "::" + gen.TypeName(o.Name))
}

// storePath returns the use path of the ObjectStore.
func (b *Backend) storePath() string {
	return cratePath(b.g.Module + "::store::ObjectStore")
}

// await returns ".await" when store calls are asynchronous.
func (b *Backend) await() string {
	return b.g.UberStore.Await()
}

// async returns "async " when store calls are asynchronous.
func (b *Backend) async() string {
	return b.g.UberStore.Async()
}

// vec reports whether the store uses the vec discipline.
func (b *Backend) vec() bool {
	return b.g.Storage == gen.StorageVec
}

// stored reports whether o lives in this domain's store.
func (b *Backend) stored(o *schema.Object) bool {
	if _, ok := b.g.Grace.Imported(o.ID); ok {
		return false
	}
	if _, ok := b.g.Grace.External(o.ID); ok {
		return false
	}
	return !b.g.IsConst(o)
}

// derives returns the derive list of o.
func (b *Backend) derives(o *schema.Object, extra ...string) string {
	d := b.g.Grace.Derive(o.ID)
	d = append(d, extra...)
	if slices.Contains(d, "Copy") && !slices.Contains(d, "Clone") {
		d = append(d, "Clone")
	}
	slices.Sort(d)
	d = slices.Compact(d)
	return "#[derive(" + strings.Join(d, ", ") + ")]"
}

// without returns d without the given names.
func without(d []string, names ...string) []string {
	return slices.DeleteFunc(slices.Clone(d), func(s string) bool {
		return slices.Contains(names, s)
	})
}
