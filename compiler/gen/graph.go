package gen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/syssam/grace/compiler/load"
	"github.com/syssam/grace/schema"
)

// Graph holds a domain model with its configuration and is the input of
// every renderer.
type Graph struct {
	*Config
	// Model is the domain being generated.
	Model schema.Model
	// Grace is the layered per-object configuration.
	Grace *GraceConfig
	// Nodes holds the types of the domain, sorted by name.
	Nodes []*Type
	// From is the domain this one is generated from, if configured.
	From schema.Model

	nodes   map[uuid.UUID]*Type
	origins map[uuid.UUID]*origin
	loader  *load.Loader
}

// origin is the resolution of an imported object in its own domain.
type origin struct {
	model  schema.Model
	object *schema.Object
	grace  *GraceConfig
	module string
}

// NewGraph creates a graph for the given model. Imported objects are
// resolved against their origin domains here, so a missing origin fails
// before any file is rendered.
func NewGraph(c *Config, m schema.Model) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	gc, err := NewGraceConfig(c, m)
	if err != nil {
		return nil, err
	}
	loader, err := load.NewLoader(load.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	g := &Graph{
		Config:  c,
		Model:   m,
		Grace:   gc,
		nodes:   make(map[uuid.UUID]*Type),
		origins: make(map[uuid.UUID]*origin),
		loader:  loader,
	}
	for _, o := range sortedObjects(m.Objects()) {
		t := &Type{Object: o, graph: g, Name: TypeName(o.Name)}
		g.Nodes = append(g.Nodes, t)
		g.nodes[o.ID] = t
	}
	for _, t := range g.Nodes {
		imp, ok := gc.Imported(t.ID)
		if !ok {
			continue
		}
		if err := g.resolveImport(t.Object, imp); err != nil {
			return nil, err
		}
	}
	if c.FromPath != "" {
		if g.From, err = loader.Load(c.FromPath); err != nil {
			return nil, NewConfigError("FromPath", c.FromPath, err.Error())
		}
	}
	return g, nil
}

// resolveImport finds the origin of an imported object.
func (g *Graph) resolveImport(o *schema.Object, imp *ImportedObject) error {
	path := imp.ModelFile
	if path == "" {
		want := imp.Domain[strings.LastIndex(imp.Domain, ":")+1:]
		for _, p := range g.ImportedDomains {
			d, err := g.loader.Load(p)
			if err != nil {
				return NewConfigError("ImportedDomains", p, err.Error())
			}
			if Ident(d.Name()) == want {
				path = p
				break
			}
		}
	}
	if path == "" {
		return NewConfigError("imported_object", o.Name, fmt.Sprintf("no imported domain named %q", imp.Domain))
	}
	d, err := g.loader.Load(path)
	if err != nil {
		return NewConfigError("imported_object", filepath.Base(path), err.Error())
	}
	var (
		obj *schema.Object
		ok  bool
	)
	switch {
	case imp.ID != uuid.Nil:
		obj, ok = d.Object(imp.ID)
	case imp.Object != "":
		obj, ok = d.ObjectByName(imp.Object)
	default:
		obj, ok = d.ObjectByName(o.Name)
	}
	if !ok {
		return NewModelInconsistencyError(o.Name, "imported object", "not found in domain "+d.Name())
	}
	gc, err := NewGraceConfig(g.Config, d)
	if err != nil {
		return err
	}
	g.origins[o.ID] = &origin{model: d, object: obj, grace: gc, module: imp.Domain}
	return nil
}

// Type returns the node of the given object.
func (g *Graph) Type(o *schema.Object) (*Type, bool) {
	t, ok := g.nodes[o.ID]
	return t, ok
}

// Generated returns the nodes that get a type file: imported and
// external objects are defined elsewhere.
func (g *Graph) Generated() []*Type {
	var nodes []*Type
	for _, t := range g.Nodes {
		if t.IsImported() || t.IsExternal() {
			continue
		}
		nodes = append(nodes, t)
	}
	return nodes
}

// Stored returns the nodes the ObjectStore keeps: every generated
// object that is not a constant.
func (g *Graph) Stored() ([]*Type, error) {
	var nodes []*Type
	for _, t := range g.Generated() {
		c, err := g.Classify(t.Object)
		if err != nil {
			return nil, err
		}
		if c != ClassConst {
			nodes = append(nodes, t)
		}
	}
	return nodes, nil
}

// Type represents one modeled object in the graph.
type Type struct {
	*schema.Object
	graph *Graph
	// Name holds the type name of the object.
	Name string
}

// Ident returns the snake case identifier of the type, used for module,
// field and store method names.
func (t *Type) Ident() string { return Ident(t.Object.Name) }

// Const returns the constant name of the type.
func (t *Type) Const() string { return ConstName(t.Object.Name) }

// Class returns the shape of the type.
func (t *Type) Class() (Class, error) { return t.graph.Classify(t.Object) }

// IsImported reports whether the object is defined by another domain.
func (t *Type) IsImported() bool {
	_, ok := t.graph.Grace.Imported(t.ID)
	return ok
}

// IsExternal reports whether the object is an external entity.
func (t *Type) IsExternal() bool {
	_, ok := t.graph.Grace.External(t.ID)
	return ok
}

// Doc returns the object description without its tag payload.
func (t *Type) Doc() string { return t.graph.Grace.Description(t.Object) }

// Named reports whether the store keeps a by-name index for the type.
func (t *Type) Named() bool { return t.graph.Grace.Named(t.Object) }

// Module returns the crate path of the file that defines the type.
func (t *Type) Module() string {
	if o, ok := t.graph.origins[t.ID]; ok {
		return o.module + "::types::" + Ident(o.object.Name)
	}
	return t.graph.Module + "::types::" + t.Ident()
}

// TypePath returns the use path of the type.
func (t *Type) TypePath() string {
	if e, ok := t.graph.Grace.External(t.ID); ok {
		return e.Path
	}
	if o, ok := t.graph.origins[t.ID]; ok {
		return t.Module() + "::" + TypeName(o.object.Name)
	}
	return t.Module() + "::" + t.Name
}

// TypeName returns the emitted type name. External entities keep their
// own name and imported objects the name they have in their origin.
func (t *Type) TypeName() string {
	if e, ok := t.graph.Grace.External(t.ID); ok {
		return e.Name
	}
	if o, ok := t.graph.origins[t.ID]; ok {
		return TypeName(o.object.Name)
	}
	return t.Name
}
