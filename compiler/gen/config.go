package gen

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/grace/schema"
	"github.com/syssam/grace/schema/field"
)

// Config holds the global configuration for code generation.
type Config struct {
	// Target is the directory the domain module is written to.
	Target string
	// Module is the crate path of the generated domain module,
	// e.g. "domain::sarzak". It prefixes every generated use path.
	Module string
	// FromModule and FromPath name a domain this one is generated from.
	// Objects found in both are re-exported rather than regenerated.
	FromModule string
	FromPath   string
	// Persist enables JSON and bincode persistence of the store.
	Persist bool
	// PersistTimestamps pairs each stored value with its SystemTime.
	PersistTimestamps bool
	// IsSarzak marks the metamodel domain itself.
	IsSarzak bool
	// IsMetaModel marks a domain whose objects model other domains.
	IsMetaModel bool
	// Derive lists the derive macros of every generated type.
	Derive []string
	// UsePaths lists extra use paths of every generated type file.
	UsePaths []string
	// ImportedDomains lists model files objects may be imported from.
	ImportedDomains []string
	// DocTest emits doc tests for constructors.
	DocTest bool
	// AlwaysProcess bypasses the staleness oracle.
	AlwaysProcess bool
	// UberStore selects the concurrency wrapper of stored values.
	UberStore UberStore
	// Storage selects the store discipline.
	Storage Storage
	// Named lists object names that get a by-name lookup index in
	// addition to the default set.
	Named []string
	// Workers bounds the number of files rendered in parallel.
	Workers int
	// BuildTime is the generator's own build time for the staleness oracle.
	BuildTime time.Time
	// Logger receives progress and diagnostics.
	Logger *slog.Logger
}

// logger returns the configured logger or the default one.
func (c *Config) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// DefaultDerive is used when neither the options nor an object
// override list derive macros.
var DefaultDerive = []string{"Clone", "Debug", "Deserialize", "PartialEq", "Serialize"}

// DefaultNamed is the set of object names that always get a by-name
// lookup index when they carry a "name" attribute.
var DefaultNamed = []string{"Object", "Struct", "Function", "Field", "Object Store", "Enumeration", "Plugin"}

// TagMarker separates an object's description text from its inline
// JSON configuration.
const TagMarker = "🐶"

// ObjectConfig is the per-object configuration. The same shape holds the
// global entry built from Config.
type ObjectConfig struct {
	Derive         []string        `json:"derive,omitempty" yaml:"derive,omitempty"`
	UsePaths       []string        `json:"use_paths,omitempty" yaml:"use_paths,omitempty"`
	ImportedObject *ImportedObject `json:"imported_object,omitempty" yaml:"imported_object,omitempty"`
	ExternalEntity *ExternalEntity `json:"external_entity,omitempty" yaml:"external_entity,omitempty"`
	Named          *bool           `json:"named,omitempty" yaml:"named,omitempty"`
}

// ImportedObject marks an object as defined by another domain.
type ImportedObject struct {
	// Domain is the crate path of the origin domain, e.g. "domain::sarzak".
	Domain string `json:"domain" yaml:"domain"`
	// ModelFile is the model document of the origin domain.
	ModelFile string `json:"model_file,omitempty" yaml:"model_file,omitempty"`
	// Object is the object name in the origin domain. It defaults to the
	// importing object's name.
	Object string `json:"object,omitempty" yaml:"object,omitempty"`
	// ID is the object id in the origin domain. It wins over Object.
	ID uuid.UUID `json:"id,omitempty" yaml:"id,omitempty"`
}

// ExternalEntity marks an object as a type that lives outside the
// generated code, such as std::time::SystemTime.
type ExternalEntity struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Ctor   string `json:"ctor,omitempty" yaml:"ctor,omitempty"`
	IsUber bool   `json:"is_uber,omitempty" yaml:"is_uber,omitempty"`
}

// ParseDescription splits a description into its text and the inline
// configuration that follows TagMarker. A description without the
// marker yields a nil configuration.
func ParseDescription(desc string) (string, *ObjectConfig, error) {
	text, tag, ok := strings.Cut(desc, TagMarker)
	if !ok {
		return desc, nil, nil
	}
	tag = strings.TrimSpace(tag)
	cfg := &ObjectConfig{}
	if tag != "" {
		if err := json.Unmarshal([]byte(tag), cfg); err != nil {
			return "", nil, err
		}
	}
	return strings.TrimSpace(text), cfg, nil
}

// GraceConfig maps object ids to their configuration, layered over one
// global entry. Object-level values win over global ones.
type GraceConfig struct {
	global  ObjectConfig
	named   map[string]bool
	objects map[uuid.UUID]*ObjectConfig
	texts   map[uuid.UUID]string
}

// NewGraceConfig builds the layered configuration of the given model.
func NewGraceConfig(c *Config, m schema.Model) (*GraceConfig, error) {
	g := &GraceConfig{
		global: ObjectConfig{
			Derive:   c.Derive,
			UsePaths: c.UsePaths,
		},
		named:   make(map[string]bool),
		objects: make(map[uuid.UUID]*ObjectConfig),
		texts:   make(map[uuid.UUID]string),
	}
	if len(g.global.Derive) == 0 {
		g.global.Derive = DefaultDerive
	}
	for _, n := range DefaultNamed {
		g.named[n] = true
	}
	for _, n := range c.Named {
		g.named[n] = true
	}
	for _, o := range m.Objects() {
		text, oc, err := ParseDescription(o.Description)
		if err != nil {
			return nil, NewConfigError("description", o.Name, "malformed object configuration: "+err.Error())
		}
		g.texts[o.ID] = text
		if oc == nil {
			continue
		}
		if oc.ImportedObject != nil && oc.ExternalEntity != nil {
			return nil, NewConfigError("description", o.Name, "object cannot be both imported and external")
		}
		if e := oc.ExternalEntity; e != nil && (e.Name == "" || e.Path == "") {
			return nil, NewConfigError("external_entity", o.Name, "external entity needs a name and a path")
		}
		if i := oc.ImportedObject; i != nil && i.Domain == "" {
			return nil, NewConfigError("imported_object", o.Name, "imported object needs a domain")
		}
		g.objects[o.ID] = oc
	}
	return g, nil
}

// Object returns the object-level configuration of id.
func (g *GraceConfig) Object(id uuid.UUID) (*ObjectConfig, bool) {
	oc, ok := g.objects[id]
	return oc, ok
}

// Description returns the object's description without its tag payload.
func (g *GraceConfig) Description(o *schema.Object) string {
	if t, ok := g.texts[o.ID]; ok {
		return t
	}
	return o.Description
}

// Derive returns the derive macros of the object, sorted.
func (g *GraceConfig) Derive(id uuid.UUID) []string {
	d := g.global.Derive
	if oc, ok := g.objects[id]; ok && len(oc.Derive) > 0 {
		d = oc.Derive
	}
	d = slices.Clone(d)
	slices.Sort(d)
	return slices.Compact(d)
}

// UsePaths returns the use paths of the object.
func (g *GraceConfig) UsePaths(id uuid.UUID) []string {
	if oc, ok := g.objects[id]; ok && len(oc.UsePaths) > 0 {
		return oc.UsePaths
	}
	return g.global.UsePaths
}

// Imported returns the import marker of the object, if any.
func (g *GraceConfig) Imported(id uuid.UUID) (*ImportedObject, bool) {
	if oc, ok := g.objects[id]; ok && oc.ImportedObject != nil {
		return oc.ImportedObject, true
	}
	return nil, false
}

// External returns the external entity marker of the object, if any.
func (g *GraceConfig) External(id uuid.UUID) (*ExternalEntity, bool) {
	if oc, ok := g.objects[id]; ok && oc.ExternalEntity != nil {
		return oc.ExternalEntity, true
	}
	return nil, false
}

// Named reports whether the store keeps a by-name index for o. The
// object needs a "name" attribute of type string.
func (g *GraceConfig) Named(o *schema.Object) bool {
	has := false
	for _, a := range o.Attributes {
		if a.Name == "name" && a.Type.Type == field.TypeString {
			has = true
			break
		}
	}
	if !has {
		return false
	}
	if oc, ok := g.objects[o.ID]; ok && oc.Named != nil {
		return *oc.Named
	}
	return g.named[o.Name]
}
