package gen

import (
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"time"
)

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the output directory.
// The directory where the generated domain module will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithModule sets the crate path of the generated module.
// For example: "domain::sarzak".
func WithModule(module string) Option {
	return func(c *Config) error {
		module = strings.Trim(module, ":")
		if module == "" {
			return NewConfigError("Module", nil, "module cannot be empty")
		}
		for _, seg := range strings.Split(module, "::") {
			if seg == "" || seg != Ident(seg) {
				return NewConfigError("Module", module, "module segments must be snake case identifiers")
			}
		}
		c.Module = module
		return nil
	}
}

// WithFromDomain sets the domain this one is generated from.
func WithFromDomain(module, path string) Option {
	return func(c *Config) error {
		if (module == "") != (path == "") {
			return NewConfigError("FromDomain", module+path, "from_module and from_path must be set together")
		}
		c.FromModule = module
		c.FromPath = path
		return nil
	}
}

// WithPersist enables store persistence. Timestamps pair every stored
// value with its last modification time.
func WithPersist(timestamps bool) Option {
	return func(c *Config) error {
		c.Persist = true
		c.PersistTimestamps = timestamps
		return nil
	}
}

// WithSarzak marks the domain as the metamodel itself.
func WithSarzak() Option {
	return func(c *Config) error {
		c.IsSarzak = true
		return nil
	}
}

// WithMetaModel marks the domain as a meta model.
func WithMetaModel() Option {
	return func(c *Config) error {
		c.IsMetaModel = true
		return nil
	}
}

// WithDerive sets the derive macros of every generated type.
func WithDerive(derive ...string) Option {
	return func(c *Config) error {
		for _, d := range derive {
			if d == "" || strings.ContainsAny(d, " ,()") {
				return NewConfigError("Derive", d, "invalid derive macro name")
			}
		}
		c.Derive = append(c.Derive, derive...)
		return nil
	}
}

// WithUsePaths adds use paths to every generated type file.
func WithUsePaths(paths ...string) Option {
	return func(c *Config) error {
		c.UsePaths = append(c.UsePaths, paths...)
		return nil
	}
}

// WithImportedDomains adds model files objects may be imported from.
func WithImportedDomains(paths ...string) Option {
	return func(c *Config) error {
		c.ImportedDomains = append(c.ImportedDomains, paths...)
		return nil
	}
}

// WithDocTest enables doc tests on constructors.
func WithDocTest() Option {
	return func(c *Config) error {
		c.DocTest = true
		return nil
	}
}

// WithAlwaysProcess regenerates every file regardless of staleness.
func WithAlwaysProcess() Option {
	return func(c *Config) error {
		c.AlwaysProcess = true
		return nil
	}
}

// WithUberStore sets the concurrency wrapper of stored values.
func WithUberStore(u UberStore) Option {
	return func(c *Config) error {
		if u >= endUber {
			return NewConfigError("UberStore", u, "unknown uber store")
		}
		c.UberStore = u
		return nil
	}
}

// WithUberStoreName sets the concurrency wrapper by name.
// Supported names: Disabled, Single, StdRwLock, ParkingLotRwLock,
// AsyncRwLock, NDRwLock, StdMutex, ParkingLotMutex.
func WithUberStoreName(name string) Option {
	return func(c *Config) error {
		u, err := ParseUberStore(name)
		if err != nil {
			return err
		}
		c.UberStore = u
		return nil
	}
}

// WithStorage sets the store discipline.
func WithStorage(s Storage) Option {
	return func(c *Config) error {
		c.Storage = s
		return nil
	}
}

// WithNamed adds objects that get a by-name lookup index.
func WithNamed(names ...string) Option {
	return func(c *Config) error {
		c.Named = append(c.Named, names...)
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithBuildTime sets the generator build time used by the staleness oracle.
func WithBuildTime(t time.Time) Option {
	return func(c *Config) error {
		c.BuildTime = t
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks option combinations that no single option can.
func (c *Config) Validate() error {
	if c.Storage == StorageVec && !c.UberStore.Enabled() {
		return NewConfigError("Storage", c.Storage, "vec storage requires an uber store")
	}
	if c.PersistTimestamps && !c.Persist {
		return NewConfigError("PersistTimestamps", true, "timestamps require persistence")
	}
	return nil
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Module:  "domain",
		Workers: runtime.GOMAXPROCS(0),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
