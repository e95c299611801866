package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/syssam/grace/compiler/buffer"
	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/dialect"
)

// DefaultConfigFile is read from the working directory when no
// --config flag is given.
const DefaultConfigFile = "grace.yaml"

// Config is the CLI configuration. Values are layered: defaults, the
// YAML config file, GRACE_* environment variables, then flags.
type Config struct {
	Model             string        `yaml:"model"`
	Target            string        `yaml:"target"`
	Module            string        `yaml:"module"`
	From              FromConfig    `yaml:"from"`
	Persist           bool          `yaml:"persist"`
	PersistTimestamps bool          `yaml:"persist_timestamps"`
	IsSarzak          bool          `yaml:"is_sarzak"`
	IsMetaModel       bool          `yaml:"is_meta_model"`
	Derive            []string      `yaml:"derive"`
	UsePaths          []string      `yaml:"use_paths"`
	ImportedDomains   []string      `yaml:"imported_domains"`
	DocTest           bool          `yaml:"doc_test"`
	AlwaysProcess     bool          `yaml:"always_process"`
	UberStore         gen.UberStore `yaml:"uber_store"`
	Storage           gen.Storage   `yaml:"storage"`
	Named             []string      `yaml:"named"`
	Workers           int           `yaml:"workers"`
	Rustfmt           RustfmtConfig `yaml:"rustfmt"`
	Ledger            LedgerConfig  `yaml:"ledger"`
	// Metrics is the node exporter textfile metrics are written to.
	Metrics   string        `yaml:"metrics"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	Debounce  time.Duration `yaml:"debounce"`

	// Diff prints a unified diff instead of writing files.
	Diff bool `yaml:"-"`
}

// FromConfig names the domain this one is generated from.
type FromConfig struct {
	Module string `yaml:"module"`
	Path   string `yaml:"path"`
}

// RustfmtConfig configures the formatter.
type RustfmtConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
	Edition  string `yaml:"edition"`
}

// LedgerConfig configures the generation ledger. An empty DSN disables
// the ledger, and every object is regenerated on each run.
type LedgerConfig struct {
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
	// SlowThreshold is the duration above which ledger statements are
	// logged. Zero keeps the driver default.
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

// DefaultConfig returns the configuration before any layer is applied.
func DefaultConfig() *Config {
	return &Config{
		Module:    "domain",
		LogLevel:  "info",
		LogFormat: "text",
		Debounce:  200 * time.Millisecond,
		Ledger:    LedgerConfig{Dialect: dialect.SQLite},
	}
}

// LoadFile decodes the YAML config file at path into c. A missing file
// is not an error unless required is set.
func (c *Config) LoadFile(path string, required bool) error {
	buf, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF.
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadDotenv loads the .env file at path into the process environment.
// Variables already set are kept.
func LoadDotenv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the values the generator options do not.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.New("no model file given")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel)
	}
	if c.Ledger.DSN != "" && !dialect.Supported(c.Ledger.Dialect) {
		return fmt.Errorf("unsupported ledger dialect %q", c.Ledger.Dialect)
	}
	return nil
}

// Options returns the generator options of the configuration.
func (c *Config) Options(log *slog.Logger, buildTime time.Time) []gen.Option {
	opts := []gen.Option{
		gen.WithTarget(c.Target),
		gen.WithUberStore(c.UberStore),
		gen.WithStorage(c.Storage),
		gen.WithBuildTime(buildTime),
	}
	if c.Module != "" {
		opts = append(opts, gen.WithModule(c.Module))
	}
	if c.From.Module != "" || c.From.Path != "" {
		opts = append(opts, gen.WithFromDomain(c.From.Module, c.From.Path))
	}
	if c.Persist {
		opts = append(opts, gen.WithPersist(c.PersistTimestamps))
	}
	if c.IsSarzak {
		opts = append(opts, gen.WithSarzak())
	}
	if c.IsMetaModel {
		opts = append(opts, gen.WithMetaModel())
	}
	if len(c.Derive) > 0 {
		opts = append(opts, gen.WithDerive(c.Derive...))
	}
	if len(c.UsePaths) > 0 {
		opts = append(opts, gen.WithUsePaths(c.UsePaths...))
	}
	if len(c.ImportedDomains) > 0 {
		opts = append(opts, gen.WithImportedDomains(c.ImportedDomains...))
	}
	if c.DocTest {
		opts = append(opts, gen.WithDocTest())
	}
	if c.AlwaysProcess {
		opts = append(opts, gen.WithAlwaysProcess())
	}
	if len(c.Named) > 0 {
		opts = append(opts, gen.WithNamed(c.Named...))
	}
	if c.Workers != 0 {
		opts = append(opts, gen.WithWorkers(c.Workers))
	}
	if log != nil {
		opts = append(opts, gen.WithLogger(log))
	}
	return opts
}

// Formatter returns the formatter generated files are piped through.
func (c *Config) Formatter() buffer.Formatter {
	if c.Rustfmt.Disabled {
		return buffer.Nop
	}
	return buffer.Rustfmt{Path: c.Rustfmt.Path, Edition: c.Rustfmt.Edition}
}
