package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	urfave "github.com/urfave/cli/v2"
)

// ExitError carries the process exit code of a failed invocation.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Commands.
const (
	CmdGenerate = "generate"
	CmdWatch    = "watch"
	CmdConvert  = "convert"
	CmdForget   = "forget"
	CmdVersion  = "version"
)

// Command is a parsed invocation.
type Command struct {
	Name   string
	Config *Config
	// Args holds the positional arguments of convert.
	Args []string
}

// Action executes a parsed command.
type Action func(ctx context.Context, cmd *Command) error

// Run parses args, without the program name, and executes the command.
// Regular output and help go to out, logs to errOut.
func Run(ctx context.Context, args []string, out, errOut io.Writer, info BuildInfo) error {
	app := NewApp(out, errOut, func(ctx context.Context, cmd *Command) error {
		return Execute(ctx, cmd, out, errOut, info)
	})
	return app.RunContext(ctx, append([]string{app.Name}, args...))
}

// NewApp returns the command-line application. Every command is parsed
// into a Command and handed to action.
func NewApp(out, errOut io.Writer, action Action) *urfave.App {
	onUsage := func(_ *urfave.Context, err error, _ bool) error {
		return usageError("%s", err)
	}
	model := func(name, usage string) *urfave.Command {
		return &urfave.Command{
			Name:         name,
			Usage:        usage,
			ArgsUsage:    "MODEL",
			Flags:        modelFlags(),
			OnUsageError: onUsage,
			Action: func(c *urfave.Context) error {
				cfg, err := configFrom(c)
				if err != nil {
					return err
				}
				return action(c.Context, &Command{Name: name, Config: cfg})
			},
		}
	}
	return &urfave.App{
		Name:  "grace",
		Usage: "generate a Rust domain module and ObjectStore from a model",
		Description: "MODEL is a .json, .yaml/.yml or .msgpack model document. Options are read\n" +
			"from " + DefaultConfigFile + ", then GRACE_* variables (and .env), then flags.",
		Writer:         out,
		ErrWriter:      errOut,
		HideVersion:    true,
		OnUsageError:   onUsage,
		ExitErrHandler: func(*urfave.Context, error) {},
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "`FILE` with GRACE_* variables, loaded before the command flags",
				EnvVars: []string{"GRACE_ENV_FILE"},
			},
		},
		Before: func(c *urfave.Context) error {
			if err := LoadDotenv(c.String("env-file")); err != nil {
				return usageError("load %s: %s", c.String("env-file"), err)
			}
			return nil
		},
		Action: func(c *urfave.Context) error {
			if c.Args().Present() {
				return usageError("unknown command %q", c.Args().First())
			}
			return urfave.ShowAppHelp(c)
		},
		Commands: []*urfave.Command{
			model(CmdGenerate, "render the model into the target directory"),
			model(CmdWatch, "regenerate whenever the model changes"),
			model(CmdForget, "drop the ledger entries of the model's domain"),
			{
				Name:         CmdConvert,
				Usage:        "rewrite a model document in another format",
				ArgsUsage:    "SRC DST",
				OnUsageError: onUsage,
				Action: func(c *urfave.Context) error {
					if c.NArg() != 2 {
						return usageError("convert needs a source and a destination")
					}
					return action(c.Context, &Command{Name: CmdConvert, Args: c.Args().Slice()})
				},
			},
			{
				Name:  CmdVersion,
				Usage: "print the version and build time",
				Action: func(c *urfave.Context) error {
					return action(c.Context, &Command{Name: CmdVersion})
				},
			},
		},
	}
}

// modelFlags returns the flags of the commands that read a model. Flags
// record whether they were set, so every command gets its own.
func modelFlags() []urfave.Flag {
	str := func(name, env, usage string) urfave.Flag {
		return &urfave.StringFlag{Name: name, Usage: usage, EnvVars: []string{env}}
	}
	boolean := func(name, env, usage string) urfave.Flag {
		return &urfave.BoolFlag{Name: name, Usage: usage, EnvVars: []string{env}}
	}
	list := func(name, env, usage string) urfave.Flag {
		return &urfave.StringSliceFlag{Name: name, Usage: usage + " (comma separated)", EnvVars: []string{env}}
	}
	return []urfave.Flag{
		&urfave.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config `FILE`; ./" + DefaultConfigFile + " is read when present", EnvVars: []string{"GRACE_CONFIG"}},
		str("model", "GRACE_MODEL", "model document, when not given as argument"),
		str("target", "GRACE_TARGET", "directory the domain module is written to"),
		str("module", "GRACE_MODULE", "crate path of the generated module, e.g. domain::pets"),
		str("from-module", "GRACE_FROM_MODULE", "crate path of the domain this one is generated from"),
		str("from-path", "GRACE_FROM_PATH", "model file of the domain this one is generated from"),
		boolean("persist", "GRACE_PERSIST", "generate JSON and bincode persistence"),
		boolean("persist-timestamps", "GRACE_PERSIST_TIMESTAMPS", "pair stored values with their modification time"),
		boolean("sarzak", "GRACE_IS_SARZAK", "the domain is the metamodel itself"),
		boolean("meta-model", "GRACE_IS_META_MODEL", "the domain models other domains"),
		list("derive", "GRACE_DERIVE", "derive macros of every generated type"),
		list("use-paths", "GRACE_USE_PATHS", "extra use paths of every generated type file"),
		list("imported-domains", "GRACE_IMPORTED_DOMAINS", "model files objects may be imported from"),
		boolean("doc-test", "GRACE_DOC_TEST", "emit doc tests for constructors"),
		boolean("always-process", "GRACE_ALWAYS_PROCESS", "regenerate every object regardless of staleness"),
		list("named", "GRACE_NAMED", "objects that get a by-name index"),
		str("uber-store", "GRACE_UBER_STORE", "concurrency wrapper of stored values: Disabled, Single, StdRwLock, ParkingLotRwLock, AsyncRwLock, NDRwLock, StdMutex, ParkingLotMutex"),
		str("storage", "GRACE_STORAGE", "store discipline: hashmap or vec"),
		&urfave.IntFlag{Name: "workers", Usage: "number of files rendered in parallel", EnvVars: []string{"GRACE_WORKERS"}},
		str("log-level", "GRACE_LOG_LEVEL", "logging level: debug, info, warn, error"),
		str("log-format", "GRACE_LOG_FORMAT", "log output format: text or json"),
		str("metrics", "GRACE_METRICS", "write generation metrics to this textfile"),
		str("ledger-dialect", "GRACE_LEDGER_DIALECT", "ledger database dialect: sqlite, mysql, postgres"),
		str("ledger-dsn", "GRACE_LEDGER_DSN", "ledger data source name; empty disables the ledger"),
		&urfave.DurationFlag{Name: "ledger-slow-threshold", Usage: "log ledger statements slower than this", EnvVars: []string{"GRACE_LEDGER_SLOW_THRESHOLD"}},
		str("rustfmt", "GRACE_RUSTFMT", "path of the rustfmt binary"),
		boolean("no-rustfmt", "GRACE_NO_RUSTFMT", "write files without formatting them"),
		&urfave.DurationFlag{Name: "debounce", Usage: "quiet period before a watch run starts", EnvVars: []string{"GRACE_DEBOUNCE"}},
		&urfave.BoolFlag{Name: "diff", Usage: "print a unified diff instead of writing files"},
	}
}

// configFrom layers the config file under the flags and variables set
// for the command.
func configFrom(c *urfave.Context) (*Config, error) {
	f := DefaultConfig()
	path, required := DefaultConfigFile, false
	if c.IsSet("config") {
		path, required = c.String("config"), true
	}
	if err := f.LoadFile(path, required); err != nil {
		return nil, usageError("%s", err)
	}

	for name, dst := range map[string]*string{
		"model":          &f.Model,
		"target":         &f.Target,
		"module":         &f.Module,
		"from-module":    &f.From.Module,
		"from-path":      &f.From.Path,
		"log-level":      &f.LogLevel,
		"log-format":     &f.LogFormat,
		"metrics":        &f.Metrics,
		"ledger-dialect": &f.Ledger.Dialect,
		"ledger-dsn":     &f.Ledger.DSN,
		"rustfmt":        &f.Rustfmt.Path,
	} {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	for name, dst := range map[string]*bool{
		"persist":            &f.Persist,
		"persist-timestamps": &f.PersistTimestamps,
		"sarzak":             &f.IsSarzak,
		"meta-model":         &f.IsMetaModel,
		"doc-test":           &f.DocTest,
		"always-process":     &f.AlwaysProcess,
		"no-rustfmt":         &f.Rustfmt.Disabled,
	} {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}
	for name, dst := range map[string]*[]string{
		"derive":           &f.Derive,
		"use-paths":        &f.UsePaths,
		"imported-domains": &f.ImportedDomains,
		"named":            &f.Named,
	} {
		if c.IsSet(name) {
			*dst = splitList(strings.Join(c.StringSlice(name), ","))
		}
	}
	var errs []error
	if c.IsSet("uber-store") {
		errs = append(errs, f.UberStore.UnmarshalText([]byte(c.String("uber-store"))))
	}
	if c.IsSet("storage") {
		errs = append(errs, f.Storage.UnmarshalText([]byte(c.String("storage"))))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, usageError("%s", err)
	}
	if c.IsSet("workers") {
		f.Workers = c.Int("workers")
	}
	if c.IsSet("debounce") {
		f.Debounce = c.Duration("debounce")
	}
	if c.IsSet("ledger-slow-threshold") {
		f.Ledger.SlowThreshold = c.Duration("ledger-slow-threshold")
	}
	f.Diff = c.Bool("diff")

	if c.NArg() > 1 {
		return nil, usageError("too many arguments: %s", strings.Join(c.Args().Slice(), " "))
	}
	if c.NArg() == 1 {
		f.Model = c.Args().First()
	}
	f.LogLevel = strings.ToLower(f.LogLevel)
	f.LogFormat = strings.ToLower(f.LogFormat)
	if f.Debounce <= 0 {
		f.Debounce = 200 * time.Millisecond
	}
	if err := f.Validate(); err != nil {
		return nil, usageError("%s", err)
	}
	return f, nil
}
