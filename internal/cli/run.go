package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/compiler/gen/rust"
	"github.com/syssam/grace/compiler/load"
	"github.com/syssam/grace/dialect"
	"github.com/syssam/grace/dialect/sql"
)

// BuildInfo identifies the running binary. Time feeds the staleness
// oracle: files generated before it are regenerated.
type BuildInfo struct {
	Version string
	Time    time.Time
}

// Execute runs a parsed command. Regular output goes to out, logs to
// errOut.
func Execute(ctx context.Context, cmd *Command, out, errOut io.Writer, info BuildInfo) error {
	switch cmd.Name {
	case CmdVersion:
		built := "unknown"
		if !info.Time.IsZero() {
			built = info.Time.UTC().Format(time.RFC3339)
		}
		_, err := fmt.Fprintf(out, "grace %s (built %s)\n", info.Version, built)
		return err
	case CmdConvert:
		return load.Convert(cmd.Args[0], cmd.Args[1])
	}
	r, err := newRunner(ctx, cmd.Config, out, errOut, info)
	if err != nil {
		return err
	}
	defer r.close()
	switch cmd.Name {
	case CmdGenerate:
		return r.generate(ctx)
	case CmdWatch:
		return r.watch(ctx)
	case CmdForget:
		return r.forget(ctx)
	}
	return usageError("unknown command %q", cmd.Name)
}

// runner holds what outlives a single generation run.
type runner struct {
	cfg     *Config
	out     io.Writer
	log     *slog.Logger
	info    BuildInfo
	loader  *load.Loader
	ledger  *sql.Ledger
	metrics *gen.Metrics
	// afterRun is called with the result of every watch run.
	afterRun func(error)
}

func newRunner(ctx context.Context, cfg *Config, out, errOut io.Writer, info BuildInfo) (*runner, error) {
	loader, err := load.NewLoader(load.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	r := &runner{
		cfg:     cfg,
		out:     out,
		log:     NewLogger(cfg.LogLevel, cfg.LogFormat, errOut),
		info:    info,
		loader:  loader,
		metrics: gen.NewMetrics(),
	}
	if cfg.Ledger.DSN != "" {
		if err := prepareSQLite(cfg.Ledger); err != nil {
			return nil, err
		}
		stats := []sql.StatsOption{sql.WithStatsLogger(r.log)}
		if cfg.Ledger.SlowThreshold > 0 {
			stats = append(stats, sql.WithSlowThreshold(cfg.Ledger.SlowThreshold))
		}
		r.ledger, err = sql.OpenLedger(ctx, cfg.Ledger.Dialect, cfg.Ledger.DSN,
			sql.WithLedgerLogger(r.log), sql.WithStats(stats...))
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
	}
	return r, nil
}

// prepareSQLite creates the directory of a file based SQLite ledger.
func prepareSQLite(c LedgerConfig) error {
	if c.Dialect != dialect.SQLite || strings.HasPrefix(c.DSN, "file:") || strings.Contains(c.DSN, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.DSN), 0o755)
}

func (r *runner) close() {
	if r.ledger != nil {
		if err := r.ledger.Close(); err != nil {
			r.log.Warn("closing ledger", "error", err)
		}
	}
}

// generate renders the model once.
func (r *runner) generate(ctx context.Context) error {
	start := time.Now()
	d, err := r.loader.Load(r.cfg.Model)
	if err != nil {
		return err
	}
	c, err := gen.NewConfig(r.cfg.Options(r.log, r.info.Time)...)
	if err != nil {
		return err
	}
	g, err := gen.NewGraph(c, d)
	if err != nil {
		return err
	}
	x := gen.NewGenerator(g).
		WithBackend(rust.NewBackend(g)).
		WithFormatter(r.cfg.Formatter()).
		WithMetrics(r.metrics)
	if r.ledger != nil {
		x.WithLedger(r.ledger)
	}
	if r.cfg.Diff {
		x.WithDiff(r.out)
	}
	err = x.Generate(ctx)
	if r.cfg.Metrics != "" {
		if merr := r.metrics.WriteTextfile(r.cfg.Metrics); merr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics: %w", merr))
		}
	}
	if err != nil {
		return err
	}
	if s, ok := r.ledger.Stats(); ok {
		r.log.Debug("ledger statements", "stats", s.String())
	}
	r.log.Debug("run finished", "model", r.cfg.Model, "elapsed", time.Since(start))
	return nil
}

// forget drops the ledger entries of the model's domain.
func (r *runner) forget(ctx context.Context) error {
	if r.ledger == nil {
		return usageError("forget needs a ledger: set --ledger-dsn")
	}
	d, err := r.loader.Load(r.cfg.Model)
	if err != nil {
		return err
	}
	n, err := r.ledger.Forget(ctx, d.Name())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.out, "forgot %d objects of %s\n", n, d.Name())
	return err
}

// watched returns the model files a watch run depends on.
func (r *runner) watched() []string {
	files := []string{r.cfg.Model}
	if r.cfg.From.Path != "" {
		files = append(files, r.cfg.From.Path)
	}
	return append(files, r.cfg.ImportedDomains...)
}

// watch generates once, then again after every change to a watched
// model file, until ctx is done. Failed runs are logged and do not stop
// the loop.
func (r *runner) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range r.watched() {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		files[abs] = true
		// Editors replace files by renaming, so the directory is watched.
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	run := func() {
		err := r.generate(ctx)
		if err != nil && ctx.Err() == nil {
			r.log.Error("generation failed", "error", err)
		}
		if r.afterRun != nil {
			r.afterRun(err)
		}
	}
	run()
	r.log.Info("watching for changes", "files", len(files))

	timer := time.NewTimer(0)
	<-timer.C
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			r.log.Debug("model changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(r.cfg.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watcher error", "error", err)
		case <-timer.C:
			run()
		}
	}
}
