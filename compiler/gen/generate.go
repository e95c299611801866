package gen

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/grace/compiler/buffer"
)

// Generator renders a graph through a backend and writes the files.
// Object files are rendered in parallel; a file whose object is not
// stale and which exists on disk is skipped.
type Generator struct {
	graph   *Graph
	backend Backend
	from    FromGenerator
	writer  *Writer
	ledger  Ledger
	metrics *Metrics
	workers int
	now     func() time.Time
}

// NewGenerator creates a generator writing to the configured target.
// You must call WithBackend() to set a backend before calling Generate().
//
// Example:
//
//	import "github.com/syssam/grace/compiler/gen/rust"
//
//	gen := gen.NewGenerator(graph)
//	gen.WithBackend(rust.NewBackend(graph))
//	gen.Generate(ctx)
func NewGenerator(g *Graph) *Generator {
	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Generator{
		graph:   g,
		writer:  NewWriter(g.Target, buffer.Nop).WithLogger(g.logger()),
		workers: workers,
		now:     time.Now,
	}
}

// WithBackend sets the backend.
// Optional capabilities are detected via FromGenerator.
func (x *Generator) WithBackend(b Backend) *Generator {
	if b != nil {
		x.backend = b
		if fg, ok := b.(FromGenerator); ok {
			x.from = fg
		}
	}
	return x
}

// WithFormatter sets the formatter every file is piped through.
func (x *Generator) WithFormatter(f buffer.Formatter) *Generator {
	if f != nil {
		x.writer.formatter = f
	}
	return x
}

// WithLedger sets the generation ledger of the staleness oracle.
func (x *Generator) WithLedger(l Ledger) *Generator {
	x.ledger = l
	return x
}

// WithMetrics records generation metrics in m.
func (x *Generator) WithMetrics(m *Metrics) *Generator {
	x.metrics = m
	x.writer.WithMetrics(m)
	return x
}

// WithDiff makes the run a dry run printing a unified diff to w.
func (x *Generator) WithDiff(w io.Writer) *Generator {
	x.writer.WithDiff(w)
	return x
}

// WithWorkers sets the number of parallel workers.
func (x *Generator) WithWorkers(n int) *Generator {
	if n > 0 {
		x.workers = n
	}
	return x
}

// Writer returns the file writer.
func (x *Generator) Writer() *Writer { return x.writer }

// fileTask represents a single file generation task.
type fileTask struct {
	kind   string
	name   string
	node   *Type
	render func() (*buffer.Buffer, error)
}

// Generate renders and writes every file of the domain.
func (x *Generator) Generate(ctx context.Context) error {
	if x.backend == nil {
		return NewConfigError("Backend", nil, "no backend set: call WithBackend() before Generate()")
	}
	if x.graph.Target == "" {
		return NewConfigError("Target", nil, "missing target directory in config")
	}
	if err := os.MkdirAll(x.graph.Target, 0o755); err != nil {
		return err
	}
	log := x.graph.logger().With("domain", x.graph.Model.Name(), "backend", x.backend.Name())

	var files []fileTask
	for _, t := range x.graph.Generated() {
		name := TypeFile(t)
		stale, err := x.graph.Stale(ctx, x.ledger, t)
		if err != nil {
			return err
		}
		if !stale && x.exists(name) {
			log.Debug("object not stale, skipping", "object", t.Object.Name)
			x.metrics.file(KindType, ResultSkipped)
			continue
		}
		files = append(files, fileTask{kind: KindType, name: name, node: t, render: func() (*buffer.Buffer, error) {
			return x.backend.GenType(t)
		}})
	}
	files = append(files,
		fileTask{kind: KindStore, name: StoreFile, render: x.backend.GenStore},
		fileTask{kind: KindModule, name: TypesFile, render: x.backend.GenTypes},
		fileTask{kind: KindModule, name: ModuleFile, render: x.backend.GenModule},
	)
	if x.from != nil && x.graph.From != nil {
		files = append(files, fileTask{kind: KindFrom, name: FromFile, render: x.from.GenFrom})
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(x.workers)
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return x.generateFile(ctx, f)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	m := x.writer.Metrics()
	log.Info("generation complete", "files", len(files), "written", m.FilesGenerated, "unchanged", m.FilesUnchanged)
	return nil
}

// generateFile renders, writes and records a single file.
func (x *Generator) generateFile(ctx context.Context, f fileTask) error {
	start := time.Now()
	b, err := f.render()
	x.metrics.rendered(time.Since(start))
	if err != nil {
		x.metrics.file(f.kind, ResultFailed)
		return NewGenerationError(f.kind, f.name, "render", err)
	}
	if err := x.writer.WriteFile(ctx, f.kind, f.name, b); err != nil {
		return err
	}
	if f.node != nil && x.ledger != nil && x.writer.diff == nil {
		return x.ledger.MarkGenerated(ctx, x.graph.Model.Name(), f.node.ID, x.now())
	}
	return nil
}

func (x *Generator) exists(name string) bool {
	_, err := os.Stat(filepath.Join(x.graph.Target, name))
	return !errors.Is(err, fs.ErrNotExist)
}
