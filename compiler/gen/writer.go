package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/syssam/grace/compiler/buffer"
)

// Writer merges rendered buffers into the files on disk, formats them
// and writes the ones that changed.
type Writer struct {
	outDir    string
	formatter buffer.Formatter
	diff      io.Writer
	logger    *slog.Logger
	prom      *Metrics

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation performance
type WriterMetrics struct {
	FilesGenerated int
	FilesUnchanged int
	TotalBytes     int64
	FormatTime     int64 // nanoseconds
	WriteTime      int64 // nanoseconds
}

// NewWriter creates a writer rooted at outDir.
func NewWriter(outDir string, f buffer.Formatter) *Writer {
	if f == nil {
		f = buffer.Nop
	}
	return &Writer{
		outDir:    outDir,
		formatter: f,
		logger:    slog.Default(),
		metrics:   &WriterMetrics{},
	}
}

// WithDiff turns the writer into a dry run that writes a unified diff of
// every change to w instead of touching the files.
func (w *Writer) WithDiff(out io.Writer) *Writer {
	w.diff = out
	return w
}

// WithLogger sets the logger.
func (w *Writer) WithLogger(l *slog.Logger) *Writer {
	if l != nil {
		w.logger = l
	}
	return w
}

// WithMetrics records file results in m.
func (w *Writer) WithMetrics(m *Metrics) *Writer {
	w.prom = m
	return w
}

// Metrics returns the generation metrics.
func (w *Writer) Metrics() *WriterMetrics {
	return w.metrics
}

// WriteFile writes the buffer to name, relative to the output directory.
// The existing file is merged block by block and the result formatted.
// When formatting fails the merged, unformatted text is written next to
// the file with an ".error" suffix.
func (w *Writer) WriteFile(ctx context.Context, kind, name string, b *buffer.Buffer) error {
	if err := b.Err(); err != nil {
		w.prom.file(kind, ResultFailed)
		return NewGenerationError(kind, name, "render", err)
	}
	fullPath := filepath.Join(w.outDir, name)
	existing, err := os.ReadFile(fullPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.prom.file(kind, ResultFailed)
		return fmt.Errorf("read %s: %w", name, err)
	}
	merged, err := buffer.Merge(existing, b.Bytes())
	if err != nil {
		w.prom.file(kind, ResultFailed)
		return NewGenerationError(kind, name, "merge with existing file", err)
	}

	start := time.Now()
	formatted, err := w.formatter.Format(ctx, merged)
	elapsed := time.Since(start)
	w.prom.formatted(elapsed)
	if err != nil {
		w.prom.file(kind, ResultFailed)
		// Errors intentionally ignored as we're already in error state.
		debugPath := fullPath + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, merged, 0o644)
		w.logger.Error("formatter failed", "file", name, "unformatted", debugPath, "error", err)
		return NewGenerationError(kind, name, "format (unformatted written to "+debugPath+")", err)
	}

	w.mu.Lock()
	w.metrics.FormatTime += elapsed.Nanoseconds()
	w.mu.Unlock()

	if existing != nil && bytes.Equal(existing, formatted) {
		w.prom.file(kind, ResultUnchanged)
		w.mu.Lock()
		w.metrics.FilesUnchanged++
		w.mu.Unlock()
		w.logger.Debug("file unchanged", "file", name)
		return nil
	}

	if w.diff != nil {
		return w.writeDiff(name, existing, formatted)
	}

	start = time.Now()
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		w.prom.file(kind, ResultFailed)
		return fmt.Errorf("create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		w.prom.file(kind, ResultFailed)
		return fmt.Errorf("write %s: %w", name, err)
	}
	_ = os.Remove(fullPath + ".error")

	w.prom.file(kind, ResultWritten)
	w.prom.written(len(formatted))
	w.mu.Lock()
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(formatted))
	w.metrics.WriteTime += time.Since(start).Nanoseconds()
	w.mu.Unlock()
	w.logger.Info("file written", "file", name, "bytes", len(formatted))
	return nil
}

// writeDiff writes the unified diff between the file and its new text.
func (w *Writer) writeDiff(name string, old, cur []byte) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(cur)),
		FromFile: "a/" + filepath.ToSlash(name),
		ToFile:   "b/" + filepath.ToSlash(name),
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff %s: %w", name, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.diff, text); err != nil {
		return fmt.Errorf("write diff of %s: %w", name, err)
	}
	return nil
}
