package buffer

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Formatter formats generated source.
type Formatter interface {
	Format(ctx context.Context, src []byte) ([]byte, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(ctx context.Context, src []byte) ([]byte, error)

// Format implements Formatter.
func (f FormatterFunc) Format(ctx context.Context, src []byte) ([]byte, error) {
	return f(ctx, src)
}

// Nop returns the source unchanged.
var Nop Formatter = FormatterFunc(func(_ context.Context, src []byte) ([]byte, error) {
	return src, nil
})

// Rustfmt formats Rust source with the rustfmt binary, reading the
// source from stdin.
type Rustfmt struct {
	// Path is the rustfmt binary. Defaults to "rustfmt" on PATH.
	Path string
	// Edition is the Rust edition. Defaults to "2021".
	Edition string
}

// runCommand is injectable in tests.
var runCommand = func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Format implements Formatter. On failure the returned FormatterError
// holds the unformatted source and rustfmt's stderr.
func (r Rustfmt) Format(ctx context.Context, src []byte) ([]byte, error) {
	path, edition := r.Path, r.Edition
	if path == "" {
		path = "rustfmt"
	}
	if edition == "" {
		edition = "2021"
	}
	args := []string{"--edition", edition, "--emit", "stdout"}
	out, stderr, err := runCommand(ctx, src, path, args...)
	if err != nil {
		return nil, &FormatterError{
			Command: path + " " + strings.Join(args, " "),
			Stderr:  string(stderr),
			Input:   src,
			Err:     err,
		}
	}
	return out, nil
}
