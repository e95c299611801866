package gen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/grace/compiler/buffer"
)

// dogFile renders a small type file with an editable body.
func dogFile(body string) *buffer.Buffer {
	b := buffer.New()
	b.Line("// Dog")
	_ = b.Block(buffer.IgnoreOrig, "dog-struct", func() error {
		b.Line("pub struct Dog {")
		b.Line("    ", body)
		b.Line("}")
		return nil
	})
	return b
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriterWriteFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w := NewWriter(dir, nil)
	path := filepath.Join(dir, "types", "dog.rs")

	require.NoError(t, w.WriteFile(ctx, KindType, "types/dog.rs", dogFile("pub name: String,")))
	assert.Contains(t, readFile(t, path), "pub name: String,")
	assert.Equal(t, 1, w.Metrics().FilesGenerated)

	t.Run("same text is unchanged", func(t *testing.T) {
		require.NoError(t, w.WriteFile(ctx, KindType, "types/dog.rs", dogFile("pub name: String,")))
		assert.Equal(t, 1, w.Metrics().FilesUnchanged)
	})

	t.Run("ignore-orig block is replaced", func(t *testing.T) {
		require.NoError(t, w.WriteFile(ctx, KindType, "types/dog.rs", dogFile("pub age: i64,")))
		got := readFile(t, path)
		assert.Contains(t, got, "pub age: i64,")
		assert.NotContains(t, got, "pub name: String,")
		assert.Equal(t, 2, w.Metrics().FilesGenerated)
	})

	t.Run("text outside blocks is kept", func(t *testing.T) {
		edited := strings.Replace(readFile(t, path), "// Dog", "// Dog, hand written", 1)
		require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
		require.NoError(t, w.WriteFile(ctx, KindType, "types/dog.rs", dogFile("pub age: i64,")))
		assert.Contains(t, readFile(t, path), "// Dog, hand written")
	})

	assert.Positive(t, w.Metrics().TotalBytes)
}

func TestWriterFormatter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fail := true
	f := buffer.FormatterFunc(func(_ context.Context, src []byte) ([]byte, error) {
		if fail {
			return nil, errors.New("rustfmt: expected `;`")
		}
		return bytes.ToUpper(src), nil
	})
	w := NewWriter(dir, f)
	path := filepath.Join(dir, StoreFile)

	err := w.WriteFile(ctx, KindStore, StoreFile, dogFile("pub name: String,"))
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.Contains(t, err.Error(), "store.rs.error")
	assert.NoFileExists(t, path)
	assert.Contains(t, readFile(t, path+".error"), "pub name: String,")

	fail = false
	require.NoError(t, w.WriteFile(ctx, KindStore, StoreFile, dogFile("pub name: String,")))
	assert.Contains(t, readFile(t, path), "PUB NAME: STRING,")
	assert.NoFileExists(t, path+".error")
}

func TestWriterRenderError(t *testing.T) {
	m := NewMetrics()
	w := NewWriter(t.TempDir(), buffer.Nop).WithMetrics(m)
	b := buffer.New()
	_ = b.Block(buffer.IgnoreOrig, "", func() error { return nil })

	err := w.WriteFile(context.Background(), KindType, "types/dog.rs", b)
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.True(t, buffer.IsFormatError(err))
}

func TestWriterDiff(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, NewWriter(dir, nil).WriteFile(ctx, KindType, "types/dog.rs", dogFile("pub name: String,")))

	var out bytes.Buffer
	w := NewWriter(dir, nil).WithDiff(&out)
	require.NoError(t, w.WriteFile(ctx, KindType, "types/dog.rs", dogFile("pub age: i64,")))

	assert.Contains(t, out.String(), "--- a/types/dog.rs\n+++ b/types/dog.rs\n")
	assert.Contains(t, out.String(), "-    pub name: String,\n")
	assert.Contains(t, out.String(), "+    pub age: i64,\n")
	assert.Contains(t, readFile(t, filepath.Join(dir, "types", "dog.rs")), "pub name: String,")
	assert.Zero(t, w.Metrics().FilesGenerated)
}
