package buffer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirective(t *testing.T) {
	for _, d := range []Directive{IgnoreOrig, AllowEditing, CommentOrig} {
		got, err := ParseDirective(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDirective("rewrite")
	assert.True(t, IsFormatError(err))
}

func TestBufferBlock(t *testing.T) {
	b := New()
	err := b.Block(AllowEditing, "file", func() error {
		b.Line("use uuid::Uuid;")
		return b.Block(IgnoreOrig, "dog-struct", func() error {
			b.Printf("pub struct %s;\n", "Dog")
			return nil
		})
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, `// {"magic":"🐶","directive":"allow-editing","tag":"file"}`, lines[0])
	assert.Equal(t, "use uuid::Uuid;", lines[1])
	assert.Equal(t, `// {"magic":"🐶","directive":"ignore-orig","tag":"dog-struct"}`, lines[2])
	assert.Equal(t, "pub struct Dog;", lines[3])
	assert.Equal(t, `// {"magic":"🐶","directive":"ignore-orig","tag":"dog-struct","end":true}`, lines[4])
	assert.Equal(t, `// {"magic":"🐶","directive":"allow-editing","tag":"file","end":true}`, lines[5])
}

func TestBufferBlockErrors(t *testing.T) {
	t.Run("EmptyTag", func(t *testing.T) {
		b := New()
		err := b.Block(IgnoreOrig, "", func() error { return nil })
		assert.True(t, IsFormatError(err))
		assert.ErrorIs(t, b.Err(), ErrFormat)
	})
	t.Run("DuplicateSibling", func(t *testing.T) {
		b := New()
		require.NoError(t, b.Block(IgnoreOrig, "a", func() error { return nil }))
		err := b.Block(IgnoreOrig, "a", func() error { return nil })
		assert.True(t, IsFormatError(err))
	})
	t.Run("SameTagNested", func(t *testing.T) {
		b := New()
		err := b.Block(AllowEditing, "a", func() error {
			return b.Block(IgnoreOrig, "a", func() error { return nil })
		})
		assert.NoError(t, err, "tags are scoped to their siblings")
	})
	t.Run("CallbackError", func(t *testing.T) {
		b := New()
		boom := errors.New("boom")
		err := b.Block(IgnoreOrig, "a", func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NotContains(t, b.String(), `"end":true`)
	})
}

func blockText(d Directive, tag string, body ...string) string {
	lines := []string{markerLine(d, tag, false)}
	lines = append(lines, body...)
	lines = append(lines, markerLine(d, tag, true))
	return strings.Join(lines, "\n")
}

func file(parts ...string) []byte {
	return []byte(strings.Join(parts, "\n") + "\n")
}

func TestMerge(t *testing.T) {
	t.Run("NoOriginal", func(t *testing.T) {
		gen := file(blockText(IgnoreOrig, "a", "x"))
		out, err := Merge(nil, gen)
		require.NoError(t, err)
		assert.Equal(t, gen, out)
	})
	t.Run("IgnoreOrigReplaces", func(t *testing.T) {
		orig := file("// hand written", blockText(IgnoreOrig, "a", "old"))
		gen := file(blockText(IgnoreOrig, "a", "new"))
		out, err := Merge(orig, gen)
		require.NoError(t, err)
		assert.Equal(t, string(file("// hand written", blockText(IgnoreOrig, "a", "new"))), string(out))
	})
	t.Run("AllowEditingKeepsEdits", func(t *testing.T) {
		orig := file(blockText(AllowEditing, "f",
			"fn helper() {}",
			blockText(IgnoreOrig, "s", "old"),
		))
		gen := file(blockText(AllowEditing, "f",
			blockText(IgnoreOrig, "s", "new"),
		))
		out, err := Merge(orig, gen)
		require.NoError(t, err)
		want := file(blockText(AllowEditing, "f",
			"fn helper() {}",
			blockText(IgnoreOrig, "s", "new"),
		))
		assert.Equal(t, string(want), string(out))
	})
	t.Run("DroppedAndNewBlocks", func(t *testing.T) {
		orig := file(blockText(IgnoreOrig, "a", "1"), blockText(IgnoreOrig, "gone", "2"), blockText(IgnoreOrig, "c", "3"))
		gen := file(blockText(IgnoreOrig, "a", "1"), blockText(IgnoreOrig, "b", "new"), blockText(IgnoreOrig, "c", "3"))
		out, err := Merge(orig, gen)
		require.NoError(t, err)
		assert.Equal(t, string(gen), string(out))
	})
	t.Run("CommentOrigIsStable", func(t *testing.T) {
		orig := file(blockText(CommentOrig, "a", "let x = 1;"))
		gen := file(blockText(CommentOrig, "a", "let x = 2;"))
		once, err := Merge(orig, gen)
		require.NoError(t, err)
		assert.Equal(t, string(file(blockText(CommentOrig, "a", "// let x = 1;", "let x = 2;"))), string(once))

		twice, err := Merge(once, gen)
		require.NoError(t, err)
		assert.Equal(t, string(once), string(twice))
	})
	t.Run("Unbalanced", func(t *testing.T) {
		_, err := Merge([]byte(markerLine(IgnoreOrig, "a", false)+"\n"), file(blockText(IgnoreOrig, "a")))
		assert.True(t, IsFormatError(err))

		_, err = Merge(nil, []byte(markerLine(IgnoreOrig, "a", true)+"\n"))
		assert.True(t, IsFormatError(err))
	})
	t.Run("Idempotent", func(t *testing.T) {
		gen := file(blockText(AllowEditing, "f", "use x;", blockText(IgnoreOrig, "s", "body")))
		out, err := Merge(gen, gen)
		require.NoError(t, err)
		assert.Equal(t, string(gen), string(out))
	})
}

func TestRustfmt(t *testing.T) {
	saved := runCommand
	t.Cleanup(func() { runCommand = saved })

	t.Run("Success", func(t *testing.T) {
		var gotArgs []string
		runCommand = func(_ context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
			gotArgs = append([]string{name}, args...)
			return []byte(strings.ToUpper(string(stdin))), nil, nil
		}
		out, err := Rustfmt{}.Format(context.Background(), []byte("fn x() {}"))
		require.NoError(t, err)
		assert.Equal(t, "FN X() {}", string(out))
		assert.Equal(t, []string{"rustfmt", "--edition", "2021", "--emit", "stdout"}, gotArgs)
	})
	t.Run("Failure", func(t *testing.T) {
		runCommand = func(context.Context, []byte, string, ...string) ([]byte, []byte, error) {
			return nil, []byte("error: expected item\n"), errors.New("exit status 1")
		}
		src := []byte("fn (")
		_, err := Rustfmt{Path: "/opt/rustfmt", Edition: "2018"}.Format(context.Background(), src)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFormatter)
		var fe *FormatterError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, src, fe.Input)
		assert.Contains(t, fe.Error(), "expected item")
		assert.Contains(t, fe.Command, "/opt/rustfmt --edition 2018")
	})
	t.Run("Nop", func(t *testing.T) {
		out, err := Nop.Format(context.Background(), []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "x", string(out))
	})
}
