// Package buffer holds generated text. Generated code is organized in
// named blocks whose directives tell the merge how to treat an existing
// copy of the file: replace it, keep the hand edits in it, or keep the
// old text commented out.
package buffer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Directive tells the merge how to treat the existing text of a block.
type Directive uint8

// Block directives.
const (
	// IgnoreOrig replaces the existing text with the generated one.
	IgnoreOrig Directive = iota
	// AllowEditing keeps hand edits. Blocks nested inside are merged on
	// their own.
	AllowEditing
	// CommentOrig replaces the existing text and keeps the lines that
	// changed, commented out, above the new text.
	CommentOrig
)

var directiveNames = [...]string{
	IgnoreOrig:   "ignore-orig",
	AllowEditing: "allow-editing",
	CommentOrig:  "comment-orig",
}

// String returns the directive name.
func (d Directive) String() string {
	if int(d) < len(directiveNames) {
		return directiveNames[d]
	}
	return fmt.Sprintf("Directive(%d)", d)
}

// ParseDirective parses a directive name.
func ParseDirective(s string) (Directive, error) {
	for d, name := range directiveNames {
		if name == s {
			return Directive(d), nil
		}
	}
	return IgnoreOrig, NewFormatError("", "unknown directive "+s)
}

// Magic identifies marker comments.
const Magic = "🐶"

// marker is the payload of a block marker comment.
type marker struct {
	Magic     string `json:"magic"`
	Directive string `json:"directive"`
	Tag       string `json:"tag"`
	End       bool   `json:"end,omitempty"`
}

// markerLine returns the comment line that opens or closes a block.
func markerLine(d Directive, tag string, end bool) string {
	b, _ := json.Marshal(marker{Magic: Magic, Directive: d.String(), Tag: tag, End: end})
	return "// " + string(b)
}

// parseMarker reports whether line is a block marker and decodes it.
func parseMarker(line string) (*marker, bool, error) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "// {") || !strings.Contains(s, Magic) {
		return nil, false, nil
	}
	m := &marker{}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(s, "// ")), m); err != nil {
		return nil, false, nil
	}
	if m.Magic != Magic {
		return nil, false, nil
	}
	if m.Tag == "" {
		return nil, true, NewFormatError("", "marker without a tag")
	}
	return m, true, nil
}

// Buffer accumulates generated lines.
type Buffer struct {
	sb   strings.Builder
	open []string
	tags []map[string]bool
	err  error
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{tags: []map[string]bool{{}}}
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.sb.Write(p)
}

// Printf writes formatted text.
func (b *Buffer) Printf(format string, args ...any) {
	fmt.Fprintf(&b.sb, format, args...)
}

// Line writes the given parts followed by a newline.
func (b *Buffer) Line(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
	b.sb.WriteByte('\n')
}

// Lines writes each line followed by a newline.
func (b *Buffer) Lines(lines []string) {
	for _, l := range lines {
		b.Line(l)
	}
}

// Blank writes an empty line.
func (b *Buffer) Blank() { b.sb.WriteByte('\n') }

// Block writes a named block whose content fn produces. Tags must be
// unique among sibling blocks.
func (b *Buffer) Block(d Directive, tag string, fn func() error) error {
	if tag == "" {
		return b.fail(NewFormatError("", "block without a tag"))
	}
	if int(d) >= len(directiveNames) {
		return b.fail(NewFormatError(tag, "unknown directive"))
	}
	siblings := b.tags[len(b.tags)-1]
	if siblings[tag] {
		return b.fail(NewFormatError(tag, "duplicate block tag"))
	}
	siblings[tag] = true
	b.Line(markerLine(d, tag, false))
	b.open = append(b.open, tag)
	b.tags = append(b.tags, map[string]bool{})
	err := fn()
	b.open = b.open[:len(b.open)-1]
	b.tags = b.tags[:len(b.tags)-1]
	if err != nil {
		return b.fail(err)
	}
	b.Line(markerLine(d, tag, true))
	return nil
}

func (b *Buffer) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

// Err returns the first error a block reported.
func (b *Buffer) Err() error { return b.err }

// Bytes returns the buffered text.
func (b *Buffer) Bytes() []byte { return []byte(b.sb.String()) }

// String returns the buffered text.
func (b *Buffer) String() string { return b.sb.String() }

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int { return b.sb.Len() }
