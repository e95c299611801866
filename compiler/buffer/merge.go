package buffer

import (
	"strings"
)

// segment is either a run of plain lines or a block.
type segment struct {
	lines []string
	block *block
}

type block struct {
	directive Directive
	tag       string
	start     string // marker lines as written
	end       string
	children  []segment
}

// parse splits text into segments. Blocks nest.
func parse(text string) ([]segment, error) {
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	segs, rest, err := parseSegments(lines, 0, nil)
	if err != nil {
		return nil, err
	}
	if rest != len(lines) {
		return nil, &FormatError{Line: rest + 1, Message: "unexpected block end"}
	}
	return segs, nil
}

// parseSegments parses lines[i:] until the end of the open block, if any.
// It returns the segments and the index of the closing marker, or
// len(lines) at the top level.
func parseSegments(lines []string, i int, open *block) ([]segment, int, error) {
	var (
		segs []segment
		text []string
		seen = map[string]bool{}
	)
	flush := func() {
		if len(text) > 0 {
			segs = append(segs, segment{lines: text})
			text = nil
		}
	}
	for i < len(lines) {
		m, ok, err := parseMarker(lines[i])
		if err != nil {
			return nil, i, &FormatError{Line: i + 1, Message: err.(*FormatError).Message}
		}
		if !ok {
			text = append(text, lines[i])
			i++
			continue
		}
		d, err := ParseDirective(m.Directive)
		if err != nil {
			return nil, i, &FormatError{Tag: m.Tag, Line: i + 1, Message: "unknown directive " + m.Directive}
		}
		if m.End {
			if open == nil || open.tag != m.Tag {
				return nil, i, &FormatError{Tag: m.Tag, Line: i + 1, Message: "end marker without a matching start"}
			}
			flush()
			return segs, i, nil
		}
		if seen[m.Tag] {
			return nil, i, &FormatError{Tag: m.Tag, Line: i + 1, Message: "duplicate block tag"}
		}
		seen[m.Tag] = true
		flush()
		b := &block{directive: d, tag: m.Tag, start: lines[i]}
		children, end, err := parseSegments(lines, i+1, b)
		if err != nil {
			return nil, end, err
		}
		if end >= len(lines) {
			return nil, end, &FormatError{Tag: m.Tag, Line: i + 1, Message: "block is never closed"}
		}
		b.children = children
		b.end = lines[end]
		segs = append(segs, segment{block: b})
		i = end + 1
	}
	if open != nil {
		return nil, len(lines), &FormatError{Tag: open.tag, Message: "block is never closed"}
	}
	flush()
	return segs, len(lines), nil
}

// Merge combines the existing text of a file with freshly generated
// text. Text outside blocks comes from the existing file. Blocks are
// matched by tag and treated per the generated block's directive;
// blocks no longer generated are dropped and new ones are placed after
// their generated predecessor. An empty orig yields gen.
func Merge(orig, gen []byte) ([]byte, error) {
	g, err := parse(string(gen))
	if err != nil {
		return nil, err
	}
	if len(orig) == 0 {
		return gen, nil
	}
	o, err := parse(string(orig))
	if err != nil {
		return nil, err
	}
	var lines []string
	render(&lines, mergeSegments(o, g))
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

func mergeSegments(orig, gen []segment) []segment {
	genBlocks := map[string]*block{}
	for _, s := range gen {
		if s.block != nil {
			genBlocks[s.block.tag] = s.block
		}
	}
	var (
		out    []segment
		placed = map[string]bool{}
	)
	for _, s := range orig {
		if s.block == nil {
			out = append(out, s)
			continue
		}
		gb, ok := genBlocks[s.block.tag]
		if !ok {
			continue
		}
		out = append(out, segment{block: mergeBlock(s.block, gb)})
		placed[gb.tag] = true
	}
	// Place new blocks after their nearest generated predecessor.
	prev := ""
	for _, s := range gen {
		if s.block == nil {
			continue
		}
		if !placed[s.block.tag] {
			out = insertAfter(out, prev, segment{block: s.block})
			placed[s.block.tag] = true
		}
		prev = s.block.tag
	}
	return out
}

// insertAfter inserts seg after the block tagged prev, or before the
// first block when prev is empty or absent.
func insertAfter(segs []segment, prev string, seg segment) []segment {
	at := -1
	for i, s := range segs {
		if s.block != nil && s.block.tag == prev && prev != "" {
			at = i + 1
			break
		}
	}
	if at < 0 {
		at = len(segs)
		for i, s := range segs {
			if s.block != nil {
				at = i
				break
			}
		}
	}
	out := make([]segment, 0, len(segs)+1)
	out = append(out, segs[:at]...)
	out = append(out, seg)
	return append(out, segs[at:]...)
}

func mergeBlock(orig, gen *block) *block {
	switch gen.directive {
	case AllowEditing:
		return &block{
			directive: gen.directive,
			tag:       gen.tag,
			start:     gen.start,
			end:       gen.end,
			children:  mergeSegments(orig.children, gen.children),
		}
	case CommentOrig:
		var old, cur []string
		render(&old, orig.children)
		render(&cur, gen.children)
		keep := map[string]bool{}
		for _, l := range cur {
			keep[strings.TrimSpace(l)] = true
		}
		var commented []string
		for _, l := range old {
			t := strings.TrimSpace(l)
			switch {
			case t == "" || keep[t]:
			case strings.HasPrefix(t, "//"):
				commented = append(commented, l)
			default:
				commented = append(commented, "// "+l)
			}
		}
		children := gen.children
		if len(commented) > 0 {
			children = append([]segment{{lines: commented}}, children...)
		}
		return &block{directive: gen.directive, tag: gen.tag, start: gen.start, end: gen.end, children: children}
	}
	return gen
}

func render(lines *[]string, segs []segment) {
	for _, s := range segs {
		if s.block == nil {
			*lines = append(*lines, s.lines...)
			continue
		}
		*lines = append(*lines, s.block.start)
		render(lines, s.block.children)
		*lines = append(*lines, s.block.end)
	}
}
