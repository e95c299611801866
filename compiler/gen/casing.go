package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// words splits a model name into words at separators and case changes.
// "Object Store", "object_store" and "ObjectStore" all split into
// [Object Store].
func words(s string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// TypeName returns the upper camel case type name of a model name.
//
//	TypeName("object store") == "ObjectStore"
func TypeName(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(titleCaser.String(w))
	}
	return b.String()
}

// Ident returns the snake case identifier of a model name.
//
//	Ident("Object Store") == "object_store"
func Ident(s string) string {
	name := TypeName(s)
	if name == "" {
		return ""
	}
	id := strings.ToLower(inflect.Underscore(name))
	if isKeyword(id) {
		return "x_" + id
	}
	return id
}

// ConstName returns the screaming snake case constant name of a model name.
func ConstName(s string) string {
	return strings.ToUpper(inflect.Underscore(TypeName(s)))
}

var keywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "crate": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true,
	"mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "self": true, "static": true, "struct": true, "super": true,
	"trait": true, "true": true, "type": true, "unsafe": true, "use": true,
	"where": true, "while": true,
}

// isKeyword reports whether s is a reserved word of the emitted language.
func isKeyword(s string) bool {
	return keywords[s]
}
