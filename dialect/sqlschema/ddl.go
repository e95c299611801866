// Package sqlschema renders the ledger table DDL and adapts statements to
// the placeholder syntax of each dialect.
//
//	stmts, err := sqlschema.CreateLedger(dialect.Postgres, "grace_ledger")
//	q := sqlschema.Rebind(dialect.Postgres, "SELECT x FROM t WHERE a = ? AND b = ?")
//	// SELECT x FROM t WHERE a = $1 AND b = $2
package sqlschema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/grace/dialect"
)

// DefaultTable is the default ledger table name.
const DefaultTable = "grace_ledger"

var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdentifier reports whether s may be used as a table name.
func ValidIdentifier(s string) bool {
	return s != "" && len(s) <= 64 && validIdentifierRe.MatchString(s)
}

// Column of the ledger table.
type Column struct {
	Name string
	// Types holds the column type per dialect.
	Types map[string]string
}

// LedgerColumns are the columns of the ledger table, in order. The
// domain and object columns form the primary key. generated_at holds
// unix nanoseconds.
var LedgerColumns = []Column{
	{Name: "domain", Types: map[string]string{
		dialect.SQLite:   "TEXT",
		dialect.MySQL:    "VARCHAR(255)",
		dialect.Postgres: "TEXT",
	}},
	{Name: "object", Types: map[string]string{
		dialect.SQLite:   "TEXT",
		dialect.MySQL:    "CHAR(36)",
		dialect.Postgres: "UUID",
	}},
	{Name: "generated_at", Types: map[string]string{
		dialect.SQLite:   "INTEGER",
		dialect.MySQL:    "BIGINT",
		dialect.Postgres: "BIGINT",
	}},
}

// CreateLedger returns the statements creating the ledger table.
func CreateLedger(d, table string) ([]string, error) {
	if !dialect.Supported(d) {
		return nil, fmt.Errorf("sqlschema: unsupported dialect %q", d)
	}
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("sqlschema: invalid table name %q", table)
	}
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(Quote(d, table))
	b.WriteString(" (")
	for i, c := range LedgerColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Quote(d, c.Name))
		b.WriteByte(' ')
		b.WriteString(c.Types[d])
		b.WriteString(" NOT NULL")
	}
	fmt.Fprintf(&b, ", PRIMARY KEY (%s, %s))", Quote(d, "domain"), Quote(d, "object"))
	return []string{b.String()}, nil
}

// Quote quotes an identifier for the dialect.
func Quote(d, ident string) string {
	if d == dialect.MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// Rebind rewrites "?" placeholders into the dialect syntax. Postgres
// uses $1, $2, ...; the others keep "?".
func Rebind(d, query string) string {
	if d != dialect.Postgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
