// Package dialect defines the database abstraction the generation
// ledger is stored through.
//
// # Supported Dialects
//
//	dialect.SQLite   = "sqlite"   (modernc.org/sqlite, no cgo)
//	dialect.MySQL    = "mysql"    (github.com/go-sql-driver/mysql)
//	dialect.Postgres = "postgres" (github.com/lib/pq)
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver, query statistics and the Ledger
//   - dialect/sqlschema: per-dialect DDL and placeholder rebinding
package dialect
