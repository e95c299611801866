// Package sql stores the generation ledger in a SQL database.
//
// The ledger records, per domain and object, when the object's file was
// last generated. The generator consults it to skip objects that did not
// change since.
//
//	l, err := sql.OpenLedger(ctx, dialect.SQLite, "file:.grace/ledger.db")
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//	err = gen.NewGenerator(g).
//	    WithBackend(rust.NewBackend(g)).
//	    WithLedger(l).
//	    Generate(ctx)
//
// # Drivers
//
// The package imports the drivers of every supported dialect:
// modernc.org/sqlite ("sqlite"), github.com/go-sql-driver/mysql
// ("mysql") and github.com/lib/pq ("postgres").
//
// # Statistics
//
// NewStatsDriver wraps a driver with statement counters and logs
// statements slower than a threshold.
package sql
