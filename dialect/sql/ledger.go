package sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/grace/compiler/gen"
	"github.com/syssam/grace/dialect"
	"github.com/syssam/grace/dialect/sqlschema"
)

// Ledger is a gen.Ledger stored in a SQL table, keyed by domain name and
// object id. It is safe for concurrent use.
type Ledger struct {
	drv   dialect.Driver
	table string
	log   *slog.Logger
	stats *StatsDriver
}

var _ gen.Ledger = (*Ledger)(nil)

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithTable sets the ledger table name.
func WithTable(name string) LedgerOption {
	return func(l *Ledger) {
		l.table = name
	}
}

// WithLedgerLogger sets the ledger logger.
func WithLedgerLogger(log *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithStats records statement statistics of the ledger and logs slow
// statements.
//
//	l, err := sql.OpenLedger(ctx, dialect.SQLite, dsn, sql.WithStats(sql.WithSlowThreshold(50*time.Millisecond)))
func WithStats(opts ...StatsOption) LedgerOption {
	return func(l *Ledger) {
		l.stats = NewStatsDriver(l.drv, opts...)
		l.drv = l.stats
	}
}

// NewLedger returns a ledger stored through drv. Call Migrate before
// first use on a fresh database.
func NewLedger(drv dialect.Driver, opts ...LedgerOption) *Ledger {
	l := &Ledger{drv: drv, table: sqlschema.DefaultTable, log: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OpenLedger opens the database and creates the ledger table if needed.
//
//	l, err := sql.OpenLedger(ctx, dialect.SQLite, "file:.grace/ledger.db")
func OpenLedger(ctx context.Context, d, source string, opts ...LedgerOption) (*Ledger, error) {
	if !dialect.Supported(d) {
		return nil, fmt.Errorf("dialect/sql: unsupported ledger dialect %q", d)
	}
	drv, err := Open(d, source)
	if err != nil {
		return nil, err
	}
	l := NewLedger(drv, opts...)
	if err := l.Migrate(ctx); err != nil {
		return nil, errors.Join(err, drv.Close())
	}
	return l, nil
}

// Stats returns the statement statistics collected since the ledger was
// opened. It reports false when the ledger was not opened WithStats.
func (l *Ledger) Stats() (StatsSnapshot, bool) {
	if l == nil || l.stats == nil {
		return StatsSnapshot{}, false
	}
	return l.stats.QueryStats().Stats(), true
}

// Driver returns the underlying driver.
func (l *Ledger) Driver() dialect.Driver { return l.drv }

// Migrate creates the ledger table if it does not exist.
func (l *Ledger) Migrate(ctx context.Context) error {
	stmts, err := sqlschema.CreateLedger(l.drv.Dialect(), l.table)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if err := l.drv.Exec(ctx, s, []any{}, nil); err != nil {
			return fmt.Errorf("dialect/sql: migrate ledger: %w", err)
		}
	}
	l.log.Debug("ledger ready", "dialect", l.drv.Dialect(), "table", l.table)
	return nil
}

func (l *Ledger) query(format string) string {
	d := l.drv.Dialect()
	return sqlschema.Rebind(d, fmt.Sprintf(format,
		sqlschema.Quote(d, l.table),
		sqlschema.Quote(d, "generated_at"),
		sqlschema.Quote(d, "domain"),
		sqlschema.Quote(d, "object"),
	))
}

// LastGenerated implements gen.Ledger.
func (l *Ledger) LastGenerated(ctx context.Context, domain string, object uuid.UUID) (time.Time, bool, error) {
	rows := &Rows{}
	q := l.query("SELECT %[2]s FROM %[1]s WHERE %[3]s = ? AND %[4]s = ?")
	if err := l.drv.Query(ctx, q, []any{domain, object.String()}, rows); err != nil {
		return time.Time{}, false, err
	}
	var ns int64
	ok, err := ScanOne(rows, &ns)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return time.Unix(0, ns).UTC(), true, nil
}

// MarkGenerated implements gen.Ledger. The row is updated in place, or
// inserted when the object was never generated.
func (l *Ledger) MarkGenerated(ctx context.Context, domain string, object uuid.UUID, at time.Time) error {
	args := []any{at.UnixNano(), domain, object.String()}
	update := l.query("UPDATE %[1]s SET %[2]s = ? WHERE %[3]s = ? AND %[4]s = ?")
	tx, err := l.drv.Tx(ctx)
	if err != nil {
		return err
	}
	var res Result
	if err := tx.Exec(ctx, update, args, &res); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if n == 0 {
		insert := l.query("INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s) VALUES (?, ?, ?)")
		if err := tx.Exec(ctx, insert, args, nil); err != nil {
			rerr := tx.Rollback()
			if !IsUniqueConstraintError(err) {
				return errors.Join(err, rerr)
			}
			// Another writer inserted the row first, or the update did
			// not change the stored value.
			return l.drv.Exec(ctx, update, args, nil)
		}
	}
	return tx.Commit()
}

// Forget removes every entry of the domain and returns how many were
// removed. The next run regenerates every object file.
func (l *Ledger) Forget(ctx context.Context, domain string) (int64, error) {
	var res Result
	q := l.query("DELETE FROM %[1]s WHERE %[3]s = ?")
	if err := l.drv.Exec(ctx, q, []any{domain}, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying driver.
func (l *Ledger) Close() error { return l.drv.Close() }
