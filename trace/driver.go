package trace

import (
	"context"
	"database/sql/driver"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/quantself/kit"
)

// TracingDriver wraps the modernc.org/sqlite driver, intercepting every
// Exec and Query at the database/sql/driver level.
type TracingDriver struct {
	driver.Driver
}

func (d *TracingDriver) Open(name string) (driver.Conn, error) {
	conn, err := d.Driver.Open(name)
	if err != nil {
		return nil, err
	}
	return &tracingConn{Conn: conn}, nil
}

type tracingConn struct {
	driver.Conn
}

func (c *tracingConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.Conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &tracingStmt{Stmt: stmt, query: query}, nil
}

func (c *tracingConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if pc, ok := c.Conn.(driver.ConnPrepareContext); ok {
		stmt, err := pc.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return &tracingStmt{Stmt: stmt, query: query}, nil
	}
	return c.Prepare(query)
}

func (c *tracingConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if bc, ok := c.Conn.(driver.ConnBeginTx); ok {
		return bc.BeginTx(ctx, opts)
	}
	return c.Conn.Begin() //nolint:staticcheck // fallback for drivers without BeginTx
}

type tracingStmt struct {
	driver.Stmt
	query string
}

func (s *tracingStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	var result driver.Result
	var err error
	if ec, ok := s.Stmt.(driver.StmtExecContext); ok {
		result, err = ec.ExecContext(ctx, args)
	} else {
		result, err = s.Stmt.Exec(namedToValues(args)) //nolint:staticcheck
	}
	s.record(ctx, "Exec", time.Since(start), err)
	return result, err
}

func (s *tracingStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	start := time.Now()
	var rows driver.Rows
	var err error
	if qc, ok := s.Stmt.(driver.StmtQueryContext); ok {
		rows, err = qc.QueryContext(ctx, args)
	} else {
		rows, err = s.Stmt.Query(namedToValues(args)) //nolint:staticcheck
	}
	s.record(ctx, "Query", time.Since(start), err)
	return rows, err
}

func (s *tracingStmt) record(ctx context.Context, op string, d time.Duration, err error) {
	// dbopen issues a handful of PRAGMAs per open; only slow or failed ones matter.
	if err == nil && d < 10*time.Millisecond && strings.HasPrefix(s.query, "PRAGMA ") {
		return
	}

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	} else if d > SlowThreshold {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("component", "sql"),
		slog.String("op", op),
		slog.String("query", compact(s.query)),
		slog.Duration("duration", d),
	}
	if id := kit.GetRunID(ctx); id != "" {
		attrs = append(attrs, slog.String("run_id", id))
	}
	if src := kit.GetSource(ctx); src != "" {
		attrs = append(attrs, slog.String("source", src))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	getLogger().LogAttrs(ctx, level, "SQL", attrs...)
}

// compact folds the multi-line queries used by the collectors onto one line.
func compact(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

func namedToValues(named []driver.NamedValue) []driver.Value {
	vals := make([]driver.Value, len(named))
	for i, nv := range named {
		vals[i] = nv.Value
	}
	return vals
}
