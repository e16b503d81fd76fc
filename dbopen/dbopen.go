// Package dbopen opens SQLite databases with a fixed set of pragmas applied
// via EXEC, so every store in footprint is configured the same way.
//
// Default pragmas:
//
//	foreign_keys = ON
//	journal_mode = WAL
//	busy_timeout = 10000
//	synchronous  = NORMAL
//
// The pool is pinned to a single connection: pragmas are per-connection and
// footprint never writes from more than one goroutine.
//
// Usage:
//
//	db, err := dbopen.Open("data/unified.db", dbopen.WithMkdirAll())
//
// Opening another application's database:
//
//	db, err := dbopen.Open(path, dbopen.WithReadOnly(), dbopen.WithJournalMode(""))
//
// In tests:
//
//	db := dbopen.OpenMemory(t)
package dbopen

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

type config struct {
	driver       string
	busyTimeout  int
	synchronous  string
	journalMode  string
	foreignKeys  bool
	readOnly     bool
	mkdirAll     bool
	maxOpenConns int
	schemas      []string
}

func defaults() config {
	return config{
		driver:       "sqlite",
		busyTimeout:  10_000,
		synchronous:  "NORMAL",
		journalMode:  "WAL",
		foreignKeys:  true,
		maxOpenConns: 1,
	}
}

// Option customises Open behaviour.
type Option func(*config)

// WithDriver sets the database/sql driver name. Default: "sqlite".
func WithDriver(name string) Option { return func(c *config) { c.driver = name } }

// WithTrace is shorthand for WithDriver("sqlite-trace"). The trace package
// must be imported for the driver to be registered.
func WithTrace() Option { return WithDriver("sqlite-trace") }

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithJournalMode sets PRAGMA journal_mode. Default: "WAL".
// An empty mode leaves the file's journal mode untouched, which is what a
// copied database must keep so that its WAL sidecar can still be replayed.
func WithJournalMode(mode string) Option { return func(c *config) { c.journalMode = mode } }

// WithReadOnly opens the file through a "file:...?mode=ro" URI. Implies
// WithJournalMode("") since a read-only handle cannot switch modes.
func WithReadOnly() Option {
	return func(c *config) {
		c.readOnly = true
		c.journalMode = ""
	}
}

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithMaxOpenConns overrides the single-connection pool.
func WithMaxOpenConns(n int) Option { return func(c *config) { c.maxOpenConns = n } }

// WithSchema queues inline SQL to execute after pragmas are applied.
func WithSchema(s string) Option { return func(c *config) { c.schemas = append(c.schemas, s) } }

// WithoutForeignKeys disables PRAGMA foreign_keys.
func WithoutForeignKeys() Option { return func(c *config) { c.foreignKeys = false } }

// Open opens an SQLite database at path with the configured pragmas.
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir: %w", err)
		}
	}

	dsn := path
	if cfg.readOnly {
		var err error
		if dsn, err = readOnlyDSN(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(cfg.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open: %w", err)
	}
	if cfg.maxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.maxOpenConns)
	}

	if err := applyPragmas(db, &cfg); err != nil {
		db.Close()
		return nil, err
	}

	for _, s := range cfg.schemas {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: exec schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: ping: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing.
// Each connection to ":memory:" is a separate database, so the pool is kept
// at one connection. The database is closed through t.Cleanup.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	opts = append(opts, WithMaxOpenConns(1))
	db, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("dbopen: abs path: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}
	return u.String(), nil
}

func applyPragmas(db *sql.DB, cfg *config) error {
	fk := "ON"
	if !cfg.foreignKeys {
		fk = "OFF"
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA foreign_keys = %s", fk),
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
	}
	if cfg.journalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA journal_mode = %s", cfg.journalMode))
	}
	if !cfg.readOnly {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous))
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("dbopen: %s: %w", p, err)
		}
	}
	return nil
}
