// Package store is the data access layer for the unified database.
//
// The unified database is append-only: every record table carries a UNIQUE
// record_hash and a duplicate insert is reported as a skip, never an update.
// The extraction_runs ledger is the only table whose rows are modified.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/quantself/dbopen"
)

// FileName is the unified database file inside the output directory.
const FileName = "unified.db"

// Store wraps the unified database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
// The schema must already be applied (see ApplySchema).
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Path returns the unified database path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Open opens (creating if needed) the unified database in dir and applies
// the schema. Extra dbopen options are appended to the defaults.
func Open(dir string, opts ...dbopen.Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create output dir: %w", err)
	}
	opts = append([]dbopen.Option{dbopen.WithSchema(Schema)}, opts...)
	db, err := dbopen.Open(Path(dir), opts...)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", Path(dir), err)
	}
	return NewStore(db), nil
}

// OpenReadOnly opens an existing unified database in dir without applying
// the schema. It returns an error wrapping fs.ErrNotExist when the file is
// absent.
func OpenReadOnly(dir string, opts ...dbopen.Option) (*Store, error) {
	path := Path(dir)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	opts = append([]dbopen.Option{dbopen.WithReadOnly()}, opts...)
	db, err := dbopen.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return NewStore(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
