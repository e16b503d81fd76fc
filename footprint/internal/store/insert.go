package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hazyhaar/quantself/dbopen"
)

// ErrStorage wraps every unified-store failure other than a duplicate.
var ErrStorage = errors.New("store: storage error")

// Outcome is the result of one Insert.
type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeSkipped
)

func (o Outcome) String() string {
	if o == OutcomeSkipped {
		return "skipped"
	}
	return "added"
}

var insertSQL sync.Map // table -> statement

func insertStatement(r Record) string {
	if q, ok := insertSQL.Load(r.Table()); ok {
		return q.(string)
	}
	cols := append([]string{"record_hash"}, r.Columns()...)
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.Table(), strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	insertSQL.Store(r.Table(), q)
	return q
}

// Insert appends rec to its table. A record whose hash is already present is
// reported as OutcomeSkipped and leaves the table unchanged.
func (s *Store) Insert(ctx context.Context, rec Record) (Outcome, error) {
	args := append([]any{rec.Hash()}, rec.Values()...)
	if _, err := dbopen.Exec(ctx, s.DB, insertStatement(rec), args...); err != nil {
		if dbopen.IsUniqueViolation(err) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, fmt.Errorf("%w: insert into %s: %w", ErrStorage, rec.Table(), err)
	}
	return OutcomeAdded, nil
}
