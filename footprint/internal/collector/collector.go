// Package collector extracts one source database into the unified store.
//
// Each source type has a Collector that knows where its database lives and
// how to map its rows to canonical records. Run drives a collector through
// locate, snapshot, extract and ledger finalization and always returns a
// Result, whatever fails along the way.
package collector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// Kind names a source type. The string value is the name used in the run
// ledger, snapshot file names and configuration.
type Kind string

const (
	Messages   Kind = "messages"
	Chrome     Kind = "chrome"
	KnowledgeC Kind = "knowledgeC"
	Podcasts   Kind = "podcasts"
)

var (
	ErrUnsupportedSource = errors.New("unsupported source type")
	ErrSourceNotFound    = errors.New("source database not found")
	ErrExtractionFailed  = errors.New("extraction failed")
)

// All returns every source type in extraction order.
func All() []Kind {
	return []Kind{KnowledgeC, Messages, Chrome, Podcasts}
}

// ParseKind resolves a source name case-insensitively. "knowledge" is
// accepted for knowledgeC.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "messages":
		return Messages, nil
	case "chrome":
		return Chrome, nil
	case "knowledgec", "knowledge":
		return KnowledgeC, nil
	case "podcasts":
		return Podcasts, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, s)
}

// DisplayName is the human label for k.
func (k Kind) DisplayName() string {
	switch k {
	case Messages:
		return "Messages"
	case Chrome:
		return "Chrome Browser"
	case KnowledgeC:
		return "System Activity"
	case Podcasts:
		return "Podcasts"
	}
	return string(k)
}

// Tally counts insert outcomes for one run.
type Tally struct {
	Added   int64
	Skipped int64
}

func (t *Tally) observe(out store.Outcome) {
	if out == store.OutcomeSkipped {
		t.Skipped++
		return
	}
	t.Added++
}

// Collector extracts one source type.
type Collector interface {
	Kind() Kind
	Descriptor() locate.Descriptor
	// Extract reads the snapshot src and inserts canonical records into dst.
	Extract(ctx context.Context, src *sql.DB, dst *store.Store) (Tally, error)
}

// New returns the collector for k.
func New(k Kind) (Collector, error) {
	switch k {
	case Messages:
		return messagesCollector{}, nil
	case Chrome:
		return chromeCollector{}, nil
	case KnowledgeC:
		return knowledgeCCollector{}, nil
	case Podcasts:
		return podcastsCollector{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, string(k))
}

// insert adds rec to dst and counts the outcome.
func insert(ctx context.Context, dst *store.Store, t *Tally, rec store.Record) error {
	out, err := dst.Insert(ctx, rec)
	if err != nil {
		return err
	}
	t.observe(out)
	return nil
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	return n > 0, err
}

// durationBetween is end-start in seconds when both are set and end > start.
func durationBetween(start int64, end sql.NullInt64) sql.NullFloat64 {
	if !end.Valid || end.Int64 <= start {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(end.Int64 - start), Valid: true}
}

func nonEmpty(s sql.NullString) bool {
	return s.Valid && s.String != ""
}
