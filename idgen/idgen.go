// Package idgen generates identifiers for extraction runs.
//
// Run ids are "run_" followed by a UUIDv7 so the ledger sorts by creation
// time even when two runs start in the same second.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RunPrefix is prepended to every run id.
const RunPrefix = "run_"

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is UUIDv7.
var Default Generator = UUIDv7()

// Run generates extraction run ids.
var Run Generator = Prefixed(RunPrefix, Default)

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// ParseRun validates a run id and returns its UUID part.
func ParseRun(id string) (string, error) {
	rest, ok := strings.CutPrefix(id, RunPrefix)
	if !ok {
		return "", fmt.Errorf("idgen: run id %q lacks %q prefix", id, RunPrefix)
	}
	u, err := uuid.Parse(rest)
	if err != nil {
		return "", fmt.Errorf("idgen: invalid run id %q: %w", id, err)
	}
	return u.String(), nil
}
