package idgen

import (
	"sort"
	"strings"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	if len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Fatalf("UUIDv7: bad format %q", id)
	}
}

func TestRun_PrefixAndParse(t *testing.T) {
	id := Run()
	if !strings.HasPrefix(id, RunPrefix) {
		t.Fatalf("Run: expected prefix %q, got %q", RunPrefix, id)
	}
	u, err := ParseRun(id)
	if err != nil {
		t.Fatalf("ParseRun(%q): %v", id, err)
	}
	if u != strings.TrimPrefix(id, RunPrefix) {
		t.Fatalf("ParseRun: got %q", u)
	}
}

func TestRun_Sortable(t *testing.T) {
	// WHAT: run ids generated in sequence sort in generation order.
	// WHY: the ledger lists runs by id when timestamps tie.
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = Run()
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	for i := range ids {
		if ids[i] != sorted[i] {
			t.Fatalf("ids not monotonic at %d: %q vs %q", i, ids[i], sorted[i])
		}
	}
}

func TestParseRun_Invalid(t *testing.T) {
	for _, id := range []string{"", "run_", "run_not-a-uuid", New()} {
		if _, err := ParseRun(id); err == nil {
			t.Errorf("ParseRun(%q): expected error", id)
		}
	}
}
