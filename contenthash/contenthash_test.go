package contenthash

import (
	"database/sql"
	"testing"
	"time"
)

func TestSumDeterministic(t *testing.T) {
	a := Sum("a", "b")
	b := Sum("a", "b")
	if a != b {
		t.Fatalf("Sum not deterministic: %s vs %s", a, b)
	}
	if len(a) != Size {
		t.Fatalf("len = %d, want %d", len(a), Size)
	}
}

func TestSumSensitive(t *testing.T) {
	if Sum("a", "b") == Sum("a", "c") {
		t.Fatal("Sum(a,b) == Sum(a,c)")
	}
}

func TestSumKnownValue(t *testing.T) {
	// sha256("a|b") truncated to 32 hex chars.
	got := Sum("a", "b")
	want := "0eab8a0a3380abf4c7d1fb0b43b66aaf"
	if got != want {
		t.Fatalf("Sum(a,b) = %s, want %s", got, want)
	}
}

func TestOfAbsentValuesAreEmpty(t *testing.T) {
	// WHAT: a missing column hashes like an empty string.
	// WHY: NULL and "" must produce the same dedup key across runs.
	var nilStr *string
	want := Sum("x", "", "")
	got := Of("x", nil, sql.NullString{})
	if got != want {
		t.Fatalf("Of(x, nil, NULL) = %s, want %s", got, want)
	}
	if got := Of("x", nilStr, sql.NullInt64{}); got != want {
		t.Fatalf("Of(x, nil ptr, NULL int) = %s, want %s", got, want)
	}
}

func TestOfFormatsNumbers(t *testing.T) {
	if got, want := Of("u", int64(13317004800000000), "chrome"), Sum("u", "13317004800000000", "chrome"); got != want {
		t.Fatalf("int64: %s != %s", got, want)
	}
	if got, want := Of(sql.NullInt64{Int64: 42, Valid: true}), Sum("42"); got != want {
		t.Fatalf("NullInt64: %s != %s", got, want)
	}
	if got, want := Of(1.5), Sum("1.5"); got != want {
		t.Fatalf("float64: %s != %s", got, want)
	}
	if got, want := Of(0), Sum("0"); got != want {
		t.Fatalf("int: %s != %s", got, want)
	}
}

func TestOfOtherTypesAreNotEmpty(t *testing.T) {
	// WHAT: values without a dedicated case still contribute to the hash.
	// WHY: rendering them as "" would merge distinct rows into one duplicate.
	empty := Of("")
	for _, v := range []any{int32(7), float32(2.5), uint8(1)} {
		if Of(v) == empty {
			t.Errorf("Of(%T %v) hashes like an empty value", v, v)
		}
	}
	if Of(int32(1)) == Of(int32(2)) {
		t.Fatal("distinct int32 values share a hash")
	}
	if got, want := Of(int32(7)), Sum("7"); got != want {
		t.Fatalf("int32: %s != %s", got, want)
	}

	at := time.Unix(1672531200, 0)
	if got, want := Of(sql.NullTime{Time: at, Valid: true}), Sum("1672531200"); got != want {
		t.Fatalf("NullTime: %s != %s", got, want)
	}
	if got := Of(sql.NullTime{}); got != empty {
		t.Fatalf("NULL time = %s, want empty hash %s", got, empty)
	}
}
