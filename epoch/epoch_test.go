package epoch

import (
	"database/sql"
	"errors"
	"math"
	"testing"
)

// 2023-01-01T00:00:00Z
const newYear2023 int64 = 1672531200

func TestKnownInstants(t *testing.T) {
	// WHAT: all three vendor encodings of 2023-01-01 map to the same Unix second.
	// WHY: records from different sources are compared on one time axis.
	got, err := FromApple(694224000)
	if err != nil || got != newYear2023 {
		t.Fatalf("FromApple = %d, %v; want %d", got, err, newYear2023)
	}

	got, err = FromAppleNano(694224000 * 1_000_000_000)
	if err != nil || got != newYear2023 {
		t.Fatalf("FromAppleNano = %d, %v; want %d", got, err, newYear2023)
	}

	got, err = FromChrome(13317004800000000)
	if err != nil || got != newYear2023 {
		t.Fatalf("FromChrome = %d, %v; want %d", got, err, newYear2023)
	}
}

func TestFractionalAppleSeconds(t *testing.T) {
	got, err := FromApple(694224000.75)
	if err != nil {
		t.Fatal(err)
	}
	if got != newYear2023 {
		t.Fatalf("FromApple(694224000.75) = %d, want %d", got, newYear2023)
	}
}

func TestStrictRejectsUnset(t *testing.T) {
	cases := []struct {
		name string
		fn   func() (int64, error)
	}{
		{"apple zero", func() (int64, error) { return FromApple(0) }},
		{"apple negative", func() (int64, error) { return FromApple(-1) }},
		{"apple NaN", func() (int64, error) { return FromApple(math.NaN()) }},
		{"apple nano zero", func() (int64, error) { return FromAppleNano(0) }},
		{"apple nano negative", func() (int64, error) { return FromAppleNano(-5) }},
		{"chrome zero", func() (int64, error) { return FromChrome(0) }},
		{"chrome negative", func() (int64, error) { return FromChrome(-1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.fn()
			if !errors.Is(err, ErrInvalidTimestamp) {
				t.Fatalf("err = %v, want ErrInvalidTimestamp", err)
			}
		})
	}
}

func TestOptionalForms(t *testing.T) {
	if v := Apple(sql.NullFloat64{}); v.Valid {
		t.Fatalf("Apple(NULL) = %+v, want invalid", v)
	}
	if v := Apple(sql.NullFloat64{Float64: 0, Valid: true}); v.Valid {
		t.Fatalf("Apple(0) = %+v, want invalid", v)
	}
	if v := Apple(sql.NullFloat64{Float64: 694224000, Valid: true}); !v.Valid || v.Int64 != newYear2023 {
		t.Fatalf("Apple(694224000) = %+v", v)
	}

	if v := AppleNano(sql.NullInt64{Int64: -1, Valid: true}); v.Valid {
		t.Fatalf("AppleNano(-1) = %+v, want invalid", v)
	}
	if v := AppleNano(sql.NullInt64{Int64: 694224000 * 1_000_000_000, Valid: true}); !v.Valid || v.Int64 != newYear2023 {
		t.Fatalf("AppleNano = %+v", v)
	}

	if v := Chrome(sql.NullInt64{}); v.Valid {
		t.Fatalf("Chrome(NULL) = %+v, want invalid", v)
	}
	if v := Chrome(sql.NullInt64{Int64: 13317004800000000, Valid: true}); !v.Valid || v.Int64 != newYear2023 {
		t.Fatalf("Chrome = %+v", v)
	}
}

func TestNowIsAfter2023(t *testing.T) {
	if Now() <= newYear2023 {
		t.Fatalf("Now() = %d", Now())
	}
}
