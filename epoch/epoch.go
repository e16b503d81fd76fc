// Package epoch converts vendor timestamps to Unix seconds.
//
// Apple databases count seconds (or nanoseconds) from 2001-01-01T00:00:00Z.
// Chrome counts microseconds from 1601-01-01T00:00:00Z. Zero and negative
// values are "unset" markers in both and never represent a real instant.
//
// Each format has a strict entry point returning ErrInvalidTimestamp and an
// optional one operating on sql.Null types, which is what row scanners use.
package epoch

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// AppleOffset is the number of seconds between 1970-01-01 and 2001-01-01.
	AppleOffset int64 = 978307200

	// ChromeOffset is the number of seconds between 1601-01-01 and 1970-01-01.
	ChromeOffset int64 = 11644473600
)

// ErrInvalidTimestamp is returned for zero, negative or non-finite input.
var ErrInvalidTimestamp = errors.New("epoch: invalid timestamp")

// FromApple converts Apple seconds to Unix seconds, truncating fractions.
func FromApple(v float64) (int64, error) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: apple %v", ErrInvalidTimestamp, v)
	}
	return int64(v) + AppleOffset, nil
}

// FromAppleNano converts Apple nanoseconds to Unix seconds.
func FromAppleNano(v int64) (int64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("%w: apple nanoseconds %d", ErrInvalidTimestamp, v)
	}
	return v/int64(time.Second) + AppleOffset, nil
}

// FromChrome converts Chrome microseconds to Unix seconds. Values before
// 1970 are still valid instants and come back negative.
func FromChrome(v int64) (int64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("%w: chrome %d", ErrInvalidTimestamp, v)
	}
	return v/int64(time.Second/time.Microsecond) - ChromeOffset, nil
}

// Apple is the optional form of FromApple.
func Apple(v sql.NullFloat64) sql.NullInt64 {
	if !v.Valid {
		return sql.NullInt64{}
	}
	return opt(FromApple(v.Float64))
}

// AppleNano is the optional form of FromAppleNano.
func AppleNano(v sql.NullInt64) sql.NullInt64 {
	if !v.Valid {
		return sql.NullInt64{}
	}
	return opt(FromAppleNano(v.Int64))
}

// Chrome is the optional form of FromChrome.
func Chrome(v sql.NullInt64) sql.NullInt64 {
	if !v.Valid {
		return sql.NullInt64{}
	}
	return opt(FromChrome(v.Int64))
}

// Now returns the current time in Unix seconds.
func Now() int64 { return time.Now().Unix() }

func opt(v int64, err error) sql.NullInt64 {
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
