// Package contenthash derives the record_hash dedup key stored with every
// unified record.
package contenthash

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Size is the length of a hash in hex characters.
const Size = 32

// Sum joins parts with "|", hashes the result with SHA-256 and returns the
// first 16 bytes hex-encoded.
func Sum(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:Size/2])
}

// Of is Sum over heterogeneous column values. Absent values (nil, nil
// pointers, invalid sql.Null*) render as the empty string. Types without a
// dedicated case render with fmt.Sprint.
func Of(vals ...any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = format(v)
	}
	return Sum(parts...)
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case sql.NullString:
		if !x.Valid {
			return ""
		}
		return x.String
	case sql.NullInt64:
		if !x.Valid {
			return ""
		}
		return strconv.FormatInt(x.Int64, 10)
	case sql.NullFloat64:
		if !x.Valid {
			return ""
		}
		return strconv.FormatFloat(x.Float64, 'f', -1, 64)
	case sql.NullBool:
		if !x.Valid {
			return ""
		}
		return format(x.Bool)
	case sql.NullTime:
		if !x.Valid {
			return ""
		}
		return strconv.FormatInt(x.Time.Unix(), 10)
	default:
		return fmt.Sprint(v)
	}
}
