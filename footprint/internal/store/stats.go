package store

import (
	"context"
	"database/sql"
	"fmt"
)

// timeColumns maps each record table to its primary time column, in the
// order tables are reported.
var timeColumns = []struct{ table, column string }{
	{"messages", "timestamp"},
	{"chats", "last_message_time"},
	{"contacts", ""},
	{"web_visits", "visit_time"},
	{"app_usage", "start_time"},
	{"bluetooth_connections", "start_time"},
	{"notifications", "timestamp"},
	{"intents", "timestamp"},
	{"display_state", "start_time"},
	{"podcast_episodes", "last_played_at"},
	{"podcast_shows", "subscribed_at"},
}

// TableCount is the row count of one record table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Stats aggregates the unified database.
type Stats struct {
	Tables   []TableCount
	Total    int64
	Earliest sql.NullInt64
	Latest   sql.NullInt64
	Runs     int64
}

// Count returns the row count for table, or 0 if unknown.
func (st *Stats) Count(table string) int64 {
	for _, tc := range st.Tables {
		if tc.Table == table {
			return tc.Rows
		}
	}
	return 0
}

// Stats counts every record table and finds the overall time range.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	for _, tc := range timeColumns {
		var n int64
		if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tc.table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", tc.table, err)
		}
		st.Tables = append(st.Tables, TableCount{Table: tc.table, Rows: n})
		st.Total += n
		if tc.column == "" || n == 0 {
			continue
		}
		var lo, hi sql.NullInt64
		err := s.DB.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT MIN(%[1]s), MAX(%[1]s) FROM %[2]s WHERE %[1]s > 0`, tc.column, tc.table)).
			Scan(&lo, &hi)
		if err != nil {
			return nil, fmt.Errorf("range %s: %w", tc.table, err)
		}
		if lo.Valid && (!st.Earliest.Valid || lo.Int64 < st.Earliest.Int64) {
			st.Earliest = lo
		}
		if hi.Valid && (!st.Latest.Valid || hi.Int64 > st.Latest.Int64) {
			st.Latest = hi
		}
	}
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM extraction_runs`).Scan(&st.Runs); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	return &st, nil
}
