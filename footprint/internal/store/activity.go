package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Window bounds a query by record time in Unix seconds. From is inclusive,
// To exclusive. Zero leaves that side open.
type Window struct {
	From int64
	To   int64
}

// clause returns a WHERE fragment on column plus its two arguments.
func (w Window) clause(column string) (string, []any) {
	return fmt.Sprintf(`(?1 = 0 OR %[1]s >= ?1) AND (?2 = 0 OR %[1]s < ?2)`, column), []any{w.From, w.To}
}

// AppTotal is the foreground time of one bundle.
type AppTotal struct {
	BundleID   string  `json:"bundle_id"`
	Seconds    float64 `json:"seconds"`
	Sessions   int64   `json:"sessions"`
	AvgSeconds float64 `json:"avg_seconds"`
}

// DayTotal is the foreground time of one calendar day.
type DayTotal struct {
	Day     string  `json:"day"`
	Seconds float64 `json:"seconds"`
	Apps    int     `json:"apps"`
}

// HourTotal is the foreground time started in one hour of the day.
type HourTotal struct {
	Hour    int     `json:"hour"`
	Seconds float64 `json:"seconds"`
}

// DomainTotal aggregates web visits by host.
type DomainTotal struct {
	Domain  string  `json:"domain"`
	Visits  int64   `json:"visits"`
	Seconds float64 `json:"seconds"`
}

// Bucket is a labelled count.
type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// MessageCounts splits messages by direction and service.
type MessageCounts struct {
	Total     int64    `json:"total"`
	Sent      int64    `json:"sent"`
	Received  int64    `json:"received"`
	ByService []Bucket `json:"by_service"`
}

// ChatTotal is the message count of one conversation.
type ChatTotal struct {
	Chat     string `json:"chat"`
	Messages int64  `json:"messages"`
}

// ShowTotal is the estimated listening time of one podcast show.
type ShowTotal struct {
	Show     string  `json:"show"`
	Episodes int64   `json:"episodes"`
	Seconds  float64 `json:"seconds"`
}

// DeviceTotal is the connected time of one Bluetooth device.
type DeviceTotal struct {
	Device      string  `json:"device"`
	Seconds     float64 `json:"seconds"`
	Connections int64   `json:"connections"`
}

// ScreenTime sums app usage durations in w.
func (s *Store) ScreenTime(ctx context.Context, w Window) (float64, error) {
	where, args := w.clause("start_time")
	var total sql.NullFloat64
	err := s.DB.QueryRowContext(ctx,
		`SELECT SUM(duration_seconds) FROM app_usage WHERE `+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("screen time: %w", err)
	}
	return total.Float64, nil
}

// AppUsageByBundle returns the bundles with the most foreground time in w.
func (s *Store) AppUsageByBundle(ctx context.Context, w Window, limit int) ([]AppTotal, error) {
	where, args := w.clause("start_time")
	rows, err := s.DB.QueryContext(ctx,
		`SELECT bundle_id, COALESCE(SUM(duration_seconds), 0), COUNT(*), COALESCE(AVG(duration_seconds), 0)
		FROM app_usage WHERE `+where+`
		GROUP BY bundle_id
		ORDER BY 2 DESC, bundle_id
		LIMIT ?3`, append(args, limitOrDefault(limit))...)
	if err != nil {
		return nil, fmt.Errorf("app usage: %w", err)
	}
	defer rows.Close()

	var out []AppTotal
	for rows.Next() {
		var a AppTotal
		if err := rows.Scan(&a.BundleID, &a.Seconds, &a.Sessions, &a.AvgSeconds); err != nil {
			return nil, fmt.Errorf("scan app usage: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UsageByDay buckets app usage in w by calendar day in loc, newest first.
func (s *Store) UsageByDay(ctx context.Context, w Window, loc *time.Location) ([]DayTotal, error) {
	days := map[string]*DayTotal{}
	apps := map[string]map[string]bool{}
	err := s.eachSession(ctx, w, func(start int64, bundle string, secs float64) {
		day := time.Unix(start, 0).In(loc).Format(time.DateOnly)
		d, ok := days[day]
		if !ok {
			d = &DayTotal{Day: day}
			days[day] = d
			apps[day] = map[string]bool{}
		}
		d.Seconds += secs
		apps[day][bundle] = true
	})
	if err != nil {
		return nil, err
	}
	out := make([]DayTotal, 0, len(days))
	for day, d := range days {
		d.Apps = len(apps[day])
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	return out, nil
}

// UsageByHour buckets app usage in w by starting hour in loc. Empty hours
// are omitted.
func (s *Store) UsageByHour(ctx context.Context, w Window, loc *time.Location) ([]HourTotal, error) {
	var hours [24]float64
	var seen [24]bool
	err := s.eachSession(ctx, w, func(start int64, _ string, secs float64) {
		h := time.Unix(start, 0).In(loc).Hour()
		hours[h] += secs
		seen[h] = true
	})
	if err != nil {
		return nil, err
	}
	var out []HourTotal
	for h := range hours {
		if seen[h] {
			out = append(out, HourTotal{Hour: h, Seconds: hours[h]})
		}
	}
	return out, nil
}

func (s *Store) eachSession(ctx context.Context, w Window, fn func(start int64, bundle string, secs float64)) error {
	where, args := w.clause("start_time")
	rows, err := s.DB.QueryContext(ctx,
		`SELECT start_time, bundle_id, COALESCE(duration_seconds, 0) FROM app_usage WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("app sessions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			start  int64
			bundle string
			secs   float64
		)
		if err := rows.Scan(&start, &bundle, &secs); err != nil {
			return fmt.Errorf("scan app session: %w", err)
		}
		fn(start, bundle, secs)
	}
	return rows.Err()
}

// WebVisitCount counts web visits in w.
func (s *Store) WebVisitCount(ctx context.Context, w Window) (int64, error) {
	where, args := w.clause("visit_time")
	var n int64
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM web_visits WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("web visit count: %w", err)
	}
	return n, nil
}

// TopDomains groups web visits in w by URL host, most visited first.
func (s *Store) TopDomains(ctx context.Context, w Window, limit int) ([]DomainTotal, error) {
	where, args := w.clause("visit_time")
	rows, err := s.DB.QueryContext(ctx,
		`SELECT url, COALESCE(visit_duration_seconds, 0) FROM web_visits WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	byHost := map[string]*DomainTotal{}
	for rows.Next() {
		var (
			raw  string
			secs float64
		)
		if err := rows.Scan(&raw, &secs); err != nil {
			return nil, fmt.Errorf("scan web visit: %w", err)
		}
		host := Domain(raw)
		if host == "" {
			continue
		}
		d, ok := byHost[host]
		if !ok {
			d = &DomainTotal{Domain: host}
			byHost[host] = d
		}
		d.Visits++
		d.Seconds += secs
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]DomainTotal, 0, len(byHost))
	for _, d := range byHost {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Visits != out[j].Visits {
			return out[i].Visits > out[j].Visits
		}
		return out[i].Domain < out[j].Domain
	})
	if n := limitOrDefault(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Domain returns the lower-cased host of a visited URL. Values without a
// scheme come back unchanged.
func Domain(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.ToLower(u.Hostname())
}

// TransitionMix counts web visits in w by transition type, most common first.
func (s *Store) TransitionMix(ctx context.Context, w Window) ([]Bucket, error) {
	where, args := w.clause("visit_time")
	return s.buckets(ctx, "transitions",
		`SELECT COALESCE(NULLIF(transition_type, ''), 'unknown'), COUNT(*)
		FROM web_visits WHERE `+where+`
		GROUP BY 1 ORDER BY 2 DESC, 1`, args...)
}

// MessageCounts splits messages in w by direction and by service.
func (s *Store) MessageCounts(ctx context.Context, w Window) (*MessageCounts, error) {
	where, args := w.clause("timestamp")
	var mc MessageCounts
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_from_me = 1), 0), COALESCE(SUM(is_from_me = 0), 0)
		FROM messages WHERE `+where, args...).Scan(&mc.Total, &mc.Sent, &mc.Received)
	if err != nil {
		return nil, fmt.Errorf("message counts: %w", err)
	}
	mc.ByService, err = s.buckets(ctx, "message services",
		`SELECT COALESCE(NULLIF(service, ''), 'Unknown'), COUNT(*)
		FROM messages WHERE `+where+`
		GROUP BY 1 ORDER BY 2 DESC, 1`, args...)
	if err != nil {
		return nil, err
	}
	return &mc, nil
}

// TopChats returns the conversations with the most messages in w.
func (s *Store) TopChats(ctx context.Context, w Window, limit int) ([]ChatTotal, error) {
	where, args := w.clause("m.timestamp")
	rows, err := s.DB.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(c.display_name, ''), NULLIF(c.chat_identifier, ''), 'Unknown'), COUNT(m.id)
		FROM chats c
		JOIN messages m ON m.chat_id = c.record_hash
		WHERE `+where+`
		GROUP BY c.record_hash
		ORDER BY 2 DESC, 1
		LIMIT ?3`, append(args, limitOrDefault(limit))...)
	if err != nil {
		return nil, fmt.Errorf("top chats: %w", err)
	}
	defer rows.Close()

	var out []ChatTotal
	for rows.Next() {
		var c ChatTotal
		if err := rows.Scan(&c.Chat, &c.Messages); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TopShows estimates listening time per show from episodes last played in
// w. A played episode counts its full duration, a partial one its played
// seconds.
func (s *Store) TopShows(ctx context.Context, w Window, limit int) ([]ShowTotal, error) {
	where, args := w.clause("last_played_at")
	rows, err := s.DB.QueryContext(ctx,
		`SELECT COALESCE(NULLIF(show_title, ''), 'Unknown'), COUNT(*),
			COALESCE(SUM(CASE WHEN play_count > 0 THEN duration_seconds ELSE played_seconds END), 0)
		FROM podcast_episodes
		WHERE (play_count > 0 OR played_seconds > 0) AND `+where+`
		GROUP BY 1
		ORDER BY 3 DESC, 1
		LIMIT ?3`, append(args, limitOrDefault(limit))...)
	if err != nil {
		return nil, fmt.Errorf("top shows: %w", err)
	}
	defer rows.Close()

	var out []ShowTotal
	for rows.Next() {
		var st ShowTotal
		if err := rows.Scan(&st.Show, &st.Episodes, &st.Seconds); err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// TopDevices returns the named Bluetooth devices with the most connected
// time in w.
func (s *Store) TopDevices(ctx context.Context, w Window, limit int) ([]DeviceTotal, error) {
	where, args := w.clause("start_time")
	rows, err := s.DB.QueryContext(ctx,
		`SELECT device_name, COALESCE(SUM(duration_seconds), 0), COUNT(*)
		FROM bluetooth_connections
		WHERE device_name IS NOT NULL AND device_name != '' AND `+where+`
		GROUP BY device_name
		ORDER BY 2 DESC, 1
		LIMIT ?3`, append(args, limitOrDefault(limit))...)
	if err != nil {
		return nil, fmt.Errorf("top devices: %w", err)
	}
	defer rows.Close()

	var out []DeviceTotal
	for rows.Next() {
		var d DeviceTotal
		if err := rows.Scan(&d.Device, &d.Seconds, &d.Connections); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) buckets(ctx context.Context, what, query string, args ...any) ([]Bucket, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return 10
	}
	return n
}
