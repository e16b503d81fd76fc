package store

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

// 2023-01-01T00:00:00Z
const day0 int64 = 1672531200

func secs(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }
func str(v string) sql.NullString    { return sql.NullString{String: v, Valid: true} }

func seedActivity(t *testing.T, s *Store) {
	t.Helper()
	recs := []Record{
		&AppUsage{RecordHash: "a1", BundleID: "com.apple.Safari", StartTime: day0 + 9*3600, DurationSeconds: secs(1800)},
		&AppUsage{RecordHash: "a2", BundleID: "com.apple.Safari", StartTime: day0 + 10*3600, DurationSeconds: secs(600)},
		&AppUsage{RecordHash: "a3", BundleID: "com.apple.mail", StartTime: day0 + 9*3600 + 60, DurationSeconds: secs(300)},
		&AppUsage{RecordHash: "a4", BundleID: "com.apple.mail", StartTime: day0 + 86400 + 3600},
		&AppUsage{RecordHash: "a5", BundleID: "com.apple.Notes", StartTime: day0 + 86400 + 7200, DurationSeconds: secs(120)},

		&WebVisit{RecordHash: "w1", URL: "https://Example.com/a", VisitTime: day0 + 100, DurationSeconds: secs(30), TransitionType: "link"},
		&WebVisit{RecordHash: "w2", URL: "https://example.com/b?q=1", VisitTime: day0 + 200, DurationSeconds: secs(10), TransitionType: "link"},
		&WebVisit{RecordHash: "w3", URL: "http://go.dev", VisitTime: day0 + 86400, TransitionType: "typed"},
		&WebVisit{RecordHash: "w4", URL: "chrome://settings", VisitTime: day0 + 300},

		&Chat{RecordHash: "chat-1", ChatIdentifier: str("+15550100")},
		&Chat{RecordHash: "chat-2", ChatIdentifier: str("family"), DisplayName: str("Family")},
		&Message{RecordHash: "m1", IsFromMe: true, Timestamp: day0 + 10, ChatID: str("chat-1"), Service: str("iMessage")},
		&Message{RecordHash: "m2", Timestamp: day0 + 20, ChatID: str("chat-2"), Service: str("iMessage")},
		&Message{RecordHash: "m3", Timestamp: day0 + 30, ChatID: str("chat-2"), Service: str("SMS")},
		&Message{RecordHash: "m4", IsFromMe: true, Timestamp: day0 + 86400, ChatID: str("chat-2")},

		&PodcastEpisode{RecordHash: "e1", ShowTitle: str("Go Time"), DurationSeconds: secs(3600), PlayCount: 1,
			LastPlayedAt: sql.NullInt64{Int64: day0 + 500, Valid: true}},
		&PodcastEpisode{RecordHash: "e2", ShowTitle: str("Go Time"), DurationSeconds: secs(3000), PlayedSeconds: secs(900),
			LastPlayedAt: sql.NullInt64{Int64: day0 + 86400, Valid: true}},
		&PodcastEpisode{RecordHash: "e3", ShowTitle: str("Unplayed"), DurationSeconds: secs(5000)},

		&BluetoothConnection{RecordHash: "b1", DeviceName: str("AirPods"), StartTime: day0 + 100, DurationSeconds: secs(1200)},
		&BluetoothConnection{RecordHash: "b2", DeviceName: str("AirPods"), StartTime: day0 + 86400, DurationSeconds: secs(600)},
		&BluetoothConnection{RecordHash: "b3", DeviceName: str("Keyboard"), StartTime: day0 + 200, DurationSeconds: secs(60)},
		&BluetoothConnection{RecordHash: "b4", StartTime: day0 + 300, DurationSeconds: secs(9999)},
	}
	for _, r := range recs {
		if _, err := s.Insert(context.Background(), r); err != nil {
			t.Fatalf("seed %s: %v", r.Table(), err)
		}
	}
}

var firstDay = Window{From: day0, To: day0 + 86400}

func TestScreenTimeAndApps(t *testing.T) {
	s := openTestStore(t)
	seedActivity(t, s)
	ctx := context.Background()

	total, err := s.ScreenTime(ctx, firstDay)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2700 {
		t.Fatalf("screen time = %v, want 2700", total)
	}
	if all, _ := s.ScreenTime(ctx, Window{}); all != 2820 {
		t.Fatalf("all-time screen time = %v, want 2820", all)
	}

	apps, err := s.AppUsageByBundle(ctx, Window{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 3 {
		t.Fatalf("apps = %+v", apps)
	}
	if apps[0].BundleID != "com.apple.Safari" || apps[0].Seconds != 2400 || apps[0].Sessions != 2 || apps[0].AvgSeconds != 1200 {
		t.Fatalf("top app = %+v", apps[0])
	}
	// Sessions without a duration still count.
	if apps[1].BundleID != "com.apple.mail" || apps[1].Sessions != 2 || apps[1].Seconds != 300 {
		t.Fatalf("second app = %+v", apps[1])
	}

	top, _ := s.AppUsageByBundle(ctx, Window{}, 1)
	if len(top) != 1 {
		t.Fatalf("limit 1 returned %d rows", len(top))
	}
}

func TestUsageByDayAndHour(t *testing.T) {
	s := openTestStore(t)
	seedActivity(t, s)
	ctx := context.Background()

	days, err := s.UsageByDay(ctx, Window{}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	want := []DayTotal{
		{Day: "2023-01-02", Seconds: 120, Apps: 2},
		{Day: "2023-01-01", Seconds: 2700, Apps: 2},
	}
	if len(days) != len(want) {
		t.Fatalf("days = %+v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d = %+v, want %+v", i, days[i], want[i])
		}
	}

	hours, err := s.UsageByHour(ctx, firstDay, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(hours) != 2 || hours[0] != (HourTotal{Hour: 9, Seconds: 2100}) || hours[1] != (HourTotal{Hour: 10, Seconds: 600}) {
		t.Fatalf("hours = %+v", hours)
	}
}

func TestTopDomainsAndTransitions(t *testing.T) {
	s := openTestStore(t)
	seedActivity(t, s)
	ctx := context.Background()

	n, err := s.WebVisitCount(ctx, firstDay)
	if err != nil || n != 3 {
		t.Fatalf("visit count = %d, %v; want 3", n, err)
	}

	domains, err := s.TopDomains(ctx, Window{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(domains) != 3 {
		t.Fatalf("domains = %+v", domains)
	}
	if domains[0] != (DomainTotal{Domain: "example.com", Visits: 2, Seconds: 40}) {
		t.Fatalf("top domain = %+v", domains[0])
	}

	mix, err := s.TransitionMix(ctx, Window{})
	if err != nil {
		t.Fatal(err)
	}
	want := []Bucket{{"link", 2}, {"typed", 1}, {"unknown", 1}}
	if len(mix) != len(want) {
		t.Fatalf("mix = %+v", mix)
	}
	for i := range want {
		if mix[i] != want[i] {
			t.Errorf("mix[%d] = %+v, want %+v", i, mix[i], want[i])
		}
	}
}

func TestDomain(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://Example.com/path", "example.com"},
		{"http://go.dev:8080/x", "go.dev"},
		{"chrome://settings", "settings"},
		{"about:blank", "about:blank"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.in); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMessageCountsAndChats(t *testing.T) {
	s := openTestStore(t)
	seedActivity(t, s)
	ctx := context.Background()

	mc, err := s.MessageCounts(ctx, Window{})
	if err != nil {
		t.Fatal(err)
	}
	if mc.Total != 4 || mc.Sent != 2 || mc.Received != 2 {
		t.Fatalf("counts = %+v", mc)
	}
	want := []Bucket{{"iMessage", 2}, {"SMS", 1}, {"Unknown", 1}}
	if len(mc.ByService) != len(want) {
		t.Fatalf("by service = %+v", mc.ByService)
	}
	for i := range want {
		if mc.ByService[i] != want[i] {
			t.Errorf("service[%d] = %+v, want %+v", i, mc.ByService[i], want[i])
		}
	}

	day, err := s.MessageCounts(ctx, firstDay)
	if err != nil || day.Total != 3 || day.Sent != 1 {
		t.Fatalf("first day counts = %+v, %v", day, err)
	}

	chats, err := s.TopChats(ctx, Window{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chats) != 2 || chats[0] != (ChatTotal{Chat: "Family", Messages: 3}) || chats[1] != (ChatTotal{Chat: "+15550100", Messages: 1}) {
		t.Fatalf("chats = %+v", chats)
	}
}

func TestTopShows(t *testing.T) {
	// WHAT: played episodes count their full duration, partial ones their played seconds.
	// WHY: play_count only moves on completion, so duration overstates partial listens.
	s := openTestStore(t)
	seedActivity(t, s)
	ctx := context.Background()

	shows, err := s.TopShows(ctx, Window{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(shows) != 1 || shows[0] != (ShowTotal{Show: "Go Time", Episodes: 2, Seconds: 4500}) {
		t.Fatalf("shows = %+v", shows)
	}

	day, err := s.TopShows(ctx, firstDay, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(day) != 1 || day[0].Episodes != 1 || day[0].Seconds != 3600 {
		t.Fatalf("first day shows = %+v", day)
	}
}

func TestTopDevices(t *testing.T) {
	s := openTestStore(t)
	seedActivity(t, s)

	devices, err := s.TopDevices(context.Background(), Window{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []DeviceTotal{
		{Device: "AirPods", Seconds: 1800, Connections: 2},
		{Device: "Keyboard", Seconds: 60, Connections: 1},
	}
	if len(devices) != len(want) {
		t.Fatalf("devices = %+v", devices)
	}
	for i := range want {
		if devices[i] != want[i] {
			t.Errorf("device %d = %+v, want %+v", i, devices[i], want[i])
		}
	}
}

func TestActivity_EmptyStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if total, err := s.ScreenTime(ctx, Window{}); err != nil || total != 0 {
		t.Fatalf("screen time = %v, %v", total, err)
	}
	mc, err := s.MessageCounts(ctx, Window{})
	if err != nil || mc.Total != 0 || len(mc.ByService) != 0 {
		t.Fatalf("message counts = %+v, %v", mc, err)
	}
	if days, err := s.UsageByDay(ctx, Window{}, time.UTC); err != nil || len(days) != 0 {
		t.Fatalf("days = %+v, %v", days, err)
	}
}
