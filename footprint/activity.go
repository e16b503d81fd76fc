package footprint

import (
	"context"
	"fmt"
	"time"

	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// Activity aggregates re-exported from the store.
type (
	AppTotal      = store.AppTotal
	DayTotal      = store.DayTotal
	HourTotal     = store.HourTotal
	DomainTotal   = store.DomainTotal
	Bucket        = store.Bucket
	MessageCounts = store.MessageCounts
	ChatTotal     = store.ChatTotal
	ShowTotal     = store.ShowTotal
	DeviceTotal   = store.DeviceTotal
)

// ActivityQuery selects what an activity summary covers.
type ActivityQuery struct {
	// Since and Until bound record times; zero leaves a side open. Until
	// is exclusive.
	Since time.Time
	Until time.Time

	// Limit caps every ranked list. Default: 10.
	Limit int

	// Dir holds unified.db. Empty means the configured output directory.
	Dir string

	// Location buckets days and hours. Default: time.Local.
	Location *time.Location
}

// Activity summarizes what the unified database says about a period.
type Activity struct {
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`

	ScreenTimeSeconds float64     `json:"screen_time_seconds"`
	Apps              []AppTotal  `json:"apps"`
	Days              []DayTotal  `json:"days"`
	Hours             []HourTotal `json:"hours"`

	WebVisits   int64         `json:"web_visits"`
	Domains     []DomainTotal `json:"domains"`
	Transitions []Bucket      `json:"transitions"`

	Messages *MessageCounts `json:"messages"`
	Chats    []ChatTotal    `json:"chats"`

	Shows   []ShowTotal   `json:"podcast_shows"`
	Devices []DeviceTotal `json:"bluetooth_devices"`
}

// Activity reads app usage, browsing, messaging, podcast and Bluetooth
// aggregates for q from the unified database.
func (s *Service) Activity(ctx context.Context, q ActivityQuery) (*Activity, error) {
	if !q.Since.IsZero() && !q.Until.IsZero() && !q.Until.After(q.Since) {
		return nil, fmt.Errorf("activity: until %s is not after since %s",
			q.Until.Format(time.RFC3339), q.Since.Format(time.RFC3339))
	}
	loc := q.Location
	if loc == nil {
		loc = time.Local
	}
	var w store.Window
	a := &Activity{}
	if !q.Since.IsZero() {
		w.From = q.Since.Unix()
		a.Since = unixTime(w.From, true)
	}
	if !q.Until.IsZero() {
		w.To = q.Until.Unix()
		a.Until = unixTime(w.To, true)
	}

	st, path, err := s.openStoreReadOnly(q.Dir)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	steps := []func() error{
		func() (err error) { a.ScreenTimeSeconds, err = st.ScreenTime(ctx, w); return },
		func() (err error) { a.Apps, err = st.AppUsageByBundle(ctx, w, q.Limit); return },
		func() (err error) { a.Days, err = st.UsageByDay(ctx, w, loc); return },
		func() (err error) { a.Hours, err = st.UsageByHour(ctx, w, loc); return },
		func() (err error) { a.WebVisits, err = st.WebVisitCount(ctx, w); return },
		func() (err error) { a.Domains, err = st.TopDomains(ctx, w, q.Limit); return },
		func() (err error) { a.Transitions, err = st.TransitionMix(ctx, w); return },
		func() (err error) { a.Messages, err = st.MessageCounts(ctx, w); return },
		func() (err error) { a.Chats, err = st.TopChats(ctx, w, q.Limit); return },
		func() (err error) { a.Shows, err = st.TopShows(ctx, w, q.Limit); return },
		func() (err error) { a.Devices, err = st.TopDevices(ctx, w, q.Limit); return },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("activity %s: %w", path, err)
		}
	}
	return a, nil
}
