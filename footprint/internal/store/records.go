package store

import "database/sql"

// Record is a canonical row destined for one unified table. Columns and
// Values exclude record_hash, which Insert adds from Hash.
type Record interface {
	Table() string
	Hash() string
	Columns() []string
	Values() []any
}

// Message is one iMessage/SMS row. RecordHash is the message guid.
type Message struct {
	RecordHash    string
	Text          sql.NullString
	IsFromMe      bool
	Timestamp     int64
	DateRead      sql.NullInt64
	DateDelivered sql.NullInt64
	HandleID      sql.NullString
	ChatID        sql.NullString
	Service       sql.NullString
	HasAttachment bool
}

func (m *Message) Table() string { return "messages" }
func (m *Message) Hash() string  { return m.RecordHash }
func (m *Message) Columns() []string {
	return []string{"text", "is_from_me", "timestamp", "date_read", "date_delivered",
		"handle_id", "chat_id", "service", "has_attachment"}
}
func (m *Message) Values() []any {
	return []any{m.Text, m.IsFromMe, m.Timestamp, m.DateRead, m.DateDelivered,
		m.HandleID, m.ChatID, m.Service, m.HasAttachment}
}

// Chat is one conversation. RecordHash is the chat guid.
type Chat struct {
	RecordHash       string
	ChatIdentifier   sql.NullString
	DisplayName      sql.NullString
	ParticipantCount int64
	LastMessageTime  sql.NullInt64
}

func (c *Chat) Table() string { return "chats" }
func (c *Chat) Hash() string  { return c.RecordHash }
func (c *Chat) Columns() []string {
	return []string{"chat_identifier", "display_name", "participant_count", "last_message_time"}
}
func (c *Chat) Values() []any {
	return []any{c.ChatIdentifier, c.DisplayName, c.ParticipantCount, c.LastMessageTime}
}

// Contact is one message handle.
type Contact struct {
	RecordHash  string
	HandleID    string
	DisplayName sql.NullString
	Service     sql.NullString
}

func (c *Contact) Table() string     { return "contacts" }
func (c *Contact) Hash() string      { return c.RecordHash }
func (c *Contact) Columns() []string { return []string{"handle_id", "display_name", "service"} }
func (c *Contact) Values() []any     { return []any{c.HandleID, c.DisplayName, c.Service} }

// WebVisit is one browser history visit.
type WebVisit struct {
	RecordHash      string
	URL             string
	Title           sql.NullString
	VisitTime       int64
	DurationSeconds sql.NullFloat64
	TransitionType  string
	Browser         string
}

func (w *WebVisit) Table() string { return "web_visits" }
func (w *WebVisit) Hash() string  { return w.RecordHash }
func (w *WebVisit) Columns() []string {
	return []string{"url", "title", "visit_time", "visit_duration_seconds", "transition_type", "browser"}
}
func (w *WebVisit) Values() []any {
	return []any{w.URL, w.Title, w.VisitTime, w.DurationSeconds, w.TransitionType, w.Browser}
}

// AppUsage is one foreground app session.
type AppUsage struct {
	RecordHash      string
	BundleID        string
	StartTime       int64
	EndTime         sql.NullInt64
	DurationSeconds sql.NullFloat64
	DeviceID        sql.NullString
	DeviceModel     sql.NullString
	SourceDB        string
}

func (a *AppUsage) Table() string { return "app_usage" }
func (a *AppUsage) Hash() string  { return a.RecordHash }
func (a *AppUsage) Columns() []string {
	return []string{"bundle_id", "start_time", "end_time", "duration_seconds",
		"device_id", "device_model", "source_db"}
}
func (a *AppUsage) Values() []any {
	return []any{a.BundleID, a.StartTime, a.EndTime, a.DurationSeconds,
		a.DeviceID, a.DeviceModel, a.SourceDB}
}

// BluetoothConnection is one connected interval of a Bluetooth device.
type BluetoothConnection struct {
	RecordHash      string
	DeviceName      sql.NullString
	DeviceAddress   sql.NullString
	DeviceType      sql.NullInt64
	ProductID       sql.NullInt64
	StartTime       int64
	EndTime         sql.NullInt64
	DurationSeconds sql.NullFloat64
}

func (b *BluetoothConnection) Table() string { return "bluetooth_connections" }
func (b *BluetoothConnection) Hash() string  { return b.RecordHash }
func (b *BluetoothConnection) Columns() []string {
	return []string{"device_name", "device_address", "device_type", "product_id",
		"start_time", "end_time", "duration_seconds"}
}
func (b *BluetoothConnection) Values() []any {
	return []any{b.DeviceName, b.DeviceAddress, b.DeviceType, b.ProductID,
		b.StartTime, b.EndTime, b.DurationSeconds}
}

// Notification is one notification event.
type Notification struct {
	RecordHash string
	BundleID   string
	EventType  sql.NullString
	Timestamp  int64
}

func (n *Notification) Table() string     { return "notifications" }
func (n *Notification) Hash() string      { return n.RecordHash }
func (n *Notification) Columns() []string { return []string{"bundle_id", "event_type", "timestamp"} }
func (n *Notification) Values() []any     { return []any{n.BundleID, n.EventType, n.Timestamp} }

// Intent is one app intent donation.
type Intent struct {
	RecordHash  string
	IntentClass sql.NullString
	IntentVerb  sql.NullString
	BundleID    sql.NullString
	Timestamp   int64
}

func (i *Intent) Table() string { return "intents" }
func (i *Intent) Hash() string  { return i.RecordHash }
func (i *Intent) Columns() []string {
	return []string{"intent_class", "intent_verb", "bundle_id", "timestamp"}
}
func (i *Intent) Values() []any {
	return []any{i.IntentClass, i.IntentVerb, i.BundleID, i.Timestamp}
}

// DisplayState is one backlight interval.
type DisplayState struct {
	RecordHash      string
	IsBacklit       bool
	StartTime       int64
	EndTime         sql.NullInt64
	DurationSeconds sql.NullFloat64
}

func (d *DisplayState) Table() string { return "display_state" }
func (d *DisplayState) Hash() string  { return d.RecordHash }
func (d *DisplayState) Columns() []string {
	return []string{"is_backlit", "start_time", "end_time", "duration_seconds"}
}
func (d *DisplayState) Values() []any {
	return []any{d.IsBacklit, d.StartTime, d.EndTime, d.DurationSeconds}
}

// PodcastEpisode is one listened episode. RecordHash is the episode uuid.
type PodcastEpisode struct {
	RecordHash      string
	EpisodeTitle    sql.NullString
	ShowTitle       sql.NullString
	ShowUUID        sql.NullString
	DurationSeconds sql.NullFloat64
	PlayedSeconds   sql.NullFloat64
	PlayCount       int64
	LastPlayedAt    sql.NullInt64
	PublishedAt     sql.NullInt64
}

func (p *PodcastEpisode) Table() string { return "podcast_episodes" }
func (p *PodcastEpisode) Hash() string  { return p.RecordHash }
func (p *PodcastEpisode) Columns() []string {
	return []string{"episode_title", "show_title", "show_uuid", "duration_seconds",
		"played_seconds", "play_count", "last_played_at", "published_at"}
}
func (p *PodcastEpisode) Values() []any {
	return []any{p.EpisodeTitle, p.ShowTitle, p.ShowUUID, p.DurationSeconds,
		p.PlayedSeconds, p.PlayCount, p.LastPlayedAt, p.PublishedAt}
}

// PodcastShow is one subscribed or listened show. RecordHash is the show uuid.
type PodcastShow struct {
	RecordHash   string
	Title        string
	Author       sql.NullString
	FeedURL      sql.NullString
	SubscribedAt sql.NullInt64
	EpisodeCount int64
}

func (p *PodcastShow) Table() string { return "podcast_shows" }
func (p *PodcastShow) Hash() string  { return p.RecordHash }
func (p *PodcastShow) Columns() []string {
	return []string{"title", "author", "feed_url", "subscribed_at", "episode_count"}
}
func (p *PodcastShow) Values() []any {
	return []any{p.Title, p.Author, p.FeedURL, p.SubscribedAt, p.EpisodeCount}
}
