package store

import (
	"context"
	"database/sql"

	"github.com/hazyhaar/quantself/dbopen"
)

// Schema is the complete unified database schema. All timestamps are Unix
// seconds; durations are seconds stored as REAL.
const Schema = `
-- One row per collector invocation
CREATE TABLE IF NOT EXISTS extraction_runs (
    id              TEXT PRIMARY KEY,
    started_at      INTEGER NOT NULL,
    completed_at    INTEGER,
    source          TEXT NOT NULL,
    source_path     TEXT NOT NULL DEFAULT '',
    records_added   INTEGER NOT NULL DEFAULT 0,
    records_skipped INTEGER NOT NULL DEFAULT 0,
    status          TEXT NOT NULL DEFAULT 'running',
    error_message   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_extraction_runs_source ON extraction_runs(source, started_at);

-- App usage sessions (knowledgeC /app/usage)
CREATE TABLE IF NOT EXISTS app_usage (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash      TEXT UNIQUE NOT NULL,
    bundle_id        TEXT NOT NULL,
    start_time       INTEGER NOT NULL,
    end_time         INTEGER,
    duration_seconds REAL,
    device_id        TEXT,
    device_model     TEXT,
    source_db        TEXT DEFAULT 'knowledgeC'
);

-- Browser history
CREATE TABLE IF NOT EXISTS web_visits (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash            TEXT UNIQUE NOT NULL,
    url                    TEXT NOT NULL,
    title                  TEXT,
    visit_time             INTEGER NOT NULL,
    visit_duration_seconds REAL,
    transition_type        TEXT,
    browser                TEXT DEFAULT 'chrome'
);

-- Bluetooth connections (knowledgeC /bluetooth/isConnected)
CREATE TABLE IF NOT EXISTS bluetooth_connections (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash      TEXT UNIQUE NOT NULL,
    device_name      TEXT,
    device_address   TEXT,
    device_type      INTEGER,
    product_id       INTEGER,
    start_time       INTEGER NOT NULL,
    end_time         INTEGER,
    duration_seconds REAL
);

-- Notifications (knowledgeC /notification/usage)
CREATE TABLE IF NOT EXISTS notifications (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash TEXT UNIQUE NOT NULL,
    bundle_id   TEXT NOT NULL,
    event_type  TEXT,
    timestamp   INTEGER NOT NULL
);

-- iMessage / SMS
CREATE TABLE IF NOT EXISTS messages (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash    TEXT UNIQUE NOT NULL,
    text           TEXT,
    is_from_me     INTEGER,
    timestamp      INTEGER NOT NULL,
    date_read      INTEGER,
    date_delivered INTEGER,
    handle_id      TEXT,
    chat_id        TEXT,
    service        TEXT,
    has_attachment INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS chats (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash       TEXT UNIQUE NOT NULL,
    chat_identifier   TEXT,
    display_name      TEXT,
    participant_count INTEGER,
    last_message_time INTEGER
);

-- Message handles (phone numbers, e-mail addresses)
CREATE TABLE IF NOT EXISTS contacts (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash  TEXT UNIQUE NOT NULL,
    handle_id    TEXT NOT NULL,
    display_name TEXT,
    service      TEXT
);

CREATE TABLE IF NOT EXISTS podcast_episodes (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash      TEXT UNIQUE NOT NULL,
    episode_title    TEXT,
    show_title       TEXT,
    show_uuid        TEXT,
    duration_seconds REAL,
    played_seconds   REAL,
    play_count       INTEGER,
    last_played_at   INTEGER,
    published_at     INTEGER
);

CREATE TABLE IF NOT EXISTS podcast_shows (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash   TEXT UNIQUE NOT NULL,
    title         TEXT NOT NULL,
    author        TEXT,
    feed_url      TEXT,
    subscribed_at INTEGER,
    episode_count INTEGER
);

-- Siri / app intents (knowledgeC /app/intents)
CREATE TABLE IF NOT EXISTS intents (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash  TEXT UNIQUE NOT NULL,
    intent_class TEXT,
    intent_verb  TEXT,
    bundle_id    TEXT,
    timestamp    INTEGER NOT NULL
);

-- Screen on/off (knowledgeC /display/isBacklit)
CREATE TABLE IF NOT EXISTS display_state (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    record_hash      TEXT UNIQUE NOT NULL,
    is_backlit       INTEGER,
    start_time       INTEGER NOT NULL,
    end_time         INTEGER,
    duration_seconds REAL
);

CREATE INDEX IF NOT EXISTS idx_app_usage_time ON app_usage(start_time);
CREATE INDEX IF NOT EXISTS idx_app_usage_bundle ON app_usage(bundle_id);
CREATE INDEX IF NOT EXISTS idx_web_visits_time ON web_visits(visit_time);
CREATE INDEX IF NOT EXISTS idx_messages_time ON messages(timestamp);
CREATE INDEX IF NOT EXISTS idx_messages_handle ON messages(handle_id);
CREATE INDEX IF NOT EXISTS idx_contacts_handle ON contacts(handle_id);
CREATE INDEX IF NOT EXISTS idx_notifications_time ON notifications(timestamp);
CREATE INDEX IF NOT EXISTS idx_bluetooth_time ON bluetooth_connections(start_time);
CREATE INDEX IF NOT EXISTS idx_podcast_episodes_played ON podcast_episodes(last_played_at);
CREATE INDEX IF NOT EXISTS idx_chats_time ON chats(last_message_time);
CREATE INDEX IF NOT EXISTS idx_intents_time ON intents(timestamp);
CREATE INDEX IF NOT EXISTS idx_display_state_time ON display_state(start_time);
CREATE INDEX IF NOT EXISTS idx_podcast_shows_time ON podcast_shows(subscribed_at);
`

// ApplySchema creates every table and index in one transaction. It is
// idempotent.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	return dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, Schema)
		return err
	})
}
