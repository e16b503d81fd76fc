package collector

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazyhaar/quantself/dbopen"
	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/snapshot"
	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// Timestamps for 2023-01-01T00:00:00Z in each vendor encoding.
const (
	unix2023        int64   = 1672531200
	apple2023       float64 = 694224000
	appleNano2023   int64   = 694224000 * 1_000_000_000
	chromeMicro2023 int64   = 13317004800000000
)

// fixtureDB creates a source database file with the given DDL and rows.
func fixtureDB(t *testing.T, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	db, err := dbopen.Open(path, dbopen.WithJournalMode("DELETE"))
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	defer db.Close()
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("fixture %s: %s: %v", name, s, err)
		}
	}
	return path
}

type testEnv struct {
	Env
	store *store.Store
}

func newTestEnv(t *testing.T, overrides ...string) testEnv {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if err := store.ApplySchema(context.Background(), db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	st := store.NewStore(db)
	return testEnv{
		Env: Env{
			Locator:   locate.New(t.TempDir(), nil),
			Snapshots: snapshot.New(filepath.Join(t.TempDir(), "source_dbs")),
			Store:     st,
			Overrides: overrides,
		},
		store: st,
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

var chromeSchema = []string{
	`CREATE TABLE urls (id INTEGER PRIMARY KEY, url LONGVARCHAR, title LONGVARCHAR,
		visit_count INTEGER DEFAULT 0 NOT NULL, last_visit_time INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE visits (id INTEGER PRIMARY KEY, url INTEGER NOT NULL, visit_time INTEGER NOT NULL,
		from_visit INTEGER, transition INTEGER DEFAULT 0 NOT NULL, visit_duration INTEGER DEFAULT 0 NOT NULL)`,
}

var messagesSchema = []string{
	`CREATE TABLE handle (ROWID INTEGER PRIMARY KEY AUTOINCREMENT, id TEXT NOT NULL, country TEXT,
		service TEXT NOT NULL, uncanonicalized_id TEXT)`,
	`CREATE TABLE chat (ROWID INTEGER PRIMARY KEY AUTOINCREMENT, guid TEXT UNIQUE NOT NULL,
		chat_identifier TEXT, display_name TEXT, service_name TEXT)`,
	`CREATE TABLE message (ROWID INTEGER PRIMARY KEY AUTOINCREMENT, guid TEXT, text TEXT,
		handle_id INTEGER DEFAULT 0, service TEXT, date INTEGER, date_read INTEGER,
		date_delivered INTEGER, is_from_me INTEGER DEFAULT 0)`,
	`CREATE TABLE chat_handle_join (chat_id INTEGER, handle_id INTEGER)`,
	`CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER, message_date INTEGER DEFAULT 0)`,
	`CREATE TABLE attachment (ROWID INTEGER PRIMARY KEY AUTOINCREMENT, guid TEXT, filename TEXT)`,
	`CREATE TABLE message_attachment_join (message_id INTEGER, attachment_id INTEGER)`,
}

var knowledgeCSchema = []string{
	`CREATE TABLE ZOBJECT (Z_PK INTEGER PRIMARY KEY, ZSTREAMNAME VARCHAR, ZVALUESTRING VARCHAR,
		ZVALUEINTEGER INTEGER, ZSTARTDATE TIMESTAMP, ZENDDATE TIMESTAMP, ZSOURCE INTEGER,
		ZSTRUCTUREDMETADATA INTEGER)`,
	`CREATE TABLE ZSOURCE (Z_PK INTEGER PRIMARY KEY, ZBUNDLEID VARCHAR, ZDEVICEID VARCHAR)`,
	`CREATE TABLE ZSTRUCTUREDMETADATA (Z_PK INTEGER PRIMARY KEY,
		Z_DKBLUETOOTHMETADATAKEY__NAME VARCHAR, Z_DKBLUETOOTHMETADATAKEY__ADDRESS VARCHAR,
		Z_DKBLUETOOTHMETADATAKEY__DEVICETYPE INTEGER, Z_DKBLUETOOTHMETADATAKEY__PRODUCTID INTEGER,
		Z_DKINTENTMETADATAKEY__INTENTCLASS VARCHAR, Z_DKINTENTMETADATAKEY__INTENTVERB VARCHAR)`,
	`CREATE TABLE ZSYNCPEER (Z_PK INTEGER PRIMARY KEY, ZDEVICEID VARCHAR, ZMODEL VARCHAR)`,
}

var podcastsSchema = []string{
	`CREATE TABLE ZMTPODCAST (Z_PK INTEGER PRIMARY KEY, ZUUID VARCHAR, ZTITLE VARCHAR, ZAUTHOR VARCHAR,
		ZFEEDURL VARCHAR, ZADDEDDATE TIMESTAMP, ZSUBSCRIBED INTEGER, ZLASTDATEPLAYED TIMESTAMP)`,
	`CREATE TABLE ZMTEPISODE (Z_PK INTEGER PRIMARY KEY, ZUUID VARCHAR, ZTITLE VARCHAR, ZPODCAST INTEGER,
		ZDURATION FLOAT, ZPLAYHEAD FLOAT, ZPLAYCOUNT INTEGER, ZLASTDATEPLAYED TIMESTAMP, ZPUBDATE TIMESTAMP)`,
}

func with(schema []string, rows ...string) []string {
	return append(append([]string(nil), schema...), rows...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func copyFixture(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dst, string(data))
}
