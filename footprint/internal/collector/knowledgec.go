package collector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/quantself/contenthash"
	"github.com/hazyhaar/quantself/epoch"
	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// knowledgeCCollector reads the CoreDuet knowledge store. Every event is a
// ZOBJECT row tagged with a stream name; dates are Apple seconds (REAL).
type knowledgeCCollector struct{}

func (knowledgeCCollector) Kind() Kind { return KnowledgeC }

func (knowledgeCCollector) Descriptor() locate.Descriptor {
	return locate.Descriptor{
		Name: string(KnowledgeC),
		Paths: []string{
			"~/Library/Application Support/Knowledge/knowledgeC.db",
			"/private/var/db/CoreDuet/Knowledge/knowledgeC.db",
		},
	}
}

type streamFunc func(context.Context, *sql.DB, *store.Store, *Tally) error

func (k knowledgeCCollector) Extract(ctx context.Context, src *sql.DB, dst *store.Store) (Tally, error) {
	var t Tally
	devices, err := deviceModels(ctx, src)
	if err != nil {
		return t, fmt.Errorf("devices: %w", err)
	}
	streams := []struct {
		name string
		fn   streamFunc
	}{
		{"/app/usage", func(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
			return k.appUsage(ctx, src, dst, t, devices)
		}},
		{"/bluetooth/isConnected", k.bluetooth},
		{"/notification/usage", k.notifications},
		{"/app/intents", k.intents},
		{"/display/isBacklit", k.display},
	}
	for _, s := range streams {
		if err := s.fn(ctx, src, dst, &t); err != nil {
			return t, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return t, nil
}

// deviceModels maps ZSYNCPEER device ids to hardware models. Databases
// without paired devices may lack the table entirely.
func deviceModels(ctx context.Context, src *sql.DB) (map[string]string, error) {
	models := make(map[string]string)
	ok, err := tableExists(ctx, src, "ZSYNCPEER")
	if err != nil || !ok {
		return models, err
	}
	rows, err := src.QueryContext(ctx,
		`SELECT ZDEVICEID, ZMODEL FROM ZSYNCPEER WHERE ZDEVICEID IS NOT NULL AND ZMODEL IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, model string
		if err := rows.Scan(&id, &model); err != nil {
			return nil, fmt.Errorf("scan sync peer: %w", err)
		}
		models[id] = model
	}
	return models, rows.Err()
}

const appUsageQuery = `
SELECT o.ZVALUESTRING, o.ZSTARTDATE, o.ZENDDATE, s.ZDEVICEID
FROM ZOBJECT o
LEFT JOIN ZSOURCE s ON o.ZSOURCE = s.Z_PK
WHERE o.ZSTREAMNAME = '/app/usage' AND o.ZVALUESTRING IS NOT NULL
ORDER BY o.ZSTARTDATE`

func (knowledgeCCollector) appUsage(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally, devices map[string]string) error {
	rows, err := src.QueryContext(ctx, appUsageQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var bundle sql.NullString
		var start, end sql.NullFloat64
		a := &store.AppUsage{SourceDB: string(KnowledgeC)}
		if err := rows.Scan(&bundle, &start, &end, &a.DeviceID); err != nil {
			return fmt.Errorf("scan app usage: %w", err)
		}
		startTime := epoch.Apple(start)
		if !nonEmpty(bundle) || !startTime.Valid {
			continue
		}
		a.BundleID = bundle.String
		a.StartTime = startTime.Int64
		a.EndTime = epoch.Apple(end)
		a.DurationSeconds = durationBetween(a.StartTime, a.EndTime)
		if a.DeviceID.Valid {
			if model, ok := devices[a.DeviceID.String]; ok {
				a.DeviceModel = sql.NullString{String: model, Valid: true}
			}
		}
		a.RecordHash = contenthash.Of(a.BundleID, a.StartTime, a.DeviceID)
		if err := insert(ctx, dst, t, a); err != nil {
			return err
		}
	}
	return rows.Err()
}

const bluetoothQuery = `
SELECT
    o.ZSTARTDATE,
    o.ZENDDATE,
    sm.Z_DKBLUETOOTHMETADATAKEY__NAME,
    sm.Z_DKBLUETOOTHMETADATAKEY__ADDRESS,
    sm.Z_DKBLUETOOTHMETADATAKEY__DEVICETYPE,
    sm.Z_DKBLUETOOTHMETADATAKEY__PRODUCTID
FROM ZOBJECT o
LEFT JOIN ZSTRUCTUREDMETADATA sm ON o.ZSTRUCTUREDMETADATA = sm.Z_PK
WHERE o.ZSTREAMNAME = '/bluetooth/isConnected'
ORDER BY o.ZSTARTDATE`

func (knowledgeCCollector) bluetooth(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, bluetoothQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var start, end sql.NullFloat64
		b := &store.BluetoothConnection{}
		if err := rows.Scan(&start, &end, &b.DeviceName, &b.DeviceAddress, &b.DeviceType, &b.ProductID); err != nil {
			return fmt.Errorf("scan bluetooth: %w", err)
		}
		startTime := epoch.Apple(start)
		if !startTime.Valid {
			continue
		}
		b.StartTime = startTime.Int64
		b.EndTime = epoch.Apple(end)
		b.DurationSeconds = durationBetween(b.StartTime, b.EndTime)
		b.RecordHash = contenthash.Of(b.DeviceAddress, b.StartTime)
		if err := insert(ctx, dst, t, b); err != nil {
			return err
		}
	}
	return rows.Err()
}

const notificationsQuery = `
SELECT o.ZVALUESTRING, o.ZSTARTDATE, s.ZBUNDLEID
FROM ZOBJECT o
LEFT JOIN ZSOURCE s ON o.ZSOURCE = s.Z_PK
WHERE o.ZSTREAMNAME = '/notification/usage'
ORDER BY o.ZSTARTDATE`

func (knowledgeCCollector) notifications(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, notificationsQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var start sql.NullFloat64
		var bundle sql.NullString
		n := &store.Notification{}
		if err := rows.Scan(&n.EventType, &start, &bundle); err != nil {
			return fmt.Errorf("scan notification: %w", err)
		}
		ts := epoch.Apple(start)
		if !ts.Valid {
			continue
		}
		// Older databases leave ZSOURCE empty and put the bundle in the value.
		if !bundle.Valid {
			bundle = n.EventType
		}
		if !nonEmpty(bundle) || bundle.String == "Receive" || bundle.String == "Dismiss" {
			continue
		}
		n.BundleID = bundle.String
		n.Timestamp = ts.Int64
		n.RecordHash = contenthash.Of(n.BundleID, n.Timestamp, n.EventType)
		if err := insert(ctx, dst, t, n); err != nil {
			return err
		}
	}
	return rows.Err()
}

const intentsQuery = `
SELECT
    o.ZSTARTDATE,
    sm.Z_DKINTENTMETADATAKEY__INTENTCLASS,
    sm.Z_DKINTENTMETADATAKEY__INTENTVERB,
    s.ZBUNDLEID
FROM ZOBJECT o
LEFT JOIN ZSTRUCTUREDMETADATA sm ON o.ZSTRUCTUREDMETADATA = sm.Z_PK
LEFT JOIN ZSOURCE s ON o.ZSOURCE = s.Z_PK
WHERE o.ZSTREAMNAME = '/app/intents'
ORDER BY o.ZSTARTDATE`

func (knowledgeCCollector) intents(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, intentsQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var start sql.NullFloat64
		in := &store.Intent{}
		if err := rows.Scan(&start, &in.IntentClass, &in.IntentVerb, &in.BundleID); err != nil {
			return fmt.Errorf("scan intent: %w", err)
		}
		ts := epoch.Apple(start)
		if !ts.Valid {
			continue
		}
		in.Timestamp = ts.Int64
		in.RecordHash = contenthash.Of(in.IntentClass, in.BundleID, in.Timestamp)
		if err := insert(ctx, dst, t, in); err != nil {
			return err
		}
	}
	return rows.Err()
}

const displayQuery = `
SELECT o.ZVALUEINTEGER, o.ZSTARTDATE, o.ZENDDATE
FROM ZOBJECT o
WHERE o.ZSTREAMNAME = '/display/isBacklit'
ORDER BY o.ZSTARTDATE`

func (knowledgeCCollector) display(ctx context.Context, src *sql.DB, dst *store.Store, t *Tally) error {
	rows, err := src.QueryContext(ctx, displayQuery)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var backlit sql.NullInt64
		var start, end sql.NullFloat64
		if err := rows.Scan(&backlit, &start, &end); err != nil {
			return fmt.Errorf("scan display state: %w", err)
		}
		startTime := epoch.Apple(start)
		if !startTime.Valid {
			continue
		}
		d := &store.DisplayState{
			IsBacklit: backlit.Valid && backlit.Int64 != 0,
			StartTime: startTime.Int64,
			EndTime:   epoch.Apple(end),
		}
		d.DurationSeconds = durationBetween(d.StartTime, d.EndTime)
		d.RecordHash = contenthash.Of(d.StartTime, backlit.Int64)
		if err := insert(ctx, dst, t, d); err != nil {
			return err
		}
	}
	return rows.Err()
}
