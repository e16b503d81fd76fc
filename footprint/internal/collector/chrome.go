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

const chromeBrowser = "chrome"

// Chrome page transition core types, stored in the low byte of
// visits.transition.
var transitionNames = map[int64]string{
	0:  "link",
	1:  "typed",
	2:  "auto_bookmark",
	3:  "auto_subframe",
	4:  "manual_subframe",
	5:  "generated",
	6:  "auto_toplevel",
	7:  "form_submit",
	8:  "reload",
	9:  "keyword",
	10: "keyword_generated",
}

// TransitionName maps a raw Chrome transition value to its core type name.
func TransitionName(transition int64) string {
	if name, ok := transitionNames[transition&0xFF]; ok {
		return name
	}
	return "other"
}

type chromeCollector struct{}

func (chromeCollector) Kind() Kind { return Chrome }

func (chromeCollector) Descriptor() locate.Descriptor {
	return locate.Descriptor{
		Name: string(Chrome),
		Paths: []string{
			"~/Library/Application Support/Google/Chrome/Default/History",
			"~/Library/Application Support/Google/Chrome/Profile 1/History",
		},
		Discover: locate.ProfileScan{
			Parent:   "~/Library/Application Support/Google/Chrome",
			Profiles: []string{"Default", "Profile *", "Guest Profile"},
			Target:   "History",
		},
	}
}

const visitsQuery = `
SELECT u.url, u.title, v.visit_time, v.visit_duration, v.transition
FROM visits v
JOIN urls u ON v.url = u.id
ORDER BY v.visit_time`

func (chromeCollector) Extract(ctx context.Context, src *sql.DB, dst *store.Store) (Tally, error) {
	var t Tally
	rows, err := src.QueryContext(ctx, visitsQuery)
	if err != nil {
		return t, fmt.Errorf("visits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			url        sql.NullString
			visitTime  sql.NullInt64
			duration   sql.NullInt64
			transition sql.NullInt64
		)
		v := &store.WebVisit{Browser: chromeBrowser}
		if err := rows.Scan(&url, &v.Title, &visitTime, &duration, &transition); err != nil {
			return t, fmt.Errorf("scan visit: %w", err)
		}
		ts := epoch.Chrome(visitTime)
		if !ts.Valid || !url.Valid {
			continue
		}
		v.URL = url.String
		v.VisitTime = ts.Int64
		if duration.Valid {
			v.DurationSeconds = sql.NullFloat64{Valid: true}
			if duration.Int64 > 0 {
				v.DurationSeconds.Float64 = float64(duration.Int64) / 1e6
			}
		}
		v.TransitionType = TransitionName(transition.Int64)
		// The raw microsecond value keeps visits within the same second distinct.
		v.RecordHash = contenthash.Of(v.URL, visitTime.Int64, chromeBrowser)
		if err := insert(ctx, dst, &t, v); err != nil {
			return t, err
		}
	}
	return t, rows.Err()
}
