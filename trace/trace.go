// Package trace provides SQL statement logging for modernc.org/sqlite.
//
// It registers a "sqlite-trace" driver that wraps the standard "sqlite"
// driver and logs every Exec and Query through slog with adaptive levels:
// Debug normally, Warn when slower than SlowThreshold, Error on failure.
// The run id and source name are read from the context via kit, so a
// statement can be tied back to the extraction run that issued it.
//
//	import _ "github.com/hazyhaar/quantself/trace"
//	db, _ := dbopen.Open("unified.db", dbopen.WithTrace())
package trace

import (
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"

	sqlite "modernc.org/sqlite"
)

// DriverName is the name the tracing driver registers under.
const DriverName = "sqlite-trace"

// SlowThreshold is the duration above which statements log at Warn.
const SlowThreshold = 100 * time.Millisecond

var logger atomic.Pointer[slog.Logger]

// SetLogger routes trace output to l. nil restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func getLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func init() {
	sql.Register(DriverName, &TracingDriver{
		Driver: &sqlite.Driver{},
	})
}
