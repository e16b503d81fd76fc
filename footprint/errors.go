package footprint

import (
	"errors"

	"github.com/hazyhaar/quantself/epoch"
	"github.com/hazyhaar/quantself/footprint/internal/collector"
	"github.com/hazyhaar/quantself/footprint/internal/snapshot"
	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// Error kinds surfaced by the service. Match them with errors.Is, and
// *PermissionError with errors.As.
var (
	ErrSourceNotFound    = collector.ErrSourceNotFound
	ErrUnsupportedSource = collector.ErrUnsupportedSource
	ErrExtractionFailed  = collector.ErrExtractionFailed
	ErrCopyFailed        = snapshot.ErrCopyFailed
	ErrStorage           = store.ErrStorage
	ErrRunNotFound       = store.ErrRunNotFound
	ErrInvalidTimestamp  = epoch.ErrInvalidTimestamp

	// ErrStoreNotFound is returned by StoreStats, Activity, ListRuns and
	// GetRun when the output directory holds no unified database.
	ErrStoreNotFound = errors.New("footprint: unified database not found")
)

// PermissionError reports a source database the process may not read. Its
// message tells the user to grant Full Disk Access.
type PermissionError = snapshot.PermissionError
