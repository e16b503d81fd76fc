package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/quantself/dbopen"
	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/snapshot"
	"github.com/hazyhaar/quantself/footprint/internal/store"
	"github.com/hazyhaar/quantself/idgen"
	"github.com/hazyhaar/quantself/kit"
)

// State is a step of one collector run.
type State int

const (
	NotStarted State = iota
	Located
	Snapshotted
	Extracting
	Completed
	Failed
)

var stateNames = [...]string{"not_started", "located", "snapshotted", "extracting", "completed", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Env is what Run needs besides the collector itself.
type Env struct {
	Locator   *locate.Locator
	Snapshots *snapshot.Manager
	Store     *store.Store
	// Overrides replace the collector's default paths when non-empty.
	Overrides []string
	// OpenOptions are appended when opening the snapshot.
	OpenOptions []dbopen.Option
	NewRunID    idgen.Generator
	Logger      *slog.Logger
}

// Result describes one collector run. Err is set when Status is failed.
type Result struct {
	Source         Kind            `json:"source"`
	DisplayName    string          `json:"display_name"`
	Status         store.RunStatus `json:"status"`
	State          State           `json:"-"`
	RunID          string          `json:"run_id,omitempty"`
	SourcePath     string          `json:"source_path,omitempty"`
	SnapshotPath   string          `json:"snapshot_path,omitempty"`
	RecordsAdded   int64           `json:"records_added"`
	RecordsSkipped int64           `json:"records_skipped"`
	Message        string          `json:"error_message,omitempty"`
	Duration       time.Duration   `json:"-"`
	Err            error           `json:"-"`
}

// Success reports whether the run completed.
func (r Result) Success() bool { return r.Status == store.RunCompleted }

func (r *Result) fail(err error) {
	r.State = Failed
	r.Status = store.RunFailed
	r.RecordsAdded, r.RecordsSkipped = 0, 0
	r.Err = err
	r.Message = err.Error()
}

// Run executes c end to end. It never returns an error: every failure is
// described by the Result, and a ledger row that was started is always
// finalized.
func Run(ctx context.Context, c Collector, env Env) (res Result) {
	start := time.Now()
	kind := c.Kind()
	res = Result{Source: kind, DisplayName: kind.DisplayName(), State: NotStarted, Status: store.RunFailed}

	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", string(kind))
	newID := env.NewRunID
	if newID == nil {
		newID = idgen.Run
	}

	defer func() {
		res.Duration = time.Since(start)
		if res.Success() {
			logger.Info("extraction completed",
				"run_id", res.RunID, "added", res.RecordsAdded, "skipped", res.RecordsSkipped,
				"duration", res.Duration)
		} else {
			logger.Warn("extraction failed", "run_id", res.RunID, "state", res.State.String(), "error", res.Message)
		}
	}()

	path, err := env.Locator.Locate(c.Descriptor(), env.Overrides)
	if err != nil {
		res.fail(fmt.Errorf("%w for %s", ErrSourceNotFound, kind))
		return res
	}
	res.State, res.SourcePath = Located, path

	snap, err := env.Snapshots.Take(string(kind), path)
	if err != nil {
		res.fail(fmt.Errorf("failed to copy source database: %w", err))
		return res
	}
	res.State, res.SnapshotPath = Snapshotted, snap

	run, err := env.Store.StartRun(ctx, newID(), string(kind), path)
	if err != nil {
		res.fail(err)
		return res
	}
	res.RunID = run.ID
	ctx = kit.WithRunID(kit.WithSource(ctx, string(kind)), run.ID)

	res.State = Extracting
	tally, err := extractSnapshot(ctx, c, snap, env)
	if err != nil {
		res.fail(fmt.Errorf("%w: %s: %w", ErrExtractionFailed, kind, err))
		if ferr := env.Store.FinishRun(ctx, run.ID, store.RunFailed, 0, 0, res.Message); ferr != nil {
			logger.Error("finalize failed run", "run_id", run.ID, "error", ferr)
		}
		return res
	}

	if err := env.Store.FinishRun(ctx, run.ID, store.RunCompleted, tally.Added, tally.Skipped, ""); err != nil {
		res.fail(err)
		return res
	}
	res.State, res.Status = Completed, store.RunCompleted
	res.RecordsAdded, res.RecordsSkipped = tally.Added, tally.Skipped
	return res
}

// extractSnapshot opens the snapshot without touching its journal mode and
// runs the collector against it. A panic inside Extract becomes an error.
func extractSnapshot(ctx context.Context, c Collector, path string, env Env) (t Tally, err error) {
	opts := append([]dbopen.Option{dbopen.WithJournalMode(""), dbopen.WithoutForeignKeys()}, env.OpenOptions...)
	src, err := dbopen.Open(path, opts...)
	if err != nil {
		return Tally{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer src.Close()

	defer func() {
		if r := recover(); r != nil {
			t, err = Tally{}, fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Extract(ctx, src, env.Store)
}
