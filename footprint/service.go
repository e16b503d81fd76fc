// Package footprint consolidates macOS activity databases into one
// append-only unified SQLite store.
//
// A Service locates each enabled source database (Messages, Chrome,
// knowledgeC, Podcasts), copies it to a snapshot, maps its rows into
// canonical records and inserts them deduplicated by content hash. Every
// collector invocation is recorded in the extraction_runs ledger.
//
//	svc, err := footprint.New(footprint.DefaultConfig(), logger)
//	report, err := svc.ExtractAll(ctx)
package footprint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/quantself/dbopen"
	"github.com/hazyhaar/quantself/footprint/internal/collector"
	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/snapshot"
	"github.com/hazyhaar/quantself/footprint/internal/store"
	"github.com/hazyhaar/quantself/guard"
	"github.com/hazyhaar/quantself/idgen"
	"github.com/hazyhaar/quantself/trace"
)

// Service runs extractions for one configuration. Calls are synchronous
// and process sources sequentially.
type Service struct {
	cfg         *Config
	logger      *slog.Logger
	locator     *locate.Locator
	snapshots   *snapshot.Manager
	outputDir   string
	snapshotDir string
	openOpts    []dbopen.Option
	newRunID    idgen.Generator
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	snapshotOpts []snapshot.Option
	newRunID     idgen.Generator
}

// WithSnapshotOpener replaces how source files are opened for copying.
func WithSnapshotOpener(o snapshot.Opener) Option {
	return func(so *serviceOptions) { so.snapshotOpts = append(so.snapshotOpts, snapshot.WithOpener(o)) }
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(g idgen.Generator) Option {
	return func(so *serviceOptions) { so.newRunID = g }
}

// New validates cfg and returns a Service. A nil cfg means DefaultConfig;
// a nil logger means slog.Default().
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out, err := cfg.outputDir()
	if err != nil {
		return nil, fmt.Errorf("%w: output_dir: %w", ErrInvalidConfig, err)
	}
	snapDir, err := cfg.snapshotDir()
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot_dir: %w", ErrInvalidConfig, err)
	}

	so := serviceOptions{newRunID: idgen.Run}
	for _, o := range opts {
		o(&so)
	}

	s := &Service{
		cfg:         cfg,
		logger:      logger,
		locator:     locate.New(cfg.Home, logger),
		outputDir:   out,
		snapshotDir: snapDir,
		newRunID:    so.newRunID,
	}
	s.snapshots = snapshot.New(snapDir, append([]snapshot.Option{snapshot.WithLogger(logger)}, so.snapshotOpts...)...)
	if cfg.TraceSQL {
		trace.SetLogger(logger)
		s.openOpts = append(s.openOpts, dbopen.WithTrace())
	}
	return s, nil
}

// OutputDir is the resolved directory holding unified.db.
func (s *Service) OutputDir() string { return s.outputDir }

// SnapshotDir is the resolved snapshot directory.
func (s *Service) SnapshotDir() string { return s.snapshotDir }

// ExtractAll runs every enabled source. The returned error is non-nil only
// when nothing could be attempted; per-source failures are in the Report.
func (s *Service) ExtractAll(ctx context.Context) (*Report, error) {
	return s.ExtractSources(ctx, s.cfg.Kinds()...)
}

// ExtractSources runs the given sources in order against one store handle.
func (s *Service) ExtractSources(ctx context.Context, kinds ...Kind) (*Report, error) {
	start := time.Now()
	collectors := make([]collector.Collector, 0, len(kinds))
	for _, k := range kinds {
		c, err := collector.New(k)
		if err != nil {
			return nil, err
		}
		collectors = append(collectors, c)
	}

	st, err := s.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	rep := &Report{Success: true}
	for _, c := range collectors {
		rep.add(collector.Run(ctx, c, s.env(c.Kind(), st)))
	}
	rep.finish(start)
	s.logger.Info("extraction finished",
		"sources", len(rep.Results), "added", rep.TotalAdded, "skipped", rep.TotalSkipped,
		"success", rep.Success, "duration", rep.Duration)
	return rep, nil
}

// ExtractSource runs one source. Source-level failures are reported in the
// Result, not as an error.
func (s *Service) ExtractSource(ctx context.Context, kind Kind) (Result, error) {
	rep, err := s.ExtractSources(ctx, kind)
	if err != nil {
		return Result{}, err
	}
	return rep.Results[0], nil
}

// ScanSources reports where every known source database is, whether it can
// be read, its size and modification time, and when it was last extracted
// successfully. It never fails.
func (s *Service) ScanSources(ctx context.Context) []SourceInfo {
	st, _, err := s.openStoreReadOnly("")
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		s.logger.Warn("footprint: scan without ledger", "error", err)
	}
	if st != nil {
		defer st.Close()
	}

	infos := make([]SourceInfo, 0, len(collector.All()))
	for _, k := range collector.All() {
		c, _ := collector.New(k)
		info := sourceInfo(k, s.locator.Probe(c.Descriptor(), s.cfg.Overrides(k)))
		if st != nil {
			last, err := st.LastCompleted(ctx, string(k))
			if err != nil {
				s.logger.Warn("footprint: last completed run", "source", k, "error", err)
			}
			info.LastExtracted = unixTime(last.Int64, last.Valid)
		}
		infos = append(infos, info)
	}
	return infos
}

// StoreStats summarizes the unified database in dir. An empty dir means the
// configured output directory.
func (s *Service) StoreStats(ctx context.Context, dir string) (*StoreStats, error) {
	st, path, err := s.openStoreReadOnly(dir)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	raw, err := st.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats %s: %w", path, err)
	}
	stats := &StoreStats{
		Path:     path,
		Tables:   raw.Tables,
		Total:    raw.Total,
		Earliest: unixTime(raw.Earliest.Int64, raw.Earliest.Valid),
		Latest:   unixTime(raw.Latest.Int64, raw.Latest.Valid),
		Runs:     raw.Runs,
	}
	if fi, err := os.Stat(path); err == nil {
		stats.SizeBytes = fi.Size()
		stats.Size = humanize.Bytes(uint64(fi.Size()))
	}
	return stats, nil
}

// ListRuns returns ledger rows newest first. An empty source lists all.
func (s *Service) ListRuns(ctx context.Context, source string, limit int) ([]*Run, error) {
	if source != "" {
		k, err := collector.ParseKind(source)
		if err != nil {
			return nil, err
		}
		source = string(k)
	}
	st, _, err := s.openStoreReadOnly("")
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.ListRuns(ctx, source, limit)
}

// GetRun returns one ledger row by id. Malformed ids report ErrRunNotFound.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	if _, err := idgen.ParseRun(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunNotFound, err)
	}
	st, _, err := s.openStoreReadOnly("")
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.GetRun(ctx, id)
}

func (s *Service) env(k Kind, st *store.Store) collector.Env {
	return collector.Env{
		Locator:     s.locator,
		Snapshots:   s.snapshots,
		Store:       st,
		Overrides:   s.cfg.Overrides(k),
		OpenOptions: s.openOpts,
		NewRunID:    s.newRunID,
		Logger:      s.logger,
	}
}

func (s *Service) openStore() (*store.Store, error) {
	st, err := store.Open(s.outputDir, s.openOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return st, nil
}

func (s *Service) openStoreReadOnly(dir string) (*store.Store, string, error) {
	if dir == "" {
		dir = s.outputDir
	}
	dir, err := guard.ExpandHome(dir, s.cfg.Home)
	if err != nil {
		return nil, "", err
	}
	path := store.Path(dir)
	st, err := store.OpenReadOnly(dir, s.openOpts...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, path, fmt.Errorf("%w at %s", ErrStoreNotFound, path)
	}
	if err != nil {
		return nil, path, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return st, path, nil
}
