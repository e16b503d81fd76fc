package footprint

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/quantself/footprint/internal/collector"
	"github.com/hazyhaar/quantself/footprint/internal/locate"
	"github.com/hazyhaar/quantself/footprint/internal/store"
)

// Kind names a source type.
type Kind = collector.Kind

// Source types.
const (
	Messages   = collector.Messages
	Chrome     = collector.Chrome
	KnowledgeC = collector.KnowledgeC
	Podcasts   = collector.Podcasts
)

// Result describes one source extraction.
type Result = collector.Result

// Run is one row of the extraction ledger.
type Run = store.Run

// TableCount is the row count of one unified table.
type TableCount = store.TableCount

// ParseKind resolves a source name; "knowledge" is accepted for knowledgeC.
func ParseKind(s string) (Kind, error) { return collector.ParseKind(s) }

// Sources returns every source type in extraction order.
func Sources() []Kind { return collector.All() }

// Report aggregates the results of one extraction request.
type Report struct {
	Results         []Result      `json:"results"`
	TotalAdded      int64         `json:"total_records_added"`
	TotalSkipped    int64         `json:"total_records_skipped"`
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"duration_seconds"`
	Success         bool          `json:"success"`
	Message         string        `json:"error_message,omitempty"`
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	if !res.Success() {
		r.Success = false
		return
	}
	r.TotalAdded += res.RecordsAdded
	r.TotalSkipped += res.RecordsSkipped
}

func (r *Report) finish(start time.Time) {
	r.Duration = time.Since(start)
	r.DurationSeconds = r.Duration.Seconds()
	if !r.Success {
		r.Message = "some sources failed to extract"
	}
}

// SourceInfo describes where a source database was found, if anywhere.
type SourceInfo struct {
	Source           Kind       `json:"source"`
	Name             string     `json:"name"`
	Path             string     `json:"path,omitempty"`
	Found            bool       `json:"found"`
	Accessible       bool       `json:"accessible"`
	PermissionDenied bool       `json:"permission_denied,omitempty"`
	SizeBytes        int64      `json:"size_bytes,omitempty"`
	Size             string     `json:"size,omitempty"`
	LastModified     *time.Time `json:"last_modified,omitempty"`
	LastExtracted    *time.Time `json:"last_extracted,omitempty"`
	Error            string     `json:"error,omitempty"`
}

func sourceInfo(k Kind, p locate.Info) SourceInfo {
	info := SourceInfo{
		Source:           k,
		Name:             k.DisplayName(),
		Path:             p.Path,
		Found:            p.Found,
		Accessible:       p.Accessible,
		PermissionDenied: p.PermissionDenied(),
	}
	if !p.ModTime.IsZero() {
		mt := p.ModTime.UTC()
		info.LastModified = &mt
		info.SizeBytes = p.Size
		info.Size = humanize.Bytes(uint64(p.Size))
	}
	if p.Err != nil {
		info.Error = p.Err.Error()
	}
	return info
}

// StoreStats summarizes the unified database.
type StoreStats struct {
	Path      string       `json:"path"`
	SizeBytes int64        `json:"size_bytes"`
	Size      string       `json:"size"`
	Tables    []TableCount `json:"tables"`
	Total     int64        `json:"total_records"`
	Earliest  *time.Time   `json:"earliest,omitempty"`
	Latest    *time.Time   `json:"latest,omitempty"`
	Runs      int64        `json:"runs"`
}

// Count returns the row count of table, or 0 if unknown.
func (s *StoreStats) Count(table string) int64 {
	for _, tc := range s.Tables {
		if tc.Table == table {
			return tc.Rows
		}
	}
	return 0
}

func unixTime(v int64, ok bool) *time.Time {
	if !ok {
		return nil
	}
	t := time.Unix(v, 0).UTC()
	return &t
}
