// Package snapshot copies a live source database into a private working
// directory before it is read, so the owning application can keep writing
// to the source without lock contention or torn reads.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/hazyhaar/quantself/guard"
)

// ErrCopyFailed wraps every snapshot failure other than permission denied.
var ErrCopyFailed = errors.New("snapshot: copy failed")

// PermissionError reports that the source database could not be read.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("Permission denied: %s\nGrant Full Disk Access to your application in System Settings", e.Path)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// Opener opens a source file for reading.
type Opener func(path string) (io.ReadCloser, error)

// Manager writes snapshots to <Dir>/<name>.db.
type Manager struct {
	dir    string
	open   Opener
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithOpener replaces os.Open for reading sources.
func WithOpener(o Opener) Option { return func(m *Manager) { m.open = o } }

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// New returns a Manager writing into dir.
func New(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:    dir,
		open:   func(p string) (io.ReadCloser, error) { return os.Open(p) },
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string { return m.dir }

// Path returns the snapshot path for name without touching the filesystem.
func (m *Manager) Path(name string) (string, error) {
	if err := guard.ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	p, err := guard.SafePath(m.dir, name+".db")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	return p, nil
}

// Take copies src to the snapshot path for name, replacing any earlier
// snapshot, and returns that path. A "-wal" sidecar next to src is copied
// alongside so rows not yet checkpointed are part of the snapshot.
func (m *Manager) Take(name, src string) (string, error) {
	dst, err := m.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrCopyFailed, m.dir, err)
	}
	for _, stale := range []string{dst + "-wal", dst + "-shm", dst + "-journal"} {
		if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: remove %s: %w", ErrCopyFailed, stale, err)
		}
	}

	n, err := m.copyFile(src, dst)
	if err != nil {
		return "", err
	}

	walSrc := src + "-wal"
	if _, statErr := os.Stat(walSrc); statErr == nil {
		wn, err := m.copyFile(walSrc, dst+"-wal")
		if err != nil {
			var pe *PermissionError
			if errors.As(err, &pe) {
				return "", &PermissionError{Path: src, Err: pe.Err}
			}
			return "", err
		}
		n += wn
	}

	m.logger.Debug("snapshot: taken", "source", name, "from", src, "to", dst, "size", humanize.Bytes(uint64(n)))
	return dst, nil
}

// copyFile writes src to a temp file next to dst and renames it into place.
func (m *Manager) copyFile(src, dst string) (int64, error) {
	in, err := m.open(src)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return 0, &PermissionError{Path: src, Err: err}
		}
		return 0, fmt.Errorf("%w: open %s: %w", ErrCopyFailed, src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		if errors.Is(err, fs.ErrPermission) {
			return 0, &PermissionError{Path: src, Err: err}
		}
		return 0, fmt.Errorf("%w: read %s: %w", ErrCopyFailed, src, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	return n, nil
}
