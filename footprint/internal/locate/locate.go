// Package locate resolves where a source database lives on this machine.
//
// A Descriptor lists exact candidate paths in priority order and may carry
// a Heuristic for installation-dependent locations. Heuristics are plain
// values (parent directory, name rules, target sub-path) so new vendor
// layouts are added as table entries, not code.
package locate

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hazyhaar/quantself/guard"
)

// ErrNotFound is returned when no candidate path exists.
var ErrNotFound = errors.New("locate: source database not found")

// Heuristic finds a source database whose location varies per install.
type Heuristic interface {
	// Discover returns the discovered path, or false. Paths it reports
	// must exist in the sense of Exists.
	Discover(l *Locator) (string, bool)
}

// Descriptor describes where one source type may be found.
type Descriptor struct {
	Name     string
	Paths    []string
	Discover Heuristic
}

// Locator resolves descriptors against a home directory.
type Locator struct {
	// Home replaces "~" in candidate paths. Empty means the user's home.
	Home   string
	Logger *slog.Logger
}

// New returns a Locator rooted at home.
func New(home string, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{Home: home, Logger: logger}
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Expand resolves a leading "~" against the locator's home.
func (l *Locator) Expand(path string) (string, error) {
	return guard.ExpandHome(path, l.Home)
}

// Locate returns the first existing candidate for d. Non-empty overrides
// replace d.Paths entirely; the heuristic runs only when no candidate exists.
func (l *Locator) Locate(d Descriptor, overrides []string) (string, error) {
	candidates := d.Paths
	if len(overrides) > 0 {
		candidates = overrides
	}
	for _, c := range candidates {
		p, err := l.Expand(c)
		if err != nil {
			l.logger().Debug("locate: skip candidate", "source", d.Name, "path", c, "error", err)
			continue
		}
		if Exists(p) {
			return p, nil
		}
	}
	if d.Discover != nil {
		if p, ok := d.Discover.Discover(l); ok {
			l.logger().Debug("locate: discovered", "source", d.Name, "path", p)
			return p, nil
		}
	}
	return "", ErrNotFound
}

// Exists reports whether path names a regular file or something that cannot
// be inspected for lack of permission. The latter counts as present so the
// snapshot step can surface the permission problem to the user.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Is(err, fs.ErrPermission)
	}
	return !info.IsDir()
}
