package locate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
)

// GroupContainerScan looks for Target inside subdirectories of Parent whose
// name matches Pattern, returning the first hit in directory order.
type GroupContainerScan struct {
	Parent  string
	Pattern string
	Target  string
}

func (g GroupContainerScan) Discover(l *Locator) (string, bool) {
	m, err := glob.Compile(g.Pattern)
	if err != nil {
		l.logger().Warn("locate: bad group container pattern", "pattern", g.Pattern, "error", err)
		return "", false
	}
	for _, dir := range subdirs(l, g.Parent) {
		if !m.Match(filepath.Base(dir)) {
			continue
		}
		p := filepath.Join(dir, g.Target)
		if Exists(p) {
			return p, true
		}
	}
	return "", false
}

// ProfileScan looks for Target inside subdirectories of Parent whose name
// matches one of Profiles and returns the most recently modified one. Ties
// keep the earlier directory.
type ProfileScan struct {
	Parent   string
	Profiles []string
	Target   string
}

func (p ProfileScan) Discover(l *Locator) (string, bool) {
	matchers := make([]glob.Glob, 0, len(p.Profiles))
	for _, pat := range p.Profiles {
		m, err := glob.Compile(pat)
		if err != nil {
			l.logger().Warn("locate: bad profile pattern", "pattern", pat, "error", err)
			continue
		}
		matchers = append(matchers, m)
	}

	var best string
	var bestMod time.Time
	for _, dir := range subdirs(l, p.Parent) {
		if !matchAny(matchers, filepath.Base(dir)) {
			continue
		}
		target := filepath.Join(dir, p.Target)
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = target, info.ModTime()
		}
	}
	return best, best != ""
}

func matchAny(ms []glob.Glob, name string) bool {
	for _, m := range ms {
		if m.Match(name) {
			return true
		}
	}
	return false
}

// subdirs lists the directories directly under parent in name order.
func subdirs(l *Locator, parent string) []string {
	root, err := l.Expand(parent)
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs
}
