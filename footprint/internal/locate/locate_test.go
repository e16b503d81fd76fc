package locate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("SQLite format 3\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mod.IsZero() {
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLocate_DefaultOrder(t *testing.T) {
	home := t.TempDir()
	touch(t, filepath.Join(home, "second.db"), time.Time{})
	touch(t, filepath.Join(home, "third.db"), time.Time{})

	l := New(home, nil)
	d := Descriptor{Name: "x", Paths: []string{"~/first.db", "~/second.db", "~/third.db"}}
	got, err := l.Locate(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "second.db"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLocate_OverridesReplaceDefaults(t *testing.T) {
	// WHAT: override paths are the only explicit candidates when given.
	// WHY: a caller pointing at a test copy must never silently read the live file.
	home := t.TempDir()
	touch(t, filepath.Join(home, "default.db"), time.Time{})

	l := New(home, nil)
	d := Descriptor{Name: "x", Paths: []string{"~/default.db"}}
	if _, err := l.Locate(d, []string{filepath.Join(home, "missing.db")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	touch(t, filepath.Join(home, "override.db"), time.Time{})
	got, err := l.Locate(d, []string{"~/override.db"})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "override.db"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLocate_DirectoryIsNotASource(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, "chat.db"), 0o755); err != nil {
		t.Fatal(err)
	}
	l := New(home, nil)
	if _, err := l.Locate(Descriptor{Paths: []string{"~/chat.db"}}, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGroupContainerScan(t *testing.T) {
	home := t.TempDir()
	parent := filepath.Join(home, "Library", "Group Containers")
	touch(t, filepath.Join(parent, "group.com.apple.notes", "Documents", "MTLibrary.sqlite"), time.Time{})
	touch(t, filepath.Join(parent, "ZZZ999.groups.com.apple.podcasts", "Documents", "MTLibrary.sqlite"), time.Time{})
	if err := os.MkdirAll(filepath.Join(parent, "AAA111.groups.com.apple.podcasts"), 0o755); err != nil {
		t.Fatal(err)
	}

	d := Descriptor{
		Name:  "podcasts",
		Paths: []string{"~/Library/Group Containers/243LU875E5.groups.com.apple.podcasts/Documents/MTLibrary.sqlite"},
		Discover: GroupContainerScan{
			Parent:  "~/Library/Group Containers",
			Pattern: "*.groups.com.apple.podcasts",
			Target:  "Documents/MTLibrary.sqlite",
		},
	}
	got, err := New(home, nil).Locate(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(parent, "ZZZ999.groups.com.apple.podcasts", "Documents", "MTLibrary.sqlite")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func chromeScan() ProfileScan {
	return ProfileScan{
		Parent:   "~/Chrome",
		Profiles: []string{"Default", "Profile *", "Guest Profile"},
		Target:   "History",
	}
}

func TestProfileScan_PicksNewest(t *testing.T) {
	// WHAT: with several profiles holding a History file, the most recently
	// modified one wins.
	// WHY: the active profile is the one the user browses with today.
	home := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(home, "Chrome", "Profile 1", "History"), base)
	touch(t, filepath.Join(home, "Chrome", "Profile 2", "History"), base.Add(2*time.Hour))
	touch(t, filepath.Join(home, "Chrome", "Guest Profile", "History"), base.Add(time.Hour))
	touch(t, filepath.Join(home, "Chrome", "System Profile", "History"), base.Add(10*time.Hour))

	got, ok := chromeScan().Discover(New(home, nil))
	if !ok {
		t.Fatal("no profile discovered")
	}
	if want := filepath.Join(home, "Chrome", "Profile 2", "History"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestProfileScan_TieKeepsEnumerationOrder(t *testing.T) {
	home := t.TempDir()
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(home, "Chrome", "Profile 3", "History"), mod)
	touch(t, filepath.Join(home, "Chrome", "Default", "History"), mod)

	got, ok := chromeScan().Discover(New(home, nil))
	if !ok {
		t.Fatal("no profile discovered")
	}
	// ReadDir order: "Default" < "Profile 3".
	if want := filepath.Join(home, "Chrome", "Default", "History"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestProfileScan_NoMatch(t *testing.T) {
	home := t.TempDir()
	touch(t, filepath.Join(home, "Chrome", "Crashpad", "History"), time.Time{})
	if _, ok := chromeScan().Discover(New(home, nil)); ok {
		t.Fatal("unexpected discovery")
	}
	if _, ok := chromeScan().Discover(New(filepath.Join(home, "nope"), nil)); ok {
		t.Fatal("unexpected discovery on missing parent")
	}
}

func TestLocate_HeuristicOnlyAfterExactPaths(t *testing.T) {
	home := t.TempDir()
	touch(t, filepath.Join(home, "Chrome", "Default", "History"), time.Time{})
	touch(t, filepath.Join(home, "Chrome", "Profile 9", "History"), time.Now().Add(time.Hour))

	d := Descriptor{Name: "chrome", Paths: []string{"~/Chrome/Default/History"}, Discover: chromeScan()}
	got, err := New(home, nil).Locate(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, "Chrome", "Default", "History"); got != want {
		t.Fatalf("got %q, want exact path %q", got, want)
	}
}

func TestProbe(t *testing.T) {
	home := t.TempDir()
	mod := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(home, "chat.db"), mod)

	l := New(home, nil)
	info := l.Probe(Descriptor{Name: "messages", Paths: []string{"~/chat.db"}}, nil)
	if !info.Found || !info.Accessible || info.Err != nil {
		t.Fatalf("info = %+v", info)
	}
	if info.Size != 16 || !info.ModTime.Equal(mod) {
		t.Fatalf("size/mtime = %d/%v", info.Size, info.ModTime)
	}

	missing := l.Probe(Descriptor{Name: "chrome", Paths: []string{"~/History"}}, nil)
	if missing.Found || !errors.Is(missing.Err, ErrNotFound) {
		t.Fatalf("missing = %+v", missing)
	}
}
