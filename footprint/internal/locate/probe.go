package locate

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// Info describes a located source database for discovery reports.
type Info struct {
	Name       string
	Path       string
	Found      bool
	Accessible bool
	Size       int64
	ModTime    time.Time
	Err        error
}

// Probe locates d and reports whether the file can be read, its size and
// modification time. It never fails; problems are recorded in Info.Err.
func (l *Locator) Probe(d Descriptor, overrides []string) Info {
	info := Info{Name: d.Name}
	path, err := l.Locate(d, overrides)
	if err != nil {
		info.Err = err
		return info
	}
	info.Path, info.Found = path, true

	st, err := os.Stat(path)
	if err != nil {
		info.Err = err
		return info
	}
	info.Size, info.ModTime = st.Size(), st.ModTime()

	f, err := os.Open(path)
	if err != nil {
		info.Err = err
		return info
	}
	f.Close()
	info.Accessible = true
	return info
}

// PermissionDenied reports whether the probe failed for lack of access.
func (i Info) PermissionDenied() bool {
	return errors.Is(i.Err, fs.ErrPermission)
}
