// Package guard holds the path and name checks applied before footprint
// touches the filesystem: home expansion for configured paths, confinement
// of generated file names to their directory, and identifier validation for
// source names that end up in file names and log fields.
package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a generated path escapes its base.
var ErrPathTraversal = errors.New("guard: path traversal detected")

// ErrNoHome is returned when "~" must be expanded but no home is known.
var ErrNoHome = errors.New("guard: home directory unknown")

// SafePath joins base and name and verifies the result stays under base.
func SafePath(base, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+name))
	root := filepath.Clean(base)
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// ExpandHome replaces a leading "~" or "~/" with home. Other paths are
// returned unchanged. An empty home falls back to os.UserHomeDir.
func ExpandHome(path, home string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil || h == "" {
			return "", fmt.Errorf("%w: %s", ErrNoHome, path)
		}
		home = h
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// ValidateIdentifier rejects names unsuitable for file names: empty, longer
// than 64 bytes, or containing anything but letters, digits, '_', '-', '.'.
func ValidateIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("guard: identifier must not be empty")
	}
	if len(s) > 64 {
		return fmt.Errorf("guard: identifier too long (max 64)")
	}
	if s == "." || s == ".." {
		return fmt.Errorf("guard: invalid identifier %q", s)
	}
	for _, r := range s {
		if !isIdentChar(r) {
			return fmt.Errorf("guard: invalid character %q in identifier", r)
		}
	}
	return nil
}

func isIdentChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.'
}
