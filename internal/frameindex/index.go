// Package frameindex builds the ordered list of frame files that make up a movie.
//
// A scan is a one-shot snapshot of a directory. The snapshot is replaced
// atomically on Rescan or Replace, so readers on other goroutines always see
// either the old list or the new one, never a partial rebuild.
package frameindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// LoadError reasons.
const (
	ReasonNotExist     = "does not exist"
	ReasonNotDirectory = "is not a directory"
	ReasonUnreadable   = "cannot be read"
	ReasonUnlistable   = "cannot be listed"
)

// LoadError reports a frame directory that cannot be used.
type LoadError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Scan lists the entries of dir whose extension equals ext (case-sensitive),
// in directory enumeration order.
func Scan(dir, ext string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Path: dir, Reason: ReasonNotExist}
		}
		return nil, &LoadError{Path: dir, Reason: ReasonUnreadable, Cause: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: dir, Reason: ReasonNotDirectory}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Reason: ReasonUnlistable, Cause: err}
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// Index is an atomically replaceable frame path snapshot.
type Index struct {
	dir   string
	ext   string
	paths atomic.Pointer[[]string]
}

// New scans dir and returns an index over the matching files.
func New(dir, ext string) (*Index, error) {
	paths, err := Scan(dir, ext)
	if err != nil {
		return nil, err
	}
	idx := &Index{dir: dir, ext: ext}
	idx.paths.Store(&paths)
	return idx, nil
}

// Dir returns the scanned directory.
func (i *Index) Dir() string { return i.dir }

// Ext returns the extension filter.
func (i *Index) Ext() string { return i.ext }

// Len returns the number of frames in the current snapshot.
func (i *Index) Len() int {
	return len(*i.paths.Load())
}

// Path returns the path of frame n in the current snapshot.
func (i *Index) Path(n int) (string, bool) {
	paths := *i.paths.Load()
	if n < 0 || n >= len(paths) {
		return "", false
	}
	return paths[n], true
}

// Paths returns a copy of the current snapshot.
func (i *Index) Paths() []string {
	paths := *i.paths.Load()
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}

// Rescan rebuilds the snapshot from disk. The old snapshot stays in place if
// the scan fails.
func (i *Index) Rescan() error {
	paths, err := Scan(i.dir, i.ext)
	if err != nil {
		return err
	}
	i.paths.Store(&paths)
	return nil
}

// Replace installs paths as the new snapshot. The slice is copied.
func (i *Index) Replace(paths []string) {
	cp := make([]string, len(paths))
	copy(cp, paths)
	i.paths.Store(&cp)
}
