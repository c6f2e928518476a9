package grouper

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// DirTimes reports the creation time of a directory.
// ok is false when the time cannot be determined.
type DirTimes interface {
	DirTime(dir string) (t time.Time, ok bool)
}

// FSDirTimes reads directory creation times from a filesystem.
// Results are memoized: a directory is stat'ed at most once per instance.
type FSDirTimes struct {
	fs    afero.Fs
	mu    sync.Mutex
	cache map[string]dirTime
}

type dirTime struct {
	t  time.Time
	ok bool
}

// NewDirTimes creates a DirTimes backed by fs.
func NewDirTimes(fs afero.Fs) *FSDirTimes {
	return &FSDirTimes{fs: fs, cache: make(map[string]dirTime)}
}

// DirTime returns the birth time of dir where the platform and filesystem
// record it (statx on Linux, st_birthtime on macOS), and the modification
// time otherwise.
func (d *FSDirTimes) DirTime(dir string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.cache[dir]; ok {
		return cached.t, cached.ok
	}

	var res dirTime
	if info, err := d.fs.Stat(dir); err == nil {
		if t, ok := birthTime(dir, info); ok {
			res = dirTime{t: t, ok: true}
		} else {
			res = dirTime{t: info.ModTime(), ok: true}
		}
	}
	d.cache[dir] = res
	return res.t, res.ok
}

// SelectKeeper picks the member whose containing directory is oldest.
// Members with an unknown directory time lose to any member with a known one.
// Ties go to the member seen first, so a fixed input order gives a fixed keeper.
func SelectKeeper[T any](members []T, path func(T) string, times DirTimes) (keep T, others []T) {
	if len(members) == 0 {
		return keep, nil
	}

	best := 0
	bestTime, bestOK := times.DirTime(filepath.Dir(path(members[0])))
	for i := 1; i < len(members); i++ {
		t, ok := times.DirTime(filepath.Dir(path(members[i])))
		if !ok {
			continue
		}
		if !bestOK || t.Before(bestTime) {
			best, bestTime, bestOK = i, t, true
		}
	}

	others = make([]T, 0, len(members)-1)
	others = append(others, members[:best]...)
	others = append(others, members[best+1:]...)
	return members[best], others
}
