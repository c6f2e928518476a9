// Package types provides shared types used across the dupekeeper codebase.
package types

import (
	"cmp"
	"os"
	"slices"
	"syscall"
	"time"
)

// FileEntry holds metadata for a discovered file.
// Only Path and Size take part in grouping; ModTime and Ino key the digest cache.
type FileEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
	Ino     uint64
}

// NewFileEntry creates a FileEntry from path and stat info.
// Ino stays zero when the filesystem does not expose a syscall.Stat_t.
func NewFileEntry(path string, info os.FileInfo) FileEntry {
	e := FileEntry{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		e.Ino = uint64(stat.Ino) //nolint:unconvert // platform-dependent type
	}
	return e
}

// Sorted is an ordered collection that maintains sort order by a key function.
// T is the element type, K is the comparable key type.
// Once constructed, items are guaranteed to be sorted by key.
type Sorted[T any, K cmp.Ordered] struct {
	items   []T
	keyFunc func(T) K
}

// NewSorted creates a sorted collection from items using keyFunc for ordering.
// Items are copied and sorted at construction time. The sort is stable, so
// items with equal keys keep their input order.
func NewSorted[T any, K cmp.Ordered](items []T, keyFunc func(T) K) Sorted[T, K] {
	sorted := make([]T, len(items))
	copy(sorted, items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return cmp.Compare(keyFunc(a), keyFunc(b))
	})
	return Sorted[T, K]{items: sorted, keyFunc: keyFunc}
}

// Items returns the sorted items.
func (s Sorted[T, K]) Items() []T { return s.items }

// First returns the first item (smallest key), or zero value if empty.
func (s Sorted[T, K]) First() T {
	if len(s.items) == 0 {
		var zero T
		return zero
	}
	return s.items[0]
}

// Len returns the number of items.
func (s Sorted[T, K]) Len() int { return len(s.items) }

// SizeBucket contains discovered files sharing one byte size, in discovery order.
type SizeBucket struct {
	Size  int64
	Files []FileEntry
}

// SizeBuckets is a collection of size buckets sorted by size.
type SizeBuckets = Sorted[SizeBucket, int64]

// NewSizeBuckets partitions entries by size. Files inside a bucket keep the
// order in which they appear in entries.
func NewSizeBuckets(entries []FileEntry) SizeBuckets {
	bySize := make(map[int64][]FileEntry)
	for _, e := range entries {
		bySize[e.Size] = append(bySize[e.Size], e)
	}
	buckets := make([]SizeBucket, 0, len(bySize))
	for size, files := range bySize {
		buckets = append(buckets, SizeBucket{Size: size, Files: files})
	}
	return NewSorted(buckets, func(b SizeBucket) int64 { return b.Size })
}
