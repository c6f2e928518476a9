// Package grouper turns hashed candidates into exact duplicate groups.
//
// # Processing Pipeline
//
//	Input: []types.FileEntry (discovered files, discovery order)
//	    │
//	    ├──► Screen: group by size, keep buckets with 2+ files
//	    │        (singletons cannot be duplicates; they are counted, not hashed)
//	    │
//	    │    ... caller hashes each bucket ...
//	    │
//	    ├──► Group: partition a bucket by digest
//	    │
//	    ├──► Partition each digest set by lower-cased basename
//	    │
//	    ├──► Keep partitions with 2+ members, pick keeper by directory age
//	    │
//	    └──► Output: []types.DuplicateGroup (sorted by digest, then name)
//
// # Member Order
//
// Hash results arrive in completion order, which varies between runs. Group
// therefore walks the bucket's files in discovery order and only looks digests
// up by path, so keeper tie-breaks never depend on scheduling.
package grouper

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ivoronin/dupekeeper/internal/types"
)

// Screened is the outcome of size screening.
type Screened struct {
	Buckets    []types.SizeBucket // Buckets with 2+ files, sorted by size
	Singletons int                // Files alone in their size bucket
}

// Candidates returns the number of files that need hashing.
func (s Screened) Candidates() int {
	n := 0
	for _, b := range s.Buckets {
		n += len(b.Files)
	}
	return n
}

// screenStats tracks screening volume.
type screenStats struct {
	candidateFiles int
	candidateBytes int64
	startTime      time.Time
}

func (s *screenStats) String() string {
	return fmt.Sprintf("Selected %d candidates (%s) in %.1fs",
		s.candidateFiles, humanize.IBytes(uint64(s.candidateBytes)),
		time.Since(s.startTime).Seconds())
}

// Screen partitions files by size. Only buckets holding two or more files can
// contain duplicates; the rest are reported as singletons.
func Screen(files []types.FileEntry) (Screened, fmt.Stringer) {
	st := &screenStats{startTime: time.Now()}
	var res Screened

	for _, b := range types.NewSizeBuckets(files).Items() {
		if len(b.Files) < 2 {
			res.Singletons += len(b.Files)
			continue
		}
		res.Buckets = append(res.Buckets, b)
		st.candidateFiles += len(b.Files)
		st.candidateBytes += b.Size * int64(len(b.Files))
	}

	return res, st
}

// ExactGrouper builds EXACT duplicate groups from hashed size buckets.
type ExactGrouper struct {
	times DirTimes
}

// New creates an ExactGrouper that selects keepers using times.
func New(times DirTimes) *ExactGrouper {
	return &ExactGrouper{times: times}
}

// partition is an ordered set of files sharing one grouping key.
type partition struct {
	key   string
	files []types.FileEntry
}

// partitionBy splits files by key, keeping first-seen order of keys and members.
func partitionBy(files []types.FileEntry, key func(types.FileEntry) (string, bool)) []partition {
	index := make(map[string]int)
	var parts []partition
	for _, f := range files {
		k, ok := key(f)
		if !ok {
			continue
		}
		i, seen := index[k]
		if !seen {
			i = len(parts)
			index[k] = i
			parts = append(parts, partition{key: k})
		}
		parts[i].files = append(parts[i].files, f)
	}
	return parts
}

// Group builds duplicate groups for one size bucket.
//
// files must be in discovery order; digests maps a path to its hex digest.
// Files without a digest (hashing failed) are left out.
func (g *ExactGrouper) Group(files []types.FileEntry, digests map[string]string) []types.DuplicateGroup {
	byDigest := partitionBy(files, func(f types.FileEntry) (string, bool) {
		d, ok := digests[f.Path]
		return d, ok
	})

	type keyed struct {
		digest, name string
		group        types.DuplicateGroup
	}
	var out []keyed

	for _, dp := range byDigest {
		if len(dp.files) < 2 {
			continue
		}
		byName := partitionBy(dp.files, func(f types.FileEntry) (string, bool) {
			return strings.ToLower(filepath.Base(f.Path)), true
		})
		for _, np := range byName {
			if len(np.files) < 2 {
				continue
			}
			keep, others := SelectKeeper(np.files, entryPath, g.times)
			out = append(out, keyed{
				digest: dp.key,
				name:   np.key,
				group:  types.NewDuplicateGroup(types.ExactKey{Digest: dp.key}, keep, others),
			})
		}
	}

	sorted := types.NewSorted(out, func(k keyed) string { return k.digest + "\x00" + k.name })
	groups := make([]types.DuplicateGroup, 0, sorted.Len())
	for _, k := range sorted.Items() {
		groups = append(groups, k.group)
	}
	return groups
}

func entryPath(e types.FileEntry) string { return e.Path }
