// Package hasher computes content digests across a bounded worker pool.
//
// # Concurrency Model
//
//  1. WORKER POOL (ants.PoolWithFunc)
//     - Fixed width, set by the caller
//     - Each worker hashes one file per task and sends one Result
//     - Workers share no mutable state besides atomic counters
//
//  2. SUBMITTER (one goroutine per bucket)
//     - Invokes the pool once per file of the bucket
//     - Closes the bucket's result channel after every task reported
//
//  3. CONSUMER (caller)
//     - Ranges over the channel returned by HashBucket
//     - Sees results in completion order, not submission order
//
// # Bucket Discipline
//
// A bucket's result channel is buffered to the bucket size, so workers never
// block on a slow consumer. Callers drain one bucket before submitting the next;
// the pool itself holds no cross-bucket state.
package hasher

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"

	"github.com/ivoronin/dupekeeper/internal/cache"
	"github.com/ivoronin/dupekeeper/internal/types"
)

// Result is the outcome of hashing one file. Err is set for unreadable files.
type Result struct {
	Entry  types.FileEntry
	Digest string
	Err    error
}

// task is the unit of work handed to the pool.
type task struct {
	entry types.FileEntry
	out   chan<- Result
	wg    *sync.WaitGroup
}

// stats tracks hashing volume.
type stats struct {
	hashedBytes atomic.Uint64
	cachedBytes atomic.Uint64
	failedFiles atomic.Int64
}

func (s *stats) String() string {
	return fmt.Sprintf("hashed %s, cached %s, failed %d files",
		humanize.IBytes(s.hashedBytes.Load()), humanize.IBytes(s.cachedBytes.Load()), s.failedFiles.Load())
}

// Hasher computes content digests for files.
//
// Create with New(), call HashBucket() per size bucket, then Close().
type Hasher struct {
	// Config (immutable, set by New)
	fs    afero.Fs     // Filesystem to read from
	algo  Algorithm    // Digest algorithm
	cache *cache.Cache // Optional digest cache (nil = disabled)
	errCh chan error   // Non-fatal errors (unreadable files)

	// Runtime
	pool  *ants.PoolWithFunc
	stats *stats
}

// New creates a Hasher backed by a pool of the given width.
// Pass nil for hashCache to disable caching and nil for errCh to drop errors.
func New(fs afero.Fs, algo Algorithm, workers int, hashCache *cache.Cache, errCh chan error) (*Hasher, error) {
	if workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", workers)
	}

	h := &Hasher{
		fs:    fs,
		algo:  algo,
		cache: hashCache,
		errCh: errCh,
		stats: &stats{},
	}

	pool, err := ants.NewPoolWithFunc(workers, h.work)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	h.pool = pool
	return h, nil
}

// HashBucket hashes every file of one bucket on the pool.
// The returned channel yields exactly len(files) results, then closes.
func (h *Hasher) HashBucket(files []types.FileEntry) <-chan Result {
	out := make(chan Result, len(files))

	go func() {
		var wg sync.WaitGroup
		for _, f := range files {
			wg.Add(1)
			if err := h.pool.Invoke(task{entry: f, out: out, wg: &wg}); err != nil {
				out <- Result{Entry: f, Err: fmt.Errorf("submit %s: %w", f.Path, err)}
				wg.Done()
			}
		}
		wg.Wait()
		close(out)
	}()

	return out
}

// Stats returns a human-readable summary of work done so far.
func (h *Hasher) Stats() fmt.Stringer { return h.stats }

// Close releases the worker pool.
func (h *Hasher) Close() {
	h.pool.Release()
}

// work is the pool function: hash one file and report it.
func (h *Hasher) work(arg interface{}) {
	t := arg.(task)
	defer t.wg.Done()
	t.out <- h.hash(t.entry)
}

// hash computes the digest of one file, consulting the cache first.
func (h *Hasher) hash(e types.FileEntry) Result {
	if cached, _ := h.cache.Lookup(e, string(h.algo)); cached != nil {
		h.stats.cachedBytes.Add(uint64(e.Size))
		return Result{Entry: e, Digest: hex.EncodeToString(cached)}
	}

	digest, n, err := HashFile(h.fs, e.Path, h.algo)
	h.stats.hashedBytes.Add(uint64(n))
	if err != nil {
		h.stats.failedFiles.Add(1)
		err = fmt.Errorf("%s: %w", e.Path, err)
		h.sendError(err)
		return Result{Entry: e, Err: err}
	}

	raw, _ := hex.DecodeString(digest)
	if err := h.cache.Store(e, string(h.algo), raw); err != nil {
		h.sendError(err)
	}

	return Result{Entry: e, Digest: digest}
}

// sendError sends an error to the errors channel if it's not nil.
func (h *Hasher) sendError(err error) {
	if h.errCh != nil {
		h.errCh <- err
	}
}
