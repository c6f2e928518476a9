// Package engine orchestrates a duplicate scan.
//
// # Pipeline
//
//	Run(ctx)
//	    │
//	    ├──► scanner: walk Root, apply filter        (ctx checked per directory)
//	    │
//	    ├──► grouper.Screen: size buckets, singletons counted as processed
//	    │
//	    ├──► for each size bucket:                    (ctx checked per bucket)
//	    │        ├──► hasher: digest files on the worker pool
//	    │        ├──► grouper: digest → name partitions → EXACT groups
//	    │        └──► sink.Group() for each group, immediately
//	    │
//	    ├──► perceptual (optional)                    (ctx checked before start)
//	    │        └──► sink.Group() for each PERCEPTUAL group
//	    │
//	    └──► sink.Done(summary), exactly once
//
// # Ownership
//
// Run is the single consumer of hash results and groups. The Aggregate and all
// counters live on its goroutine; workers only compute digests. Cancellation
// is observed at the checkpoints above and never retracts emitted groups.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ivoronin/dupekeeper/internal/cache"
	"github.com/ivoronin/dupekeeper/internal/grouper"
	"github.com/ivoronin/dupekeeper/internal/hasher"
	"github.com/ivoronin/dupekeeper/internal/perceptual"
	"github.com/ivoronin/dupekeeper/internal/scanner"
	"github.com/ivoronin/dupekeeper/internal/types"
)

// ProgressReporter receives hashing progress.
type ProgressReporter interface {
	Start(total int)
	Progress(done, total int)
}

// GroupSink receives groups as they are found and the final summary.
type GroupSink interface {
	Group(g types.DuplicateGroup)
	Done(s Summary)
}

// Summary describes a finished (or cancelled) scan.
type Summary struct {
	Elapsed        time.Duration
	Cancelled      bool
	Groups         int
	DuplicateFiles int      // Distinct redundant paths across all groups
	DuplicateBytes int64    // Sum of sizes of distinct redundant paths
	Notices        []string // Capabilities that were unavailable
}

// Config wires an Engine to its collaborators.
type Config struct {
	Options  Options
	Sink     GroupSink        // Required
	Progress ProgressReporter // nil disables progress events
	Fs       afero.Fs         // nil uses the OS filesystem
	Errors   chan error       // Non-fatal errors; nil drops them
	Log      zerolog.Logger
	DirTimes grouper.DirTimes  // nil reads directory times from Fs
	Videos   perceptual.Hasher // nil probes for ffmpeg when Perceptual is set

	ShowScanProgress bool // Render the discovery spinner
}

// Engine runs one scan.
//
// The engine is designed for single-use: create with New(), call Run() once.
type Engine struct {
	cfg      Config
	fs       afero.Fs
	progress ProgressReporter
	times    grouper.DirTimes
	agg      *Aggregate
	summary  Summary
}

type nopProgress struct{}

func (nopProgress) Start(int)         {}
func (nopProgress) Progress(int, int) {}

// New validates the options and creates an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Sink == nil {
		return nil, fmt.Errorf("%w: group sink is required", ErrInvalidOptions)
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := cfg.Options.Validate(fs); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, fs: fs, progress: cfg.Progress, times: cfg.DirTimes, agg: NewAggregate()}
	if e.progress == nil {
		e.progress = nopProgress{}
	}
	if e.times == nil {
		e.times = grouper.NewDirTimes(fs)
	}
	return e, nil
}

// Run performs the scan, streaming groups to the sink.
// Done is called exactly once, also when Run returns an error.
func (e *Engine) Run(ctx context.Context) (summary Summary, err error) {
	start := time.Now()
	defer func() {
		e.summary.Elapsed = time.Since(start)
		e.summary.DuplicateFiles = e.agg.Paths()
		e.summary.DuplicateBytes = e.agg.Bytes()
		summary = e.summary
		e.cfg.Sink.Done(summary)
	}()

	opts := e.cfg.Options

	scan := scanner.New(e.fs, opts.Root, opts.Filter(), e.cfg.ShowScanProgress, e.cfg.Log).Run(ctx)
	if scan.Cancelled {
		e.summary.Cancelled = true
		return e.summary, nil
	}

	if err := e.runExact(ctx, scan.Files); err != nil {
		return e.summary, err
	}
	if e.summary.Cancelled || !opts.Perceptual {
		return e.summary, nil
	}

	if ctx.Err() != nil {
		e.summary.Cancelled = true
		return e.summary, nil
	}
	e.runPerceptual(ctx, scan.Files)
	return e.summary, nil
}

func (e *Engine) runExact(ctx context.Context, files []types.FileEntry) error {
	opts := e.cfg.Options
	log := e.cfg.Log

	screened, screenStats := grouper.Screen(files)
	log.Info().Stringer("stats", screenStats).Int("candidates", screened.Candidates()).Msg("size screening")

	total := len(files)
	done := screened.Singletons
	e.progress.Start(total)
	e.progress.Progress(done, total)

	hashCache, err := cache.Open(opts.CacheFile)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		if err := hashCache.Close(); err != nil {
			log.Warn().Err(err).Msg("close cache")
		}
	}()

	algo, _ := hasher.ParseAlgorithm(opts.Digest)
	h, err := hasher.New(e.fs, algo, opts.Workers, hashCache, e.cfg.Errors)
	if err != nil {
		return err
	}
	defer h.Close()

	exact := grouper.New(e.times)
	for _, bucket := range screened.Buckets {
		if ctx.Err() != nil {
			e.summary.Cancelled = true
			break
		}

		digests := make(map[string]string, len(bucket.Files))
		for r := range h.HashBucket(bucket.Files) {
			done++
			e.progress.Progress(done, total)
			if r.Err == nil {
				digests[r.Entry.Path] = r.Digest
			}
		}

		for _, g := range exact.Group(bucket.Files, digests) {
			e.emit(g)
		}
	}

	log.Info().Stringer("stats", h.Stats()).Msg("hashing")
	return nil
}

func (e *Engine) runPerceptual(ctx context.Context, files []types.FileEntry) {
	opts := e.cfg.Options
	metric, _ := perceptual.ParseMetric(opts.Metric)

	videos := e.cfg.Videos
	if videos == nil {
		if vh, err := perceptual.ProbeVideo(); err == nil {
			videos = vh
		} else {
			e.cfg.Log.Debug().Err(err).Msg("video hashing disabled")
		}
	}

	c := perceptual.New(perceptual.Config{
		Metric:    metric,
		Threshold: opts.Threshold,
		Images:    perceptual.NewImageHasher(e.fs, metric),
		Videos:    videos,
		Times:     e.times,
		Log:       e.cfg.Log,
	})

	groups, err := c.Run(ctx, files)
	e.summary.Notices = append(e.summary.Notices, c.Notices()...)
	if err != nil {
		e.summary.Cancelled = true
		return
	}
	for _, g := range groups {
		e.emit(g)
	}
}

// emit counts a group and hands it to the sink.
func (e *Engine) emit(g types.DuplicateGroup) {
	e.agg.Add(g)
	e.summary.Groups++
	e.cfg.Sink.Group(g)
}
