package perceptual

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivoronin/dupekeeper/internal/grouper"
	"github.com/ivoronin/dupekeeper/internal/types"
)

// Config configures a Clusterer.
type Config struct {
	Metric    Metric           // Image metric; videos always use AHash
	Threshold int              // Maximum Hamming distance to the seed, inclusive
	Images    Hasher           // Still image hasher
	Videos    Hasher           // Video hasher; nil skips videos with a notice
	Times     grouper.DirTimes // Keeper selection
	Log       zerolog.Logger
}

// Clusterer builds PERCEPTUAL duplicate groups.
//
// The clusterer is designed for single-use: create with New(), call Run() once.
type Clusterer struct {
	cfg     Config
	notices []string
}

// New creates a Clusterer.
func New(cfg Config) *Clusterer {
	return &Clusterer{cfg: cfg}
}

// stats tracks hashing outcome.
type stats struct {
	hashed, failed, skipped int
	startTime               time.Time
}

func (s *stats) String() string {
	return fmt.Sprintf("Perceptually hashed %d files (%d failed, %d skipped) in %.1fs",
		s.hashed, s.failed, s.skipped, time.Since(s.startTime).Seconds())
}

// Run hashes eligible files and clusters them. ctx is checked between files;
// on cancellation no groups are returned.
func (c *Clusterer) Run(ctx context.Context, files []types.FileEntry) ([]types.DuplicateGroup, error) {
	st := &stats{startTime: time.Now()}
	var items []Item

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var h Hasher
		switch {
		case IsImage(f.Path):
			h = c.cfg.Images
		case IsVideo(f.Path):
			if c.cfg.Videos == nil {
				st.skipped++
				continue
			}
			h = c.cfg.Videos
		default:
			continue
		}

		hash, err := h.Hash(ctx, f.Path)
		if err != nil {
			st.failed++
			c.cfg.Log.Debug().Err(err).Str("path", f.Path).Msg("perceptual hash failed")
			continue
		}
		st.hashed++
		items = append(items, Item{Entry: f, Hash: hash})
	}

	if st.skipped > 0 {
		c.notices = append(c.notices,
			fmt.Sprintf("video similarity unavailable (ffmpeg/ffprobe not found): skipped %d video files", st.skipped))
	}
	c.cfg.Log.Info().Stringer("stats", st).Msg("perceptual stage")

	clusters := ClusterItems(items, c.cfg.Threshold)
	groups := make([]types.DuplicateGroup, 0, len(clusters))
	for _, cl := range clusters {
		keep, others := grouper.SelectKeeper(cl.Members, func(it Item) string { return it.Entry.Path }, c.cfg.Times)
		entries := make([]types.FileEntry, len(others))
		for i, o := range others {
			entries[i] = o.Entry
		}
		key := types.PerceptualKey{Metric: string(c.cfg.Metric), Prefix: cl.Prefix}
		groups = append(groups, types.NewDuplicateGroup(key, keep.Entry, entries))
	}
	return groups, nil
}

// Notices returns messages about capabilities that were unavailable.
func (c *Clusterer) Notices() []string { return c.notices }
