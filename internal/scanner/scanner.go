// Package scanner discovers candidate files under a directory tree.
//
// # Traversal Model
//
// The scanner walks a single root depth-first on one goroutine. Directories are
// listed in batches of 1000 entries and visited in name order, so two scans of
// an unchanged tree produce the same file order. That order is what later
// stages use to break ties deterministically.
//
// # Data Flow
//
//	Run(ctx) starts
//	    │
//	    ├──► push root onto stack
//	    │
//	    └──► while stack not empty:
//	             ├──► ctx cancelled? → stop, keep partial result
//	             ├──► listDirectory() → files, subdirs (sorted by name)
//	             ├──► filter files → append matches
//	             └──► push subdirs (reverse order, so first name pops first)
//
// # Skipping Rules
//
//   - Symlinks are neither followed nor reported
//   - Devices, sockets and other non-regular files are skipped
//   - Unreadable directories and entries that fail to stat are skipped
//     without failing the scan (logged at debug level)
package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ivoronin/dupekeeper/internal/filter"
	"github.com/ivoronin/dupekeeper/internal/progress"
	"github.com/ivoronin/dupekeeper/internal/types"
)

// readBatchSize bounds memory when listing directories with millions of entries.
const readBatchSize = 1000

// Scanner discovers files matching filter criteria.
//
// The scanner is designed for single-use: create with New(), call Run() once.
type Scanner struct {
	// Config (immutable, set by New)
	fs           afero.Fs       // Filesystem to walk
	root         string         // Root directory to scan
	filter       *filter.Filter // Path/size predicate
	showProgress bool           // Whether to display progress spinner
	log          zerolog.Logger // Debug output for skipped entries
}

// Result is the outcome of a scan.
type Result struct {
	Files     []types.FileEntry // Matching files in discovery order
	Cancelled bool              // Scan stopped early; Files is partial
}

// New creates a Scanner for discovering files under root.
func New(fs afero.Fs, root string, f *filter.Filter, showProgress bool, log zerolog.Logger) *Scanner {
	return &Scanner{
		fs:           fs,
		root:         root,
		filter:       f,
		showProgress: showProgress,
		log:          log,
	}
}

// stats tracks scanning progress.
type stats struct {
	scannedFiles int
	matchedFiles int
	scannedBytes int64
	matchedBytes int64
	startTime    time.Time
}

func (s *stats) String() string {
	return fmt.Sprintf("Scanned %d (%s), matched %d files (%s) in %.1fs",
		s.scannedFiles, humanize.IBytes(uint64(s.scannedBytes)),
		s.matchedFiles, humanize.IBytes(uint64(s.matchedBytes)),
		time.Since(s.startTime).Seconds())
}

// Run walks the tree and returns matching files.
//
// Cancellation is checked before each directory is listed. A cancelled scan
// returns everything gathered so far with Cancelled set.
func (s *Scanner) Run(ctx context.Context) Result {
	bar := progress.New(s.showProgress, -1)
	st := &stats{startTime: time.Now()}
	bar.Describe(st)

	var res Result
	stack := []string{s.root}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		files, subdirs, err := s.listDirectory(dir)
		if err != nil {
			s.log.Debug().Err(err).Str("dir", dir).Msg("skipping unreadable directory")
		}

		for _, f := range files {
			st.scannedFiles++
			st.scannedBytes += f.Size
			if s.filter.Accept(f.Path, f.Size) {
				res.Files = append(res.Files, f)
				st.matchedFiles++
				st.matchedBytes += f.Size
			}
		}
		bar.Describe(st)

		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	bar.Finish(st)
	return res
}

// listDirectory reads a single directory, returning files and subdirectories
// sorted by name. Entries gathered before a read error are still returned.
func (s *Scanner) listDirectory(dirPath string) (files []types.FileEntry, subdirs []string, err error) {
	dir, err := s.fs.Open(dirPath)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = dir.Close() }()

	var infos []os.FileInfo
	for {
		batch, rerr := dir.Readdir(readBatchSize)
		infos = append(infos, batch...)
		if len(batch) == 0 || rerr != nil {
			if rerr != nil && rerr != io.EOF {
				err = rerr
			}
			break
		}
	}

	slices.SortFunc(infos, func(a, b os.FileInfo) int { return strings.Compare(a.Name(), b.Name()) })

	for _, info := range infos {
		f, sub := s.processEntry(dirPath, info)
		if f != nil {
			files = append(files, *f)
		}
		if sub != "" {
			subdirs = append(subdirs, sub)
		}
	}
	return files, subdirs, err
}

// processEntry classifies a single directory entry.
// Returns (nil, "") for entries that should be skipped.
func (s *Scanner) processEntry(dirPath string, info os.FileInfo) (file *types.FileEntry, subdir string) {
	fullPath := filepath.Join(dirPath, info.Name())
	mode := info.Mode()

	switch {
	case mode&os.ModeSymlink != 0:
		return nil, ""
	case mode.IsDir():
		return nil, fullPath
	case !mode.IsRegular():
		s.log.Debug().Str("path", fullPath).Stringer("mode", mode).Msg("skipping non-regular file")
		return nil, ""
	}

	e := types.NewFileEntry(fullPath, info)
	return &e, ""
}
