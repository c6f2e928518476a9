package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"

	"github.com/ivoronin/dupekeeper/internal/filter"
	"github.com/ivoronin/dupekeeper/internal/hasher"
	"github.com/ivoronin/dupekeeper/internal/perceptual"
)

// ErrInvalidOptions wraps every configuration error reported by Validate.
var ErrInvalidOptions = errors.New("invalid options")

// MaxThreshold is the largest meaningful Hamming distance for 64-bit hashes.
const MaxThreshold = 64

// Options configures a scan.
type Options struct {
	Root           string // Directory to scan (required, must exist)
	QuarantineRoot string // Where batches are created

	MinSize      int64
	IncludeExts  []string
	ExcludeExts  []string
	IncludeGlobs []string
	ExcludeGlobs []string

	Perceptual bool   // Run the perceptual stage after exact grouping
	Metric     string // "ahash" or "phash"
	Threshold  int    // Maximum Hamming distance, 0..64

	Workers   int    // Hashing pool width
	Digest    string // "sha256" or "blake3"
	CacheFile string // Digest cache; empty disables caching
}

// DefaultQuarantineRoot returns ~/Duplicate_Quarantine.
func DefaultQuarantineRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Duplicate_Quarantine"
	}
	return filepath.Join(home, "Duplicate_Quarantine")
}

// DefaultOptions returns options with every default applied and no root.
func DefaultOptions() Options {
	return Options{
		QuarantineRoot: DefaultQuarantineRoot(),
		ExcludeExts:    []string{".sys", ".dll"},
		IncludeGlobs:   []string{"*"},
		Metric:         string(perceptual.AHash),
		Threshold:      8,
		Workers:        runtime.NumCPU(),
		Digest:         string(hasher.SHA256),
	}
}

// Validate checks options before any scan work. Errors wrap ErrInvalidOptions.
func (o Options) Validate(fs afero.Fs) error {
	if o.Root == "" {
		return fmt.Errorf("%w: root directory is required", ErrInvalidOptions)
	}
	info, err := fs.Stat(o.Root)
	if err != nil {
		return fmt.Errorf("%w: root: %v", ErrInvalidOptions, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root %s is not a directory", ErrInvalidOptions, o.Root)
	}
	if o.QuarantineRoot == "" {
		return fmt.Errorf("%w: quarantine root is required", ErrInvalidOptions)
	}
	if o.MinSize < 0 {
		return fmt.Errorf("%w: min size must not be negative", ErrInvalidOptions)
	}
	if o.Threshold < 0 || o.Threshold > MaxThreshold {
		return fmt.Errorf("%w: threshold %d out of range 0..%d", ErrInvalidOptions, o.Threshold, MaxThreshold)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidOptions, o.Workers)
	}
	if _, err := perceptual.ParseMetric(o.Metric); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if _, err := hasher.ParseAlgorithm(o.Digest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := filter.Validate(o.IncludeGlobs); err != nil {
		return fmt.Errorf("%w: include globs: %v", ErrInvalidOptions, err)
	}
	if err := filter.Validate(o.ExcludeGlobs); err != nil {
		return fmt.Errorf("%w: exclude globs: %v", ErrInvalidOptions, err)
	}
	return nil
}

// Filter builds the path filter described by the options.
func (o Options) Filter() *filter.Filter {
	return filter.New(filter.Rules{
		MinSize:      o.MinSize,
		IncludeExts:  o.IncludeExts,
		ExcludeExts:  o.ExcludeExts,
		IncludeGlobs: o.IncludeGlobs,
		ExcludeGlobs: o.ExcludeGlobs,
	})
}
