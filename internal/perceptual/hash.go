// Package perceptual finds visually similar images and videos.
//
// # Processing Pipeline
//
//	Input: []types.FileEntry (discovered files, discovery order)
//	    │
//	    ├──► Keep image and video extensions
//	    │
//	    ├──► Hash each file (single goroutine)
//	    │        images: sniff content, decode, ahash or phash
//	    │        videos: midpoint frame via ffmpeg, ahash
//	    │
//	    ├──► Bucket by the first 8 hex digits of the hash
//	    │
//	    ├──► Greedy seed clustering within each bucket
//	    │
//	    └──► Output: []types.DuplicateGroup (kind PERCEPTUAL)
//
// # Accepted Approximations
//
// Only files sharing a hash prefix are ever compared. Two similar files whose
// hashes differ in the first 32 bits are never grouped.
//
// Clustering is seed-based, not transitive: a file joins a cluster only when it
// is within the threshold of the cluster's seed. A file close to some member
// but far from the seed starts or joins another cluster. Results therefore
// depend on iteration order, which is fixed (bucket key, then discovery order).
package perceptual

import (
	"context"
	"fmt"
	"math/bits"
	"path/filepath"
	"strings"
)

// Metric selects the image hashing algorithm.
type Metric string

const (
	AHash Metric = "ahash" // Average hash
	PHash Metric = "phash" // DCT-based perceptual hash
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case AHash, PHash:
		return m, nil
	default:
		return "", fmt.Errorf("unknown perceptual metric %q (want %s or %s)", s, AHash, PHash)
	}
}

// prefixLen is the number of hex digits forming a bucket key.
const prefixLen = 8

// Hash is a 64-bit perceptual fingerprint.
type Hash uint64

// String renders the hash as 16 hex digits.
func (h Hash) String() string { return fmt.Sprintf("%016x", uint64(h)) }

// Prefix returns the bucket key of the hash.
func (h Hash) Prefix() string { return h.String()[:prefixLen] }

// Distance returns the Hamming distance between two hashes (0..64).
func Distance(a, b Hash) int { return bits.OnesCount64(uint64(a ^ b)) }

// Hasher computes the perceptual hash of one file.
type Hasher interface {
	Hash(ctx context.Context, path string) (Hash, error)
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".gif": true, ".tiff": true, ".webp": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
	".wmv": true, ".m4v": true,
}

// IsImage reports whether path has an image extension.
func IsImage(path string) bool { return imageExts[strings.ToLower(filepath.Ext(path))] }

// IsVideo reports whether path has a video extension.
func IsVideo(path string) bool { return videoExts[strings.ToLower(filepath.Ext(path))] }
