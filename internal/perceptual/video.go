package perceptual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
)

// ErrVideoUnavailable is returned by ProbeVideo when ffmpeg or ffprobe is missing.
var ErrVideoUnavailable = errors.New("ffmpeg and ffprobe are required for video hashing")

// VideoHasher hashes the frame nearest the temporal midpoint of a video.
// Frames are always hashed with the average hash.
type VideoHasher struct {
	ffprobe string
	ffmpeg  string
}

// ProbeVideo locates ffprobe and ffmpeg on PATH.
func ProbeVideo() (*VideoHasher, error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoUnavailable, err)
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoUnavailable, err)
	}
	return &VideoHasher{ffprobe: ffprobe, ffmpeg: ffmpeg}, nil
}

// Hash extracts the midpoint frame of path and hashes it.
func (v *VideoHasher) Hash(ctx context.Context, path string) (Hash, error) {
	out, err := exec.CommandContext(ctx, v.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}

	frame, err := exec.CommandContext(ctx, v.ffmpeg,
		"-v", "error",
		"-ss", strconv.FormatFloat(duration/2, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffmpeg: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(frame))
	if err != nil {
		return 0, fmt.Errorf("decode frame: %w", err)
	}
	return HashImage(img, AHash)
}
