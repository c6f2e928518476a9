package perceptual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"

	"github.com/corona10/goimagehash"
	"github.com/h2non/filetype"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// sniffLen is the header size filetype needs to recognise a format.
const sniffLen = 262

// errNotImage is returned for files whose content is not a known image format.
var errNotImage = errors.New("content is not an image")

// ImageHasher hashes still images read from a filesystem.
type ImageHasher struct {
	fs     afero.Fs
	metric Metric
}

// NewImageHasher creates an ImageHasher using the given metric.
func NewImageHasher(fs afero.Fs, metric Metric) *ImageHasher {
	return &ImageHasher{fs: fs, metric: metric}
}

// Hash decodes path and returns its perceptual hash.
func (h *ImageHasher) Hash(_ context.Context, path string) (Hash, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}
	head = head[:n]
	if !filetype.IsImage(head) {
		return 0, errNotImage
	}

	img, _, err := image.Decode(io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	return HashImage(img, h.metric)
}

// HashImage computes the perceptual hash of a decoded image.
func HashImage(img image.Image, metric Metric) (Hash, error) {
	var (
		ih  *goimagehash.ImageHash
		err error
	)
	if metric == PHash {
		ih, err = goimagehash.PerceptionHash(img)
	} else {
		ih, err = goimagehash.AverageHash(img)
	}
	if err != nil {
		return 0, err
	}
	return Hash(ih.GetHash()), nil
}
