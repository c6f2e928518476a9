package hasher

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/minio/sha256-simd"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// blockSize is the read buffer size; memory per file is O(blockSize).
const blockSize = 1 << 20

// Algorithm names a 256-bit content digest.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm validates a digest algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case SHA256, BLAKE3:
		return a, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q (want %s or %s)", s, SHA256, BLAKE3)
	}
}

func (a Algorithm) newHash() hash.Hash {
	if a == BLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

// HashFile streams path through the digest and returns it hex-encoded
// together with the number of bytes read.
func HashFile(fs afero.Fs, path string, algo Algorithm) (digest string, bytesRead int64, err error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := algo.newHash()
	buf := make([]byte, blockSize)
	n, err := io.CopyBuffer(h, f, buf)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
