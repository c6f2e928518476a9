package quarantine

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const manifestFile = "batch.yaml"

// Manifest describes a batch. It is written once when the batch is opened.
type Manifest struct {
	ID       string    `yaml:"id"`
	Created  time.Time `yaml:"created"`
	ScanRoot string    `yaml:"scan_root"`
	Mode     Mode      `yaml:"mode"`
}

func newManifest(scanRoot string, mode Mode, created time.Time) Manifest {
	return Manifest{
		ID:       uuid.NewString(),
		Created:  created,
		ScanRoot: scanRoot,
		Mode:     mode,
	}
}

func writeManifest(fs afero.Fs, dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// readManifest loads a batch manifest; batches without one return nil.
func readManifest(fs afero.Fs, dir string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, nil //nolint:nilerr // manifest is optional
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
