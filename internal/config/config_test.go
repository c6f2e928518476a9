package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// =============================================================================
// Section 1: Size Parsing
// =============================================================================

// TestParseSizeValid tests valid size strings.
// Note: humanize.ParseBytes uses SI units (decimal) for KB/MB/GB (1000-based)
// and IEC units (binary) for KiB/MiB/GiB (1024-based).
func TestParseSizeValid(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1k", 1000},
		{"1KB", 1000},
		{"1M", 1000000},
		{"1gb", 1000000000},
		{"1234", 1234},
		{"0", 0},
		{"1.5M", 1500000},
		{"1KiB", 1024},
		{"1GiB", 1073741824},
		{"1TiB", 1099511627776},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if err != nil {
				t.Fatalf("ParseSize(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// TestParseSizeInvalid tests that garbage, negative and overflowing sizes are rejected.
func TestParseSizeInvalid(t *testing.T) {
	for _, input := range []string{"", "invalid", "1.5.5", "--100", "-1", "-100M", "99999999999999999999"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseSize(input); err == nil {
				t.Errorf("ParseSize(%q) should return error", input)
			}
		})
	}
}

// =============================================================================
// Section 2: Loading
// =============================================================================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// TestLoadDefaults tests that a missing search-path config falls back to defaults.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	cfg, err := Load(viper.New(), "", nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Metric != "ahash" || cfg.Threshold != 8 || cfg.Digest != "sha256" {
		t.Errorf("unexpected defaults: metric=%q threshold=%d digest=%q", cfg.Metric, cfg.Threshold, cfg.Digest)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", cfg.Workers, runtime.NumCPU())
	}
	if len(cfg.ExcludeExt) != 2 || cfg.ExcludeExt[0] != ".sys" || cfg.ExcludeExt[1] != ".dll" {
		t.Errorf("ExcludeExt = %v, want [.sys .dll]", cfg.ExcludeExt)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

// TestLoadSearchPath tests that config.yaml in the working directory is picked up.
func TestLoadSearchPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("threshold: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := Load(viper.New(), "", nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Threshold != 3 {
		t.Errorf("Threshold = %d, want 3", cfg.Threshold)
	}
}

// TestLoadFile tests values read from an explicit config file.
func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
min-size: 10K
exclude-ext: [.tmp]
include: ["*.jpg", "*.png"]
perceptual: true
metric: phash
threshold: 6
workers: 3
digest: blake3
quarantine-root: /srv/quarantine
`)

	cfg, err := Load(viper.New(), path, nil)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	opts, err := cfg.Options("/data")
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}

	if opts.Root != "/data" || opts.QuarantineRoot != "/srv/quarantine" {
		t.Errorf("roots = %q, %q", opts.Root, opts.QuarantineRoot)
	}
	if opts.MinSize != 10000 {
		t.Errorf("MinSize = %d, want 10000", opts.MinSize)
	}
	if len(opts.ExcludeExts) != 1 || opts.ExcludeExts[0] != ".tmp" {
		t.Errorf("ExcludeExts = %v, want [.tmp]", opts.ExcludeExts)
	}
	if len(opts.IncludeGlobs) != 2 || opts.IncludeGlobs[1] != "*.png" {
		t.Errorf("IncludeGlobs = %v", opts.IncludeGlobs)
	}
	if !opts.Perceptual || opts.Metric != "phash" || opts.Threshold != 6 {
		t.Errorf("perceptual settings = %v %q %d", opts.Perceptual, opts.Metric, opts.Threshold)
	}
	if opts.Workers != 3 || opts.Digest != "blake3" {
		t.Errorf("workers=%d digest=%q", opts.Workers, opts.Digest)
	}
}

// TestLoadFlagsOverrideFile tests that only flags set on the command line win over the file.
func TestLoadFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "metric: phash\nthreshold: 6\n")

	flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	flags.Int(KeyThreshold, 8, "")
	flags.String(KeyMetric, "ahash", "")
	flags.StringSlice(KeyExclude, nil, "")
	if err := flags.Parse([]string{"--threshold=2", "--exclude=*.bak,*.tmp"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path, flags)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Threshold != 2 {
		t.Errorf("Threshold = %d, want 2 (flag)", cfg.Threshold)
	}
	if cfg.Metric != "phash" {
		t.Errorf("Metric = %q, want phash (file, flag unchanged)", cfg.Metric)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[0] != "*.bak" || cfg.Exclude[1] != "*.tmp" {
		t.Errorf("Exclude = %v, want [*.bak *.tmp]", cfg.Exclude)
	}
}

// TestLoadMissingExplicitFile tests that a named config file must exist.
func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
	if err == nil {
		t.Error("Load() with missing explicit file should return error")
	}
}

// TestOptionsInvalidMinSize tests that a bad size surfaces as a conversion error.
func TestOptionsInvalidMinSize(t *testing.T) {
	cfg := &Config{MinSize: "lots"}
	if _, err := cfg.Options("/data"); err == nil {
		t.Error("Options() should reject min-size \"lots\"")
	}
}
