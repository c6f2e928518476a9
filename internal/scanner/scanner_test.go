//go:build unix

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ivoronin/dupekeeper/internal/filter"
)

// =============================================================================
// Section 1: Core Scanner Tests
// =============================================================================

// TestListDirectoryBasic tests basic recursive discovery.
func TestListDirectoryBasic(t *testing.T) {
	root := t.TempDir()

	createFile(t, filepath.Join(root, "file1.txt"), 100)
	createFile(t, filepath.Join(root, "file2.txt"), 200)
	createFile(t, filepath.Join(root, "subdir", "file3.txt"), 300)

	res := scan(t, root, filter.Rules{})
	if res.Cancelled {
		t.Error("scan unexpectedly cancelled")
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(res.Files))
	}

	sizes := make(map[int64]bool)
	for _, f := range res.Files {
		sizes[f.Size] = true
		if !filepath.IsAbs(f.Path) {
			t.Errorf("path %q is not absolute", f.Path)
		}
	}
	for _, expected := range []int64{100, 200, 300} {
		if !sizes[expected] {
			t.Errorf("missing file with size %d", expected)
		}
	}
}

// TestDeterministicOrder tests that files come out in name order, depth-first.
func TestDeterministicOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{"/r/b/2.txt", "/r/a/1.txt", "/r/c.txt", "/r/a/0.txt"} {
		if err := afero.WriteFile(fs, p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	res := New(fs, "/r", filter.New(filter.Rules{}), false, zerolog.Nop()).Run(context.Background())

	want := []string{"/r/c.txt", "/r/a/0.txt", "/r/a/1.txt", "/r/b/2.txt"}
	if len(res.Files) != len(want) {
		t.Fatalf("got %d files, want %d", len(res.Files), len(want))
	}
	for i, w := range want {
		if res.Files[i].Path != w {
			t.Errorf("Files[%d] = %s, want %s", i, res.Files[i].Path, w)
		}
	}
}

// TestSizeFilteringZeroBytes tests that zero-byte files are handled based on minSize.
func TestSizeFilteringZeroBytes(t *testing.T) {
	root := t.TempDir()

	createFile(t, filepath.Join(root, "empty.txt"), 0)
	createFile(t, filepath.Join(root, "small.txt"), 1)
	createFile(t, filepath.Join(root, "normal.txt"), 100)

	for _, tc := range []struct {
		minSize int64
		want    int
	}{
		{0, 3},
		{1, 2},
		{100, 1},
	} {
		res := scan(t, root, filter.Rules{MinSize: tc.minSize})
		if len(res.Files) != tc.want {
			t.Errorf("minSize=%d: expected %d files, got %d", tc.minSize, tc.want, len(res.Files))
		}
	}
}

// TestFilterRulesApplied tests that extension and glob rules reach the scanner.
func TestFilterRulesApplied(t *testing.T) {
	root := t.TempDir()

	createFile(t, filepath.Join(root, "keep.txt"), 100)
	createFile(t, filepath.Join(root, "exclude.tmp"), 100)
	createFile(t, filepath.Join(root, "driver.sys"), 100)

	res := scan(t, root, filter.Rules{ExcludeExts: []string{".sys"}, ExcludeGlobs: []string{"*.tmp"}})

	if len(res.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(res.Files))
	}
	if filepath.Base(res.Files[0].Path) != "keep.txt" {
		t.Errorf("wrong file kept: %s", res.Files[0].Path)
	}
}

// =============================================================================
// Section 2: Skipping Rules
// =============================================================================

// TestPermissionErrorHandling tests that scanner continues when directories are unreadable.
func TestPermissionErrorHandling(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping permission test when running as root")
	}

	root := t.TempDir()
	createFile(t, filepath.Join(root, "accessible.txt"), 100)

	unreadable := filepath.Join(root, "unreadable")
	if err := os.Mkdir(unreadable, 0o000); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(unreadable, 0o755) }()

	res := scan(t, root, filter.Rules{})
	if len(res.Files) != 1 {
		t.Errorf("expected 1 file, got %d", len(res.Files))
	}
}

// TestNonRegularFilesSkipped tests that symlinks and FIFOs are never reported.
func TestNonRegularFilesSkipped(t *testing.T) {
	root := t.TempDir()

	regularFile := filepath.Join(root, "regular.txt")
	createFile(t, regularFile, 100)

	if err := os.Symlink(regularFile, filepath.Join(root, "symlink.txt")); err != nil {
		t.Fatal(err)
	}

	if err := syscall.Mkfifo(filepath.Join(root, "fifo"), 0o644); err != nil {
		t.Logf("Skipping FIFO test: %v", err)
	}

	res := scan(t, root, filter.Rules{})
	if len(res.Files) != 1 {
		t.Errorf("expected 1 regular file, got %d", len(res.Files))
	}
	if len(res.Files) > 0 && filepath.Base(res.Files[0].Path) != "regular.txt" {
		t.Errorf("expected regular.txt, got %s", res.Files[0].Path)
	}
}

// TestSymlinkedDirectoryNotFollowed tests that directory symlinks are not walked.
func TestSymlinkedDirectoryNotFollowed(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	createFile(t, filepath.Join(root, "a.txt"), 10)
	createFile(t, filepath.Join(outside, "b.txt"), 10)
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	res := scan(t, root, filter.Rules{})
	if len(res.Files) != 1 {
		t.Errorf("expected 1 file (symlinked dir not followed), got %d", len(res.Files))
	}
}

// TestFilenamesWithSpecialChars tests files with special characters in names.
func TestFilenamesWithSpecialChars(t *testing.T) {
	root := t.TempDir()

	specialNames := []string{
		"file with spaces.txt",
		"file\twith\ttabs.txt",
		"unicode_日本語.txt",
		"quotes'and\"double.txt",
	}
	for _, name := range specialNames {
		createFile(t, filepath.Join(root, name), 100)
	}

	res := scan(t, root, filter.Rules{})
	if len(res.Files) != len(specialNames) {
		t.Errorf("expected %d files, got %d", len(specialNames), len(res.Files))
	}
}

// =============================================================================
// Section 3: Cancellation
// =============================================================================

// TestCancelledBeforeStart tests that a cancelled context yields a partial result.
func TestCancelledBeforeStart(t *testing.T) {
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a.txt"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(afero.NewOsFs(), root, filter.New(filter.Rules{}), false, zerolog.Nop()).Run(ctx)
	if !res.Cancelled {
		t.Error("expected Cancelled = true")
	}
	if len(res.Files) != 0 {
		t.Errorf("expected no files, got %d", len(res.Files))
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

func scan(t *testing.T, root string, rules filter.Rules) Result {
	t.Helper()
	return New(afero.NewOsFs(), root, filter.New(rules), false, zerolog.Nop()).Run(context.Background())
}

func createFile(t *testing.T, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	content := make([]byte, size)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}
