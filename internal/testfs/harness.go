//go:build unix

package testfs

import (
	"path/filepath"
	"testing"
)

// -----------------------------------------------------------------------------
// Harness - Integration Test API
// -----------------------------------------------------------------------------

// Harness provides integration test infrastructure using t.TempDir().
//
// Usage:
//
//	h := testfs.New(t, given)
//	eng, _ := engine.New(engine.Config{Options: opts(h.Root()), ...})
//	// ... run pipeline
//	h.Assert(then)
type Harness struct {
	t    *testing.T
	root string // Temporary directory root
}

// New creates a temporary directory and sows the given FileTree into it.
// The directory is removed by t.TempDir() mechanics.
func New(t *testing.T, given FileTree) *Harness {
	t.Helper()

	root := t.TempDir()
	if err := SowFileTree(root, given); err != nil {
		t.Fatalf("failed to setup files: %v", err)
	}
	return &Harness{t: t, root: root}
}

// Root returns the temporary directory root path.
func (h *Harness) Root() string {
	return h.root
}

// Path joins elem onto the harness root.
func (h *Harness) Path(elem ...string) string {
	return filepath.Join(append([]string{h.root}, elem...)...)
}

// Check returns every difference between the tree on disk and expected.
func (h *Harness) Check(expected FileTree) []string {
	var diffs []string
	for _, dir := range expected.Dirs {
		actual, err := Reap(h.root, dir.Path)
		if err != nil {
			diffs = append(diffs, "reap "+dir.Path+": "+err.Error())
			continue
		}
		diffs = append(diffs, CompareDir(dir, actual)...)
	}
	return diffs
}

// Assert fails the test for every difference reported by Check.
func (h *Harness) Assert(expected FileTree) {
	h.t.Helper()
	for _, d := range h.Check(expected) {
		h.t.Error(d)
	}
}
