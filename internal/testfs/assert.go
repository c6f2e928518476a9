package testfs

import (
	"fmt"
	"path/filepath"
)

// -----------------------------------------------------------------------------
// Comparison Functions
// -----------------------------------------------------------------------------

// CompareDir lists every difference between an expected Dir and the
// captured state. An empty result means they match.
//
// Checks:
//   - Files exist at all specified paths
//   - Files have the size given by their Chunks (if any)
//   - Absent paths do not exist as files or symlinks
//   - Symlinks point to the expected targets
func CompareDir(expected Dir, actual ReapDir) []string {
	var diffs []string
	diffs = append(diffs, compareFiles(expected, actual)...)
	diffs = append(diffs, compareAbsent(expected, actual)...)
	diffs = append(diffs, compareSymlinks(expected, actual)...)
	return diffs
}

func compareFiles(expected Dir, actual ReapDir) []string {
	sizes := make(map[string]int64, len(actual.Files))
	for _, rf := range actual.Files {
		sizes[rf.Path] = rf.Size
	}

	var diffs []string
	for _, ef := range expected.Files {
		for _, p := range ef.Path {
			size, ok := sizes[filepath.Clean(p)]
			if !ok {
				diffs = append(diffs, fmt.Sprintf("expected file not found: %s", filepath.Join(expected.Path, p)))
				continue
			}
			if len(ef.Chunks) > 0 && size != ef.TotalSize() {
				diffs = append(diffs, fmt.Sprintf("file %s: got size %d, want %d",
					filepath.Join(expected.Path, p), size, ef.TotalSize()))
			}
		}
	}
	return diffs
}

func compareAbsent(expected Dir, actual ReapDir) []string {
	present := make(map[string]bool, len(actual.Files)+len(actual.Symlinks))
	for _, rf := range actual.Files {
		present[rf.Path] = true
	}
	for _, rs := range actual.Symlinks {
		present[rs.Path] = true
	}

	var diffs []string
	for _, p := range expected.Absent {
		if present[filepath.Clean(p)] {
			diffs = append(diffs, fmt.Sprintf("unexpected file: %s", filepath.Join(expected.Path, p)))
		}
	}
	return diffs
}

func compareSymlinks(expected Dir, actual ReapDir) []string {
	pathToTarget := make(map[string]string, len(actual.Symlinks))
	for _, rs := range actual.Symlinks {
		pathToTarget[rs.Path] = rs.Target
	}

	var diffs []string
	for _, es := range expected.Symlinks {
		target, ok := pathToTarget[filepath.Clean(es.Path)]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("expected symlink not found: %s", filepath.Join(expected.Path, es.Path)))
			continue
		}
		if target != es.Target {
			diffs = append(diffs, fmt.Sprintf("symlink %s: got target %q, want %q",
				filepath.Join(expected.Path, es.Path), target, es.Target))
		}
	}
	return diffs
}
