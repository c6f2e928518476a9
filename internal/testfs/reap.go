package testfs

import (
	"fmt"
	"os"
	"path/filepath"
)

// -----------------------------------------------------------------------------
// Reap Operations - Capture filesystem state
// -----------------------------------------------------------------------------

// Reap captures the state of root/dir: regular files with sizes and
// symlinks with their targets. A missing directory yields an empty ReapDir.
func Reap(root, dir string) (ReapDir, error) {
	result := ReapDir{Path: dir}
	base := filepath.Join(root, dir)

	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == base && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if path == base {
			return nil
		}

		rel, _ := filepath.Rel(base, path)

		// Walk uses Lstat, so symlinks are seen before IsDir
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
			result.Symlinks = append(result.Symlinks, ReapSymlink{Path: rel, Target: target})
			return nil
		}

		if info.Mode().IsRegular() {
			result.Files = append(result.Files, ReapFile{Path: rel, Size: info.Size()})
		}
		return nil
	})

	return result, err
}
