// Package testfs provides on-disk test trees for pipeline tests.
//
// # FileTree Layout
//
// Tests use a single FileTree type for both setup and verification:
//
//	given := testfs.FileTree{
//	    Dirs: []testfs.Dir{
//	        {Path: "photos", Files: []testfs.File{
//	            {Path: []string{"a.jpg"}, Chunks: []testfs.Chunk{{Pattern: 'A', Size: "1MiB"}}},
//	        }},
//	        {Path: "backup", Files: []testfs.File{
//	            {Path: []string{"a.jpg"}, Chunks: []testfs.Chunk{{Pattern: 'A', Size: "1MiB"}}},
//	        }},
//	    },
//	}
//	then := testfs.FileTree{
//	    Dirs: []testfs.Dir{
//	        {Path: "photos", Files: []testfs.File{{Path: []string{"a.jpg"}}}},
//	        {Path: "backup", Absent: []string{"a.jpg"}},
//	    },
//	}
//
//	h := testfs.New(t, given)
//	// ... run scan and resolution against h.Root()
//	h.Assert(then)
//
// Directories are created in the order listed, so earlier directories are
// never younger than later ones. Subdirectories are created automatically
// from file paths (mkdir -p semantics).
//
// # Context-Dependent Field Usage
//
//	| Field          | Setup                    | Verification               |
//	|----------------|--------------------------|----------------------------|
//	| Dir.Path       | Creates directory        | Scope for assertions       |
//	| File.Path      | Writes independent copies| Assert each path exists    |
//	| File.Chunks    | Generate content         | Assert size when non-empty |
//	| Dir.Absent     | Ignored                  | Assert path does not exist |
//	| Symlink.Path   | Create symlink           | Assert is symlink          |
//	| Symlink.Target | Symlink target           | Assert symlink target      |
package testfs

import "github.com/dustin/go-humanize"

// -----------------------------------------------------------------------------
// FileTree Layout Types
// -----------------------------------------------------------------------------

// FileTree describes a directory tree (used for both setup and verification).
type FileTree struct {
	Dirs []Dir
}

// Dir is a directory relative to the harness root.
type Dir struct {
	// Path is relative to the harness root. Examples: "photos", "a/b".
	Path string

	// Files in this directory.
	Files []File

	// Symlinks in this directory.
	Symlinks []Symlink

	// Absent lists paths (relative to Dir) that must not exist (verification only).
	Absent []string
}

// File defines one or more regular files with identical content.
//
// In setup context:
//   - Every path is written separately with content from Chunks,
//     producing independent copies (distinct inodes)
//
// In verification context:
//   - All paths must exist
//   - If Chunks is set, every path must have the total chunk size
//
// Content is specified via Chunks - each chunk fills a region with its pattern byte.
// Same chunks = same content = duplicates detected.
type File struct {
	// Path contains one or more paths (relative to Dir).
	// Example: []string{"file.txt", "old/file.txt"}
	Path []string

	// Chunks specifies file content as a sequence of filled regions.
	// Each chunk fills its size with the pattern byte.
	// Use IEC units for sizes: "1KiB", "1MiB", "1GiB".
	Chunks []Chunk
}

// Chunk defines a region of file content filled with a pattern byte.
type Chunk struct {
	// Pattern is the fill byte for this chunk region.
	// Example: 'A' fills the region with 0x41 bytes.
	Pattern rune

	// Size in IEC units (1024-based): "1KiB", "1MiB", "1GiB".
	// Parsed via go-humanize so sizes line up with the 1 MiB hashing blocks.
	Size string
}

// TotalSize calculates the sum of all chunk sizes in bytes.
func (f *File) TotalSize() int64 {
	var total int64
	for _, c := range f.Chunks {
		size, _ := humanize.ParseBytes(c.Size)
		total += int64(size)
	}
	return total
}

// Symlink defines a symbolic link.
//
// In setup context:
//   - Creates a symlink at Path pointing to Target
//
// In verification context:
//   - Asserts Path exists and is a symlink
//   - Asserts the symlink points to Target
type Symlink struct {
	// Path is relative to Dir.
	Path string

	// Target is stored verbatim in the link.
	Target string
}

// -----------------------------------------------------------------------------
// Reap Types (filesystem state captured from disk)
// -----------------------------------------------------------------------------

// ReapDir contains the captured state of a single directory tree.
type ReapDir struct {
	Path     string        // Directory path relative to the harness root
	Files    []ReapFile    // Regular files
	Symlinks []ReapSymlink // Symbolic links
}

// ReapFile contains regular file metadata.
type ReapFile struct {
	Path string // Relative to the reaped directory
	Size int64  // File size in bytes
}

// ReapSymlink contains symlink metadata.
type ReapSymlink struct {
	Path   string // Relative to the reaped directory
	Target string // Symlink target
}
