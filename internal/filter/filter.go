// Package filter decides whether a discovered file qualifies for duplicate detection.
package filter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Rules configures a Filter. Empty lists disable the corresponding rule.
type Rules struct {
	MinSize      int64    // Files smaller than this are rejected
	IncludeExts  []string // If non-empty, extension must be listed (".jpg" or "jpg")
	ExcludeExts  []string // Listed extensions are rejected
	IncludeGlobs []string // If non-empty, basename must match at least one
	ExcludeGlobs []string // Basename matching any is rejected
}

// Filter is an immutable path/size predicate built from Rules.
type Filter struct {
	minSize      int64
	includeExts  map[string]struct{}
	excludeExts  map[string]struct{}
	includeGlobs []string
	excludeGlobs []string
}

// New builds a Filter. Extensions are normalized to lower case with a leading dot.
func New(r Rules) *Filter {
	return &Filter{
		minSize:      r.MinSize,
		includeExts:  extSet(r.IncludeExts),
		excludeExts:  extSet(r.ExcludeExts),
		includeGlobs: trimAll(r.IncludeGlobs),
		excludeGlobs: trimAll(r.ExcludeGlobs),
	}
}

// Accept reports whether a file with the given path and size passes all rules.
// Rules run in order and the first failing one rejects.
func (f *Filter) Accept(path string, size int64) bool {
	if size < f.minSize {
		return false
	}

	ext := Ext(path)
	if len(f.includeExts) > 0 {
		if _, ok := f.includeExts[ext]; !ok {
			return false
		}
	}
	if _, ok := f.excludeExts[ext]; ok {
		return false
	}

	base := filepath.Base(path)
	if len(f.includeGlobs) > 0 && !matchAny(f.includeGlobs, base) {
		return false
	}
	return !matchAny(f.excludeGlobs, base)
}

// Ext returns the lower-cased extension of path including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Validate checks that all patterns are valid filepath.Match patterns.
func Validate(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// matchAny reports whether name matches any of the glob patterns.
// Invalid patterns never match; callers validate patterns upfront.
func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func extSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

func trimAll(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
