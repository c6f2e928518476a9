package filter

import (
	"testing"
)

// =============================================================================
// Section 1: Rule Ordering and Semantics
// =============================================================================

// TestAccept tests each rule in isolation and in combination.
func TestAccept(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		path  string
		size  int64
		want  bool
	}{
		{"no rules accepts", Rules{}, "/d/a.txt", 0, true},
		{"below min size", Rules{MinSize: 10}, "/d/a.txt", 9, false},
		{"at min size", Rules{MinSize: 10}, "/d/a.txt", 10, true},
		{"include ext hit", Rules{IncludeExts: []string{".jpg"}}, "/d/a.JPG", 1, true},
		{"include ext without dot", Rules{IncludeExts: []string{"png"}}, "/d/a.png", 1, true},
		{"include ext miss", Rules{IncludeExts: []string{".jpg"}}, "/d/a.png", 1, false},
		{"exclude ext", Rules{ExcludeExts: []string{".sys", ".DLL"}}, "/d/k.dll", 1, false},
		{"exclude ext other", Rules{ExcludeExts: []string{".sys"}}, "/d/k.txt", 1, true},
		{"include glob hit", Rules{IncludeGlobs: []string{"IMG_*"}}, "/d/IMG_001.jpg", 1, true},
		{"include glob miss", Rules{IncludeGlobs: []string{"IMG_*"}}, "/d/DSC_001.jpg", 1, false},
		{"include glob star", Rules{IncludeGlobs: []string{"*"}}, "/d/x", 1, true},
		{"exclude glob", Rules{ExcludeGlobs: []string{"*.tmp"}}, "/d/a.tmp", 1, false},
		{"glob matches basename only", Rules{ExcludeGlobs: []string{"d*"}}, "/d/a.txt", 1, true},
		{"exclude beats include", Rules{IncludeGlobs: []string{"*.txt"}, ExcludeGlobs: []string{"a*"}}, "/d/a.txt", 1, false},
		{"blank entries ignored", Rules{IncludeExts: []string{" ", ""}, IncludeGlobs: []string{""}}, "/d/a.txt", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.rules).Accept(tt.path, tt.size)
			if got != tt.want {
				t.Errorf("Accept(%q, %d) = %v, want %v", tt.path, tt.size, got, tt.want)
			}
		})
	}
}

// TestExt tests case-insensitive extension extraction.
func TestExt(t *testing.T) {
	if got := Ext("/a/B.JPeG"); got != ".jpeg" {
		t.Errorf("Ext = %q, want .jpeg", got)
	}
	if got := Ext("/a/noext"); got != "" {
		t.Errorf("Ext = %q, want empty", got)
	}
}

// =============================================================================
// Section 2: Glob Pattern Validation
// =============================================================================

// TestValidate tests pattern validation.
func TestValidate(t *testing.T) {
	if err := Validate([]string{"*.txt", "file?.bin", "[abc].txt"}); err != nil {
		t.Errorf("Validate(valid) unexpected error: %v", err)
	}
	if err := Validate(nil); err != nil {
		t.Errorf("Validate(nil) unexpected error: %v", err)
	}
	if err := Validate([]string{"*.txt", "[invalid"}); err == nil {
		t.Error("Validate([invalid) expected error, got nil")
	}
}
