package grouper

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/ivoronin/dupekeeper/internal/types"
)

// fixedTimes is a DirTimes with preset values; unknown dirs report !ok.
type fixedTimes map[string]time.Time

func (f fixedTimes) DirTime(dir string) (time.Time, bool) {
	t, ok := f[dir]
	return t, ok
}

var (
	t1 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Hour)
	t3 = t2.Add(time.Hour)
)

// =============================================================================
// Section 1: Size Screening
// =============================================================================

func TestScreenSizeGrouping(t *testing.T) {
	files := []types.FileEntry{
		{Path: "/a.txt", Size: 100},
		{Path: "/b.txt", Size: 100},
		{Path: "/c.txt", Size: 200},
		{Path: "/d.txt", Size: 300},
	}

	res, _ := Screen(files)

	if len(res.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(res.Buckets))
	}
	if res.Buckets[0].Size != 100 {
		t.Errorf("bucket size = %d, want 100", res.Buckets[0].Size)
	}
	if res.Singletons != 2 {
		t.Errorf("Singletons = %d, want 2", res.Singletons)
	}
	if res.Candidates() != 2 {
		t.Errorf("Candidates() = %d, want 2", res.Candidates())
	}
}

func TestScreenKeepsDiscoveryOrder(t *testing.T) {
	files := []types.FileEntry{
		{Path: "/z", Size: 5},
		{Path: "/a", Size: 5},
		{Path: "/m", Size: 5},
	}

	res, _ := Screen(files)

	got := res.Buckets[0].Files
	for i, want := range []string{"/z", "/a", "/m"} {
		if got[i].Path != want {
			t.Errorf("Files[%d] = %s, want %s", i, got[i].Path, want)
		}
	}
}

func TestScreenEmpty(t *testing.T) {
	res, stats := Screen(nil)
	if len(res.Buckets) != 0 || res.Singletons != 0 {
		t.Errorf("Screen(nil) = %+v, want empty", res)
	}
	if stats.String() == "" {
		t.Error("stats should render")
	}
}

// =============================================================================
// Section 2: Keeper Selection
// =============================================================================

func TestSelectKeeperEarliestDir(t *testing.T) {
	times := fixedTimes{"/c": t3, "/a": t1, "/b": t2}
	members := []types.FileEntry{{Path: "/c/1.txt"}, {Path: "/b/1.txt"}, {Path: "/a/1.txt"}}

	keep, others := SelectKeeper(members, entryPath, times)

	if keep.Path != "/a/1.txt" {
		t.Errorf("keep = %s, want /a/1.txt", keep.Path)
	}
	if len(others) != 2 || others[0].Path != "/c/1.txt" || others[1].Path != "/b/1.txt" {
		t.Errorf("others = %v, want remaining members in input order", others)
	}
}

func TestSelectKeeperTieFirstWins(t *testing.T) {
	times := fixedTimes{"/x": t1, "/y": t1}
	members := []types.FileEntry{{Path: "/y/f"}, {Path: "/x/f"}}

	for i := 0; i < 5; i++ {
		keep, _ := SelectKeeper(members, entryPath, times)
		if keep.Path != "/y/f" {
			t.Fatalf("run %d: keep = %s, want first-encountered /y/f", i, keep.Path)
		}
	}
}

func TestSelectKeeperUnknownTimeLoses(t *testing.T) {
	times := fixedTimes{"/known": t3}
	members := []types.FileEntry{{Path: "/unknown/f"}, {Path: "/known/f"}}

	keep, _ := SelectKeeper(members, entryPath, times)
	if keep.Path != "/known/f" {
		t.Errorf("keep = %s, want /known/f", keep.Path)
	}
}

func TestSelectKeeperEmpty(t *testing.T) {
	keep, others := SelectKeeper(nil, entryPath, fixedTimes{})
	if keep.Path != "" || others != nil {
		t.Errorf("SelectKeeper(nil) = (%v, %v)", keep, others)
	}
}

func TestFSDirTimesFallsBackToModTime(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/old", 0o755)
	_ = fs.MkdirAll("/new", 0o755)
	_ = fs.Chtimes("/old", t1, t1)
	_ = fs.Chtimes("/new", t3, t3)

	dt := NewDirTimes(fs)

	old, ok := dt.DirTime("/old")
	if !ok || !old.Equal(t1) {
		t.Errorf("DirTime(/old) = (%v, %v), want (%v, true)", old, ok, t1)
	}
	if _, ok := dt.DirTime("/missing"); ok {
		t.Error("DirTime(/missing) should report unknown")
	}

	// Memoized: a later change is not observed
	_ = fs.Chtimes("/old", t3, t3)
	if again, _ := dt.DirTime("/old"); !again.Equal(t1) {
		t.Errorf("DirTime(/old) not memoized: %v", again)
	}
}

// =============================================================================
// Section 3: Exact Grouping
// =============================================================================

func digestsOf(pairs ...string) map[string]string {
	m := make(map[string]string)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m
}

// TestGroupScenarioThreeDirs: identical content and name in a/, b/, c/
// created at T1<T2<T3 gives one group kept in a/.
func TestGroupScenarioThreeDirs(t *testing.T) {
	files := []types.FileEntry{
		{Path: "/r/c/1.txt", Size: 10},
		{Path: "/r/a/1.txt", Size: 10},
		{Path: "/r/b/1.txt", Size: 10},
	}
	digests := digestsOf("/r/a/1.txt", "d1", "/r/b/1.txt", "d1", "/r/c/1.txt", "d1")
	g := New(fixedTimes{"/r/a": t1, "/r/b": t2, "/r/c": t3})

	groups := g.Group(files, digests)

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	grp := groups[0]
	if grp.Kind() != types.KindExact {
		t.Errorf("kind = %v, want exact", grp.Kind())
	}
	if grp.Keep.Path != "/r/a/1.txt" {
		t.Errorf("keep = %s, want /r/a/1.txt", grp.Keep.Path)
	}
	others := grp.OtherPaths()
	if len(others) != 2 || others[0] != "/r/b/1.txt" || others[1] != "/r/c/1.txt" {
		t.Errorf("others = %v, want [/r/b/1.txt /r/c/1.txt]", others)
	}
	if grp.Key.String() != "d1" || grp.Size != 10 {
		t.Errorf("key/size = %s/%d", grp.Key, grp.Size)
	}
}

// TestGroupDifferentNames: identical content under x.txt and y.txt is not a group.
func TestGroupDifferentNames(t *testing.T) {
	files := []types.FileEntry{{Path: "/x.txt", Size: 3}, {Path: "/y.txt", Size: 3}}
	digests := digestsOf("/x.txt", "d", "/y.txt", "d")

	if groups := New(fixedTimes{}).Group(files, digests); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestGroupNameIsCaseInsensitive(t *testing.T) {
	files := []types.FileEntry{{Path: "/a/Photo.JPG", Size: 3}, {Path: "/b/photo.jpg", Size: 3}}
	digests := digestsOf("/a/Photo.JPG", "d", "/b/photo.jpg", "d")

	groups := New(fixedTimes{"/a": t1, "/b": t2}).Group(files, digests)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Keep.Path != "/a/Photo.JPG" {
		t.Errorf("keep = %s", groups[0].Keep.Path)
	}
}

func TestGroupDifferentDigests(t *testing.T) {
	files := []types.FileEntry{{Path: "/a/f", Size: 3}, {Path: "/b/f", Size: 3}}
	digests := digestsOf("/a/f", "d1", "/b/f", "d2")

	if groups := New(fixedTimes{}).Group(files, digests); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestGroupSkipsUnhashed(t *testing.T) {
	files := []types.FileEntry{{Path: "/a/f", Size: 3}, {Path: "/b/f", Size: 3}, {Path: "/c/f", Size: 3}}
	digests := digestsOf("/a/f", "d", "/c/f", "d") // /b/f failed to hash

	groups := New(fixedTimes{"/a": t1, "/c": t2}).Group(files, digests)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	for _, p := range groups[0].OtherPaths() {
		if p == "/b/f" {
			t.Error("unhashed file must not join a group")
		}
	}
}

func TestGroupDeterministicOrder(t *testing.T) {
	files := []types.FileEntry{
		{Path: "/1/b.txt", Size: 1}, {Path: "/2/b.txt", Size: 1},
		{Path: "/1/a.txt", Size: 1}, {Path: "/2/a.txt", Size: 1},
		{Path: "/1/z", Size: 1}, {Path: "/2/z", Size: 1},
	}
	digests := digestsOf(
		"/1/b.txt", "ff", "/2/b.txt", "ff",
		"/1/a.txt", "ff", "/2/a.txt", "ff",
		"/1/z", "00", "/2/z", "00",
	)
	g := New(fixedTimes{"/1": t1, "/2": t2})

	for run := 0; run < 3; run++ {
		groups := g.Group(files, digests)
		if len(groups) != 3 {
			t.Fatalf("expected 3 groups, got %d", len(groups))
		}
		want := []string{"/1/z", "/1/a.txt", "/1/b.txt"}
		for i, grp := range groups {
			if grp.Keep.Path != want[i] {
				t.Errorf("run %d group %d keep = %s, want %s", run, i, grp.Keep.Path, want[i])
			}
		}
	}
}

func TestGroupKeeperNeverInOthers(t *testing.T) {
	files := []types.FileEntry{{Path: "/a/f", Size: 1}, {Path: "/b/f", Size: 1}, {Path: "/c/f", Size: 1}}
	digests := digestsOf("/a/f", "d", "/b/f", "d", "/c/f", "d")

	for _, grp := range New(fixedTimes{"/b": t1}).Group(files, digests) {
		seen := map[string]bool{}
		for _, p := range grp.OtherPaths() {
			if p == grp.Keep.Path {
				t.Errorf("keeper %s found in others", p)
			}
			if seen[p] {
				t.Errorf("duplicate path %s in others", p)
			}
			seen[p] = true
		}
	}
}
