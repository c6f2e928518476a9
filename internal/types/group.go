package types

// Kind distinguishes exact duplicates from perceptual near-duplicates.
type Kind int

const (
	KindExact      Kind = iota // Identical content and case-insensitive name
	KindPerceptual             // Visually similar images or video
)

// String returns the journal/report spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindPerceptual:
		return "perceptual"
	default:
		return "unknown"
	}
}

// GroupKey identifies a duplicate group. The set of implementations is closed:
// ExactKey and PerceptualKey are the only types satisfying it.
type GroupKey interface {
	Kind() Kind
	String() string
	groupKey()
}

// ExactKey is the key of a group of byte-identical files.
type ExactKey struct {
	Digest string // Hex-encoded content digest
}

func (ExactKey) Kind() Kind       { return KindExact }
func (k ExactKey) String() string { return k.Digest }
func (ExactKey) groupKey()        {}

// PerceptualKey is the key of a cluster of visually similar files.
type PerceptualKey struct {
	Metric string // "ahash" or "phash"
	Prefix string // Hash prefix of the candidate bucket
}

func (PerceptualKey) Kind() Kind       { return KindPerceptual }
func (k PerceptualKey) String() string { return "perc:" + k.Prefix }
func (PerceptualKey) groupKey()        {}

// DuplicateGroup is one detected set of redundant files.
//
// Invariants (enforced by NewDuplicateGroup):
//   - Keep is never a member of Others
//   - Others is sorted by path and holds no repeated path
type DuplicateGroup struct {
	Key    GroupKey
	Size   int64       // Size of the keeper in bytes
	Keep   FileEntry   // File that stays in place
	Others []FileEntry // Redundant copies
}

// NewDuplicateGroup builds a group from a keeper and its redundant copies.
// Paths equal to the keeper and repeated paths are dropped; the rest is sorted.
func NewDuplicateGroup(key GroupKey, keep FileEntry, others []FileEntry) DuplicateGroup {
	seen := map[string]struct{}{keep.Path: {}}
	unique := make([]FileEntry, 0, len(others))
	for _, o := range others {
		if _, dup := seen[o.Path]; dup {
			continue
		}
		seen[o.Path] = struct{}{}
		unique = append(unique, o)
	}
	sorted := NewSorted(unique, func(e FileEntry) string { return e.Path })
	return DuplicateGroup{
		Key:    key,
		Size:   keep.Size,
		Keep:   keep,
		Others: sorted.Items(),
	}
}

// Kind returns the kind of the group key.
func (g DuplicateGroup) Kind() Kind { return g.Key.Kind() }

// OtherPaths returns the paths of the redundant copies in order.
func (g DuplicateGroup) OtherPaths() []string {
	paths := make([]string, len(g.Others))
	for i, o := range g.Others {
		paths[i] = o.Path
	}
	return paths
}
