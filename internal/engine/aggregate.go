package engine

import "github.com/ivoronin/dupekeeper/internal/types"

// Aggregate is the running total of duplicate bytes across emitted groups.
// A path is counted once even if it appears in several groups (an exact
// group and a perceptual one, for instance). Only the orchestrator mutates it.
type Aggregate struct {
	bytes   int64
	counted map[string]struct{}
}

// NewAggregate creates an empty Aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{counted: make(map[string]struct{})}
}

// Add counts the redundant copies of g and returns the bytes newly added.
func (a *Aggregate) Add(g types.DuplicateGroup) int64 {
	var added int64
	for _, o := range g.Others {
		if _, seen := a.counted[o.Path]; seen {
			continue
		}
		a.counted[o.Path] = struct{}{}
		added += o.Size
	}
	a.bytes += added
	return added
}

// Bytes returns the total duplicate bytes counted so far.
func (a *Aggregate) Bytes() int64 { return a.bytes }

// Paths returns the number of distinct paths counted so far.
func (a *Aggregate) Paths() int { return len(a.counted) }
