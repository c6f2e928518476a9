package quarantine

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how redundant copies are resolved.
type Mode string

const (
	ModeQuarantine Mode = "quarantine" // Move into the batch directory (reversible)
	ModeDelete     Mode = "delete"     // Remove permanently (not reversible)
)

// ParseMode validates a resolution mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeQuarantine, ModeDelete:
		return m, nil
	default:
		return "", fmt.Errorf("unknown resolution mode %q (want %s or %s)", s, ModeQuarantine, ModeDelete)
	}
}

// Destination markers for rows that have no file to restore.
const (
	MarkerDeleted = "DELETED"
	markerError   = "ERROR:"
)

// Record is one row of the operation journal.
type Record struct {
	Source      string    // Original path
	Destination string    // Quarantined path, MarkerDeleted, or ERROR:<reason>
	Kind        string    // Group kind ("exact" or "perceptual")
	GroupKey    string    // Digest or perc:<prefix>
	Size        int64     // File size in bytes
	Timestamp   time.Time // When the operation was attempted
}

// Failed reports whether the row records a failed operation.
func (r Record) Failed() bool { return strings.HasPrefix(r.Destination, markerError) }

// Restorable reports whether the row points at a quarantined file.
func (r Record) Restorable() bool {
	return r.Destination != "" && r.Destination != MarkerDeleted && !r.Failed()
}

// ActionType describes the action taken for one file.
type ActionType int

const (
	ActionQuarantined ActionType = iota
	ActionDeleted
	ActionFailed // Error recorded, file left in place
)

// Result describes the outcome of resolving a single file.
type Result struct {
	Source      string     // Path resolved
	Destination string     // Quarantine path (empty unless quarantined)
	Action      ActionType // Quarantined, Deleted, or Failed
	Size        int64      // Bytes removed from the scanned tree (0 if failed)
	Err         error      // Non-nil if failed
}

// String formats the result for display.
func (r *Result) String() string {
	switch r.Action {
	case ActionQuarantined:
		return fmt.Sprintf("Moved %s to %s", escapePath(r.Source), escapePath(r.Destination))
	case ActionDeleted:
		return fmt.Sprintf("Deleted %s", escapePath(r.Source))
	case ActionFailed:
		return fmt.Sprintf("failed %s: %v", escapePath(r.Source), r.Err)
	default:
		return fmt.Sprintf("Unknown action for %s", escapePath(r.Source))
	}
}

// UndoResult summarizes an undo pass.
type UndoResult struct {
	Restored int // Files moved back
	Errors   int // Rows that could not be restored
}

// escapePath escapes special characters in paths for safe terminal output.
func escapePath(path string) string {
	r := strings.NewReplacer(
		"\t", "\\t",
		"\n", "\\n",
		"\r", "\\r",
	)
	return r.Replace(path)
}
