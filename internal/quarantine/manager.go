// Package quarantine resolves duplicate groups and journals every operation.
//
// # Batch Lifecycle
//
//	Manager (IDLE)
//	    │
//	    ├──► Open(scanRoot, mode)
//	    │        ├──► create <root>/<YYYY-MM-DD_HH-MM-SS>[-N]
//	    │        ├──► write operations.csv header, actions.log, batch.yaml
//	    │        └──► Batch (BATCH_OPEN)
//	    │
//	    ├──► Batch.Resolve(group)  (repeatable)
//	    │        └──► for each redundant copy:
//	    │                 ├──► delete or move into batch dir
//	    │                 └──► append + sync journal row
//	    │
//	    └──► Batch.Close()  → Manager back to IDLE
//
// # Durability
//
// The journal exists before the first file is touched, and each row is synced
// before the next file is processed. A crash loses at most the operation that
// was in flight. Deletions are journaled but cannot be undone.
package quarantine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ivoronin/dupekeeper/internal/types"
)

// batchTimeFormat names batch directories.
const batchTimeFormat = "2006-01-02_15-04-05"

var (
	// ErrBatchOpen is returned when a batch is opened or undone while another is open.
	ErrBatchOpen = errors.New("a batch is already open")
	// ErrNoBatches is returned by Latest when the quarantine root holds no batch.
	ErrNoBatches = errors.New("no batches found")
)

// Manager owns a quarantine root and allows one open batch at a time.
type Manager struct {
	fs   afero.Fs
	root string
	now  func() time.Time
	log  zerolog.Logger

	mu   sync.Mutex
	open *Batch
}

// NewManager creates a Manager for the given quarantine root.
func NewManager(fs afero.Fs, root string, log zerolog.Logger) *Manager {
	return &Manager{fs: fs, root: root, now: time.Now, log: log}
}

// Root returns the quarantine root directory.
func (m *Manager) Root() string { return m.root }

// Batch is one open resolution session.
type Batch struct {
	m        *Manager
	dir      string
	scanRoot string
	mode     Mode
	manifest Manifest
	journal  *journal
}

// Open creates a fresh batch directory and its journal.
// Nothing is moved or deleted before the journal is in place.
func (m *Manager) Open(scanRoot string, mode Mode) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open != nil {
		return nil, ErrBatchOpen
	}

	created := m.now()
	dir, err := m.createBatchDir(created)
	if err != nil {
		return nil, err
	}

	j, err := createJournal(m.fs, dir)
	if err != nil {
		return nil, err
	}
	if err := j.Note("Batch started at " + created.Format(batchTimeFormat)); err != nil {
		_ = j.Close()
		return nil, err
	}

	manifest := newManifest(scanRoot, mode, created)
	if err := writeManifest(m.fs, dir, manifest); err != nil {
		_ = j.Close()
		return nil, err
	}

	b := &Batch{m: m, dir: dir, scanRoot: scanRoot, mode: mode, manifest: manifest, journal: j}
	m.open = b
	m.log.Info().Str("dir", dir).Str("id", manifest.ID).Str("mode", string(mode)).Msg("batch opened")
	return b, nil
}

// createBatchDir creates a new, never-used directory named after t.
func (m *Manager) createBatchDir(t time.Time) (string, error) {
	if err := m.fs.MkdirAll(m.root, 0o755); err != nil {
		return "", fmt.Errorf("create quarantine root: %w", err)
	}

	name := t.Format(batchTimeFormat)
	for n := 0; ; n++ {
		dir := filepath.Join(m.root, name)
		if n > 0 {
			dir += "-" + strconv.Itoa(n)
		}
		exists, err := afero.DirExists(m.fs, dir)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		if err := m.fs.Mkdir(dir, 0o755); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", fmt.Errorf("create batch dir: %w", err)
		}
		return dir, nil
	}
}

// Dir returns the batch directory.
func (b *Batch) Dir() string { return b.dir }

// ID returns the batch identifier recorded in the manifest.
func (b *Batch) ID() string { return b.manifest.ID }

// Mode returns the resolution mode of the batch.
func (b *Batch) Mode() Mode { return b.mode }

// Resolve deletes or quarantines every redundant copy of g, in order.
// A failure is journaled as ERROR:<reason> and does not stop the rest.
// The group itself is not modified. An error is returned only when the
// journal cannot be written.
func (b *Batch) Resolve(g types.DuplicateGroup) ([]Result, error) {
	results := make([]Result, 0, len(g.Others))

	for _, other := range g.Others {
		res := b.resolveFile(other.Path)
		res.Size = other.Size
		if res.Action == ActionFailed {
			res.Size = 0
		}

		rec := Record{
			Source:    other.Path,
			Kind:      g.Kind().String(),
			GroupKey:  g.Key.String(),
			Size:      other.Size,
			Timestamp: b.m.now(),
		}
		switch res.Action {
		case ActionDeleted:
			rec.Destination = MarkerDeleted
		case ActionQuarantined:
			rec.Destination = res.Destination
		default:
			rec.Destination = markerError + res.Err.Error()
		}

		if err := b.journal.Append(rec); err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}

func (b *Batch) resolveFile(src string) Result {
	if b.mode == ModeDelete {
		if err := b.m.fs.Remove(src); err != nil {
			return Result{Source: src, Action: ActionFailed, Err: err}
		}
		return Result{Source: src, Action: ActionDeleted}
	}

	dst, err := freeName(b.m.fs, filepath.Join(b.dir, relPath(src, b.scanRoot)), collisionSuffix)
	if err != nil {
		return Result{Source: src, Action: ActionFailed, Err: err}
	}
	if err := moveFile(b.m.fs, src, dst); err != nil {
		return Result{Source: src, Action: ActionFailed, Err: err}
	}
	return Result{Source: src, Destination: dst, Action: ActionQuarantined}
}

// relPath returns path relative to root, or its basename when path is not
// under root.
func relPath(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return rel
}

// Close closes the journal and returns the Manager to IDLE.
func (b *Batch) Close() error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()

	if b.m.open != b {
		return nil
	}
	b.m.open = nil
	return b.journal.Close()
}

// BatchInfo describes a batch found under the quarantine root.
type BatchInfo struct {
	Dir        string
	Manifest   *Manifest // nil for batches without batch.yaml
	Operations int       // Journal rows
}

// List returns every batch under the quarantine root, oldest first.
func (m *Manager) List() ([]BatchInfo, error) {
	entries, err := afero.ReadDir(m.fs, m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return batchLess(entries[i].Name(), entries[j].Name()) })

	var batches []BatchInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.root, e.Name())
		records, _, err := readJournal(m.fs, dir)
		if err != nil {
			continue
		}
		manifest, err := readManifest(m.fs, dir)
		if err != nil {
			m.log.Debug().Err(err).Str("dir", dir).Msg("unreadable manifest")
		}
		batches = append(batches, BatchInfo{Dir: dir, Manifest: manifest, Operations: len(records)})
	}
	return batches, nil
}

// batchLess orders batch names by timestamp, then by numeric suffix.
func batchLess(a, b string) bool {
	ta, na := splitBatchName(a)
	tb, nb := splitBatchName(b)
	if ta != tb {
		return ta < tb
	}
	return na < nb
}

func splitBatchName(name string) (stamp string, n int) {
	if len(name) <= len(batchTimeFormat) {
		return name, 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name[len(batchTimeFormat):], "-"))
	if err != nil {
		return name, 0
	}
	return name[:len(batchTimeFormat)], n
}

// Latest returns the most recent batch directory.
func (m *Manager) Latest() (string, error) {
	batches, err := m.List()
	if err != nil {
		return "", err
	}
	if len(batches) == 0 {
		return "", fmt.Errorf("%s: %w", m.root, ErrNoBatches)
	}
	return batches[len(batches)-1].Dir, nil
}
