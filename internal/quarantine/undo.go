package quarantine

import "fmt"

// Undo moves every quarantined file of batchDir back to its source path.
//
// Rows marked DELETED or ERROR are skipped: there is nothing to restore.
// A row whose quarantined file is gone, or that fails to move, counts as an
// error and the pass continues, as does a malformed journal row. An occupied source path is never overwritten;
// the file is restored as "name (restored N).ext" instead.
func (m *Manager) Undo(batchDir string) (UndoResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res UndoResult
	if m.open != nil {
		return res, ErrBatchOpen
	}

	records, malformed, err := readJournal(m.fs, batchDir)
	if err != nil {
		return res, err
	}
	res.Errors = malformed

	logFile, err := openActionLog(m.fs, batchDir)
	if err != nil {
		return res, err
	}
	defer func() { _ = logFile.Close() }()
	note := func(format string, args ...any) {
		if err := appendLine(logFile, fmt.Sprintf(format, args...)); err != nil {
			m.log.Warn().Err(err).Msg("action log")
		}
	}

	note("Undo started at %s", m.now().Format(batchTimeFormat))
	if malformed > 0 {
		note("UNDO ERROR: %d malformed journal rows skipped", malformed)
		m.log.Warn().Int("rows", malformed).Str("dir", batchDir).Msg("malformed journal rows skipped")
	}

	for _, r := range records {
		if !r.Restorable() {
			continue
		}
		final, err := m.restore(r)
		if err != nil {
			res.Errors++
			note("UNDO ERROR: %s: %v", r.Destination, err)
			m.log.Debug().Err(err).Str("path", r.Destination).Msg("restore failed")
			continue
		}
		res.Restored++
		note("UNDO: %s -> %s", r.Destination, final)
	}

	m.log.Info().Str("dir", batchDir).Int("restored", res.Restored).Int("errors", res.Errors).Msg("undo finished")
	return res, nil
}

// restore moves one quarantined file back and returns where it landed.
func (m *Manager) restore(r Record) (string, error) {
	if _, err := m.fs.Stat(r.Destination); err != nil {
		return "", err
	}
	final, err := freeName(m.fs, r.Source, restoreSuffix)
	if err != nil {
		return "", err
	}
	if err := moveFile(m.fs, r.Destination, final); err != nil {
		return "", err
	}
	return final, nil
}
