package quarantine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

const (
	journalFile   = "operations.csv"
	actionLogFile = "actions.log"
)

var journalHeader = []string{"source", "destination", "kind", "group_key", "size", "timestamp"}

// ErrNoJournal is returned when a batch directory holds no operation journal.
var ErrNoJournal = errors.New("no operation journal in batch directory")

// journal appends rows to operations.csv and lines to actions.log.
// Every write is flushed and synced before returning.
type journal struct {
	csvFile afero.File
	csv     *csv.Writer
	logFile afero.File
}

// createJournal initialises both files in dir and writes the CSV header.
func createJournal(fs afero.Fs, dir string) (*journal, error) {
	csvFile, err := fs.OpenFile(filepath.Join(dir, journalFile), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	logFile, err := openActionLog(fs, dir)
	if err != nil {
		_ = csvFile.Close()
		return nil, err
	}

	j := &journal{csvFile: csvFile, csv: csv.NewWriter(csvFile), logFile: logFile}
	if err := j.writeRow(journalHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func openActionLog(fs afero.Fs, dir string) (afero.File, error) {
	f, err := fs.OpenFile(filepath.Join(dir, actionLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open action log: %w", err)
	}
	return f, nil
}

func (j *journal) writeRow(row []string) error {
	if err := j.csv.Write(row); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	j.csv.Flush()
	if err := j.csv.Error(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return j.csvFile.Sync()
}

// Append records one operation in both files.
func (j *journal) Append(r Record) error {
	row := []string{
		r.Source,
		r.Destination,
		r.Kind,
		r.GroupKey,
		strconv.FormatInt(r.Size, 10),
		r.Timestamp.Format(time.RFC3339),
	}
	if err := j.writeRow(row); err != nil {
		return err
	}
	return appendLine(j.logFile, fmt.Sprintf("%s: %s -> %s | %s | %d bytes", r.Kind, r.Source, r.Destination, r.GroupKey, r.Size))
}

// Note writes a free-form line to the action log.
func (j *journal) Note(line string) error {
	return appendLine(j.logFile, line)
}

func appendLine(f afero.File, line string) error {
	if _, err := io.WriteString(f, line+"\n"); err != nil {
		return fmt.Errorf("write action log: %w", err)
	}
	return f.Sync()
}

// Close closes both files.
func (j *journal) Close() error {
	return errors.Join(j.csvFile.Close(), j.logFile.Close())
}

// readJournal loads every row of a batch journal. Rows with the wrong number
// of fields, or that fail to parse, are skipped and counted in malformed: a
// crash during Append leaves at most one such row at the end.
func readJournal(fs afero.Fs, dir string) (records []Record, malformed int, err error) {
	f, err := fs.Open(filepath.Join(dir, journalFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%s: %w", dir, ErrNoJournal)
		}
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			malformed++
			continue
		}
		if err != nil {
			return records, malformed, fmt.Errorf("read journal: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) != len(journalHeader) {
			malformed++
			continue
		}
		size, _ := strconv.ParseInt(row[4], 10, 64)
		ts, _ := time.Parse(time.RFC3339, row[5])
		records = append(records, Record{
			Source:      row[0],
			Destination: row[1],
			Kind:        row[2],
			GroupKey:    row[3],
			Size:        size,
			Timestamp:   ts,
		})
	}
	return records, malformed, nil
}
