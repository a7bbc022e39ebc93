package engine

// The journal records every accessory mutation as one JSON line. Files
// rotate daily and roll over to a numbered segment once they pass the
// configured size.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JournalEntry represents a single entry in the journal.
type JournalEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Command     string          `json:"command"`
	Bundle      string          `json:"bundle"`
	AccessoryID int             `json:"accessory_id"`
	Details     json.RawMessage `json:"details,omitempty"`
}

// Journal represents the journal for the accessory store.
type Journal struct {
	mu                 sync.Mutex
	file               *os.File
	baseFilePath       string    // directory + base name, no date
	currentDate        time.Time // date of the open file
	segment            int
	maxJournalFileSize int64
	currentSize        int64
	now                func() time.Time
}

// NewJournal creates a journal writing <dir>/<name>_YYYY-MM-DD.journal files.
func NewJournal(dir, name string, maxJournalFileSize int64) (*Journal, error) {
	journal := &Journal{
		baseFilePath:       filepath.Join(dir, name),
		maxJournalFileSize: maxJournalFileSize,
		now:                time.Now,
	}

	if err := journal.ensureCorrectFileOpen(0); err != nil {
		return nil, err
	}
	return journal, nil
}

func (j *Journal) fileName(day time.Time, segment int) string {
	dateStr := day.Format("2006-01-02")
	if segment == 0 {
		return fmt.Sprintf("%s_%s.journal", j.baseFilePath, dateStr)
	}
	return fmt.Sprintf("%s_%s.%d.journal", j.baseFilePath, dateStr, segment)
}

// ensureCorrectFileOpen opens the file for today that still has room for
// pending bytes, skipping full segments.
func (j *Journal) ensureCorrectFileOpen(pending int64) error {
	now := j.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if j.file != nil && j.currentDate.Equal(today) &&
		(j.currentSize == 0 || j.currentSize+pending <= j.maxJournalFileSize) {
		return nil
	}

	segment := 0
	if j.file != nil && j.currentDate.Equal(today) {
		segment = j.segment + 1
	}

	// Close the current file if it's open
	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return fmt.Errorf("failed to close previous journal file: %w", err)
		}
		j.file = nil
	}

	if err := os.MkdirAll(filepath.Dir(j.baseFilePath), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	// Skip segments left full by an earlier run.
	var size int64
	for {
		info, err := os.Stat(j.fileName(today, segment))
		if err != nil {
			size = 0
			break
		}
		size = info.Size()
		if size == 0 || size+pending <= j.maxJournalFileSize {
			break
		}
		segment++
	}

	fileName := j.fileName(today, segment)
	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file %s: %w", fileName, err)
	}

	j.file = file
	j.currentDate = today
	j.segment = segment
	j.currentSize = size
	return nil
}

// AddEntry appends an entry. details is marshalled to JSON when not nil.
func (j *Journal) AddEntry(command, bundle string, accessoryID int, details interface{}) error {
	entry := JournalEntry{
		Command:     command,
		Bundle:      bundle,
		AccessoryID: accessoryID,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode journal details: %w", err)
		}
		entry.Details = raw
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry.Timestamp = j.now().UTC()
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	line = append(line, '\n')

	if err := j.ensureCorrectFileOpen(int64(len(line))); err != nil {
		return err
	}

	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("failed to write to journal file: %w", err)
	}
	j.currentSize += int64(len(line))
	return nil
}

// CurrentFile returns the path of the file entries are appended to.
func (j *Journal) CurrentFile() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileName(j.currentDate, j.segment)
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return fmt.Errorf("failed to close journal file: %w", err)
		}
		j.file = nil
	}
	return nil
}
