// Package history is the append-only record of every commit made on any
// branch. It is independent of branch pointers, so commits stay findable
// after a reset or branch deletion.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"
)

const entryVersion = 1

type Entry struct {
	Version   int       `json:"version"`
	Branch    string    `json:"branch"`
	Commit    string    `json:"commit"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is stored oldest first, one JSON object per line.
type Log struct {
	path string
}

func New(path string) *Log {
	return &Log{path: path}
}

// Create makes an empty log; it fails if one exists.
func (l *Log) Create() error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating history log: %w", err)
	}
	return f.Close()
}

func (l *Log) Append(branch, commit, message string, timestamp time.Time) error {
	data, err := json.Marshal(Entry{
		Version:   entryVersion,
		Branch:    branch,
		Commit:    commit,
		Message:   message,
		Timestamp: timestamp.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening history log: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("appending history entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing history log: %w", err)
	}
	return f.Close()
}

// Entries returns every entry, most recent first. A torn final line left by
// a crash mid-append is skipped.
func (l *Log) Entries() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading history log: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			if !bytes.HasSuffix(data, []byte("\n")) && isLastLine(data, raw) {
				break
			}
			return nil, fmt.Errorf("parsing history log line %d: %w", line, err)
		}
		if e.Version != entryVersion {
			return nil, fmt.Errorf("parsing history log line %d: unsupported version %d", line, e.Version)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning history log: %w", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

// FindByMessage returns the commits whose message equals text exactly, most
// recent first. A commit logged more than once is reported once.
func (l *Log) FindByMessage(text string) ([]string, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Message == text && !seen[e.Commit] {
			seen[e.Commit] = true
			ids = append(ids, e.Commit)
		}
	}
	return ids, nil
}

func isLastLine(data, line []byte) bool {
	return bytes.HasSuffix(bytes.TrimRight(data, " \t\r"), line)
}
