// Package deadletter records messages that could not be delivered even
// after the configured retry policy was exhausted. It adapts the
// teacher's gzip-compressed JSON persistence shape (originally used for
// whole-packet checkpointing) to terminal, already-failed messages —
// this does not reintroduce the in-flight durability spec.md excludes.
package deadletter

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/karteekpv77/loggateway/internal/models"
)

// Entry is one permanently-failed message, as written to the dead
// letter file and returned by List.
type Entry struct {
	Message    models.Message `json:"message"`
	AnalyzerID string         `json:"analyzer_id"`
	Error      string         `json:"error"`
	FailedAt   time.Time      `json:"failed_at"`
}

// maxEntries bounds the dead letter file; oldest entries are dropped
// once it's reached so the file cannot grow without bound.
const maxEntries = 10000

// Store appends dead-letter entries to a gzip-compressed JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a Store backed by path (the plain, uncompressed name; the
// file on disk carries a .gz suffix).
func New(path string) *Store {
	return &Store{path: path}
}

// Record appends one entry, rotating the oldest half away once the file
// holds maxEntries.
func (s *Store) Record(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readLocked()
	if err != nil {
		return fmt.Errorf("reading dead letter file: %w", err)
	}

	if len(entries) >= maxEntries {
		entries = entries[len(entries)-maxEntries/2:]
	}
	entries = append(entries, entry)

	return s.writeLocked(entries)
}

// List returns every recorded entry, most recent last.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *Store) readLocked() ([]Entry, error) {
	file, err := os.Open(s.path + ".gz")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshaling dead letter file: %w", err)
	}
	return entries, nil
}

func (s *Store) writeLocked(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling dead letter entries: %w", err)
	}

	file, err := os.Create(s.path + ".gz")
	if err != nil {
		return fmt.Errorf("creating dead letter file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return fmt.Errorf("writing dead letter file: %w", err)
	}
	return gz.Close()
}
