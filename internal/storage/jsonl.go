// Package storage handles data persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/matsen/papermem/internal/paper"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
// This constant is shared across all JSONL file readers.
const MaxJSONLLineCapacity = 1024 * 1024

// LoadPapers reads all paper records from a JSONL file, keyed by id.
// A missing file is an empty library. A later line for the same id replaces
// an earlier one.
func LoadPapers(path string) (map[paper.ID]paper.Record, error) {
	records, err := readJSONL[paper.Record](path, "papers")
	if err != nil {
		return nil, err
	}

	out := make(map[paper.ID]paper.Record, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("papers line %d: record has no id", i+1)
		}
		out[rec.ID] = rec
	}
	return out, nil
}

// SavePapers writes all records to a JSONL file sorted by id, replacing
// existing content.
func SavePapers(path string, records map[paper.ID]paper.Record) error {
	ids := make([]paper.ID, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sorted := make([]paper.Record, 0, len(ids))
	for _, id := range ids {
		rec := records[id]
		rec.ID = id
		sorted = append(sorted, rec)
	}
	return writeJSONL(path, "papers", sorted)
}

// readJSONL reads one JSON value per non-empty line.
func readJSONL[T any](path, what string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file returns empty slice
		}
		return nil, fmt.Errorf("opening %s file: %w", what, err)
	}
	defer f.Close()

	var items []T
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", what, lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s file: %w", what, err)
	}

	return items, nil
}

// writeJSONL writes items to a temporary file next to path and renames it
// into place, so a crash never leaves a truncated library.
func writeJSONL[T any](path, what string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s directory: %w", what, err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating %s file: %w", what, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	w := bufio.NewWriter(f)
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			f.Close()
			return fmt.Errorf("encoding %s %d: %w", what, i, err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", what, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s file: %w", what, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s file: %w", what, err)
	}
	return nil
}
