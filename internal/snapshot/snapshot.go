// Package snapshot persists the history store to a durable file and restores
// it. The format is newline-delimited JSON: a header line with a format
// version, then one record per entry in recency order (front first).
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.klb.dev/clipr/internal/history"
)

// FormatVersion is bumped on incompatible record changes.
const FormatVersion = 1

// maxLineSize bounds a single snapshot record (16 MiB).
const maxLineSize = 16 * 1024 * 1024

// CorruptError reports a snapshot that exists but fails to parse.
type CorruptError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt snapshot %s (line %d): %v", e.Path, e.Line, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

type header struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Entries int       `json:"entries"`
}

// Record is one persisted entry.
type Record struct {
	ID        uint64     `json:"id"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Pin       string     `json:"pin,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Save writes the store to path. The file is written to a temp file in the
// same directory and renamed into place, so a crash mid-save never leaves a
// truncated snapshot behind.
func Save(path string, st *history.Store) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".clipr-snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	entries := st.Entries()
	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	if err := enc.Encode(header{
		Format:  "clipr",
		Version: FormatVersion,
		SavedAt: time.Now(),
		Entries: len(entries),
	}); err != nil {
		return fmt.Errorf("snapshot header: %w", err)
	}
	for _, e := range entries {
		rec := Record{
			ID:        e.ID,
			Content:   e.Content,
			Tags:      e.TagList(),
			CreatedAt: e.CreatedAt,
			Pin:       e.Pin,
			ExpiresAt: e.ExpiresAt,
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("snapshot entry %d: %w", e.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot rename: %w", err)
	}
	return nil
}

// Load reads a snapshot file and returns a fully-built store. The live store
// is never touched: on any error the caller keeps what it has. A missing
// file surfaces as an *os.PathError (os.IsNotExist); a parse failure as a
// *CorruptError.
func Load(path string) (*history.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("snapshot read: %w", err)
		}
		return nil, &CorruptError{Path: path, Line: 1, Err: fmt.Errorf("empty file")}
	}
	var h header
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil {
		return nil, &CorruptError{Path: path, Line: 1, Err: err}
	}
	if h.Format != "clipr" || h.Version != FormatVersion {
		return nil, &CorruptError{Path: path, Line: 1,
			Err: fmt.Errorf("unsupported format %q version %d", h.Format, h.Version)}
	}

	var entries []*history.Entry
	line := 1
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, &CorruptError{Path: path, Line: line, Err: err}
		}
		tags := make(map[string]struct{}, len(rec.Tags))
		for _, t := range rec.Tags {
			tags[t] = struct{}{}
		}
		entries = append(entries, &history.Entry{
			ID:        rec.ID,
			Content:   rec.Content,
			CreatedAt: rec.CreatedAt,
			Tags:      tags,
			Pin:       rec.Pin,
			ExpiresAt: rec.ExpiresAt,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("snapshot read: %w", err)
	}
	if len(entries) != h.Entries {
		return nil, &CorruptError{Path: path, Line: line,
			Err: fmt.Errorf("header declares %d entries, found %d", h.Entries, len(entries))}
	}
	return history.Restore(entries), nil
}
