// Package tui provides a Bubble Tea terminal UI for exploring simulation
// reports.
package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// History keeps the most recent queries, oldest first, with an up/down
// browsing cursor. It can be persisted as one query per line.
type History struct {
	entries []string
	limit   int
	pos     int // len(entries) when not browsing
}

// NewHistory creates an empty history holding at most limit queries.
func NewHistory(limit int) *History {
	return &History{limit: max(limit, 1)}
}

// LoadHistory reads a history file written by Save. A missing file yields
// an empty history.
func LoadHistory(path string, limit int) (*History, error) {
	h := NewHistory(limit)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return h, fmt.Errorf("reading query history: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		h.Push(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return h, fmt.Errorf("reading query history: %w", err)
	}
	return h, nil
}

// Save writes the history to path, creating its directory.
func (h *History) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writing query history: %w", err)
	}
	data := strings.Join(h.entries, "\n")
	if data != "" {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing query history: %w", err)
	}
	return nil
}

// Push records a query and stops browsing. Blank queries and repeats of
// the newest entry are dropped.
func (h *History) Push(query string) {
	query = strings.TrimSpace(query)
	if query != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != query) {
		h.entries = append(h.entries, query)
		if over := len(h.entries) - h.limit; over > 0 {
			h.entries = h.entries[over:]
		}
	}
	h.ResetCursor()
}

// Prev steps to the next older entry, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	h.pos = max(h.pos-1, 0)
	return h.entries[h.pos], true
}

// Next steps to the next newer entry. Stepping past the newest ends
// browsing and reports false.
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.entries) {
		return "", false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return "", false
	}
	return h.entries[h.pos], true
}

// ResetCursor ends browsing.
func (h *History) ResetCursor() {
	h.pos = len(h.entries)
}

// Len returns the number of stored queries.
func (h *History) Len() int { return len(h.entries) }
