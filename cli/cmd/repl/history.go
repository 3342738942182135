package repl

import (
	"bufio"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// HistoryEntry is a single history line and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// History is the REPL line history, persisted one entry per line with a mode
// prefix ("T:" for templates, "C:" for commands).
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns a History backed by the file at path. An empty path
// keeps history in memory only.
func NewHistory(path string) *History {
	return &History{path: path}
}

func (m inputMode) prefix() string {
	if m == modeCtrl {
		return "C:"
	}

	return "T:"
}

func parseEntry(line string) HistoryEntry {
	if s, ok := strings.CutPrefix(line, modeCtrl.prefix()); ok {
		return HistoryEntry{Line: s, Mode: modeCtrl}
	}

	s, _ := strings.CutPrefix(line, modeTemplate.prefix())

	return HistoryEntry{Line: s, Mode: modeTemplate}
}

// Load reads history entries from the history file. A missing file is not
// an error.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.path == "" {
		return nil
	}

	file, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		h.entries = append(h.entries, parseEntry(line))
	}

	return scanner.Err()
}

// Add appends entry in the given mode. A repeat of the last entry is
// ignored, and an earlier duplicate is moved to the end.
func (h *History) Add(entry string, mode inputMode) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	add := HistoryEntry{Line: entry, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == add {
		return nil
	}

	i := slices.Index(h.entries, add)
	if i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}

	h.entries = append(h.entries, add)

	if h.path == "" {
		return nil
	}

	if i >= 0 {
		return h.rewriteFile()
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(mode.prefix() + entry + "\n")

	return err
}

// Entry returns the entry at index i. Index 0 is the oldest entry.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of history entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all history entries.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// rewriteFile rewrites the history file from the current entries.
// Must be called with h.mu held.
func (h *History) rewriteFile() error {
	file, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	for _, entry := range h.entries {
		if _, err := w.WriteString(entry.Mode.prefix() + entry.Line + "\n"); err != nil {
			return err
		}
	}

	return w.Flush()
}
