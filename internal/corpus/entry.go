// Package corpus holds the rewritten question corpus and builds it from a
// dataset with periodic checkpoints.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TobiSchelling/KeigoBench/internal/dataset"
)

// Style names a politeness register. Original refers to the unmodified
// question text.
type Style string

const (
	Original Style = "original_question"
	Casual   Style = "casual"
	Standard Style = "standard"
	Sonkeigo Style = "sonkeigo"
	Kenjougo Style = "kenjougo"
)

// Registers are the rewrite targets, in report order.
var Registers = []Style{Casual, Standard, Sonkeigo, Kenjougo}

// Styles converts configured names to styles.
func Styles(names []string) []Style {
	out := make([]Style, len(names))
	for i, n := range names {
		out[i] = Style(n)
	}
	return out
}

// Variants maps each register to the rewritten question.
type Variants map[Style]string

// Entry is one corpus item: the source question, its rewrites and the
// answer data needed for evaluation.
type Entry struct {
	ID           dataset.ID    `json:"q_id"`
	OriginalText string        `json:"original_question"`
	Variants     Variants      `json:"variations"`
	Choices      []string      `json:"choices"`
	Label        dataset.Label `json:"label"`
}

// Text returns the question text for a style, or "" if the entry has none.
func (e Entry) Text(s Style) string {
	if s == Original {
		return e.OriginalText
	}
	return e.Variants[s]
}

// ErrCheckpoint marks a failure to persist the corpus. It aborts a build.
var ErrCheckpoint = errors.New("checkpoint write failed")

// Load reads a corpus file. A missing file is reported as os.ErrNotExist.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding corpus %s: %w", path, err)
	}
	return entries, nil
}

// Save writes the corpus atomically: readers see either the previous file
// or the complete new one.
func Save(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding: %v", ErrCheckpoint, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating directory: %v", ErrCheckpoint, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckpoint, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing: %v", ErrCheckpoint, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing: %v", ErrCheckpoint, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: renaming: %v", ErrCheckpoint, err)
	}
	return nil
}
