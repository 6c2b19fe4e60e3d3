package evaluate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/TobiSchelling/KeigoBench/internal/corpus"
)

const reportSuffix = ".accuracy.json"

// ReportPath is where the report of style is stored under dir.
func ReportPath(dir string, style corpus.Style) string {
	return filepath.Join(dir, string(style)+reportSuffix)
}

// WriteReport persists r under dir and returns the file path.
func WriteReport(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	path := ReportPath(dir, r.Style)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// LoadReport reads a saved report and recomputes its totals from the
// per-entry judgments.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var saved Report
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	rep := &Report{Style: saved.Style, Results: []Judgment{}}
	if rep.Style == "" {
		rep.Style = corpus.Style(strings.TrimSuffix(filepath.Base(path), reportSuffix))
	}
	for _, j := range saved.Results {
		rep.add(j)
	}
	return rep, nil
}

// Summarize re-aggregates every report found below dir without querying the
// answering service. Known styles come first in their canonical order.
func Summarize(dir string) ([]*Report, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*"+reportSuffix)
	if err != nil {
		return nil, fmt.Errorf("searching reports: %w", err)
	}

	reports := make([]*Report, 0, len(matches))
	for _, m := range matches {
		rep, err := LoadReport(filepath.Join(dir, filepath.FromSlash(m)))
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	rank := func(s corpus.Style) int {
		if s == corpus.Original {
			return 0
		}
		for i, r := range corpus.Registers {
			if r == s {
				return i + 1
			}
		}
		return len(corpus.Registers) + 1
	}
	sort.SliceStable(reports, func(i, j int) bool {
		ri, rj := rank(reports[i].Style), rank(reports[j].Style)
		if ri != rj {
			return ri < rj
		}
		return reports[i].Style < reports[j].Style
	})
	return reports, nil
}
