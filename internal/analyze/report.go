package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteJSON saves the report.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Table prints a fixed-width summary, one line per style.
func (r *Report) Table(w io.Writer) {
	fmt.Fprintf(w, "%-17s | %-8s | %-8s | %-9s | %s\n", "Category", "Avg Len", "Jaccard", "Func/Cont", "Top POS Distribution")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range r.Styles {
		jaccard := "N/A"
		if s.MeanJaccard != nil {
			jaccard = fmt.Sprintf("%.3f", *s.MeanJaccard)
		}
		top := make([]string, len(s.TopPOS))
		for i, t := range s.TopPOS {
			top[i] = fmt.Sprintf("%s(%.2f)", t.Tag, t.Fraction)
		}
		fmt.Fprintf(w, "%-17s | %-8.2f | %-8s | %-9.2f | %s\n",
			s.Style, s.MeanLength, jaccard, s.FunctionalRatio, strings.Join(top, ", "))
	}
}

// LoadJSON reads a report saved by WriteJSON.
func LoadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &r, nil
}
