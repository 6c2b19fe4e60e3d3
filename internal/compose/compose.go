// Package compose renders saved analysis and accuracy results as a Markdown
// benchmark report.
package compose

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/KeigoBench/internal/analyze"
	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/evaluate"
)

// Report assembles the document. Either input may be empty.
func Report(title string, div *analyze.Report, acc []*evaluate.Report) string {
	var sections []string
	sections = append(sections, fmt.Sprintf("# %s\n\n%s", title, tldr(acc)))
	if len(acc) > 0 {
		sections = append(sections, accuracySection(acc))
	}
	if div != nil && len(div.Styles) > 0 {
		sections = append(sections, divergenceSection(div))
	}
	return strings.Join(sections, "\n\n---\n\n") + "\n"
}

func tldr(acc []*evaluate.Report) string {
	var baseline *evaluate.Report
	for _, r := range acc {
		if r.Style == corpus.Original {
			baseline = r
		}
	}
	if len(acc) == 0 {
		return "- No accuracy reports available."
	}

	var bullets []string
	for _, r := range acc {
		line := fmt.Sprintf("- **%s**: %.1f%% (%d/%d)", r.Style, 100*r.Accuracy, r.CorrectAnswers, r.TotalQuestions)
		if baseline != nil && r != baseline {
			line += fmt.Sprintf(", %+.1f pt vs original", 100*(r.Accuracy-baseline.Accuracy))
		}
		bullets = append(bullets, line)
	}
	return strings.Join(bullets, "\n")
}

func accuracySection(acc []*evaluate.Report) string {
	rows := []string{
		"## Accuracy",
		"",
		"| Style | Attempted | Correct | Accuracy | Unavailable |",
		"|---|---:|---:|---:|---:|",
	}
	for _, r := range acc {
		unavailable := 0
		for _, j := range r.Results {
			if j.ModelAnswer == evaluate.Unavailable {
				unavailable++
			}
		}
		rows = append(rows, fmt.Sprintf("| %s | %d | %d | %.4f | %d |",
			r.Style, r.TotalQuestions, r.CorrectAnswers, r.Accuracy, unavailable))
	}
	return strings.Join(rows, "\n")
}

func divergenceSection(div *analyze.Report) string {
	rows := []string{
		"## Divergence",
		"",
		fmt.Sprintf("%d entries analyzed, %d skipped.", div.Entries, div.Skipped),
		"",
		"| Style | Entries | Avg Len | Jaccard | Func/Cont | Top POS |",
		"|---|---:|---:|---:|---:|---|",
	}
	for _, s := range div.Styles {
		jaccard := "N/A"
		if s.MeanJaccard != nil {
			jaccard = fmt.Sprintf("%.3f", *s.MeanJaccard)
		}
		top := make([]string, len(s.TopPOS))
		for i, t := range s.TopPOS {
			top[i] = fmt.Sprintf("%s (%.2f)", t.Tag, t.Fraction)
		}
		rows = append(rows, fmt.Sprintf("| %s | %d | %.2f | %s | %.2f | %s |",
			s.Style, s.Count, s.MeanLength, jaccard, s.FunctionalRatio, strings.Join(top, ", ")))
	}
	return strings.Join(rows, "\n")
}
