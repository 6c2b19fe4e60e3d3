package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TobiSchelling/KeigoBench/internal/analyze"
	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/evaluate"
)

func ptr(f float64) *float64 { return &f }

func TestReport(t *testing.T) {
	acc := []*evaluate.Report{
		{Style: corpus.Original, TotalQuestions: 4, CorrectAnswers: 3, Accuracy: 0.75},
		{Style: corpus.Kenjougo, TotalQuestions: 4, CorrectAnswers: 2, Accuracy: 0.5,
			Results: []evaluate.Judgment{{ModelAnswer: evaluate.Unavailable}, {ModelAnswer: "A"}}},
	}
	div := &analyze.Report{Entries: 4, Skipped: 1, Styles: []analyze.StyleStatistics{
		{Style: corpus.Original, Count: 4, MeanLength: 9},
		{Style: corpus.Kenjougo, Count: 4, MeanLength: 14.5, MeanJaccard: ptr(0.4), FunctionalRatio: 0.8,
			TopPOS: []analyze.TagShare{{Tag: "助詞", Fraction: 0.3}}},
	}}

	out := Report("KeigoBench results", div, acc)

	assert.True(t, strings.HasPrefix(out, "# KeigoBench results\n"))
	assert.Contains(t, out, "- **original_question**: 75.0% (3/4)\n")
	assert.Contains(t, out, "- **kenjougo**: 50.0% (2/4), -25.0 pt vs original")
	assert.Contains(t, out, "| kenjougo | 4 | 2 | 0.5000 | 1 |")
	assert.Contains(t, out, "| original_question | 4 | 9.00 | N/A | 0.00 |  |")
	assert.Contains(t, out, "| kenjougo | 4 | 14.50 | 0.400 | 0.80 | 助詞 (0.30) |")
	assert.Equal(t, 2, strings.Count(out, "\n---\n"))
}

func TestReportWithoutResults(t *testing.T) {
	out := Report("Empty", nil, nil)
	assert.Contains(t, out, "- No accuracy reports available.")
	assert.NotContains(t, out, "---")
}

func TestHTMLRendersTables(t *testing.T) {
	acc := []*evaluate.Report{{Style: corpus.Casual, TotalQuestions: 1, CorrectAnswers: 1, Accuracy: 1}}
	out, err := HTML("Results <1>", Report("Results", nil, acc))
	assert.NoError(t, err)
	assert.Contains(t, out, "<title>Results &lt;1&gt;</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>casual</td>")
	assert.Contains(t, out, "<h1>Results</h1>")
}
