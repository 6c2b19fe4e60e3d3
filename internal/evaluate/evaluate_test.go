package evaluate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/dataset"
	"github.com/TobiSchelling/KeigoBench/internal/llm"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
	failFor  map[string]bool
	prompts  []llm.Request
}

func (m *mockProvider) Generate(_ context.Context, req llm.Request) (string, error) {
	m.prompts = append(m.prompts, req)
	for q := range m.failFor {
		if strings.Contains(req.Prompt, q) {
			return "", errors.New("service unavailable")
		}
	}
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func entry(id string, label dataset.Label) corpus.Entry {
	return corpus.Entry{
		ID:           dataset.ID(id),
		OriginalText: "空が青い理由は何ですか？" + id,
		Variants:     corpus.Variants{corpus.Casual: "空が青い理由は何？" + id},
		Choices:      []string{"A", "B", "C", "D", "E"},
		Label:        label,
	}
}

func TestAlwaysCAnswerer(t *testing.T) {
	p := &mockProvider{response: " c\n"}
	entries := []corpus.Entry{entry("1", dataset.KnownLabel(2)), entry("2", dataset.KnownLabel(0))}

	rep, err := New(p, 16).EvaluateStyle(context.Background(), entries, corpus.Original)
	require.NoError(t, err)
	require.Len(t, rep.Results, 2)

	assert.True(t, rep.Results[0].IsCorrect)
	assert.Equal(t, "C", rep.Results[0].CorrectAnswer)
	assert.False(t, rep.Results[1].IsCorrect)
	assert.Equal(t, "C", rep.Results[1].ModelAnswer)
	assert.Equal(t, "A", rep.Results[1].CorrectAnswer)
	assert.Equal(t, " c\n", rep.Results[1].RawResponse)

	assert.Equal(t, 2, rep.TotalQuestions)
	assert.Equal(t, 1, rep.CorrectAnswers)
	assert.Equal(t, 0.5, rep.Accuracy)

	require.Len(t, p.prompts, 2)
	assert.Equal(t, float32(0), p.prompts[0].Temperature)
	assert.Equal(t, 16, p.prompts[0].MaxTokens)
	assert.Contains(t, p.prompts[0].Prompt, "Question: 空が青い理由は何ですか？1")
	assert.Contains(t, p.prompts[0].Prompt, "C. C\nD. D\nE. E")
	assert.Contains(t, p.prompts[0].Prompt, "(e.g., A, B, C, D, or E)")
}

func TestSkipsUnusableEntries(t *testing.T) {
	p := &mockProvider{response: "A"}
	noChoices := entry("3", dataset.KnownLabel(0))
	noChoices.Choices = nil
	outOfRange := entry("4", dataset.KnownLabel(0))
	outOfRange.Choices = []string{"x"}
	outOfRange.Label = dataset.KnownLabel(3)
	noVariant := entry("5", dataset.KnownLabel(0))
	noVariant.Variants = nil
	blankVariant := entry("7", dataset.KnownLabel(0))
	blankVariant.Variants = corpus.Variants{corpus.Casual: " \t\n"}

	entries := []corpus.Entry{entry("1", dataset.UnknownLabel), noChoices, outOfRange, noVariant, blankVariant, entry("6", dataset.KnownLabel(0))}
	rep, err := New(p, 0).EvaluateStyle(context.Background(), entries, corpus.Casual)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Skipped)
	assert.Equal(t, 1, rep.TotalQuestions)
	assert.Equal(t, 1, rep.CorrectAnswers)
	assert.Len(t, p.prompts, 1)
}

func TestServiceFailureCountsAsIncorrect(t *testing.T) {
	p := &mockProvider{response: "C", failFor: map[string]bool{"何ですか？2": true}}
	entries := []corpus.Entry{entry("1", dataset.KnownLabel(2)), entry("2", dataset.KnownLabel(2)), entry("3", dataset.KnownLabel(2))}

	rep, err := New(p, 0).EvaluateStyle(context.Background(), entries, corpus.Original)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.TotalQuestions)
	assert.Equal(t, 2, rep.CorrectAnswers)
	assert.Equal(t, Unavailable, rep.Results[1].ModelAnswer)
	assert.Equal(t, "API_ERROR", rep.Results[1].RawResponse)
	assert.False(t, rep.Results[1].IsCorrect)
	assert.LessOrEqual(t, rep.CorrectAnswers, rep.TotalQuestions)
	assert.InDelta(t, 2.0/3.0, rep.Accuracy, 1e-9)
}

func TestEmptyStyleAccuracyIsZero(t *testing.T) {
	rep, err := New(&mockProvider{response: "A"}, 0).EvaluateStyle(context.Background(), nil, corpus.Sonkeigo)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalQuestions)
	assert.Equal(t, 0.0, rep.Accuracy)
	assert.NotNil(t, rep.Results)
}

func TestCanceledEvaluation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&mockProvider{response: "A"}, 0).EvaluateStyle(ctx, []corpus.Entry{entry("1", dataset.KnownLabel(0))}, corpus.Original)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLetter(t *testing.T) {
	l, ok := Letter(4)
	assert.True(t, ok)
	assert.Equal(t, "E", l)
	_, ok = Letter(5)
	assert.False(t, ok)
	_, ok = Letter(-1)
	assert.False(t, ok)
}

func TestPromptWithTwoChoices(t *testing.T) {
	p := Prompt("Q", []string{"正しい", "誤り"})
	assert.Contains(t, p, "(e.g., A, or B)")
	assert.Contains(t, p, "A. 正しい\nB. 誤り")
}

func TestWriteAndSummarizeReports(t *testing.T) {
	dir := t.TempDir()
	p := &mockProvider{response: "C"}
	ev := New(p, 0)
	entries := []corpus.Entry{entry("1", dataset.KnownLabel(2)), entry("2", dataset.KnownLabel(1))}

	for _, s := range []corpus.Style{corpus.Casual, corpus.Original} {
		rep, err := ev.EvaluateStyle(context.Background(), entries, s)
		require.NoError(t, err)
		path, err := WriteReport(dir, rep)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, string(s)+".accuracy.json"), path)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o644))

	calls := len(p.prompts)
	reports, err := Summarize(dir)
	require.NoError(t, err)
	assert.Equal(t, calls, len(p.prompts))

	require.Len(t, reports, 2)
	assert.Equal(t, corpus.Original, reports[0].Style)
	assert.Equal(t, corpus.Casual, reports[1].Style)
	assert.Equal(t, 2, reports[1].TotalQuestions)
	assert.Equal(t, 1, reports[1].CorrectAnswers)
	assert.Equal(t, 0.5, reports[1].Accuracy)
	assert.Contains(t, reports[0].Line(), "attempted=2 correct=1 accuracy=0.5000")
}

func TestLoadReportRecomputesTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standard.accuracy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "style": "standard",
  "total_questions": 99,
  "correct_answers": 99,
  "accuracy": 1.0,
  "results": [
    {"q_id": 1, "style": "standard", "question_text": "Q", "correct_answer": "A", "model_answer": "A", "is_correct": true, "raw_response_text": "A"},
    {"q_id": 2, "style": "standard", "question_text": "Q", "correct_answer": "B", "model_answer": "N/A", "is_correct": false, "raw_response_text": "API_ERROR"}
  ]
}`), 0o644))

	rep, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalQuestions)
	assert.Equal(t, 1, rep.CorrectAnswers)
	assert.Equal(t, 0.5, rep.Accuracy)
	assert.Equal(t, dataset.ID("1"), rep.Results[0].ID)
}
