// Package evaluate asks an answering service each multiple-choice question
// in every style and records whether the chosen letter matches the gold one.
package evaluate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/dataset"
	"github.com/TobiSchelling/KeigoBench/internal/llm"
)

// Letters maps choice indexes to answer letters.
var Letters = []string{"A", "B", "C", "D", "E"}

const (
	// Unavailable is recorded as the model answer when the service fails.
	Unavailable = "N/A"
	apiError    = "API_ERROR"
)

// Letter returns the answer letter for a choice index.
func Letter(i int) (string, bool) {
	if i < 0 || i >= len(Letters) {
		return "", false
	}
	return Letters[i], true
}

const promptTemplate = `
You are a helpful question-answering assistant. Your task is to select the single best answer from the provided choices.
Output ONLY the letter corresponding to the correct answer (e.g., %s).

Question: %s

Choices:
%s

Answer:
`

// Prompt renders a question and its choices as "LETTER. text" lines.
func Prompt(question string, choices []string) string {
	lines := make([]string, len(choices))
	for i, c := range choices {
		lines[i] = fmt.Sprintf("%s. %s", Letters[i], c)
	}
	return fmt.Sprintf(promptTemplate, letterList(len(choices)), question, strings.Join(lines, "\n"))
}

func letterList(n int) string {
	l := Letters[:n]
	if n <= 1 {
		return strings.Join(l, "")
	}
	return strings.Join(l[:n-1], ", ") + ", or " + l[n-1]
}

// Judgment is the outcome for one entry in one style.
type Judgment struct {
	ID            dataset.ID   `json:"q_id"`
	Style         corpus.Style `json:"style"`
	QuestionText  string       `json:"question_text"`
	CorrectAnswer string       `json:"correct_answer"`
	ModelAnswer   string       `json:"model_answer"`
	IsCorrect     bool         `json:"is_correct"`
	RawResponse   string       `json:"raw_response_text"`
}

// Report is the accuracy of one style. Skipped entries are not part of the
// persisted document.
type Report struct {
	Style          corpus.Style `json:"style"`
	TotalQuestions int          `json:"total_questions"`
	CorrectAnswers int          `json:"correct_answers"`
	Accuracy       float64      `json:"accuracy"`
	Results        []Judgment   `json:"results"`
	Skipped        int          `json:"-"`
}

func (r *Report) add(j Judgment) {
	r.Results = append(r.Results, j)
	r.TotalQuestions++
	if j.IsCorrect {
		r.CorrectAnswers++
	}
	r.Accuracy = float64(r.CorrectAnswers) / float64(r.TotalQuestions)
}

// Line is the one-line summary printed after each style.
func (r *Report) Line() string {
	return fmt.Sprintf("%-17s attempted=%d correct=%d accuracy=%.4f",
		r.Style, r.TotalQuestions, r.CorrectAnswers, r.Accuracy)
}

// Evaluator queries an answering provider.
type Evaluator struct {
	provider  llm.Provider
	maxTokens int
}

// New creates an evaluator. Requests always use temperature 0.
func New(provider llm.Provider, maxTokens int) *Evaluator {
	return &Evaluator{provider: provider, maxTokens: maxTokens}
}

// EvaluateStyle judges every entry that has text, choices and a usable gold
// label for style. A service failure counts as an incorrect answer; the
// only error returned is ctx's.
func (e *Evaluator) EvaluateStyle(ctx context.Context, entries []corpus.Entry, style corpus.Style) (*Report, error) {
	rep := &Report{Style: style, Results: []Judgment{}}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		text := entry.Text(style)
		gold, ok := "", false
		if entry.Label.Known && entry.Label.Index < len(entry.Choices) {
			gold, ok = Letter(entry.Label.Index)
		}
		if strings.TrimSpace(text) == "" || len(entry.Choices) == 0 || len(entry.Choices) > len(Letters) || !ok {
			rep.Skipped++
			continue
		}

		j := Judgment{
			ID:            entry.ID,
			Style:         style,
			QuestionText:  text,
			CorrectAnswer: gold,
			ModelAnswer:   Unavailable,
			RawResponse:   apiError,
		}

		resp, err := e.provider.Generate(ctx, llm.Request{
			Prompt:      Prompt(text, entry.Choices),
			Temperature: 0,
			MaxTokens:   e.maxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			log.Error().Err(err).Str("id", string(entry.ID)).Str("style", string(style)).Msg("Answering request failed")
		} else {
			j.RawResponse = resp
			j.ModelAnswer = strings.ToUpper(strings.TrimSpace(resp))
			j.IsCorrect = j.ModelAnswer == gold
		}
		rep.add(j)
	}

	log.Info().Str("style", string(style)).Int("attempted", rep.TotalQuestions).
		Int("correct", rep.CorrectAnswers).Int("skipped", rep.Skipped).
		Float64("accuracy", rep.Accuracy).Msg("Style evaluated")
	return rep, nil
}
