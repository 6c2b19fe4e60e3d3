package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/llm"
)

// scriptedProvider returns responses (or errors) in order, repeating the last.
type scriptedProvider struct {
	responses []string
	errs      []error
	requests  []llm.Request
}

func (p *scriptedProvider) Generate(_ context.Context, req llm.Request) (string, error) {
	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if len(p.responses) == 0 {
		return "", nil
	}
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return p.responses[i], nil
}

func (p *scriptedProvider) IsConfigured() bool { return true }

type sleepRecorder struct{ delays []time.Duration }

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

const validResponse = `{"casual": "空が青い理由は何？教えろ。", "standard": "空が青い理由は何ですか？教えてください。", "sonkeigo": "空が青い理由について、どのようにお考えになりますか？", "kenjougo": "空が青い理由について、お伺い申し上げます。"}`

func newRewriter(t *testing.T, p llm.Provider, s *sleepRecorder) *Rewriter {
	t.Helper()
	r, err := New(p, Options{
		Styles:       corpus.Registers,
		Contract:     FewShot,
		MaxAttempts:  5,
		InitialDelay: 5 * time.Second,
		Temperature:  0.2,
		Sleep:        s.sleep,
	})
	require.NoError(t, err)
	return r
}

func TestRewriteSuccess(t *testing.T) {
	p := &scriptedProvider{responses: []string{"```json\n" + validResponse + "\n```"}}
	s := &sleepRecorder{}

	v, err := newRewriter(t, p, s).Rewrite(context.Background(), "1", "空が青い理由は何ですか？")
	require.NoError(t, err)
	assert.Len(t, v, 4)
	assert.Equal(t, "空が青い理由は何？教えろ。", v[corpus.Casual])
	assert.Empty(t, s.delays)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, "Rewrite this question:\n空が青い理由は何ですか？", req.Prompt)
	assert.True(t, req.JSON)
	assert.Equal(t, float32(0.2), req.Temperature)
	assert.Contains(t, req.System, "# Input Data")
	assert.Contains(t, req.System, "Few-Shot Example")
	assert.Contains(t, req.System, `"kenjougo"`)
}

func TestRewriteRetriesRateLimitWithBackoff(t *testing.T) {
	rateLimited := &llm.TransportError{Provider: "openai", StatusCode: 429, Err: errors.New("quota")}
	p := &scriptedProvider{errs: []error{rateLimited, rateLimited, rateLimited, rateLimited, rateLimited}}
	s := &sleepRecorder{}

	_, err := newRewriter(t, p, s).Rewrite(context.Background(), "7", "質問")
	require.Error(t, err)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "7", f.ID)
	assert.Equal(t, 5, f.Attempts)
	assert.Len(t, p.requests, 5)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second}, s.delays)
	assert.True(t, llm.IsTransient(err))
}

func TestRewriteRecoversAfterServerError(t *testing.T) {
	p := &scriptedProvider{
		errs:      []error{&llm.TransportError{Provider: "openai", StatusCode: 503, Err: errors.New("overloaded")}},
		responses: []string{"", validResponse},
	}
	s := &sleepRecorder{}

	v, err := newRewriter(t, p, s).Rewrite(context.Background(), "2", "質問")
	require.NoError(t, err)
	assert.Len(t, v, 4)
	assert.Equal(t, []time.Duration{5 * time.Second}, s.delays)
}

func TestRewriteDoesNotRetryMalformedOutput(t *testing.T) {
	p := &scriptedProvider{responses: []string{"not json"}}
	s := &sleepRecorder{}

	_, err := newRewriter(t, p, s).Rewrite(context.Background(), "3", "質問")
	require.Error(t, err)
	assert.True(t, llm.IsValidation(err))
	assert.Len(t, p.requests, 1)
	assert.Empty(t, s.delays)
}

func TestRewriteRejectsWrongKeys(t *testing.T) {
	cases := map[string]string{
		"missing":   `{"casual": "a", "standard": "b", "sonkeigo": "c"}`,
		"extra":     `{"casual": "a", "standard": "b", "sonkeigo": "c", "kenjougo": "d", "error": "x"}`,
		"empty":     `{"casual": "", "standard": "b", "sonkeigo": "c", "kenjougo": "d"}`,
		"nonText":   `{"casual": 1, "standard": "b", "sonkeigo": "c", "kenjougo": "d"}`,
		"notObject": `["a", "b"]`,
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			p := &scriptedProvider{responses: []string{resp}}
			_, err := newRewriter(t, p, &sleepRecorder{}).Rewrite(context.Background(), "4", "質問")
			require.Error(t, err)
			assert.True(t, llm.IsValidation(err))
			assert.Len(t, p.requests, 1)
		})
	}
}

func TestRewriteEmptyQuestion(t *testing.T) {
	p := &scriptedProvider{responses: []string{validResponse}}
	_, err := newRewriter(t, p, &sleepRecorder{}).Rewrite(context.Background(), "5", "  ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, p.requests)
}

func TestRewriteClientErrorIsPermanent(t *testing.T) {
	p := &scriptedProvider{errs: []error{&llm.TransportError{Provider: "openai", StatusCode: 400, Err: errors.New("bad request")}}}
	s := &sleepRecorder{}
	_, err := newRewriter(t, p, s).Rewrite(context.Background(), "6", "質問")
	require.Error(t, err)
	assert.Len(t, p.requests, 1)
	assert.Empty(t, s.delays)
}

func TestRewriteHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedProvider{responses: []string{validResponse}}
	_, err := newRewriter(t, p, &sleepRecorder{}).Rewrite(ctx, "8", "質問")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.requests)
}

func TestRewriteSubsetOfStyles(t *testing.T) {
	p := &scriptedProvider{responses: []string{`{"casual": "何？", "kenjougo": "伺います。"}`}}
	r, err := New(p, Options{
		Styles:       []corpus.Style{corpus.Casual, corpus.Kenjougo},
		Contract:     ZeroShot,
		MaxAttempts:  1,
		InitialDelay: time.Second,
	})
	require.NoError(t, err)

	v, err := r.Rewrite(context.Background(), "9", "科目：民法\n質問")
	require.NoError(t, err)
	assert.Equal(t, corpus.Variants{corpus.Casual: "何？", corpus.Kenjougo: "伺います。"}, v)

	sys := p.requests[0].System
	assert.Contains(t, sys, "ZERO-SHOT")
	assert.NotContains(t, sys, "Few-Shot Example")
	assert.NotContains(t, sys, `key "standard"`)
	assert.Contains(t, sys, "# The 2 Variations")
}

func TestNewRejectsBadOptions(t *testing.T) {
	p := &scriptedProvider{}
	_, err := New(p, Options{Styles: corpus.Registers, MaxAttempts: 0, InitialDelay: time.Second})
	assert.Error(t, err)
	_, err = New(p, Options{MaxAttempts: 1, InitialDelay: time.Second})
	assert.Error(t, err)
	_, err = New(nil, Options{Styles: corpus.Registers, MaxAttempts: 1, InitialDelay: time.Second})
	assert.Error(t, err)
}

func TestContractFor(t *testing.T) {
	assert.Equal(t, ZeroShot, ContractFor("barexam"))
	assert.Equal(t, FewShot, ContractFor("jcommonsenseqa"))
}

func TestFewShotExampleMatchesStyles(t *testing.T) {
	sys := SystemPrompt(FewShot, []corpus.Style{corpus.Standard})
	assert.Contains(t, sys, "教えてください")
	assert.False(t, strings.Contains(sys, "教えろ"))
}
