// Package rewrite asks a generation service for politeness-register
// variants of a question, retrying transient service failures.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/llm"
	"github.com/TobiSchelling/KeigoBench/internal/retry"
)

// ErrEmptyQuestion is returned before any service call for blank input.
var ErrEmptyQuestion = errors.New("empty question")

// Options configures a Rewriter.
type Options struct {
	Styles       []corpus.Style
	Contract     Contract
	MaxAttempts  int
	InitialDelay time.Duration
	Temperature  float32
	MaxTokens    int
	// Sleep replaces the backoff timer, mainly in tests.
	Sleep retry.SleepFunc
}

// Failure is a permanent per-question failure.
type Failure struct {
	ID       string
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("rewriting %s failed after %d attempt(s): %v", f.ID, f.Attempts, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Rewriter produces register variants through an llm.Provider.
type Rewriter struct {
	provider llm.Provider
	opts     Options
	system   string
}

// New validates opts and renders the system prompt once.
func New(provider llm.Provider, opts Options) (*Rewriter, error) {
	if provider == nil {
		return nil, errors.New("no generation provider")
	}
	if len(opts.Styles) == 0 {
		return nil, errors.New("no target styles")
	}
	if opts.Contract == "" {
		opts.Contract = FewShot
	}
	p := retry.Policy{MaxAttempts: opts.MaxAttempts, InitialDelay: opts.InitialDelay}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Rewriter{provider: provider, opts: opts, system: SystemPrompt(opts.Contract, opts.Styles)}, nil
}

// Rewrite returns one variant per configured style, or an error. It never
// returns a partial mapping.
func (r *Rewriter) Rewrite(ctx context.Context, id, question string) (corpus.Variants, error) {
	if strings.TrimSpace(question) == "" {
		return nil, &Failure{ID: id, Err: ErrEmptyQuestion}
	}

	req := llm.Request{
		System:      r.system,
		Prompt:      UserPrompt(question),
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.MaxTokens,
		JSON:        true,
	}

	var variants corpus.Variants
	policy := retry.Policy{
		MaxAttempts:  r.opts.MaxAttempts,
		InitialDelay: r.opts.InitialDelay,
		Retryable:    llm.IsTransient,
		Sleep:        r.opts.Sleep,
		Observer: func(t retry.Transition) {
			if t.To == retry.Backoff {
				log.Warn().Err(t.Err).Str("id", id).Int("attempt", t.Attempt+1).
					Dur("delay", t.Delay).Msg("Transient service error, backing off")
			}
		},
	}

	out := retry.Run(ctx, policy, func(ctx context.Context, _ int) error {
		resp, err := r.provider.Generate(ctx, req)
		if err != nil {
			return err
		}
		obj, err := llm.ParseJSONObject(resp)
		if err != nil {
			return err
		}
		variants, err = validateVariants(obj, r.opts.Styles, resp)
		return err
	})

	if out.State != retry.Succeeded {
		return nil, &Failure{ID: id, Attempts: out.Attempts, Err: out.Err}
	}
	return variants, nil
}

func validateVariants(obj map[string]any, styles []corpus.Style, raw string) (corpus.Variants, error) {
	want := make(map[string]bool, len(styles))
	for _, s := range styles {
		want[string(s)] = true
	}

	var extra []string
	for k := range obj {
		if !want[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, &llm.ValidationError{Reason: "unexpected keys " + strings.Join(extra, ", "), Raw: raw}
	}

	out := make(corpus.Variants, len(styles))
	for _, s := range styles {
		v, ok := obj[string(s)]
		if !ok {
			return nil, &llm.ValidationError{Reason: fmt.Sprintf("missing key %q", s), Raw: raw}
		}
		text, ok := v.(string)
		if !ok || strings.TrimSpace(text) == "" {
			return nil, &llm.ValidationError{Reason: fmt.Sprintf("key %q is not a non-empty string", s), Raw: raw}
		}
		out[s] = text
	}
	return out, nil
}
