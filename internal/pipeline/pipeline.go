package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/KeigoBench/internal/analyze"
	"github.com/TobiSchelling/KeigoBench/internal/config"
	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/dataset"
	"github.com/TobiSchelling/KeigoBench/internal/evaluate"
	"github.com/TobiSchelling/KeigoBench/internal/llm"
	"github.com/TobiSchelling/KeigoBench/internal/retry"
	"github.com/TobiSchelling/KeigoBench/internal/rewrite"
	"github.com/TobiSchelling/KeigoBench/internal/tokenize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID    string
	Steps    []StepResult
	Analysis *analyze.Report
	Accuracy []*evaluate.Report
}

// Failed reports whether any step ended with an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline runs rewrite, analyze and evaluate over one configuration.
type Pipeline struct {
	cfg       *config.Config
	generator llm.Provider
	answerer  llm.Provider
	tokenizer tokenize.Tokenizer

	// Resume continues a previous corpus build from its checkpoint.
	Resume bool
	// Sleep overrides the retry backoff timer.
	Sleep retry.SleepFunc
}

// New creates a pipeline with providers built from cfg. A provider may be
// nil when not configured; steps needing it then fail.
func New(cfg *config.Config) *Pipeline {
	gen := cfg.Generation
	ans := cfg.Answering
	return &Pipeline{
		cfg:       cfg,
		generator: llm.CreateProvider(gen.Provider, gen.Model, gen.OllamaURL, gen.BaseURL, gen.APIKeyEnv),
		answerer:  llm.CreateProvider(ans.Provider, ans.Model, ans.OllamaURL, ans.BaseURL, ans.APIKeyEnv),
	}
}

// NewWithProviders creates a pipeline with explicit collaborators. tok may be
// nil, in which case the configured kagome dictionary is loaded on demand.
func NewWithProviders(cfg *config.Config, generator, answerer llm.Provider, tok tokenize.Tokenizer) *Pipeline {
	return &Pipeline{cfg: cfg, generator: generator, answerer: answerer, tokenizer: tok}
}

// Run executes rewrite -> analyze -> evaluate. A failed rewrite stops the
// run; analyze and evaluate read the same corpus independently.
func (p *Pipeline) Run(ctx context.Context, runID string) *Result {
	r := &Result{RunID: runID}

	step := p.RunRewrite(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	step, r.Analysis = p.RunAnalyze()
	r.Steps = append(r.Steps, step)

	step, r.Accuracy = p.RunEvaluate(ctx)
	r.Steps = append(r.Steps, step)
	return r
}

// DryRun reports what Run would work on without calling any service.
func (p *Pipeline) DryRun(runID string) *Result {
	r := &Result{RunID: runID}

	recs, err := p.loadRecords()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Rewrite", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Rewrite",
		Summary: fmt.Sprintf("[dry-run] %d records from %s, %d styles, checkpoint every %d",
			len(recs), p.cfg.Dataset.Path, len(p.cfg.Rewrite.Styles), p.cfg.Rewrite.CheckpointInterval),
	})

	entries, err := corpus.Load(p.cfg.Rewrite.Output)
	switch {
	case err == nil:
		r.Steps = append(r.Steps, StepResult{
			Name:    "Analyze",
			Summary: fmt.Sprintf("[dry-run] %d corpus entries already in %s", len(entries), p.cfg.Rewrite.Output),
		})
	case errors.Is(err, os.ErrNotExist):
		r.Steps = append(r.Steps, StepResult{Name: "Analyze", Summary: "[dry-run] Corpus not built yet"})
	default:
		r.Steps = append(r.Steps, StepResult{Name: "Analyze", Err: err})
	}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Evaluate",
		Summary: fmt.Sprintf("[dry-run] Would evaluate %d styles into %s", len(p.cfg.Evaluate.Styles), p.cfg.Evaluate.OutputDir),
	})
	return r
}

func (p *Pipeline) loadRecords() ([]dataset.Record, error) {
	ds := p.cfg.Dataset
	format, err := dataset.ParseFormat(ds.Format)
	if err != nil {
		return nil, err
	}
	var res *dataset.LoadResult
	if ds.SQLiteTable != "" {
		res, err = dataset.LoadSQLite(ds.Path, ds.SQLiteTable, format)
	} else {
		res, err = dataset.LoadFile(ds.Path, format)
	}
	if err != nil {
		return nil, err
	}
	if len(res.Skipped) > 0 {
		log.Warn().Int("skipped", len(res.Skipped)).Msg("Dataset records rejected at ingestion")
	}
	return dataset.Limit(res.Records, ds.NumSamples), nil
}

// RunRewrite builds the corpus from the dataset.
func (p *Pipeline) RunRewrite(ctx context.Context) StepResult {
	log.Info().Msg("Step 1/3: Rewriting questions...")
	if p.generator == nil {
		return StepResult{Name: "Rewrite", Err: errors.New("no generation provider available")}
	}

	recs, err := p.loadRecords()
	if err != nil {
		return StepResult{Name: "Rewrite", Err: err}
	}

	rc := p.cfg.Rewrite
	rw, err := rewrite.New(p.generator, rewrite.Options{
		Styles:       corpus.Styles(rc.Styles),
		Contract:     rewrite.ContractFor(p.cfg.Dataset.Format),
		MaxAttempts:  rc.MaxRetries,
		InitialDelay: rc.InitialDelay,
		Temperature:  p.cfg.Generation.Temperature,
		MaxTokens:    p.cfg.Generation.MaxTokens,
		Sleep:        p.Sleep,
	})
	if err != nil {
		return StepResult{Name: "Rewrite", Err: err}
	}

	b := corpus.NewBuilder(rw, rc.Output, rc.CheckpointInterval)
	b.Resume = p.Resume
	res, err := b.Build(ctx, recs)
	if err != nil {
		return StepResult{Name: "Rewrite", Err: err}
	}
	return StepResult{
		Name: "Rewrite",
		Summary: fmt.Sprintf("Rewrote %d of %d questions (%d failed, %d resumed), %d entries in %s",
			res.Succeeded, res.Processed, res.Failed, res.Resumed, len(res.Entries), rc.Output),
	}
}

// RunAnalyze computes divergence statistics for the saved corpus.
func (p *Pipeline) RunAnalyze() (StepResult, *analyze.Report) {
	log.Info().Msg("Step 2/3: Analyzing divergence...")
	entries, err := corpus.Load(p.cfg.Rewrite.Output)
	if err != nil {
		return StepResult{Name: "Analyze", Err: fmt.Errorf("loading corpus: %w", err)}, nil
	}

	if p.tokenizer == nil {
		tok, err := tokenize.NewKagome(p.cfg.Analyze.Dictionary)
		if err != nil {
			return StepResult{Name: "Analyze", Err: err}, nil
		}
		p.tokenizer = tok
	}

	rep := analyze.New(p.tokenizer, corpus.Styles(p.cfg.Rewrite.Styles), p.cfg.Analyze.TopPOS).Analyze(entries)
	if out := p.cfg.Analyze.Output; out != "" {
		if err := rep.WriteJSON(out); err != nil {
			return StepResult{Name: "Analyze", Err: fmt.Errorf("writing analysis: %w", err)}, rep
		}
	}
	return StepResult{
		Name:    "Analyze",
		Summary: fmt.Sprintf("Analyzed %d entries (%d skipped) across %d styles", rep.Entries, rep.Skipped, len(rep.Styles)),
	}, rep
}

// RunEvaluate queries the answering service for every configured style and
// persists one report per style.
func (p *Pipeline) RunEvaluate(ctx context.Context) (StepResult, []*evaluate.Report) {
	log.Info().Msg("Step 3/3: Evaluating accuracy...")
	if p.answerer == nil {
		return StepResult{Name: "Evaluate", Err: errors.New("no answering provider available")}, nil
	}
	entries, err := corpus.Load(p.cfg.Rewrite.Output)
	if err != nil {
		return StepResult{Name: "Evaluate", Err: fmt.Errorf("loading corpus: %w", err)}, nil
	}

	ev := evaluate.New(p.answerer, p.cfg.Answering.MaxTokens)
	var reports []*evaluate.Report
	for _, s := range corpus.Styles(p.cfg.Evaluate.Styles) {
		rep, err := ev.EvaluateStyle(ctx, entries, s)
		if err != nil {
			return StepResult{Name: "Evaluate", Err: err}, reports
		}
		path, err := evaluate.WriteReport(p.cfg.Evaluate.OutputDir, rep)
		if err != nil {
			return StepResult{Name: "Evaluate", Err: err}, reports
		}
		log.Info().Str("file", path).Msg(rep.Line())
		reports = append(reports, rep)
	}
	return StepResult{
		Name:    "Evaluate",
		Summary: fmt.Sprintf("Evaluated %d styles over %d entries", len(reports), len(entries)),
	}, reports
}
