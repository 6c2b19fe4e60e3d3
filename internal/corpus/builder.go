package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/KeigoBench/internal/dataset"
)

// Rewriter produces the register variants of one question.
type Rewriter interface {
	Rewrite(ctx context.Context, id, question string) (Variants, error)
}

// Result summarizes a build.
type Result struct {
	Processed   int
	Succeeded   int
	Failed      int
	Resumed     int
	Checkpoints int
	Entries     []Entry
}

// Builder turns dataset records into corpus entries, checkpointing after
// every Interval successfully rewritten records and once at the end. Failed
// records do not advance the cadence.
type Builder struct {
	Output   string
	Interval int
	Resume   bool
	rewriter Rewriter
}

// NewBuilder creates a builder writing to output.
func NewBuilder(rewriter Rewriter, output string, interval int) *Builder {
	return &Builder{Output: output, Interval: interval, rewriter: rewriter}
}

// Build rewrites every record in order. Records that fail permanently are
// left out of the corpus. A checkpoint failure stops the build and is
// returned wrapped in ErrCheckpoint; the last good checkpoint stays on disk.
func (b *Builder) Build(ctx context.Context, records []dataset.Record) (*Result, error) {
	if b.Interval <= 0 {
		return nil, fmt.Errorf("checkpoint interval must be positive, got %d", b.Interval)
	}

	res := &Result{}
	done := map[dataset.ID]bool{}
	if b.Resume {
		prev, err := Load(b.Output)
		switch {
		case err == nil:
			res.Entries = prev
			for _, e := range prev {
				done[e.ID] = true
			}
			log.Info().Int("entries", len(prev)).Str("file", b.Output).Msg("Resuming from checkpoint")
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("loading checkpoint: %w", err)
		}
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			if cerr := b.checkpoint(res); cerr != nil {
				return res, cerr
			}
			return res, err
		}

		if done[rec.ID] {
			res.Resumed++
			continue
		}

		res.Processed++
		variants, err := b.rewriter.Rewrite(ctx, string(rec.ID), rec.Question)
		if err != nil {
			res.Failed++
			log.Error().Err(err).Str("id", string(rec.ID)).Msg("Rewrite failed, omitting from corpus")
		} else {
			res.Succeeded++
			res.Entries = append(res.Entries, Entry{
				ID:           rec.ID,
				OriginalText: rec.Question,
				Variants:     variants,
				Choices:      rec.Choices,
				Label:        rec.Label,
			})
			if res.Succeeded%b.Interval == 0 {
				if err := b.checkpoint(res); err != nil {
					return res, err
				}
			}
		}
	}

	if err := b.checkpoint(res); err != nil {
		return res, err
	}
	log.Info().Int("processed", res.Processed).Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).Int("resumed", res.Resumed).Str("file", b.Output).
		Msg("Corpus build complete")
	return res, nil
}

func (b *Builder) checkpoint(res *Result) error {
	if err := Save(b.Output, res.Entries); err != nil {
		log.Error().Err(err).Str("file", b.Output).Msg("Checkpoint failed")
		return err
	}
	res.Checkpoints++
	log.Debug().Int("entries", len(res.Entries)).Msg("Checkpoint written")
	return nil
}
