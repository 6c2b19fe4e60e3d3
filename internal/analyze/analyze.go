// Package analyze measures how far register variants drift from their
// original question, lexically (lemma Jaccard) and grammatically (POS
// distribution).
package analyze

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/KeigoBench/internal/corpus"
	"github.com/TobiSchelling/KeigoBench/internal/tokenize"
)

// TagCount is one row of a POS frequency table.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagShare is a POS tag with its fraction of all tag occurrences.
type TagShare struct {
	Tag      string  `json:"tag"`
	Fraction float64 `json:"fraction"`
}

// StyleStatistics aggregates one style over a corpus. MeanJaccard is nil for
// the original baseline.
type StyleStatistics struct {
	Style           corpus.Style `json:"style"`
	Count           int          `json:"count"`
	MeanLength      float64      `json:"mean_length"`
	MeanJaccard     *float64     `json:"mean_jaccard"`
	POSCounts       []TagCount   `json:"pos_counts"`
	TotalTags       int          `json:"total_tags"`
	FunctionalTags  int          `json:"functional_tags"`
	ContentTags     int          `json:"content_tags"`
	UnknownTags     int          `json:"unknown_tags"`
	FunctionalRatio float64      `json:"functional_content_ratio"`
	TopPOS          []TagShare   `json:"top_pos"`
}

// Report is the result of one analysis run.
type Report struct {
	Entries int               `json:"entries"`
	Skipped int               `json:"skipped_entries"`
	Styles  []StyleStatistics `json:"styles"`
}

// Style returns the statistics for s, if present.
func (r *Report) Style(s corpus.Style) (StyleStatistics, bool) {
	for _, st := range r.Styles {
		if st.Style == s {
			return st, true
		}
	}
	return StyleStatistics{}, false
}

// Analyzer computes StyleStatistics for a fixed list of styles.
type Analyzer struct {
	tokenizer tokenize.Tokenizer
	styles    []corpus.Style
	topN      int
	// IncludeOriginal adds the unmodified question as a baseline style.
	IncludeOriginal bool
}

// New creates an analyzer reporting the topN most frequent tags per style.
func New(tok tokenize.Tokenizer, styles []corpus.Style, topN int) *Analyzer {
	if topN <= 0 {
		topN = 5
	}
	return &Analyzer{tokenizer: tok, styles: styles, topN: topN, IncludeOriginal: true}
}

// Analyze tokenizes every original and variant text once. Entries whose
// original yields no tokens are skipped; empty variants are left out of
// their style only.
func (a *Analyzer) Analyze(entries []corpus.Entry) *Report {
	accs := make(map[corpus.Style]*accumulator, len(a.styles)+1)
	order := make([]corpus.Style, 0, len(a.styles)+1)
	if a.IncludeOriginal {
		order = append(order, corpus.Original)
	}
	order = append(order, a.styles...)
	for _, s := range order {
		accs[s] = newAccumulator()
	}

	rep := &Report{}
	for _, e := range entries {
		if strings.TrimSpace(e.OriginalText) == "" {
			rep.Skipped++
			continue
		}
		origTokens := a.tokenizer.Tokenize(e.OriginalText)
		if len(origTokens) == 0 {
			rep.Skipped++
			continue
		}
		rep.Entries++
		origSet := tokenize.LemmaSet(origTokens)

		if a.IncludeOriginal {
			accs[corpus.Original].add(origTokens, 1.0)
		}
		for _, s := range a.styles {
			text := e.Variants[s]
			if strings.TrimSpace(text) == "" {
				continue
			}
			tokens := a.tokenizer.Tokenize(text)
			accs[s].add(tokens, Jaccard(origSet, tokenize.LemmaSet(tokens)))
		}
	}

	for _, s := range order {
		st := accs[s].statistics(s, a.topN, s != corpus.Original)
		if st.UnknownTags > 0 {
			log.Warn().Str("style", string(s)).Int("count", st.UnknownTags).Msg("Unclassified POS tags")
		}
		rep.Styles = append(rep.Styles, st)
	}
	return rep
}

// Jaccard is |a∩b| / |a∪b|. It is 0 when variant is empty.
func Jaccard(original, variant map[string]struct{}) float64 {
	if len(variant) == 0 {
		return 0
	}
	inter := 0
	for l := range variant {
		if _, ok := original[l]; ok {
			inter++
		}
	}
	union := len(original) + len(variant) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

type accumulator struct {
	count      int
	tokens     int
	jaccardSum float64
	index      map[string]int
	pos        []TagCount
}

func newAccumulator() *accumulator {
	return &accumulator{index: map[string]int{}}
}

func (acc *accumulator) add(tokens []tokenize.Token, jaccard float64) {
	acc.count++
	acc.tokens += len(tokens)
	acc.jaccardSum += jaccard
	for _, t := range tokens {
		i, ok := acc.index[t.POS]
		if !ok {
			i = len(acc.pos)
			acc.index[t.POS] = i
			acc.pos = append(acc.pos, TagCount{Tag: t.POS})
		}
		acc.pos[i].Count++
	}
}

func (acc *accumulator) statistics(style corpus.Style, topN int, withJaccard bool) StyleStatistics {
	st := StyleStatistics{
		Style:     style,
		Count:     acc.count,
		POSCounts: append([]TagCount{}, acc.pos...),
		TopPOS:    []TagShare{},
	}
	if acc.count > 0 {
		st.MeanLength = float64(acc.tokens) / float64(acc.count)
		if withJaccard {
			mean := acc.jaccardSum / float64(acc.count)
			st.MeanJaccard = &mean
		}
	}

	for _, tc := range acc.pos {
		st.TotalTags += tc.Count
		switch tokenize.Classify(tc.Tag) {
		case tokenize.Functional:
			st.FunctionalTags += tc.Count
		case tokenize.Content:
			st.ContentTags += tc.Count
		case tokenize.Unknown:
			st.UnknownTags += tc.Count
		}
	}
	if st.ContentTags > 0 {
		st.FunctionalRatio = float64(st.FunctionalTags) / float64(st.ContentTags)
	}

	ranked := append([]TagCount{}, acc.pos...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	for _, tc := range ranked {
		st.TopPOS = append(st.TopPOS, TagShare{Tag: tc.Tag, Fraction: float64(tc.Count) / float64(st.TotalTags)})
	}
	return st
}
