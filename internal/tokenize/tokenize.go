// Package tokenize adapts a Japanese morphological analyzer to the
// lemma and part-of-speech view used by the divergence analysis.
package tokenize

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome-dict/uni"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Supported dictionary names.
const (
	DictUni = "uni"
	DictIPA = "ipa"
)

// uniLemma is the UniDic feature column holding the lemma.
const uniLemma = 7

// Token is one morpheme. Lemma falls back to Surface when the dictionary has
// no base form.
type Token struct {
	Surface string
	Lemma   string
	POS     string
}

// Tokenizer splits text into tokens, dropping boundary markers.
type Tokenizer interface {
	Tokenize(text string) []Token
}

// Kagome is a Tokenizer backed by kagome and a bundled dictionary.
type Kagome struct {
	t     *tokenizer.Tokenizer
	lemma func(tokenizer.Token) (string, bool)
}

// NewKagome loads the named dictionary: "uni" (UniDic, the default) or "ipa".
func NewKagome(dictionary string) (*Kagome, error) {
	var (
		d     *dict.Dict
		lemma func(tokenizer.Token) (string, bool)
	)
	switch strings.ToLower(dictionary) {
	case "", DictUni:
		d = uni.Dict()
		lemma = func(tok tokenizer.Token) (string, bool) { return tok.FeatureAt(uniLemma) }
	case DictIPA:
		d = ipa.Dict()
		lemma = tokenizer.Token.BaseForm
	default:
		return nil, fmt.Errorf("unsupported tokenizer dictionary %q", dictionary)
	}
	t, err := tokenizer.New(d, tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}
	return &Kagome{t: t, lemma: lemma}, nil
}

func (k *Kagome) Tokenize(text string) []Token {
	raw := k.t.Tokenize(text)
	out := make([]Token, 0, len(raw))
	for _, tok := range raw {
		if tok.Class == tokenizer.DUMMY || tok.Surface == "" {
			continue
		}
		lemma := tok.Surface
		if base, ok := k.lemma(tok); ok && base != "" && base != "*" {
			lemma = base
		}
		pos := ""
		if p := tok.POS(); len(p) > 0 {
			pos = p[0]
		}
		out = append(out, Token{Surface: tok.Surface, Lemma: lemma, POS: pos})
	}
	return out
}

// LemmaSet returns the distinct lemmas of tokens.
func LemmaSet(tokens []Token) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t.Lemma] = struct{}{}
	}
	return set
}
