// Package keywords ranks the salient terms of a free-text document.
package keywords

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultTopN is used when callers pass a non-positive limit.
	DefaultTopN   = 20
	minTokenRunes = 3
)

// ErrInvalidUTF8 is returned by WordTokenizer for input it cannot segment.
var ErrInvalidUTF8 = errors.New("keywords: invalid utf-8 input")

// KeywordSet is the ranked output of one extraction.
type KeywordSet struct {
	Keywords  []string       `json:"keywords"`
	Frequency map[string]int `json:"frequency"`
}

// Tokenizer splits normalized text into tokens.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// WordTokenizer splits on word boundaries: maximal runs of letters, numbers and underscores.
type WordTokenizer struct{}

// Tokenize implements Tokenizer.
func (WordTokenizer) Tokenize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	var tokens []string
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens, nil
}

// FieldsTokenizer is the whitespace-split fallback. It never fails.
type FieldsTokenizer struct{}

// Tokenize implements Tokenizer.
func (FieldsTokenizer) Tokenize(text string) ([]string, error) {
	return strings.Fields(text), nil
}

// Extractor ranks keywords by frequency. It is immutable after construction and
// safe for concurrent use.
type Extractor struct {
	stopwords  Stopwords
	primary    Tokenizer
	fallback   Tokenizer
	onFallback func(error)
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithTokenizer replaces the primary tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(e *Extractor) {
		if t != nil {
			e.primary = t
		}
	}
}

// WithFallbackHook is called whenever the primary tokenizer fails and the
// whitespace fallback is used instead.
func WithFallbackHook(fn func(error)) Option {
	return func(e *Extractor) {
		e.onFallback = fn
	}
}

// NewExtractor builds an Extractor over the given stopword set.
func NewExtractor(stopwords Stopwords, opts ...Option) *Extractor {
	if stopwords == nil {
		stopwords = Stopwords{}
	}
	e := &Extractor{
		stopwords: stopwords,
		primary:   WordTokenizer{},
		fallback:  FieldsTokenizer{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns at most topN keywords ordered by descending frequency,
// ties broken by first occurrence.
func (e *Extractor) Extract(text string, topN int) []string {
	return e.ExtractSet(text, topN).Keywords
}

// ExtractSet is Extract plus the frequency of every returned keyword.
// It never panics; on internal failure it returns an empty set.
func (e *Extractor) ExtractSet(text string, topN int) (set KeywordSet) {
	defer func() {
		if rec := recover(); rec != nil {
			set = emptySet()
		}
	}()
	if topN <= 0 {
		topN = DefaultTopN
	}

	tokens := e.tokenize(Normalize(text))

	counts := make(map[string]int)
	var order []string
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < minTokenRunes || e.stopwords.Contains(tok) {
			continue
		}
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// stable sort keeps first-seen order among equal counts
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}

	set = KeywordSet{
		Keywords:  make([]string, 0, len(order)),
		Frequency: make(map[string]int, len(order)),
	}
	for _, kw := range order {
		set.Keywords = append(set.Keywords, kw)
		set.Frequency[kw] = counts[kw]
	}
	return set
}

func (e *Extractor) tokenize(text string) []string {
	tokens, err := safeTokenize(e.primary, text)
	if err == nil {
		return tokens
	}
	if e.onFallback != nil {
		e.onFallback(err)
	}
	tokens, err = safeTokenize(e.fallback, text)
	if err != nil {
		return nil
	}
	return tokens
}

func safeTokenize(t Tokenizer, text string) (tokens []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("keywords: tokenizer panic: %v", rec)
		}
	}()
	return t.Tokenize(text)
}

// Normalize applies NFKC, lower-cases, and replaces every rune that is not a
// letter, number, underscore or whitespace with a space.
func Normalize(text string) string {
	lowered := strings.ToLower(norm.NFKC.String(text))
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lowered)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func emptySet() KeywordSet {
	return KeywordSet{Keywords: []string{}, Frequency: map[string]int{}}
}
