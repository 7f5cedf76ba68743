package keywords

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractRanksByFrequencyThenFirstSeen(t *testing.T) {
	e := NewExtractor(English())
	got := e.Extract("Docker kubernetes golang. Golang, DOCKER! golang; terraform", 20)
	want := []string{"golang", "docker", "kubernetes", "terraform"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractDropsStopwordsAndShortTokens(t *testing.T) {
	e := NewExtractor(English())
	got := e.Extract("Looking for Python developer with 3 years experience, React, AWS, and Docker knowledge", 20)
	want := []string{"looking", "python", "developer", "years", "experience", "react", "aws", "docker", "knowledge"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractProperties(t *testing.T) {
	t.Parallel()

	stop := English()
	e := NewExtractor(stop)
	inputs := []string{
		"",
		"   ",
		"a an the of to in on",
		"C++ and C# developers; Node.js, go-lang, ci/cd pipelines",
		strings.Repeat("alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu ", 5) + "omicron pi rho sigma tau upsilon phi chi psi omega extra words here",
		"Über café naïve résumé — ﬁnance ﬂow",
		"snake_case identifiers stay_together",
	}
	for _, in := range inputs {
		for _, topN := range []int{1, 5, 20} {
			got := e.Extract(in, topN)
			if len(got) > topN {
				t.Fatalf("Extract(%q, %d) returned %d keywords", in, topN, len(got))
			}
			for _, kw := range got {
				if stop.Contains(kw) {
					t.Fatalf("Extract(%q) returned stopword %q", in, kw)
				}
				if utf8.RuneCountInString(kw) < 3 {
					t.Fatalf("Extract(%q) returned short token %q", in, kw)
				}
			}
			again := e.Extract(in, topN)
			if !reflect.DeepEqual(got, again) {
				t.Fatalf("Extract(%q) not deterministic: %v vs %v", in, got, again)
			}
		}
	}
}

func TestExtractNormalizesLigaturesAndUnderscores(t *testing.T) {
	e := NewExtractor(English())
	got := e.Extract("ﬁnance snake_case", 20)
	want := []string{"finance", "snake_case"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractDefaultTopN(t *testing.T) {
	var words []string
	for i := 0; i < 30; i++ {
		words = append(words, "word"+strings.Repeat("x", i))
	}
	e := NewExtractor(English())
	if got := e.Extract(strings.Join(words, " "), 0); len(got) != DefaultTopN {
		t.Fatalf("expected %d keywords, got %d", DefaultTopN, len(got))
	}
}

type failingTokenizer struct{}

func (failingTokenizer) Tokenize(string) ([]string, error) {
	return nil, errors.New("tokenizer data missing")
}

type panickingTokenizer struct{}

func (panickingTokenizer) Tokenize(string) ([]string, error) {
	panic("boom")
}

func TestExtractFallsBackSilently(t *testing.T) {
	tests := []struct {
		name string
		tok  Tokenizer
	}{
		{name: "error", tok: failingTokenizer{}},
		{name: "panic", tok: panickingTokenizer{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var fallbacks int
			e := NewExtractor(English(), WithTokenizer(tt.tok), WithFallbackHook(func(error) { fallbacks++ }))
			got := e.Extract("python python react", 20)
			want := []string{"python", "react"}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("Extract = %v, want %v", got, want)
			}
			if fallbacks != 1 {
				t.Fatalf("expected fallback hook once, got %d", fallbacks)
			}
		})
	}
}

func TestExtractSetFrequencies(t *testing.T) {
	e := NewExtractor(English())
	set := e.ExtractSet("golang golang rust", 20)
	if set.Frequency["golang"] != 2 || set.Frequency["rust"] != 1 {
		t.Fatalf("unexpected frequencies: %v", set.Frequency)
	}
	if len(set.Frequency) != len(set.Keywords) {
		t.Fatalf("frequency map and keyword list disagree: %v vs %v", set.Frequency, set.Keywords)
	}
}

func TestWordTokenizerRejectsInvalidUTF8(t *testing.T) {
	if _, err := (WordTokenizer{}).Tokenize("bad \xff byte"); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestEnglishStopwords(t *testing.T) {
	stop := English()
	for _, w := range []string{"the", "and", "with", "for", "yourselves", "wouldn"} {
		if !stop.Contains(w) {
			t.Fatalf("expected %q to be a stopword", w)
		}
	}
	if stop.Contains("python") {
		t.Fatalf("python must not be a stopword")
	}
}
