package keywords

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed stopwords_en.txt
var englishStopwords string

// Stopwords is a read-only set of lower-case words to ignore.
type Stopwords map[string]struct{}

// NewStopwords builds a set from words, lower-casing and trimming each.
func NewStopwords(words []string) Stopwords {
	set := make(Stopwords, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Contains reports whether w is a stopword.
func (s Stopwords) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

var english = sync.OnceValue(func() Stopwords {
	return NewStopwords(strings.Split(englishStopwords, "\n"))
})

// English returns the NLTK English stopword list. The set is shared; do not modify it.
func English() Stopwords {
	return english()
}
