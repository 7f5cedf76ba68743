// Package similarity scores how semantically close two texts are.
package similarity

import (
	"context"
	"math"

	"resume-matcher/internal/llm"
)

// Scorer computes cosine similarity between embeddings. A Scorer with a nil
// Embedder always returns 0, which is how a model that failed to load is represented.
type Scorer struct {
	Embedder llm.Embedder
	// OnError observes embedding failures; the score is still 0.
	OnError func(error)
}

// NewScorer constructs a Scorer.
func NewScorer(embedder llm.Embedder) *Scorer {
	return &Scorer{Embedder: embedder}
}

// Enabled reports whether an embedder is configured.
func (s *Scorer) Enabled() bool {
	return s != nil && s.Embedder != nil
}

// Similarity returns the cosine similarity of a and b clamped to [0,1].
// It never fails: any error yields 0.
func (s *Scorer) Similarity(ctx context.Context, a, b string) (score float64) {
	if !s.Enabled() {
		return 0
	}
	defer func() {
		if rec := recover(); rec != nil {
			score = 0
		}
	}()
	va, err := s.Embedder.Embed(ctx, a)
	if err != nil {
		s.report(err)
		return 0
	}
	vb, err := s.Embedder.Embed(ctx, b)
	if err != nil {
		s.report(err)
		return 0
	}
	return clamp01(Cosine(va, vb))
}

func (s *Scorer) report(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}

// Cosine returns dot(a,b)/(|a||b|), or 0 when the lengths differ or either norm is zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
