package similarity

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"resume-matcher/internal/keywords"
)

// DefaultDimensions matches the width of all-MiniLM-L6-v2 sentence embeddings.
const DefaultDimensions = 384

// HashEmbedder is a local, deterministic embedder using the hashing trick over
// word unigrams and character trigrams. It needs no network or model files.
// Scores reflect lexical overlap only; use a remote embedding model for
// paraphrase-aware similarity.
type HashEmbedder struct {
	Dimensions int
}

// NewHashEmbedder returns a HashEmbedder with the default width.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{Dimensions: DefaultDimensions}
}

// Embed implements llm.Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims := h.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	vec := make([]float64, dims)

	words := strings.Fields(keywords.Normalize(text))
	for _, w := range words {
		add(vec, "w:"+w, 1)
		padded := "<" + w + ">"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			add(vec, "c:"+string(runes[i:i+3]), 0.5)
		}
	}
	if len(words) == 0 {
		// punctuation-only text still gets a signature
		runes := []rune(strings.TrimSpace(text))
		for i := 0; i+3 <= len(runes); i++ {
			add(vec, "r:"+string(runes[i:i+3]), 1)
		}
		if len(runes) > 0 && len(runes) < 3 {
			add(vec, "r:"+string(runes), 1)
		}
	}

	out := make([]float32, dims)
	for i, v := range vec {
		// signed log1p weighting
		if v > 0 {
			out[i] = float32(math.Log1p(v))
		} else if v < 0 {
			out[i] = float32(-math.Log1p(-v))
		}
	}
	return out, nil
}

func add(vec []float64, feature string, weight float64) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}
