package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resume-matcher/internal/llm"
)

// DefaultEmbeddingModel is used when no embedding model is configured.
const DefaultEmbeddingModel = "text-embedding-3-small"

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string    `json:"model"`
	Error *apiError `json:"error,omitempty"`
}

// EmbeddingClient calls an OpenAI-compatible /embeddings endpoint.
type EmbeddingClient struct {
	transport
	model string
}

// NewEmbeddingClient constructs an embeddings client.
func NewEmbeddingClient(opts Options) (*EmbeddingClient, error) {
	t, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &EmbeddingClient{transport: t, model: model}, nil
}

// Embed implements llm.Embedder.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	status, body, err := c.post(ctx, "/embeddings", embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, err
	}
	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if status >= 400 {
			return nil, statusError(status, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("openai embedding parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, statusError(status, parsed.Error.Message+" ("+parsed.Error.Type+")")
	}
	if status >= 400 {
		return nil, statusError(status, strings.TrimSpace(string(body)))
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embedding response empty")
	}
	return parsed.Data[0].Embedding, nil
}

var _ llm.Embedder = (*EmbeddingClient)(nil)
