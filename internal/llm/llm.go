package llm

import (
	"context"
	"errors"
	"strconv"
)

// Completer sends a single prompt to a chat-completion model and returns the raw reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a fixed-length dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// ErrNotConfigured is returned by the placeholder client when no provider is wired.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient fails every call. It lets offline commands (prompt rendering,
// extraction) construct the service without credentials.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

// StatusError is an HTTP-level failure reported by a provider.
type StatusError struct {
	Provider string
	Status   int
	Message  string
}

func (e *StatusError) Error() string {
	return e.Provider + " http status " + strconv.Itoa(e.Status) + ": " + e.Message
}

// Temporary reports statuses worth one more attempt: throttling and server errors.
func (e *StatusError) Temporary() bool {
	return e.Status == 429 || e.Status >= 500
}
