package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/telemetry"
)

// DefaultBaseURL is the OpenAI API root. OpenRouter and other compatible
// gateways are reached by overriding Options.BaseURL.
const DefaultBaseURL = "https://api.openai.com/v1"

const defaultTimeout = 120 * time.Second

// Options configures a chat-completions or embeddings client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// JSONMode requests response_format json_object.
	JSONMode bool
	Timeout  time.Duration
	// Referer and Title populate the OpenRouter attribution headers when set.
	Referer string
	Title   string
	// HTTPClient overrides the default client; tests pass the httptest one.
	HTTPClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *usage    `json:"usage,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

// transport holds what chat and embedding clients share.
type transport struct {
	apiKey     string
	baseURL    string
	referer    string
	title      string
	httpClient *http.Client
}

func newTransport(opts Options) (transport, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return transport{}, fmt.Errorf("LLM_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return transport{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		referer:    opts.Referer,
		title:      opts.Title,
		httpClient: httpClient,
	}, nil
}

// post sends a JSON body to baseURL+path and returns the status code and raw body.
func (t transport) post(ctx context.Context, path string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return 0, nil, fmt.Errorf("openai request timeout: %w", err)
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}

func logUsage(endpoint, model string, u *usage) {
	fields := map[string]any{"endpoint": endpoint, "model": model}
	if u != nil {
		fields["prompt_tokens"] = u.PromptTokens
		fields["completion_tokens"] = u.CompletionTokens
		fields["total_tokens"] = u.TotalTokens
	}
	telemetry.Info("llm.usage", fields)
}

func statusError(status int, msg string) error {
	return &llm.StatusError{Provider: "openai", Status: status, Message: msg}
}

// isGPT5 reports models that reject a non-default temperature.
func isGPT5(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	m = strings.TrimPrefix(m, "openai/")
	return strings.HasPrefix(m, "gpt-5")
}

func isUnsupportedTemperature(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "temperature") &&
		(strings.Contains(msg, "unsupported") || strings.Contains(msg, "does not support"))
}
