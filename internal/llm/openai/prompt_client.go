package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resume-matcher/internal/llm"
)

// PromptClient sends single-message prompts to an OpenAI-compatible
// /chat/completions endpoint (OpenAI, OpenRouter).
type PromptClient struct {
	transport
	model       string
	temperature float64
	jsonMode    bool
}

// NewPromptClient constructs a chat completion client.
func NewPromptClient(opts Options) (*PromptClient, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required")
	}
	t, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	return &PromptClient{
		transport:   t,
		model:       opts.Model,
		temperature: opts.Temperature,
		jsonMode:    opts.JSONMode,
	}, nil
}

// Model returns the configured model name.
func (c *PromptClient) Model() string { return c.model }

// Complete returns the raw model response for the prompt. A model that rejects
// the temperature parameter is retried once without it.
func (c *PromptClient) Complete(ctx context.Context, prompt string) (string, error) {
	withTemp := !isGPT5(c.model)
	content, err := c.complete(ctx, prompt, withTemp)
	if err != nil && withTemp && isUnsupportedTemperature(err.Error()) {
		return c.complete(ctx, prompt, false)
	}
	return content, err
}

func (c *PromptClient) complete(ctx context.Context, prompt string, withTemp bool) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if withTemp {
		temp := c.temperature
		reqBody.Temperature = &temp
	}
	if c.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	status, body, err := c.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if status >= 400 {
			return "", statusError(status, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", statusError(status, parsed.Error.Message+" ("+parsed.Error.Type+")")
	}
	if status >= 400 {
		return "", statusError(status, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	logUsage("chat", c.model, parsed.Usage)

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	return content, nil
}

var _ llm.Completer = (*PromptClient)(nil)
