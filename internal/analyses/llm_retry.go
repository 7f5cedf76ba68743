package analyses

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"resume-matcher/internal/llm"
	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/telemetry"
)

var (
	llmRetryBaseDelay = 300 * time.Millisecond
	// llmMaxAttempts counts the first call.
	llmMaxAttempts = 2
)

type retryingCompleter struct {
	base      llm.Completer
	requestID string
	stage     string
	attempts  int
}

func newRetryingCompleter(base llm.Completer, requestID, stage string) llm.Completer {
	if base == nil {
		return nil
	}
	return retryingCompleter{base: base, requestID: requestID, stage: stage, attempts: llmMaxAttempts}
}

// Complete calls the model, retrying transient failures with doubling backoff.
func (r retryingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	delay := llmRetryBaseDelay
	for attempt := 1; ; attempt++ {
		metrics.IncLLMCall(r.stage)
		resp, err := r.base.Complete(ctx, prompt)
		if err == nil || attempt >= r.attempts || !shouldRetryLLM(err) {
			return resp, err
		}

		metrics.IncLLMRetry(r.stage)
		telemetry.Warn("llm.retry", map[string]any{
			"request_id": r.requestID,
			"stage":      r.stage,
			"attempt":    attempt,
			"delay_ms":   delay.Milliseconds(),
			"error":      sanitizeError(err),
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
		delay *= 2
	}
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, llm.ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	for _, transient := range []string{"connection reset", "connection refused", "connection closed", "broken pipe", "eof"} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
