package analyses

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrFileTooLarge is wrapped by ExtractionError when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

const (
	ErrorCodeValidation    = "validation_error"
	ErrorCodeExtraction    = "extraction_error"
	ErrorCodeFileTooLarge  = "file_too_large"
	ErrorCodeModelCall     = "model_call_error"
	ErrorCodeLLMTimeout    = "llm_timeout"
	ErrorCodeJobPostFetch  = "job_post_fetch_error"
	ErrorCodeStorage       = "storage_error"
	ErrorCodeNotFound      = "not_found"
	ErrorCodeInternal      = "internal_error"
	ErrorCodeRateLimited   = "rate_limited"
	ErrorCodeNotConfigured = "not_configured"
)

// ValidationError lists input rule violations. No model call is made.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Issues, "; ")
}

// ExtractionError reports an upload whose text could not be used.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "text extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ModelCallError wraps a failed match-analysis call.
type ModelCallError struct {
	Err error
}

func (e *ModelCallError) Error() string {
	return "analysis failed: " + sanitizeError(e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// SuggestionError wraps a failed improvement call. It is a warning: the
// suggestions returned alongside it are empty but well-formed.
type SuggestionError struct {
	Err error
}

func (e *SuggestionError) Error() string {
	return "improvement suggestions unavailable: " + sanitizeError(e.Err)
}

func (e *SuggestionError) Unwrap() error { return e.Err }

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxRunes = 500
	if utf8.RuneCountInString(msg) > maxRunes {
		msg = string([]rune(msg)[:maxRunes])
	}
	return msg
}
