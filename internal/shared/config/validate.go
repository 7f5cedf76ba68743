package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigurationError reports settings that prevent any analysis from running.
type ConfigurationError struct {
	Issues []string
}

func (e *ConfigurationError) Error() string {
	return "configuration invalid: " + strings.Join(e.Issues, "; ")
}

var validate = validator.New()

// Validate checks the settings analysis depends on. The returned error, if any,
// is a *ConfigurationError.
func (c Config) Validate() error {
	var issues []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ConfigurationError{Issues: []string{err.Error()}}
		}
		for _, fe := range verrs {
			issues = append(issues, describe(fe))
		}
	}
	if c.ObjectStoreType == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
		issues = append(issues, "OBJECT_STORE=s3 requires S3_BUCKET")
	}
	if len(issues) > 0 {
		return &ConfigurationError{Issues: issues}
	}
	return nil
}

// Status mirrors Validate as a display payload: {"valid": bool, "issues": [...]}.
func (c Config) Status() map[string]any {
	issues := []string{}
	if err := c.Validate(); err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			issues = cfgErr.Issues
		} else {
			issues = append(issues, err.Error())
		}
	}
	return map[string]any{
		"valid":  len(issues) == 0,
		"issues": issues,
	}
}

var envNames = map[string]string{
	"LLMProvider":            "LLM_PROVIDER",
	"LLMBaseURL":             "LLM_BASE_URL",
	"LLMModel":               "LLM_MODEL",
	"LLMTemperature":         "LLM_TEMPERATURE",
	"LLMTimeoutSeconds":      "LLM_TIMEOUT_SECONDS",
	"EmbeddingProvider":      "EMBEDDING_PROVIDER",
	"EmbeddingBaseURL":       "EMBEDDING_BASE_URL",
	"MaxFileSizeMB":          "MAX_FILE_SIZE_MB",
	"KeywordsTopN":           "KEYWORDS_TOP_N",
	"MinJobDescriptionChars": "MIN_JOB_DESCRIPTION_CHARS",
	"S3Endpoint":             "S3_ENDPOINT",
}

func describe(fe validator.FieldError) string {
	if fe.Field() == "LLMAPIKey" {
		return "LLM API key not found. Please set OPENROUTER_API_KEY (or LLM_API_KEY) environment variable"
	}
	name, ok := envNames[fe.Field()]
	if !ok {
		name = fe.Field()
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s (got %v)", name, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s (got %v)", name, fe.Tag(), fe.Value())
}
