package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"

	// EmbeddingLocal is the offline hashing embedder. It measures shared words
	// and character trigrams, not meaning; it is deterministic and needs no
	// credentials. Set EMBEDDING_PROVIDER=openai or gemini to score semantic
	// similarity with a trained sentence-embedding model.
	EmbeddingLocal  = "local"
	EmbeddingOpenAI = "openai"
	EmbeddingGemini = "gemini"
	EmbeddingNone   = "none"

	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultLLMModel          = "openai/gpt-3.5-turbo"
	DefaultGeminiModel       = "gemini-1.5-flash"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	LogLevel        string

	LLMProvider       string  `validate:"oneof=openrouter openai gemini"`
	LLMAPIKey         string  `validate:"required"`
	LLMBaseURL        string  `validate:"omitempty,url"`
	LLMModel          string  `validate:"required"`
	LLMTemperature    float64 `validate:"gte=0,lte=2"`
	LLMTimeoutSeconds int     `validate:"gt=0"`
	LLMJSONMode       bool
	LLMRetry          bool

	EmbeddingProvider string `validate:"oneof=local openai gemini none"`
	EmbeddingModel    string
	EmbeddingBaseURL  string `validate:"omitempty,url"`
	EmbeddingAPIKey   string

	MaxFileSizeMB          int `validate:"gt=0"`
	KeywordsTopN           int `validate:"gt=0"`
	MinJobDescriptionChars int `validate:"gte=0"`

	DatabaseURL     string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	S3Endpoint      string `validate:"omitempty,url"`
	S3AccessKeyID   string
	S3SecretKey     string
	SSEKMSKeyID     string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is empty in production; analyses will not be archived across restarts")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", ProviderOpenRouter))
	apiKey := resolveAPIKey(provider)

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		LLMProvider:       provider,
		LLMAPIKey:         apiKey,
		LLMBaseURL:        getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
		LLMModel:          getEnv("LLM_MODEL", defaultModel(provider)),
		LLMTemperature:    getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 120),
		LLMJSONMode:       getEnvBool("LLM_JSON_MODE", false),
		LLMRetry:          getEnvBool("LLM_RETRY", true),

		EmbeddingProvider: normalizeEmbeddingProvider(getEnv("EMBEDDING_PROVIDER", EmbeddingLocal)),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", apiKey),

		MaxFileSizeMB:          getEnvInt("MAX_FILE_SIZE_MB", 10),
		KeywordsTopN:           getEnvInt("KEYWORDS_TOP_N", 20),
		MinJobDescriptionChars: getEnvInt("MIN_JOB_DESCRIPTION_CHARS", 50),

		DatabaseURL:     dbURL,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:   getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("S3_SECRET_ACCESS_KEY", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 5),
	}
	if cfg.EmbeddingBaseURL == "" && cfg.EmbeddingProvider == EmbeddingOpenAI {
		cfg.EmbeddingBaseURL = cfg.LLMBaseURL
	}
	return cfg
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	mb := c.MaxFileSizeMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) << 20
}

// IsDevLike reports whether the environment tolerates missing infrastructure.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func resolveAPIKey(provider string) string {
	if key := strings.TrimSpace(os.Getenv("LLM_API_KEY")); key != "" {
		return key
	}
	switch provider {
	case ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case ProviderGemini:
		return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	default:
		return strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
}

func defaultBaseURL(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return DefaultOpenAIBaseURL
	case ProviderGemini:
		return ""
	default:
		return DefaultOpenRouterBaseURL
	}
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return DefaultGeminiModel
	case ProviderOpenAI:
		return "gpt-3.5-turbo"
	default:
		return DefaultLLMModel
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using %g", key, raw, def)
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ProviderOpenAI:
		return ProviderOpenAI
	case ProviderGemini, "google":
		return ProviderGemini
	default:
		return ProviderOpenRouter
	}
}

func normalizeEmbeddingProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case EmbeddingOpenAI, ProviderOpenRouter:
		return EmbeddingOpenAI
	case EmbeddingGemini:
		return EmbeddingGemini
	case EmbeddingNone, "off", "disabled":
		return EmbeddingNone
	default:
		return EmbeddingLocal
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "none", "off":
		return "none"
	default:
		return "local"
	}
}
