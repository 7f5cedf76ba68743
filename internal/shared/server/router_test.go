package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/analyses"
	"resume-matcher/internal/keywords"
	"resume-matcher/internal/llm"
	"resume-matcher/internal/services/health"
	"resume-matcher/internal/shared/config"
	"resume-matcher/internal/shared/server/middleware"
	"resume-matcher/internal/similarity"
)

const (
	routerResume = "Backend engineer with Go, PostgreSQL and Docker experience building payment APIs."
	routerJD     = "Looking for a Go engineer with PostgreSQL, Kubernetes and payment API experience."
)

func testConfig() config.Config {
	return config.Config{
		Env:                    "test",
		CORSAllowOrigin:        []string{"http://localhost:5173"},
		LLMProvider:            config.ProviderOpenRouter,
		LLMAPIKey:              "sk-test",
		LLMModel:               config.DefaultLLMModel,
		LLMTemperature:         0.3,
		LLMTimeoutSeconds:      120,
		EmbeddingProvider:      config.EmbeddingLocal,
		MaxFileSizeMB:          10,
		KeywordsTopN:           20,
		MinJobDescriptionChars: 50,
		ObjectStoreType:        "local",
		RateLimitRPS:           1,
		RateLimitBurst:         1,
	}
}

func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &analyses.Service{
		LLM: llm.CompleterFunc(func(_ context.Context, _ string) (string, error) {
			return `{"overall_match_score": 65, "strengths": ["Go"]}`, nil
		}),
		Keywords:               keywords.NewExtractor(keywords.English()),
		Similarity:             similarity.NewScorer(similarity.NewHashEmbedder()),
		MinJobDescriptionChars: cfg.MinJobDescriptionChars,
		MaxUploadBytes:         cfg.MaxUploadBytes(),
		Repo:                   analyses.NewMemoryRepo(),
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewRouter(RouterDeps{
		Config:          cfg,
		AnalysisHandler: analyses.NewHandler(svc, nil),
		Health:          health.NewService(cfg, nil, config.EmbeddingLocal),
		RateLimiter:     middleware.NewRateLimiter(func() time.Time { return now }),
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true || body["embedder"] != "local" {
		t.Fatalf("unexpected health body %v", body)
	}
	if _, ok := body["config"].(map[string]any); !ok {
		t.Fatalf("expected config status, got %v", body["config"])
	}
}

func TestHealthEndpointReportsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LLMAPIKey = ""
	router := newTestRouter(t, cfg)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected metrics status %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{
		"# TYPE analyses_total counter",
		"# TYPE http_requests_total counter",
		"# TYPE analysis_match_score histogram",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q in %q", want, body)
		}
	}
}

func TestAnalyzeRouteIsRateLimited(t *testing.T) {
	router := newTestRouter(t, testConfig())
	payload, _ := json.Marshal(map[string]string{"resume_text": routerResume, "job_description": routerJD})

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/text", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp.Code
	}
	if code := post(); code != http.StatusOK {
		t.Fatalf("expected first analysis 200, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second analysis 429, got %d", code)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("reads use the looser group, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	tests := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000", "127.0.0.1:8081": "127.0.0.1:8081"}
	for in, want := range tests {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q): expected %q, got %q", in, want, got)
		}
	}
}
