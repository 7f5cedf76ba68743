package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-matcher/internal/analyses"
	"resume-matcher/internal/jobpost"
	"resume-matcher/internal/keywords"
	"resume-matcher/internal/llm"
	"resume-matcher/internal/llm/gemini"
	"resume-matcher/internal/llm/openai"
	"resume-matcher/internal/services/health"
	"resume-matcher/internal/shared/config"
	"resume-matcher/internal/shared/server"
	"resume-matcher/internal/shared/storage/db"
	"resume-matcher/internal/shared/storage/object"
	localstore "resume-matcher/internal/shared/storage/object/local"
	s3store "resume-matcher/internal/shared/storage/object/s3"
	"resume-matcher/internal/shared/telemetry"
	"resume-matcher/internal/similarity"
)

const (
	openRouterReferer = "https://github.com/resume-matcher"
	openRouterTitle   = "AI Resume Assistant"
	embeddingCacheMax = 256
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.Store
	Repo            analyses.Repo
	LLM             llm.Completer
	Embedder        llm.Embedder
	EmbedderName    string
	AnalysesService *analyses.Service
	AnalysisHandler *analyses.Handler
	Health          *health.Service

	closers []io.Closer
}

// Options tune Build for callers that do not need every dependency.
type Options struct {
	// SkipDB keeps reports in memory even when DATABASE_URL is set.
	SkipDB bool
	// SkipStore disables the object store.
	SkipStore bool
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	telemetry.SetLevel(telemetry.ParseLevel(cfg.LogLevel))
	app := &App{Config: cfg}

	if !opts.SkipDB {
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.DB = sqlDB
	}

	if !opts.SkipStore {
		store, err := buildStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.Store = store
	}

	completer, err := app.buildCompleter(ctx)
	if err != nil {
		return nil, err
	}
	app.LLM = completer

	embedder, name, err := app.buildEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	app.Embedder, app.EmbedderName = embedder, name

	app.buildServices()

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		Health:          app.Health,
	})
	return app, nil
}

// Close releases provider clients and the database pool.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; using in-memory report archive")
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory report archive: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if cfg.IsDevLike() {
			log.Printf("bootstrap: migrations failed; using in-memory report archive: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
	case "none":
		return nil, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func (a *App) buildCompleter(ctx context.Context) (llm.Completer, error) {
	cfg := a.Config
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		log.Printf("bootstrap: no LLM API key; analysis requests will fail until one is configured")
		return llm.PlaceholderClient{}, nil
	}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			JSONMode:    cfg.LLMJSONMode,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client)
		return client, nil
	default:
		opts := openai.Options{
			APIKey:      cfg.LLMAPIKey,
			BaseURL:     cfg.LLMBaseURL,
			Model:       cfg.LLMModel,
			Temperature: cfg.LLMTemperature,
			JSONMode:    cfg.LLMJSONMode,
			Timeout:     time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		}
		if cfg.LLMProvider == config.ProviderOpenRouter {
			opts.Referer = openRouterReferer
			opts.Title = openRouterTitle
		}
		return openai.NewPromptClient(opts)
	}
}

// buildEmbedder never fails the app on a provider error: similarity degrades to 0.
func (a *App) buildEmbedder(ctx context.Context) (llm.Embedder, string, error) {
	cfg := a.Config
	switch cfg.EmbeddingProvider {
	case config.EmbeddingNone:
		return nil, config.EmbeddingNone, nil
	case config.EmbeddingOpenAI:
		key := cfg.EmbeddingAPIKey
		if key == "" {
			key = cfg.LLMAPIKey
		}
		client, err := openai.NewEmbeddingClient(openai.Options{
			APIKey:  key,
			BaseURL: cfg.EmbeddingBaseURL,
			Model:   cfg.EmbeddingModel,
			Timeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Printf("bootstrap: embedding client unavailable; semantic similarity disabled: %v", err)
			return nil, config.EmbeddingNone, nil
		}
		return similarity.NewCachedEmbedder(client, embeddingCacheMax), config.EmbeddingOpenAI, nil
	case config.EmbeddingGemini:
		key := cfg.EmbeddingAPIKey
		if key == "" {
			key = cfg.LLMAPIKey
		}
		client, err := gemini.NewClient(ctx, gemini.Options{APIKey: key, EmbeddingModel: cfg.EmbeddingModel})
		if err != nil {
			log.Printf("bootstrap: gemini embeddings unavailable; semantic similarity disabled: %v", err)
			return nil, config.EmbeddingNone, nil
		}
		a.closers = append(a.closers, client)
		return similarity.NewCachedEmbedder(client, embeddingCacheMax), config.EmbeddingGemini, nil
	default:
		return similarity.NewCachedEmbedder(similarity.NewHashEmbedder(), embeddingCacheMax), config.EmbeddingLocal, nil
	}
}

func (a *App) buildServices() {
	if a.DB != nil {
		a.Repo = &analyses.PGRepo{DB: a.DB}
	} else {
		a.Repo = analyses.NewMemoryRepo()
	}

	scorer := similarity.NewScorer(a.Embedder)
	scorer.OnError = func(err error) {
		telemetry.Warn("similarity.failed", map[string]any{"error": err.Error()})
	}

	a.AnalysesService = &analyses.Service{
		LLM:                    a.LLM,
		Keywords:               keywords.NewExtractor(keywords.English()),
		Similarity:             scorer,
		Repo:                   a.Repo,
		Store:                  a.Store,
		TopN:                   a.Config.KeywordsTopN,
		MinJobDescriptionChars: a.Config.MinJobDescriptionChars,
		MaxUploadBytes:         a.Config.MaxUploadBytes(),
		Provider:               a.Config.LLMProvider,
		Model:                  a.Config.LLMModel,
		DisableRetry:           !a.Config.LLMRetry,
	}
	a.AnalysisHandler = analyses.NewHandler(a.AnalysesService, jobpost.NewFetcher())
	a.Health = health.NewService(a.Config, a.DB, a.EmbedderName)
}
