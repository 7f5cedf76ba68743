package health

import (
	"context"
	"database/sql"

	"resume-matcher/internal/shared/config"
	"resume-matcher/internal/shared/storage/db"
)

// Service encapsulates health-related checks.
type Service struct {
	Config config.Config
	DB     *sql.DB
	// Embedder names the similarity backend, or "none" when scores are always 0.
	Embedder string
}

// NewService constructs a new health service.
func NewService(cfg config.Config, sqlDB *sql.DB, embedder string) *Service {
	return &Service{Config: cfg, DB: sqlDB, Embedder: embedder}
}

// Status reports configuration validity, the similarity backend and archive reachability.
// ok is false when the configuration is invalid or the database does not answer.
func (s *Service) Status(ctx context.Context) map[string]any {
	cfgStatus := s.Config.Status()
	ok, _ := cfgStatus["valid"].(bool)

	embedder := s.Embedder
	if embedder == "" {
		embedder = config.EmbeddingNone
	}
	out := map[string]any{
		"config":   cfgStatus,
		"embedder": embedder,
		"provider": s.Config.LLMProvider,
		"model":    s.Config.LLMModel,
	}

	archive := "memory"
	if s.DB != nil {
		if err := db.Ping(ctx, s.DB); err != nil {
			archive = "unreachable"
			ok = false
		} else {
			archive = "postgres"
			out["pool"] = db.PoolStats(s.DB)
		}
	}
	out["archive"] = archive
	out["ok"] = ok
	return out
}
