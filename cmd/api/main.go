package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"resume-matcher/internal/bootstrap"
	"resume-matcher/internal/shared/config"
	"resume-matcher/internal/shared/server"
	"resume-matcher/internal/shared/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, config.Load()))
}

func run(ctx context.Context, cfg config.Config) int {
	if err := cfg.Validate(); err != nil {
		telemetry.Error("config.invalid", map[string]any{"error": err.Error()})
		return 1
	}

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{})
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err.Error()})
		return 1
	}
	defer app.Close()

	if err := server.Serve(ctx, cfg.Port, app.Router); err != nil {
		telemetry.Error("server.failed", map[string]any{"error": err.Error()})
		return 1
	}
	return 0
}
