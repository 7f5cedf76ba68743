package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"resume-matcher/internal/shared/telemetry"
)

// ShutdownGrace bounds how long in-flight analyses get to finish on shutdown.
const ShutdownGrace = 30 * time.Second

// Serve runs handler on addr until ctx is cancelled, then drains connections.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              Addr(addr),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	telemetry.Info("server.stopped", nil)
	return nil
}
