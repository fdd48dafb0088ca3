package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/banner"

	"docrisk-backend/internal/bootstrap"
	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/server"
	"docrisk-backend/internal/shared/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	banner.PrintSimple("DocRisk", version)
	telemetry.SetLevel(cfg.LogLevel)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		telemetry.Info("server.start", map[string]any{"addr": addr, "version": version})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	// in-flight analyses get the full analysis timeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AnalysisTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("server.shutdown_failed", map[string]any{"error": err.Error()})
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
	telemetry.Info("server.stopped", nil)
}
