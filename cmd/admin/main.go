package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/corpus-admin/internal/bootstrap"
	"github.com/kirillkom/corpus-admin/internal/config"
	"github.com/kirillkom/corpus-admin/internal/observability/logging"
)

const sessionSweepInterval = time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("corpus-admin", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go app.Sessions.Run(ctx, sessionSweepInterval)

	server := &http.Server{
		Addr:              ":" + cfg.AdminPort,
		Handler:           app.Router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("admin_listening", "addr", server.Addr, "corpus_api_url", cfg.CorpusAPIURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("admin server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("admin_shutdown_failed", "error", err)
	}
}
