package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/config"
	"github.com/spec-kit/authportal/internal/devbackend"
	"github.com/spec-kit/authportal/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	srv, err := devbackend.New(context.Background(), cfg.DevBackend, logger)
	if err != nil {
		logger.Fatal("failed to build dev backend", zap.Error(err))
	}

	go func() {
		logger.Info("dev backend listening",
			zap.String("addr", cfg.DevBackend.Addr()),
			zap.String("admin", cfg.DevBackend.AdminUsername))
		if err := srv.App.Listen(cfg.DevBackend.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	_ = srv.App.Shutdown()
}
