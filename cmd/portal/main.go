package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/authportal/internal/api/http"
	"github.com/spec-kit/authportal/internal/api/http/handlers"
	"github.com/spec-kit/authportal/internal/auth"
	"github.com/spec-kit/authportal/internal/backend"
	"github.com/spec-kit/authportal/internal/config"
	"github.com/spec-kit/authportal/internal/devbackend"
	"github.com/spec-kit/authportal/internal/events"
	"github.com/spec-kit/authportal/internal/navigation"
	"github.com/spec-kit/authportal/internal/observability"
	"github.com/spec-kit/authportal/internal/persistence"
	"github.com/spec-kit/authportal/internal/repository"
	"github.com/spec-kit/authportal/internal/service"
	"github.com/spec-kit/authportal/internal/session"
	"github.com/spec-kit/authportal/internal/transport"
	"github.com/spec-kit/authportal/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storeBackend, closeStore, err := openSessionBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.String("store", cfg.Session.Store), zap.Error(err))
	}
	defer closeStore()

	store := session.NewStore(storeBackend, cfg.Session.Key, logger)
	surfaces := navigation.SurfacesFromConfig(cfg.Navigation)
	location := navigation.NewLocation(surfaces.Home)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	audit := service.NewSessionAudit(dispatcher, logger)
	worker.StartSessionAudit(audit)

	upstream, err := upstreamTransport(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start embedded backend", zap.Error(err))
	}
	interceptor := transport.NewInterceptor(upstream, transport.Dependencies{
		Sessions:   store,
		Navigator:  location,
		LoginPath:  surfaces.Login,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	client, err := backend.NewClient(cfg.Backend.BaseURL, interceptor, cfg.Backend.Timeout(), logger)
	if err != nil {
		logger.Fatal("failed to build backend client", zap.Error(err))
	}

	sessions := service.NewSessionService(cfg.Auth, service.SessionDependencies{
		Store:      store,
		Auth:       client,
		Profiles:   client,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	directory := service.NewDirectoryService(client, sessions, cfg.Auth.AdminRole, logger)
	guard := auth.NewGuard(sessions, surfaces, logger)

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Session.Store, store, metrics, audit),
		Auth:        handlers.NewAuthHandler(sessions, surfaces),
		Profile:     handlers.NewProfileHandler(sessions),
		Admin:       handlers.NewAdminHandler(directory),
		Guard:       guard,
		Surfaces:    surfaces,
		Navigations: location,
	})

	go func() {
		logger.Info("portal listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.Bool("embedded_backend", cfg.Backend.Embedded))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// openSessionBackend builds the storage backend selected by SESSION_STORE.
// The returned func releases its connections.
func openSessionBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Backend, func(), error) {
	noop := func() {}
	switch cfg.Session.Store {
	case config.StoreMemory:
		return session.NewMemoryBackend(), noop, nil
	case config.StoreFile:
		fb, err := session.NewFileBackend(cfg.Session.Dir)
		if err != nil {
			return nil, noop, err
		}
		return fb, noop, nil
	case config.StoreRedis:
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		return repository.NewRedisSessionRepository(rdb.Client, rdb.KeyPrefix), rdb.Close, nil
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, noop, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, noop, err
			}
		}
		return repository.NewPostgresSessionRepository(pg.Pool), pg.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// upstreamTransport returns the transport beneath the interceptor: the
// network, or the dev backend served in-process when BACKEND_EMBEDDED is set.
func upstreamTransport(ctx context.Context, cfg *config.Config, logger *zap.Logger) (http.RoundTripper, error) {
	if !cfg.Backend.Embedded {
		return http.DefaultTransport, nil
	}
	srv, err := devbackend.New(ctx, cfg.DevBackend, logger.Named("devbackend"))
	if err != nil {
		return nil, err
	}
	return devbackend.InProcessTransport(srv.App), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
