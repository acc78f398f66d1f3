package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/authportal/internal/config"
)

const (
	sessionApplicationName = "authportal-session-store"
	// The store serializes every session access behind one mutex, so at
	// most one connection is busy at a time.
	defaultSessionMaxConns = 4
)

// Postgres holds the pool behind the client_storage table that carries the
// session record when SESSION_STORE=postgres.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres opens and verifies the session pool. There is no fallback
// store to degrade to, so a missing DSN or an unreachable server is an error
// and the portal refuses to start.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres session store: empty DSN")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = sessionApplicationName

	poolCfg.MaxConns = defaultSessionMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("session store connected to postgres",
		zap.String("application_name", sessionApplicationName),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{Pool: pool}, nil
}

// Close releases the pool. Safe on a nil receiver.
func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
