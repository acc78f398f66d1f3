package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/authportal/internal/session"
)

const storageTable = "client_storage"

// psq builds statements with postgres $n placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PgxQuerier is the subset of *pgxpool.Pool the repository uses.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type postgresSessionRepository struct {
	db PgxQuerier
}

// NewPostgresSessionRepository returns a Postgres-backed session storage over
// the client_storage table.
func NewPostgresSessionRepository(db PgxQuerier) session.Backend {
	return &postgresSessionRepository{db: db}
}

func (r *postgresSessionRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := psq.Select("value").
		From(storageTable).
		Where(sq.Eq{"storage_key": key}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build select: %w", err)
	}

	var value string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *postgresSessionRepository) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := psq.Insert(storageTable).
		Columns("storage_key", "value").
		Values(key, string(value)).
		Suffix("ON CONFLICT (storage_key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (r *postgresSessionRepository) Delete(ctx context.Context, key string) error {
	query, args, err := psq.Delete(storageTable).
		Where(sq.Eq{"storage_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *postgresSessionRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
