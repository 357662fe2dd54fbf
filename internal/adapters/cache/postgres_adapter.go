package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
)

const hintsTable = "resolution_hints"

const createHintsTable = `CREATE TABLE IF NOT EXISTS resolution_hints (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresAdapter implements CacheProvider over a single key/value table
type PostgresAdapter struct {
	db   *sql.DB
	goqu *goqu.Database
	now  func() time.Time
}

// NewPostgresAdapter creates a hint store on db
func NewPostgresAdapter(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{
		db:   db,
		goqu: goqu.New("postgres", db),
		now:  time.Now,
	}
}

// EnsureSchema creates the hints table if it does not exist
func (a *PostgresAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, createHintsTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", hintsTable, err)
	}
	return nil
}

func (a *PostgresAdapter) live(key string) goqu.Expression {
	return goqu.And(
		goqu.C("key").Eq(key),
		goqu.Or(
			goqu.C("expires_at").IsNull(),
			goqu.C("expires_at").Gt(a.now().UTC()),
		),
	)
}

// Get retrieves a value
func (a *PostgresAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := a.goqu.From(hintsTable).
		Prepared(true).
		Select("value").
		Where(a.live(key)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build hint select: %w", err)
	}

	var value []byte
	err = a.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hint: %w", err)
	}
	return value, nil
}

// Set upserts a value; zero expiration keeps the row until deleted
func (a *PostgresAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	now := a.now().UTC()
	var expiresAt sql.NullTime
	if expirationSeconds > 0 {
		expiresAt = sql.NullTime{Time: now.Add(time.Duration(expirationSeconds) * time.Second), Valid: true}
	}

	query, args, err := a.goqu.Insert(hintsTable).
		Prepared(true).
		Rows(goqu.Record{
			"key":        key,
			"value":      value,
			"expires_at": expiresAt,
			"updated_at": now,
		}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{
			"value":      goqu.L("EXCLUDED.value"),
			"expires_at": goqu.L("EXCLUDED.expires_at"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build hint upsert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set hint: %w", err)
	}
	return nil
}

// Delete removes a value
func (a *PostgresAdapter) Delete(ctx context.Context, key string) error {
	query, args, err := a.goqu.Delete(hintsTable).
		Prepared(true).
		Where(goqu.C("key").Eq(key)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build hint delete: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete hint: %w", err)
	}
	return nil
}

// Exists checks if a live key exists
func (a *PostgresAdapter) Exists(ctx context.Context, key string) (bool, error) {
	query, args, err := a.goqu.From(hintsTable).
		Prepared(true).
		Select(goqu.COUNT("*")).
		Where(a.live(key)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build hint count: %w", err)
	}

	var count int
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check hint: %w", err)
	}
	return count > 0, nil
}
