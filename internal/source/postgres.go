package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// PostgresStore serves the historical database from a Postgres mirror
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool and verifies it
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the pool
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// EnsureSchema creates tables if they don't exist
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Name implements resolver.Source
func (p *PostgresStore) Name() string {
	return "postgres"
}

// Fetch implements resolver.Source
func (p *PostgresStore) Fetch(ctx context.Context) (*history.Database, error) {
	return loadDatabase(ctx, func(ctx context.Context, query string) (rowScanner, func(), error) {
		rows, err := p.pool.Query(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return rows, rows.Close, nil
	})
}

// Save replaces the stored database with db in a single transaction
func (p *PostgresStore) Save(ctx context.Context, db *history.Database, runID, origin string) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	exec := func(ctx context.Context, query string, args ...any) error {
		_, err := tx.Exec(ctx, query, args...)
		return err
	}
	if err := writeDatabase(ctx, exec, dollarPlaceholders, db, runID, origin); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
