package source

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// SQLiteStore keeps the historical database in a local SQLite file
type SQLiteStore struct {
	conn    *sql.DB
	path    string
	writeMu sync.Mutex // SQLite allows a single writer
}

// OpenSQLite opens a SQLite database with WAL mode enabled
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Connected to SQLite database: %s", dbPath)
	return &SQLiteStore{conn: conn, path: dbPath}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates tables if they don't exist
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Name implements resolver.Source
func (s *SQLiteStore) Name() string {
	return "sqlite:" + s.path
}

// Fetch implements resolver.Source
func (s *SQLiteStore) Fetch(ctx context.Context) (*history.Database, error) {
	return loadDatabase(ctx, func(ctx context.Context, query string) (rowScanner, func(), error) {
		rows, err := s.conn.QueryContext(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return rows, func() { rows.Close() }, nil
	})
}

// Save replaces the stored database with db in a single transaction
func (s *SQLiteStore) Save(ctx context.Context, db *history.Database, runID, origin string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exec := func(ctx context.Context, query string, args ...any) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}
	if err := writeDatabase(ctx, exec, identity, db, runID, origin); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
