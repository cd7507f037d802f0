// Package db provides PostgreSQL storage for users, billing, history, samples,
// prices and admins.
package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id     BIGINT PRIMARY KEY,
		username    TEXT NOT NULL DEFAULT '',
		full_name   TEXT NOT NULL DEFAULT '',
		balance     INTEGER NOT NULL DEFAULT 0,
		free_pptx   INTEGER NOT NULL DEFAULT 5,
		free_docx   INTEGER NOT NULL DEFAULT 5,
		is_blocked  BOOLEAN NOT NULL DEFAULT FALSE,
		joined_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id          SERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL,
		amount      INTEGER NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		id          SERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL,
		doc_type    TEXT NOT NULL,
		topic       TEXT NOT NULL,
		pages       INTEGER NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS samples (
		id          SERIAL PRIMARY KEY,
		file_id     TEXT NOT NULL,
		caption     TEXT NOT NULL DEFAULT '',
		file_type   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prices (
		key         TEXT PRIMARY KEY,
		value       INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		user_id     BIGINT PRIMARY KEY,
		added_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates missing tables, seeds default prices and registers
// the super admin. It is safe to run on every start.
func (db *DB) EnsureSchema(ctx context.Context, superAdminID int64) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	for key, value := range DefaultPrices {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO prices (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to seed price %s: %w", key, err)
		}
	}

	if superAdminID != 0 {
		if err := db.AddAdmin(ctx, superAdminID); err != nil {
			return err
		}
	}

	log.Printf("[DB] schema ready")
	return nil
}
