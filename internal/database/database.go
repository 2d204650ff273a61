package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is a durable key-value table on top of database/sql. The same schema
// and statements serve SQLite and Postgres.
type DB struct {
	db     *sql.DB
	driver string
	logger *zerolog.Logger
}

// NewDB opens (and creates if needed) a SQLite database at path.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{db: sqlDB, driver: "sqlite3", logger: logger}
	if err := db.createTables(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite database initialized")
	return db, nil
}

func (db *DB) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kv_store (
            store_key TEXT PRIMARY KEY,
            store_value TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
	}

	for _, query := range queries {
		if _, err := db.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.db.QueryRowContext(ctx, `SELECT store_value FROM kv_store WHERE store_key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (db *DB) Set(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO kv_store (store_key, store_value, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT(store_key) DO UPDATE SET
            store_value = excluded.store_value,
            updated_at = excluded.updated_at
    `
	if _, err := db.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.db.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (db *DB) PingContext(ctx context.Context) error {
	return db.db.PingContext(ctx)
}

// Driver reports the database/sql driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Close() error {
	return db.db.Close()
}
