package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"homestay/internal/config"

	_ "github.com/lib/pq" // postgres driver
	"github.com/rs/zerolog"
)

// PostgresDSN builds a lib/pq connection URL from config.
func PostgresDSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.DBName,
	}
	q := u.Query()
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPostgresDB connects to Postgres, retrying while the server starts up.
func NewPostgresDB(ctx context.Context, cfg config.PostgresConfig, logger *zerolog.Logger) (*DB, error) {
	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}

	sqlDB, err := sql.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}

	for attempt := 1; attempt <= retries; attempt++ {
		logger.Info().Int("attempt", attempt).Int("max_attempts", retries).Msg("Connecting to postgres")
		if err = sqlDB.PingContext(ctx); err == nil {
			break
		}
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			_ = sqlDB.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db := &DB{db: sqlDB, driver: "postgres", logger: logger}
	if err := db.createTables(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("Postgres database initialized")
	return db, nil
}
