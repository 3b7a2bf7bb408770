package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/pkg/config"
)

// Client wraps an embedded DuckDB database used as the query backend
type Client struct {
	db *sql.DB
}

// NewClient opens the DuckDB file at cfg.DuckDBPath, or an in-memory database when empty
func NewClient(ctx context.Context, cfg *config.QueryBackendConfig) (*Client, error) {
	path := cfg.DuckDBPath
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	log.Info().Str("path", path).Msg("DuckDB query backend opened")
	return &Client{db: db}, nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database
func (c *Client) Close() error {
	return c.db.Close()
}
