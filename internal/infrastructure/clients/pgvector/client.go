package pgvector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/pkg/config"
	"github.com/yashbaviskar01/model-api/pkg/retry"
)

// Client holds the pgx pool for the document vector store
type Client struct {
	pool *pgxpool.Pool
}

// NewClient opens a pool against cfg.DSN and enables the vector extension
func NewClient(ctx context.Context, cfg *config.VectorStoreConfig) (*Client, error) {
	if cfg.DSN == "" {
		return nil, errors.New("PGVECTOR_DSN is not set")
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgvector pool: %w", err)
	}

	err = retry.DoWithLog(ctx, retry.DefaultConfig(), "pgvector",
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("pgvector connection attempt failed")
		},
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to pgvector after retries: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to enable vector extension: %w", err)
	}

	log.Info().Msg("Successfully connected to pgvector")
	return &Client{pool: pool}, nil
}

// Pool returns the underlying pgx pool
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Close closes the pool
func (c *Client) Close() {
	c.pool.Close()
}
