// Package postgres keeps archived profiles in PostgreSQL. Documents are
// stored as JSONB and events are indexed with a weighted tsvector.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chronomap/internal/archive"
)

var _ archive.Archive = (*Client)(nil)

type Client struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func New(ctx context.Context, dsn string) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{pool: pool, now: time.Now}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}
