// Package sqlite keeps archived profiles in a single SQLite file, with an
// FTS5 index over their events.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chronomap/internal/archive"

	_ "modernc.org/sqlite"
)

var _ archive.Archive = (*Client)(nil)

type Client struct {
	db  *sql.DB
	now func() time.Time
}

func New(ctx context.Context, raw string) (*Client, error) {
	parsed, err := parseDSN(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", parsed.driver())
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// Each connection to :memory: is its own database.
	if parsed.memory {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	return &Client{db: db, now: time.Now}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
