package postgres

import (
	"context"
	"fmt"
)

// The statements run in one implicit transaction; IF NOT EXISTS keeps
// repeated runs harmless.
const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
    id             BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name           TEXT NOT NULL UNIQUE,
    schema_version TEXT NOT NULL,
    document       JSONB NOT NULL,
    source_count   INTEGER NOT NULL DEFAULT 0,
    event_count    INTEGER NOT NULL DEFAULT 0,
    saved_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profile_events (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    profile_id  BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    event_id    TEXT NOT NULL,
    source_id   TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    article     TEXT NOT NULL DEFAULT '',
    search_vector TSVECTOR GENERATED ALWAYS AS (
        setweight(to_tsvector('english', coalesce(title, '')), 'A') ||
        setweight(to_tsvector('english', coalesce(description, '')), 'B') ||
        setweight(to_tsvector('english', coalesce(article, '')), 'C')
    ) STORED,
    CONSTRAINT uq_profile_event UNIQUE (profile_id, event_id)
);

CREATE INDEX IF NOT EXISTS idx_profile_events_search ON profile_events USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_profile_events_profile ON profile_events (profile_id);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("executing DDL: %w", err)
	}
	return nil
}
