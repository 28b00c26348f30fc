package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chronomap/internal/archive"
	"chronomap/internal/profile"
)

// Save upserts the profile row and rewrites its event index.
func (c *Client) Save(ctx context.Context, p *profile.Profile) error {
	if err := archive.ValidateName(p.ProfileName); err != nil {
		return err
	}
	document, err := profile.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	summary := archive.Summarize(p, c.now())

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var profileID int64
	err = tx.QueryRow(ctx, `
INSERT INTO profiles (name, schema_version, document, source_count, event_count, saved_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO UPDATE SET
    schema_version = EXCLUDED.schema_version,
    document = EXCLUDED.document,
    source_count = EXCLUDED.source_count,
    event_count = EXCLUDED.event_count,
    saved_at = EXCLUDED.saved_at
RETURNING id`,
		summary.Name, summary.SchemaVersion, document, summary.Sources, summary.Events, summary.SavedAt,
	).Scan(&profileID)
	if err != nil {
		return fmt.Errorf("upserting profile %s: %w", p.ProfileName, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM profile_events WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("clearing event index of %s: %w", p.ProfileName, err)
	}

	events := archive.Index(p)
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{profileID, e.EventID, e.SourceID, e.Title, e.Description, e.Article})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"profile_events"},
		[]string{"profile_id", "event_id", "source_id", "title", "description", "article"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("indexing events of %s: %w", p.ProfileName, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing profile %s: %w", p.ProfileName, err)
	}
	return nil
}

func (c *Client) Load(ctx context.Context, name string) (*profile.Profile, error) {
	var document []byte
	err := c.pool.QueryRow(ctx, `SELECT document FROM profiles WHERE name = $1`, name).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, archive.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", name, err)
	}
	p, err := profile.Parse(document)
	if err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", name, err)
	}
	return p, nil
}

func (c *Client) List(ctx context.Context) ([]archive.Summary, error) {
	rows, err := c.pool.Query(ctx, `
SELECT name, schema_version, source_count, event_count, saved_at
FROM profiles
ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	summaries := []archive.Summary{}
	for rows.Next() {
		var s archive.Summary
		if err := rows.Scan(&s.Name, &s.SchemaVersion, &s.Sources, &s.Events, &s.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		s.SavedAt = s.SavedAt.UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return summaries, nil
}

func (c *Client) Delete(ctx context.Context, name string) error {
	tag, err := c.pool.Exec(ctx, `DELETE FROM profiles WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", name, archive.ErrNotFound)
	}
	return nil
}
