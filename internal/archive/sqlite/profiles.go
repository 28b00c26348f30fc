package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chronomap/internal/archive"
	"chronomap/internal/profile"
)

// Save replaces any profile stored under the same name.
func (c *Client) Save(ctx context.Context, p *profile.Profile) error {
	if err := archive.ValidateName(p.ProfileName); err != nil {
		return err
	}
	document, err := profile.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	summary := archive.Summarize(p, c.now())

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, p.ProfileName); err != nil {
		return fmt.Errorf("removing previous profile %s: %w", p.ProfileName, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (name, schema_version, document, source_count, event_count, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		summary.Name, summary.SchemaVersion, string(document), summary.Sources, summary.Events,
		summary.SavedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting profile %s: %w", p.ProfileName, err)
	}
	profileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading profile id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profile_events (profile_id, event_id, source_id, title, description, article)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range archive.Index(p) {
		if _, err := stmt.ExecContext(ctx, profileID, e.EventID, e.SourceID, e.Title, e.Description, e.Article); err != nil {
			return fmt.Errorf("indexing event %s: %w", e.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing profile %s: %w", p.ProfileName, err)
	}
	return nil
}

func (c *Client) Load(ctx context.Context, name string) (*profile.Profile, error) {
	var document string
	err := c.db.QueryRowContext(ctx, `SELECT document FROM profiles WHERE name = ?`, name).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, archive.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", name, err)
	}
	p, err := profile.Parse([]byte(document))
	if err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", name, err)
	}
	return p, nil
}

func (c *Client) List(ctx context.Context) ([]archive.Summary, error) {
	rows, err := c.db.QueryContext(ctx, `
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
		var savedAt string
		if err := rows.Scan(&s.Name, &s.SchemaVersion, &s.Sources, &s.Events, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		s.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing saved_at of %s: %w", s.Name, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return summaries, nil
}

func (c *Client) Delete(ctx context.Context, name string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, archive.ErrNotFound)
	}
	return nil
}
