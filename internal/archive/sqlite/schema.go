package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL UNIQUE,
	schema_version TEXT NOT NULL,
	document       TEXT NOT NULL,
	source_count   INTEGER NOT NULL DEFAULT 0,
	event_count    INTEGER NOT NULL DEFAULT 0,
	saved_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profile_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	profile_id  INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	event_id    TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	article     TEXT NOT NULL DEFAULT '',
	CONSTRAINT uq_profile_event UNIQUE (profile_id, event_id)
);

CREATE INDEX IF NOT EXISTS idx_profile_events_profile ON profile_events (profile_id);

CREATE VIRTUAL TABLE IF NOT EXISTS profile_events_fts USING fts5(
	title,
	description,
	article,
	content=profile_events,
	content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS profile_events_ai AFTER INSERT ON profile_events BEGIN
	INSERT INTO profile_events_fts(rowid, title, description, article)
	VALUES (new.id, new.title, new.description, new.article);
END;

CREATE TRIGGER IF NOT EXISTS profile_events_ad AFTER DELETE ON profile_events BEGIN
	INSERT INTO profile_events_fts(profile_events_fts, rowid, title, description, article)
	VALUES ('delete', old.id, old.title, old.description, old.article);
END;

CREATE TRIGGER IF NOT EXISTS profile_events_au AFTER UPDATE ON profile_events BEGIN
	INSERT INTO profile_events_fts(profile_events_fts, rowid, title, description, article)
	VALUES ('delete', old.id, old.title, old.description, old.article);
	INSERT INTO profile_events_fts(rowid, title, description, article)
	VALUES (new.id, new.title, new.description, new.article);
END;
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements splits DDL on statement-ending semicolons. Semicolons
// inside a trigger body do not end the statement; its END; does.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && upper != "END;" {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
