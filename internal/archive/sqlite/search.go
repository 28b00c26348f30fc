package sqlite

import (
	"context"
	"fmt"
	"strings"

	"chronomap/internal/archive"
)

func (c *Client) Search(ctx context.Context, query string) ([]archive.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, archive.ErrEmptyQuery
	}
	match := toFTS5(query)
	if match == "" {
		return []archive.Hit{}, nil
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT p.name, e.event_id, e.title,
		   -bm25(profile_events_fts, 10.0, 4.0, 1.0) AS score,
		   snippet(profile_events_fts, 1, '**', '**', '...', 24) AS snippet
	FROM profile_events_fts
	JOIN profile_events e ON profile_events_fts.rowid = e.id
	JOIN profiles p ON p.id = e.profile_id
	WHERE profile_events_fts MATCH ?
	ORDER BY score DESC, p.name ASC, e.event_id ASC
	LIMIT 50
	`, match)
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	defer rows.Close()

	hits := []archive.Hit{}
	for rows.Next() {
		var h archive.Hit
		if err := rows.Scan(&h.Profile, &h.EventID, &h.Title, &h.Score, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search hits: %w", err)
	}
	return hits, nil
}

// toFTS5 converts web-search style input into an FTS5 MATCH expression.
// Bare terms are ANDed, "quoted phrases" stay phrases, a trailing * keeps
// prefix matching and -term excludes.
func toFTS5(query string) string {
	var out []string
	needsOperator := false

	emit := func(token string) {
		if needsOperator {
			out = append(out, "AND")
		}
		out = append(out, token)
		needsOperator = true
	}

	flush := func(token string) {
		if token == "" {
			return
		}
		switch upper := strings.ToUpper(token); upper {
		case "AND", "OR", "NOT":
			if len(out) > 0 {
				out = append(out, upper)
				needsOperator = false
			}
			return
		}
		if strings.HasPrefix(token, "-") && len(token) > 1 {
			if len(out) == 0 {
				return
			}
			if !needsOperator {
				out = out[:len(out)-1]
			}
			out = append(out, "NOT", quote(token[1:]))
			needsOperator = true
			return
		}
		emit(quote(token))
	}

	var current strings.Builder
	inQuote := false
	for _, r := range query {
		switch {
		case r == '"':
			if inQuote {
				if phrase := strings.TrimSpace(current.String()); phrase != "" {
					emit(`"` + strings.ReplaceAll(phrase, `"`, `""`) + `"`)
				}
				current.Reset()
			} else {
				flush(current.String())
				current.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			current.WriteRune(r)
		case r == ' ' || r == '\t':
			flush(current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	flush(current.String())

	if n := len(out); n > 0 && (out[n-1] == "AND" || out[n-1] == "OR" || out[n-1] == "NOT") {
		out = out[:n-1]
	}
	return strings.Join(out, " ")
}

// quote wraps a bare term so punctuation cannot be read as FTS5 syntax.
func quote(term string) string {
	prefix := strings.HasSuffix(term, "*")
	term = strings.TrimSuffix(term, "*")
	quoted := `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	if prefix {
		return quoted + "*"
	}
	return quoted
}
