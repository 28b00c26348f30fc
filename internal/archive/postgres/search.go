package postgres

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

	sql := `
SELECT p.name, e.event_id, e.title,
    ts_rank(e.search_vector, websearch_to_tsquery('english', $1)) AS score,
    ts_headline('english', e.description || ' ' || e.article, websearch_to_tsquery('english', $1),
        'MaxFragments=1, MaxWords=24, MinWords=8, StartSel=**, StopSel=**') AS snippet
FROM profile_events e
JOIN profiles p ON p.id = e.profile_id
WHERE e.search_vector @@ websearch_to_tsquery('english', $1)
ORDER BY score DESC, p.name ASC, e.event_id ASC
LIMIT 50
`

	rows, err := c.pool.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	defer rows.Close()

	hits := []archive.Hit{}
	for rows.Next() {
		var h archive.Hit
		var score float32
		if err := rows.Scan(&h.Profile, &h.EventID, &h.Title, &score, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		h.Score = float64(score)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search hits: %w", err)
	}
	return hits, nil
}
