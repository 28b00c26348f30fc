// Package archive defines the contract for saving profiles by name in a
// durable backend. The sqlite, postgres and s3 subpackages implement it.
package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"chronomap/internal/profile"
	"chronomap/internal/store"
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrInvalidName = errors.New("invalid profile name")
	ErrEmptyQuery  = errors.New("query must not be empty")
)

type Archive interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, p *profile.Profile) error
	Load(ctx context.Context, name string) (*profile.Profile, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, name string) error
	Search(ctx context.Context, query string) ([]Hit, error)
	Close(ctx context.Context) error
}

type Summary struct {
	Name          string    `json:"name"`
	SchemaVersion string    `json:"schema_version"`
	Sources       int       `json:"sources"`
	Events        int       `json:"events"`
	SavedAt       time.Time `json:"saved_at"`
}

// Hit is one archived event matching a search.
type Hit struct {
	Profile string  `json:"profile"`
	EventID string  `json:"event_id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// IndexedEvent is the searchable text of one archived event.
type IndexedEvent struct {
	EventID     string
	SourceID    string
	Title       string
	Description string
	Article     string
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

func Summarize(p *profile.Profile, savedAt time.Time) Summary {
	s := Summary{
		Name:          p.ProfileName,
		SchemaVersion: p.SchemaVersion,
		Sources:       len(p.EmbeddedSourceData),
		SavedAt:       savedAt.UTC(),
	}
	for _, doc := range p.EmbeddedSourceData {
		s.Events += len(doc.Events)
	}
	return s
}

// Index flattens the events of a profile for full-text indexing. Event ids
// are global ids.
func Index(p *profile.Profile) []IndexedEvent {
	var out []IndexedEvent
	for _, doc := range p.EmbeddedSourceData {
		if doc.SourceInfo == nil {
			continue
		}
		for _, e := range doc.Events {
			out = append(out, IndexedEvent{
				EventID:     store.GlobalID(doc.SourceInfo.ID, e.ID),
				SourceID:    doc.SourceInfo.ID,
				Title:       e.Title,
				Description: e.DescriptionShort,
				Article:     e.ArticleFull.Current,
			})
		}
	}
	return out
}

// Match scores events against a plain term query without an index. Every
// term must appear; title matches weigh more than body matches. A leading
// '-' excludes a term.
func Match(name string, events []IndexedEvent, query string) []Hit {
	var include, exclude []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		switch {
		case strings.HasPrefix(term, "-") && len(term) > 1:
			exclude = append(exclude, term[1:])
		case term == "and":
		default:
			include = append(include, strings.Trim(term, `"*`))
		}
	}
	if len(include) == 0 {
		return nil
	}

	var hits []Hit
	for _, e := range events {
		title := strings.ToLower(e.Title)
		body := strings.ToLower(e.Description + " " + e.Article)
		score := 0.0
		matched := true
		for _, term := range include {
			inTitle, inBody := strings.Contains(title, term), strings.Contains(body, term)
			if !inTitle && !inBody {
				matched = false
				break
			}
			if inTitle {
				score += 10
			}
			if inBody {
				score += 4
			}
		}
		for _, term := range exclude {
			if strings.Contains(title, term) || strings.Contains(body, term) {
				matched = false
			}
		}
		if !matched {
			continue
		}
		hits = append(hits, Hit{Profile: name, EventID: e.EventID, Title: e.Title, Snippet: snippet(e, include[0]), Score: score})
	}
	SortHits(hits)
	return hits
}

func snippet(e IndexedEvent, term string) string {
	text := e.Description
	if text == "" {
		text = e.Article
	}
	const width = 120
	idx := strings.Index(strings.ToLower(text), term)
	if idx < 0 || len(text) <= width {
		if len(text) > width {
			return text[:width] + "..."
		}
		return text
	}
	start := max(0, idx-width/2)
	end := min(len(text), start+width)
	return "..." + text[start:end] + "..."
}

// SortHits orders hits by score, then profile and event id.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Profile != hits[j].Profile {
			return hits[i].Profile < hits[j].Profile
		}
		return hits[i].EventID < hits[j].EventID
	})
}
