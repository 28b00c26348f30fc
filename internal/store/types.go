package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type DateType string

const (
	DateSingle DateType = "single"
	DatePeriod DateType = "period"
)

// Article is the long-form text attached to any entity. Older documents carry
// a bare string, which decodes into Current.
type Article struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
}

func (a *Article) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Article{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = Article{Current: s}
		return nil
	}
	var raw struct {
		Current  *string `json:"current"`
		Previous *string `json:"previous"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("article_full: %w", err)
	}
	*a = Article{}
	if raw.Current != nil {
		a.Current = *raw.Current
	}
	if raw.Previous != nil {
		a.Previous = *raw.Previous
	}
	return nil
}

type Source struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Author           string  `json:"author,omitempty"`
	Color            string  `json:"color,omitempty"`
	DescriptionShort string  `json:"description_short,omitempty"`
	ArticleFull      Article `json:"article_full"`
}

type Event struct {
	ID               string   `json:"id"`
	GlobalID         string   `json:"globalId,omitempty"`
	SourceID         string   `json:"sourceId,omitempty"`
	Title            string   `json:"title"`
	DateType         DateType `json:"date_type"`
	StartDate        string   `json:"start_date"`
	EndDate          *string  `json:"end_date"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	CharacterIDs     []string `json:"characters_ids"`
	PlaceID          *string  `json:"place_id"`
	MainThemeID      *string  `json:"main_theme_id"`
	SecondaryTagIDs  []string `json:"secondary_tags_ids"`
	DescriptionShort string   `json:"description_short,omitempty"`
	ArticleFull      Article  `json:"article_full"`
}

// IsPeriod reports whether the event spans an interval with a known end.
func (e Event) IsPeriod() bool {
	return e.DateType == DatePeriod && e.EndDate != nil && *e.EndDate != ""
}

type Character struct {
	ID               string  `json:"id"`
	GlobalID         string  `json:"globalId,omitempty"`
	SourceID         string  `json:"sourceId,omitempty"`
	Name             string  `json:"name"`
	DescriptionShort string  `json:"description_short,omitempty"`
	ArticleFull      Article `json:"article_full"`
}

type Place struct {
	ID               string   `json:"id"`
	GlobalID         string   `json:"globalId,omitempty"`
	SourceID         string   `json:"sourceId,omitempty"`
	Name             string   `json:"name"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	DescriptionShort string   `json:"description_short,omitempty"`
	ArticleFull      Article  `json:"article_full"`
}

type Theme struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Color            string  `json:"color"`
	DescriptionShort string  `json:"description_short,omitempty"`
	ArticleFull      Article `json:"article_full"`
}

// SourceDocument is the on-disk shape of one source: its info row plus the
// entities it owns, all carrying local ids.
type SourceDocument struct {
	SourceInfo *Source     `json:"source_info"`
	Events     []Event     `json:"events"`
	Characters []Character `json:"characters"`
	Places     []Place     `json:"places"`
	Themes     []Theme     `json:"themes,omitempty"`
}

// Patch is a JSON-shaped partial update, shallow-merged over a row.
type Patch map[string]any

type Counts struct {
	Sources    int `json:"sources"`
	Events     int `json:"events"`
	Characters int `json:"characters"`
	Places     int `json:"places"`
	Themes     int `json:"themes"`
}
