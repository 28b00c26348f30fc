package memory

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"chronomap/internal/store"
)

const (
	generatedSourcePrefix    = "inmemory_"
	generatedEventPrefix     = "evt_"
	generatedCharacterPrefix = "chr_"
	generatedPlacePrefix     = "plc_"
	generatedThemePrefix     = "thm_"
)

// colorFor derives a stable pseudo-random color from an id, so re-ingesting
// the same document never changes its default color.
func colorFor(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return fmt.Sprintf("#%06x", h.Sum32()&0xffffff)
}

func normalizeSource(s store.Source) store.Source {
	if strings.TrimSpace(s.Name) == "" {
		s.Name = "Source " + s.ID
	}
	if strings.TrimSpace(s.Color) == "" {
		s.Color = colorFor(s.ID)
	}
	return s
}

func normalizeEvent(sourceID string, e store.Event) (store.Event, error) {
	e.SourceID = sourceID
	e.GlobalID = store.GlobalID(sourceID, e.ID)
	switch e.DateType {
	case "":
		e.DateType = store.DateSingle
	case store.DateSingle, store.DatePeriod:
	default:
		return store.Event{}, fmt.Errorf("%w: event %s has unknown date_type %q", store.ErrInvalidInput, e.ID, e.DateType)
	}
	if e.DateType != store.DatePeriod {
		e.EndDate = nil
	}
	e.EndDate = nilIfEmpty(e.EndDate)
	e.PlaceID = nilIfEmpty(e.PlaceID)
	e.MainThemeID = nilIfEmpty(e.MainThemeID)
	if e.CharacterIDs == nil {
		e.CharacterIDs = []string{}
	}
	if e.SecondaryTagIDs == nil {
		e.SecondaryTagIDs = []string{}
	}
	return e, nil
}

func normalizeCharacter(sourceID string, c store.Character) store.Character {
	c.SourceID = sourceID
	c.GlobalID = store.GlobalID(sourceID, c.ID)
	if strings.TrimSpace(c.Name) == "" {
		c.Name = "Unnamed character"
	}
	return c
}

func normalizePlace(sourceID string, p store.Place) store.Place {
	p.SourceID = sourceID
	p.GlobalID = store.GlobalID(sourceID, p.ID)
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Unnamed place"
	}
	return p
}

func normalizeTheme(t store.Theme) store.Theme {
	if strings.TrimSpace(t.Name) == "" {
		t.Name = t.ID
	}
	if strings.TrimSpace(t.Color) == "" {
		t.Color = colorFor(t.ID)
	}
	return t
}

func nilIfEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSource(s store.Source) store.Source { return s }

func cloneEvent(e store.Event) store.Event {
	e.EndDate = cloneString(e.EndDate)
	e.Longitude = cloneFloat(e.Longitude)
	e.Latitude = cloneFloat(e.Latitude)
	e.PlaceID = cloneString(e.PlaceID)
	e.MainThemeID = cloneString(e.MainThemeID)
	e.CharacterIDs = slices.Clone(e.CharacterIDs)
	e.SecondaryTagIDs = slices.Clone(e.SecondaryTagIDs)
	return e
}

func cloneCharacter(c store.Character) store.Character { return c }

func clonePlace(p store.Place) store.Place {
	p.Longitude = cloneFloat(p.Longitude)
	p.Latitude = cloneFloat(p.Latitude)
	return p
}

func cloneTheme(t store.Theme) store.Theme { return t }
