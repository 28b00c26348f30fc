package memory

import (
	"fmt"
	"slices"
	"strings"

	"chronomap/internal/store"
)

func (s *Store) AddEventToSource(sourceID string, e store.Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sources.has(sourceID) {
		return "", s.reject("add event", fmt.Errorf("%w: %s", store.ErrSourceNotFound, sourceID), "source", sourceID)
	}
	if strings.TrimSpace(e.ID) == "" {
		e.ID = generatedEventPrefix + s.newID()
	}
	globalID := store.GlobalID(sourceID, e.ID)
	if s.events.has(globalID) {
		return "", s.reject("add event", fmt.Errorf("%w: event %s", store.ErrDuplicateID, globalID), "source", sourceID)
	}
	row, err := normalizeEvent(sourceID, cloneEvent(e))
	if err != nil {
		return "", s.reject("add event", err, "source", sourceID)
	}
	s.qualifyReferences(&row)
	s.events.set(row)
	return globalID, nil
}

func (s *Store) UpdateEvent(globalID string, patch store.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.events.get(globalID)
	if !ok {
		return s.reject("update event", fmt.Errorf("%w: event %s", store.ErrNotFound, globalID), "id", globalID)
	}
	updated, err := applyPatch(row, patch)
	if err != nil {
		return s.reject("update event", err, "id", globalID)
	}
	updated.ID = row.ID
	updated, err = normalizeEvent(row.SourceID, updated)
	if err != nil {
		return s.reject("update event", err, "id", globalID)
	}
	s.qualifyReferences(&updated)
	s.events.set(updated)
	return nil
}

func (s *Store) DeleteEvent(globalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events.remove(globalID); !ok {
		return s.reject("delete event", fmt.Errorf("%w: event %s", store.ErrNotFound, globalID), "id", globalID)
	}
	return nil
}

func (s *Store) AddCharacterToSource(sourceID string, c store.Character) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sources.has(sourceID) {
		return "", s.reject("add character", fmt.Errorf("%w: %s", store.ErrSourceNotFound, sourceID), "source", sourceID)
	}
	if strings.TrimSpace(c.ID) == "" {
		c.ID = generatedCharacterPrefix + s.newID()
	}
	globalID := store.GlobalID(sourceID, c.ID)
	if s.characters.has(globalID) {
		return "", s.reject("add character", fmt.Errorf("%w: character %s", store.ErrDuplicateID, globalID), "source", sourceID)
	}
	s.characters.set(normalizeCharacter(sourceID, c))
	s.resolveLocalReference(sourceID, c.ID, false)
	return globalID, nil
}

func (s *Store) UpdateCharacter(globalID string, patch store.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.characters.get(globalID)
	if !ok {
		return s.reject("update character", fmt.Errorf("%w: character %s", store.ErrNotFound, globalID), "id", globalID)
	}
	updated, err := applyPatch(row, patch)
	if err != nil {
		return s.reject("update character", err, "id", globalID)
	}
	updated.ID = row.ID
	s.characters.set(normalizeCharacter(row.SourceID, updated))
	return nil
}

// DeleteCharacter also drops the character from every event's cast.
func (s *Store) DeleteCharacter(globalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.characters.remove(globalID); !ok {
		return s.reject("delete character", fmt.Errorf("%w: character %s", store.ErrNotFound, globalID), "id", globalID)
	}
	s.stripReferences(map[string]struct{}{globalID: {}}, nil)
	return nil
}

func (s *Store) AddPlaceToSource(sourceID string, p store.Place) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sources.has(sourceID) {
		return "", s.reject("add place", fmt.Errorf("%w: %s", store.ErrSourceNotFound, sourceID), "source", sourceID)
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = generatedPlacePrefix + s.newID()
	}
	globalID := store.GlobalID(sourceID, p.ID)
	if s.places.has(globalID) {
		return "", s.reject("add place", fmt.Errorf("%w: place %s", store.ErrDuplicateID, globalID), "source", sourceID)
	}
	s.places.set(normalizePlace(sourceID, clonePlace(p)))
	s.resolveLocalReference(sourceID, p.ID, true)
	return globalID, nil
}

func (s *Store) UpdatePlace(globalID string, patch store.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.places.get(globalID)
	if !ok {
		return s.reject("update place", fmt.Errorf("%w: place %s", store.ErrNotFound, globalID), "id", globalID)
	}
	updated, err := applyPatch(row, patch)
	if err != nil {
		return s.reject("update place", err, "id", globalID)
	}
	updated.ID = row.ID
	s.places.set(normalizePlace(row.SourceID, updated))
	return nil
}

// DeletePlace nulls place_id on events pointing at the place. Their own
// coordinates are left alone.
func (s *Store) DeletePlace(globalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.places.remove(globalID); !ok {
		return s.reject("delete place", fmt.Errorf("%w: place %s", store.ErrNotFound, globalID), "id", globalID)
	}
	s.stripReferences(nil, map[string]struct{}{globalID: {}})
	return nil
}

func (s *Store) AddTheme(t store.Theme) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(t.ID) == "" {
		t.ID = generatedThemePrefix + s.newID()
	}
	if s.themes.has(t.ID) {
		return "", s.reject("add theme", fmt.Errorf("%w: theme %s", store.ErrDuplicateID, t.ID), "id", t.ID)
	}
	s.themes.set(normalizeTheme(t))
	return t.ID, nil
}

func (s *Store) UpdateTheme(id string, patch store.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.themes.get(id)
	if !ok {
		return s.reject("update theme", fmt.Errorf("%w: theme %s", store.ErrNotFound, id), "id", id)
	}
	updated, err := applyPatch(row, patch)
	if err != nil {
		return s.reject("update theme", err, "id", id)
	}
	updated.ID = row.ID
	s.themes.set(normalizeTheme(updated))
	return nil
}

// DeleteTheme clears the theme from main and secondary slots of every event
// in every source.
func (s *Store) DeleteTheme(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.themes.remove(id); !ok {
		return s.reject("delete theme", fmt.Errorf("%w: theme %s", store.ErrNotFound, id), "id", id)
	}
	s.events.each(func(e *store.Event) {
		if e.MainThemeID != nil && *e.MainThemeID == id {
			e.MainThemeID = nil
		}
		if slices.Contains(e.SecondaryTagIDs, id) {
			e.SecondaryTagIDs = slices.DeleteFunc(slices.Clone(e.SecondaryTagIDs), func(tag string) bool { return tag == id })
		}
	})
	return nil
}
