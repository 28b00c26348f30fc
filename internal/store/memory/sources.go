package memory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"chronomap/internal/store"
)

func (s *Store) AddSource(info store.Source) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(info.ID) == "" {
		info.ID = generatedSourcePrefix + s.newID()
	}
	if s.sources.has(info.ID) {
		return "", s.reject("add source", fmt.Errorf("%w: source %s", store.ErrDuplicateID, info.ID), "id", info.ID)
	}
	s.sources.set(normalizeSource(info))
	s.logger.Debug("source added", "id", info.ID)
	return info.ID, nil
}

func (s *Store) UpdateSourceInfo(id string, patch store.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.sources.get(id)
	if !ok {
		return s.reject("update source", fmt.Errorf("%w: %s", store.ErrSourceNotFound, id), "id", id)
	}
	updated, err := applyPatch(row, patch)
	if err != nil {
		return s.reject("update source", err, "id", id)
	}
	updated.ID = row.ID
	s.sources.set(normalizeSource(updated))
	return nil
}

// RemoveSource deletes the source and every event, character and place it
// owns. Themes are global and stay.
func (s *Store) RemoveSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sources.remove(id); !ok {
		return s.reject("remove source", fmt.Errorf("%w: %s", store.ErrSourceNotFound, id), "id", id)
	}
	owned := func(sourceID string) bool { return sourceID == id }
	events := s.events.removeWhere(func(e store.Event) bool { return owned(e.SourceID) })
	characters := s.characters.removeWhere(func(c store.Character) bool { return owned(c.SourceID) })
	places := s.places.removeWhere(func(p store.Place) bool { return owned(p.SourceID) })
	s.stripReferences(characters, places)

	s.logger.Info("source removed", "id", id, "events", len(events), "characters", len(characters), "places", len(places))
	return nil
}

// ReplaceSource installs a whole source document. An existing source with the
// same id loses its events, characters and places first. Themes merge by id
// and the first writer wins.
func (s *Store) ReplaceSource(doc store.SourceDocument) error {
	built, err := buildSource(doc)
	if err != nil {
		id := ""
		if doc.SourceInfo != nil {
			id = doc.SourceInfo.ID
		}
		return s.reject("replace source", err, "id", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := built.info.ID
	if err := s.checkOwnership(built); err != nil {
		return s.reject("replace source", err, "id", id)
	}
	replaced := s.sources.has(id)
	if replaced {
		owned := func(sourceID string) bool { return sourceID == id }
		s.events.removeWhere(func(e store.Event) bool { return owned(e.SourceID) })
		s.characters.removeWhere(func(c store.Character) bool { return owned(c.SourceID) })
		s.places.removeWhere(func(p store.Place) bool { return owned(p.SourceID) })
	}
	s.sources.set(built.info)
	for _, c := range built.characters {
		s.characters.set(c)
	}
	for _, p := range built.places {
		s.places.set(p)
	}
	for _, e := range built.events {
		s.events.set(e)
	}
	themesAdded := 0
	for _, t := range built.themes {
		if s.themes.has(t.ID) {
			continue
		}
		s.themes.set(t)
		themesAdded++
	}

	s.logger.Info("source loaded", "id", id, "replaced", replaced,
		"events", len(built.events), "characters", len(built.characters),
		"places", len(built.places), "themes", themesAdded)
	return nil
}

// checkOwnership rejects a document whose global ids already belong to
// another source, as happens when "a" has local id "b_c" and "a_b" has "c".
func (s *Store) checkOwnership(built *builtSource) error {
	id := built.info.ID
	for _, e := range built.events {
		if row, ok := s.events.get(e.GlobalID); ok && row.SourceID != id {
			return fmt.Errorf("%w: event %s belongs to source %s", store.ErrDuplicateID, e.GlobalID, row.SourceID)
		}
	}
	for _, c := range built.characters {
		if row, ok := s.characters.get(c.GlobalID); ok && row.SourceID != id {
			return fmt.Errorf("%w: character %s belongs to source %s", store.ErrDuplicateID, c.GlobalID, row.SourceID)
		}
	}
	for _, p := range built.places {
		if row, ok := s.places.get(p.GlobalID); ok && row.SourceID != id {
			return fmt.Errorf("%w: place %s belongs to source %s", store.ErrDuplicateID, p.GlobalID, row.SourceID)
		}
	}
	return nil
}

type builtSource struct {
	info       store.Source
	events     []store.Event
	characters []store.Character
	places     []store.Place
	themes     []store.Theme
}

// buildSource validates a document and produces normalized rows without
// touching the store.
func buildSource(doc store.SourceDocument) (*builtSource, error) {
	if doc.SourceInfo == nil || strings.TrimSpace(doc.SourceInfo.ID) == "" {
		return nil, fmt.Errorf("%w: source_info.id is required", store.ErrInvalidInput)
	}
	sourceID := doc.SourceInfo.ID
	out := &builtSource{info: normalizeSource(*doc.SourceInfo)}

	localCharacters := make(map[string]struct{}, len(doc.Characters))
	for i, c := range doc.Characters {
		if c.ID == "" {
			c.ID = derivedID(sourceID, "characters", i, generatedCharacterPrefix)
		}
		if _, dup := localCharacters[c.ID]; dup {
			return nil, fmt.Errorf("%w: character %s appears twice", store.ErrDuplicateID, c.ID)
		}
		localCharacters[c.ID] = struct{}{}
		out.characters = append(out.characters, normalizeCharacter(sourceID, c))
	}

	localPlaces := make(map[string]struct{}, len(doc.Places))
	for i, p := range doc.Places {
		if p.ID == "" {
			p.ID = derivedID(sourceID, "places", i, generatedPlacePrefix)
		}
		if _, dup := localPlaces[p.ID]; dup {
			return nil, fmt.Errorf("%w: place %s appears twice", store.ErrDuplicateID, p.ID)
		}
		localPlaces[p.ID] = struct{}{}
		out.places = append(out.places, normalizePlace(sourceID, p))
	}

	localEvents := make(map[string]struct{}, len(doc.Events))
	for i, e := range doc.Events {
		if e.ID == "" {
			e.ID = derivedID(sourceID, "events", i, generatedEventPrefix)
		}
		if _, dup := localEvents[e.ID]; dup {
			return nil, fmt.Errorf("%w: event %s appears twice", store.ErrDuplicateID, e.ID)
		}
		localEvents[e.ID] = struct{}{}

		refs := make([]string, 0, len(e.CharacterIDs))
		for _, ref := range e.CharacterIDs {
			refs = append(refs, qualify(sourceID, ref, localCharacters))
		}
		e.CharacterIDs = refs
		if e.PlaceID != nil {
			ref := qualify(sourceID, *e.PlaceID, localPlaces)
			e.PlaceID = &ref
		}

		normalized, err := normalizeEvent(sourceID, e)
		if err != nil {
			return nil, err
		}
		out.events = append(out.events, normalized)
	}

	seenThemes := make(map[string]struct{}, len(doc.Themes))
	for i, t := range doc.Themes {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("%w: theme %d has no id", store.ErrInvalidInput, i)
		}
		if _, dup := seenThemes[t.ID]; dup {
			continue
		}
		seenThemes[t.ID] = struct{}{}
		out.themes = append(out.themes, normalizeTheme(t))
	}

	return out, nil
}

// qualify turns a reference to an entity defined in the same document into
// its global id. Anything else is already global and kept as written.
func qualify(sourceID, ref string, local map[string]struct{}) string {
	if _, ok := local[ref]; ok {
		return store.GlobalID(sourceID, ref)
	}
	return ref
}

// derivedID names an entity that arrived without an id. The value depends
// only on its position in the document, so reloading stays idempotent.
func derivedID(sourceID, kind string, index int, prefix string) string {
	name := fmt.Sprintf("%s/%s/%d", sourceID, kind, index)
	return prefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
