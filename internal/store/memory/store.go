// Package memory is the in-process entity store backing a chronomap session.
package memory

import (
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"chronomap/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu         sync.RWMutex
	logger     *log.Logger
	newID      func() string
	sources    *table[store.Source]
	events     *table[store.Event]
	characters *table[store.Character]
	places     *table[store.Place]
	themes     *table[store.Theme]
}

type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid source used for generated ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		logger:     log.New(io.Discard),
		newID:      uuid.NewString,
		sources:    newTable(func(r store.Source) string { return r.ID }),
		events:     newTable(func(r store.Event) string { return r.GlobalID }),
		characters: newTable(func(r store.Character) string { return r.GlobalID }),
		places:     newTable(func(r store.Place) string { return r.GlobalID }),
		themes:     newTable(func(r store.Theme) string { return r.ID }),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ClearAllData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources.reset()
	s.events.reset()
	s.characters.reset()
	s.places.reset()
	s.themes.reset()
	s.logger.Debug("store cleared")
}

func (s *Store) Sources() []store.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sources.list(cloneSource)
}

func (s *Store) Events() []store.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events.list(cloneEvent)
}

func (s *Store) Characters() []store.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.characters.list(cloneCharacter)
}

func (s *Store) Places() []store.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.places.list(clonePlace)
}

func (s *Store) Themes() []store.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.themes.list(cloneTheme)
}

func (s *Store) Source(id string) (store.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.sources.get(id)
	return cloneSource(row), ok
}

func (s *Store) Event(globalID string) (store.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.events.get(globalID)
	if !ok {
		return store.Event{}, false
	}
	return cloneEvent(row), true
}

func (s *Store) Character(globalID string) (store.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.characters.get(globalID)
	return cloneCharacter(row), ok
}

func (s *Store) Place(globalID string) (store.Place, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.places.get(globalID)
	if !ok {
		return store.Place{}, false
	}
	return clonePlace(row), true
}

func (s *Store) Theme(id string) (store.Theme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.themes.get(id)
	return cloneTheme(row), ok
}

// reject logs a refused mutation and hands the error back to the caller.
func (s *Store) reject(op string, err error, keyvals ...any) error {
	s.logger.Warn(op+" rejected", append(keyvals, "err", err)...)
	return err
}

// stripReferences removes event links to characters and places that no
// longer exist.
func (s *Store) stripReferences(characters, places map[string]struct{}) {
	if len(characters) == 0 && len(places) == 0 {
		return
	}
	s.events.each(func(e *store.Event) {
		if len(characters) > 0 {
			kept := e.CharacterIDs[:0:0]
			for _, id := range e.CharacterIDs {
				if _, gone := characters[id]; !gone {
					kept = append(kept, id)
				}
			}
			e.CharacterIDs = kept
		}
		if e.PlaceID != nil {
			if _, gone := places[*e.PlaceID]; gone {
				e.PlaceID = nil
			}
		}
	})
}

// qualifyReferences rewrites references to characters and places of the
// event's own source from local to global form, matching what ingestion
// stores.
func (s *Store) qualifyReferences(e *store.Event) {
	characters := make(map[string]struct{})
	s.characters.each(func(c *store.Character) {
		if c.SourceID == e.SourceID {
			characters[c.ID] = struct{}{}
		}
	})
	places := make(map[string]struct{})
	s.places.each(func(p *store.Place) {
		if p.SourceID == e.SourceID {
			places[p.ID] = struct{}{}
		}
	})

	refs := make([]string, 0, len(e.CharacterIDs))
	for _, ref := range e.CharacterIDs {
		refs = append(refs, qualify(e.SourceID, ref, characters))
	}
	e.CharacterIDs = refs
	if e.PlaceID != nil {
		ref := qualify(e.SourceID, *e.PlaceID, places)
		e.PlaceID = &ref
	}
}

// resolveLocalReference points events of sourceID that name localID in local
// form at the newly added entity's global id.
func (s *Store) resolveLocalReference(sourceID, localID string, place bool) {
	globalID := store.GlobalID(sourceID, localID)
	s.events.each(func(e *store.Event) {
		if e.SourceID != sourceID {
			return
		}
		if place {
			if e.PlaceID != nil && *e.PlaceID == localID {
				e.PlaceID = store.StringPtr(globalID)
			}
			return
		}
		if !slices.Contains(e.CharacterIDs, localID) {
			return
		}
		refs := make([]string, len(e.CharacterIDs))
		for i, ref := range e.CharacterIDs {
			if ref == localID {
				ref = globalID
			}
			refs[i] = ref
		}
		e.CharacterIDs = refs
	})
}
