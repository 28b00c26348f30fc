package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrSourceNotFound = fmt.Errorf("source %w", ErrNotFound)
	ErrDuplicateID    = errors.New("duplicate id")
	ErrMalformedPatch = errors.New("malformed patch")
	ErrInvalidInput   = errors.New("invalid input")
)

// Store owns the five entity tables. Every mutation either succeeds fully or
// leaves the tables untouched. Read accessors return copies.
type Store interface {
	AddSource(info Source) (string, error)
	UpdateSourceInfo(id string, patch Patch) error
	RemoveSource(id string) error
	ReplaceSource(doc SourceDocument) error

	AddEventToSource(sourceID string, e Event) (string, error)
	UpdateEvent(globalID string, patch Patch) error
	DeleteEvent(globalID string) error

	AddCharacterToSource(sourceID string, c Character) (string, error)
	UpdateCharacter(globalID string, patch Patch) error
	DeleteCharacter(globalID string) error

	AddPlaceToSource(sourceID string, p Place) (string, error)
	UpdatePlace(globalID string, patch Patch) error
	DeletePlace(globalID string) error

	AddTheme(t Theme) (string, error)
	UpdateTheme(id string, patch Patch) error
	DeleteTheme(id string) error

	Sources() []Source
	Events() []Event
	Characters() []Character
	Places() []Place
	Themes() []Theme

	Source(id string) (Source, bool)
	Event(globalID string) (Event, bool)
	Character(globalID string) (Character, bool)
	Place(globalID string) (Place, bool)
	Theme(id string) (Theme, bool)

	ClearAllData()
}

const globalIDSeparator = "_"

// GlobalID derives the store-wide key of an entity owned by a source.
func GlobalID(sourceID, localID string) string {
	return sourceID + globalIDSeparator + localID
}

// LocalID strips the source prefix from a global id. It reports false when
// the id does not belong to the source.
func LocalID(sourceID, globalID string) (string, bool) {
	prefix := sourceID + globalIDSeparator
	if !strings.HasPrefix(globalID, prefix) {
		return "", false
	}
	return strings.TrimPrefix(globalID, prefix), true
}

func CountAll(s Store) Counts {
	return Counts{
		Sources:    len(s.Sources()),
		Events:     len(s.Events()),
		Characters: len(s.Characters()),
		Places:     len(s.Places()),
		Themes:     len(s.Themes()),
	}
}

// EventsBySource returns the events owned by one source, in store order.
func EventsBySource(s Store, sourceID string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	return out
}

func StringPtr(s string) *string {
	return &s
}

func FloatPtr(f float64) *float64 {
	return &f
}
