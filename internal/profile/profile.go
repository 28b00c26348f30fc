// Package profile snapshots a whole store, plus the caller's UI settings,
// into one portable document and restores it again.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chronomap/internal/ingest"
	"chronomap/internal/parser"
	"chronomap/internal/store"
	"chronomap/internal/store/memory"
)

const (
	SchemaVersion = "1.0"
	DefaultName   = "Untitled Profile"
)

var ErrMalformedProfile = errors.New("malformed profile")

type Profile struct {
	ProfileName        string                 `json:"profile_name"`
	SchemaVersion      string                 `json:"schema_version"`
	UISettings         map[string]any         `json:"ui_settings"`
	EmbeddedSourceData []store.SourceDocument `json:"embedded_source_data"`
	ThemesGlobal       []store.Theme          `json:"themes_global"`
}

// Construct captures every source with its entities in local-id form, so
// loading the profile regenerates the same global ids.
func Construct(db store.Store, name string, uiSettings map[string]any) *Profile {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	if uiSettings == nil {
		uiSettings = map[string]any{}
	}

	events := db.Events()
	characters := db.Characters()
	places := db.Places()

	p := &Profile{
		ProfileName:        name,
		SchemaVersion:      SchemaVersion,
		UISettings:         uiSettings,
		EmbeddedSourceData: []store.SourceDocument{},
		ThemesGlobal:       db.Themes(),
	}

	for _, src := range db.Sources() {
		info := src
		doc := store.SourceDocument{
			SourceInfo: &info,
			Events:     []store.Event{},
			Characters: []store.Character{},
			Places:     []store.Place{},
		}
		ownCharacters := make(map[string]struct{})
		ownPlaces := make(map[string]struct{})

		for _, c := range characters {
			if c.SourceID != src.ID {
				continue
			}
			ownCharacters[c.GlobalID] = struct{}{}
			c.GlobalID, c.SourceID = "", ""
			doc.Characters = append(doc.Characters, c)
		}
		for _, pl := range places {
			if pl.SourceID != src.ID {
				continue
			}
			ownPlaces[pl.GlobalID] = struct{}{}
			pl.GlobalID, pl.SourceID = "", ""
			doc.Places = append(doc.Places, pl)
		}
		for _, e := range events {
			if e.SourceID != src.ID {
				continue
			}
			refs := make([]string, 0, len(e.CharacterIDs))
			for _, ref := range e.CharacterIDs {
				refs = append(refs, localize(src.ID, ref, ownCharacters))
			}
			e.CharacterIDs = refs
			if e.PlaceID != nil {
				ref := localize(src.ID, *e.PlaceID, ownPlaces)
				e.PlaceID = &ref
			}
			e.GlobalID, e.SourceID = "", ""
			doc.Events = append(doc.Events, e)
		}

		p.EmbeddedSourceData = append(p.EmbeddedSourceData, doc)
	}

	return p
}

// localize turns a reference to an entity of the same source back into its
// local id.
func localize(sourceID, ref string, own map[string]struct{}) string {
	if _, ok := own[ref]; !ok {
		return ref
	}
	local, _ := store.LocalID(sourceID, ref)
	return local
}

// Load replaces the contents of db with the profile. Every embedded source is
// staged against a scratch store first, so a bad profile leaves db as it was.
func Load(db store.Store, p *Profile) (*Profile, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil profile", ErrMalformedProfile)
	}

	payloads := make([][]byte, len(p.EmbeddedSourceData))
	names := make([]string, len(p.EmbeddedSourceData))
	for i := range p.EmbeddedSourceData {
		doc := p.EmbeddedSourceData[i]
		if err := parser.Validate(&doc); err != nil {
			return nil, fmt.Errorf("%w: embedded source %d: %w", ErrMalformedProfile, i, err)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: embedded source %d: %v", ErrMalformedProfile, i, err)
		}
		payloads[i] = data
		names[i] = fmt.Sprintf("embedded source %s", doc.SourceInfo.ID)
	}

	if err := restore(memory.New(), p.ThemesGlobal, payloads, names); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProfile, err)
	}

	db.ClearAllData()
	if err := restore(db, p.ThemesGlobal, payloads, names); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedProfile, err)
	}
	return p, nil
}

func restore(db store.Store, themes []store.Theme, payloads [][]byte, names []string) error {
	for _, theme := range themes {
		if _, err := db.AddTheme(theme); err != nil {
			return fmt.Errorf("restoring theme %s: %w", theme.ID, err)
		}
	}
	for i, data := range payloads {
		if _, err := ingest.LoadDocument(db, data, names[i]); err != nil {
			return err
		}
	}
	return nil
}

func Parse(content []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	if strings.TrimSpace(p.ProfileName) == "" {
		return nil, fmt.Errorf("%w: missing profile_name", ErrMalformedProfile)
	}
	if p.EmbeddedSourceData == nil {
		return nil, fmt.Errorf("%w: missing embedded_source_data", ErrMalformedProfile)
	}
	if p.UISettings == nil {
		p.UISettings = map[string]any{}
	}
	return &p, nil
}

func Marshal(p *Profile) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
