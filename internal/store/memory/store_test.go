package memory

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"chronomap/internal/store"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	if _, err := s.AddSource(store.Source{ID: "s1", Name: "Chronicle"}); err != nil {
		t.Fatalf("add source: %v", err)
	}
	return s
}

func TestClearAllData(t *testing.T) {
	s := seededStore(t)
	if _, err := s.AddEventToSource("s1", store.Event{ID: "e1", Title: "Founding", StartDate: "1500-01-01"}); err != nil {
		t.Fatalf("add event: %v", err)
	}
	if _, err := s.AddTheme(store.Theme{ID: "t1", Name: "War"}); err != nil {
		t.Fatalf("add theme: %v", err)
	}

	s.ClearAllData()

	if got := store.CountAll(s); got != (store.Counts{}) {
		t.Fatalf("expected empty store, got %+v", got)
	}
}

func TestAddSource(t *testing.T) {
	t.Run("caller supplied id", func(t *testing.T) {
		s := New()
		id, err := s.AddSource(store.Source{ID: "s1", Name: "Chronicle"})
		if err != nil {
			t.Fatalf("add source: %v", err)
		}
		if id != "s1" {
			t.Fatalf("expected s1, got %q", id)
		}
		row, ok := s.Source("s1")
		if !ok {
			t.Fatalf("expected source to exist")
		}
		if row.Name != "Chronicle" {
			t.Fatalf("unexpected name %q", row.Name)
		}
		if !strings.HasPrefix(row.Color, "#") || len(row.Color) != 7 {
			t.Fatalf("expected default hex color, got %q", row.Color)
		}
	})

	t.Run("generated id", func(t *testing.T) {
		s := New()
		id, err := s.AddSource(store.Source{})
		if err != nil {
			t.Fatalf("add source: %v", err)
		}
		if !strings.HasPrefix(id, "inmemory_") {
			t.Fatalf("expected inmemory_ prefix, got %q", id)
		}
		row, _ := s.Source(id)
		if row.Name != "Source "+id {
			t.Fatalf("expected placeholder name, got %q", row.Name)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := seededStore(t)
		_, err := s.AddSource(store.Source{ID: "s1"})
		if !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if len(s.Sources()) != 1 {
			t.Fatalf("expected one source, got %d", len(s.Sources()))
		}
	})
}

func TestUpdateSourceInfo(t *testing.T) {
	s := seededStore(t)

	if err := s.UpdateSourceInfo("s1", store.Patch{"name": "New Name", "id": "hijack"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, ok := s.Source("s1")
	if !ok {
		t.Fatalf("source id must not change")
	}
	if row.Name != "New Name" {
		t.Fatalf("expected new name, got %q", row.Name)
	}
	if _, ok := s.Source("hijack"); ok {
		t.Fatalf("patch must not rename the source")
	}

	err := s.UpdateSourceInfo("missing", store.Patch{"name": "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveSourceCascades(t *testing.T) {
	s := seededStore(t)
	if _, err := s.AddSource(store.Source{ID: "s2"}); err != nil {
		t.Fatalf("add source: %v", err)
	}
	charID, _ := s.AddCharacterToSource("s1", store.Character{ID: "c1", Name: "Cabral"})
	placeID, _ := s.AddPlaceToSource("s1", store.Place{ID: "p1", Name: "Porto Seguro"})
	if _, err := s.AddEventToSource("s1", store.Event{ID: "e1", StartDate: "1500-04-22"}); err != nil {
		t.Fatalf("add event: %v", err)
	}
	other, err := s.AddEventToSource("s2", store.Event{
		ID:           "e9",
		StartDate:    "1501-01-01",
		CharacterIDs: []string{charID},
		PlaceID:      store.StringPtr(placeID),
	})
	if err != nil {
		t.Fatalf("add event: %v", err)
	}
	if _, err := s.AddTheme(store.Theme{ID: "t1"}); err != nil {
		t.Fatalf("add theme: %v", err)
	}

	if err := s.RemoveSource("s1"); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	counts := store.CountAll(s)
	if counts.Sources != 1 || counts.Events != 1 || counts.Characters != 0 || counts.Places != 0 {
		t.Fatalf("unexpected counts after removal: %+v", counts)
	}
	if counts.Themes != 1 {
		t.Fatalf("themes must survive source removal")
	}
	survivor, _ := s.Event(other)
	if len(survivor.CharacterIDs) != 0 || survivor.PlaceID != nil {
		t.Fatalf("expected references to removed entities stripped, got %+v", survivor)
	}

	if err := s.RemoveSource("s1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second removal, got %v", err)
	}
}

func TestAddEventToSource(t *testing.T) {
	t.Run("global id composition", func(t *testing.T) {
		s := seededStore(t)
		globalID, err := s.AddEventToSource("s1", store.Event{ID: "e1", Title: "Founding", StartDate: "1500-01-01"})
		if err != nil {
			t.Fatalf("add event: %v", err)
		}
		if globalID != "s1_e1" {
			t.Fatalf("expected s1_e1, got %q", globalID)
		}
		row, ok := s.Event("s1_e1")
		if !ok {
			t.Fatalf("expected event lookup to succeed")
		}
		if row.SourceID != "s1" {
			t.Fatalf("expected sourceId s1, got %q", row.SourceID)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		s := seededStore(t)
		globalID, err := s.AddEventToSource("s1", store.Event{StartDate: "1500-01-01", EndDate: store.StringPtr("1510-01-01")})
		if err != nil {
			t.Fatalf("add event: %v", err)
		}
		if !strings.HasPrefix(globalID, "s1_evt_") {
			t.Fatalf("expected generated local id, got %q", globalID)
		}
		row, _ := s.Event(globalID)
		if row.DateType != store.DateSingle {
			t.Fatalf("expected single date type, got %q", row.DateType)
		}
		if row.EndDate != nil {
			t.Fatalf("end_date must be null for single events")
		}
		if row.CharacterIDs == nil || row.SecondaryTagIDs == nil {
			t.Fatalf("expected empty slices, got nil")
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		s := New()
		_, err := s.AddEventToSource("nope", store.Event{ID: "e1"})
		if !errors.Is(err, store.ErrSourceNotFound) || !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrSourceNotFound, got %v", err)
		}
	})

	t.Run("duplicate local id", func(t *testing.T) {
		s := seededStore(t)
		if _, err := s.AddEventToSource("s1", store.Event{ID: "e1"}); err != nil {
			t.Fatalf("add event: %v", err)
		}
		_, err := s.AddEventToSource("s1", store.Event{ID: "e1"})
		if !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if len(s.Events()) != 1 {
			t.Fatalf("expected one event, got %d", len(s.Events()))
		}
	})

	t.Run("unknown date type", func(t *testing.T) {
		s := seededStore(t)
		_, err := s.AddEventToSource("s1", store.Event{ID: "e1", DateType: "era"})
		if !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if len(s.Events()) != 0 {
			t.Fatalf("rejected event must not be stored")
		}
	})
}

func TestUpdateEvent(t *testing.T) {
	s := seededStore(t)
	globalID, err := s.AddEventToSource("s1", store.Event{
		ID:          "e1",
		Title:       "Old",
		DateType:    store.DatePeriod,
		StartDate:   "1500-01-01",
		EndDate:     store.StringPtr("1510-01-01"),
		ArticleFull: store.Article{Current: "draft", Previous: "older"},
	})
	if err != nil {
		t.Fatalf("add event: %v", err)
	}

	err = s.UpdateEvent(globalID, store.Patch{
		"title":        "New Title",
		"sourceId":     "s2",
		"globalId":     "s2_e1",
		"article_full": map[string]any{"current": "final"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	row, ok := s.Event(globalID)
	if !ok {
		t.Fatalf("event must keep its global id")
	}
	if row.Title != "New Title" || row.SourceID != "s1" {
		t.Fatalf("unexpected row after update: %+v", row)
	}
	want := store.Article{Current: "final", Previous: "older"}
	if row.ArticleFull != want {
		t.Fatalf("expected field-wise article merge %+v, got %+v", want, row.ArticleFull)
	}

	if err := s.UpdateEvent(globalID, store.Patch{"date_type": "single"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, _ = s.Event(globalID)
	if row.EndDate != nil {
		t.Fatalf("end_date must be cleared when the event stops being a period")
	}

	err = s.UpdateEvent(globalID, store.Patch{"characters_ids": "not-a-list"})
	if !errors.Is(err, store.ErrMalformedPatch) {
		t.Fatalf("expected ErrMalformedPatch, got %v", err)
	}
	if after, _ := s.Event(globalID); after.Title != "New Title" {
		t.Fatalf("failed patch must leave the row unchanged")
	}

	if err := s.UpdateEvent("s1_missing", store.Patch{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	s := seededStore(t)
	globalID, _ := s.AddEventToSource("s1", store.Event{ID: "e1"})
	if err := s.DeleteEvent(globalID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Events()) != 0 {
		t.Fatalf("expected no events")
	}
	if err := s.DeleteEvent(globalID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCharacterStripsReferences(t *testing.T) {
	s := seededStore(t)
	charID, err := s.AddCharacterToSource("s1", store.Character{ID: "c1", Name: "Cabral"})
	if err != nil {
		t.Fatalf("add character: %v", err)
	}
	keep, _ := s.AddCharacterToSource("s1", store.Character{ID: "c2", Name: "Caminha"})
	eventID, _ := s.AddEventToSource("s1", store.Event{ID: "e1", CharacterIDs: []string{charID, keep}})

	if err := s.DeleteCharacter(charID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Characters()) != 1 {
		t.Fatalf("expected table to shrink by one, got %d", len(s.Characters()))
	}
	row, _ := s.Event(eventID)
	if !reflect.DeepEqual(row.CharacterIDs, []string{keep}) {
		t.Fatalf("unexpected characters_ids %v", row.CharacterIDs)
	}
}

func TestDeletePlaceNullsReferences(t *testing.T) {
	s := seededStore(t)
	placeID, _ := s.AddPlaceToSource("s1", store.Place{ID: "p1", Name: "Bahia"})
	eventID, _ := s.AddEventToSource("s1", store.Event{
		ID:        "e1",
		PlaceID:   store.StringPtr(placeID),
		Longitude: store.FloatPtr(-38.5),
		Latitude:  store.FloatPtr(-12.9),
	})

	if err := s.DeletePlace(placeID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	row, _ := s.Event(eventID)
	if row.PlaceID != nil {
		t.Fatalf("expected place_id nulled, got %v", *row.PlaceID)
	}
	if row.Longitude == nil || *row.Longitude != -38.5 {
		t.Fatalf("event coordinates must be untouched")
	}
}

func TestDeleteThemeCascades(t *testing.T) {
	s := seededStore(t)
	if _, err := s.AddSource(store.Source{ID: "s2"}); err != nil {
		t.Fatalf("add source: %v", err)
	}
	if _, err := s.AddTheme(store.Theme{ID: "t1", Name: "War"}); err != nil {
		t.Fatalf("add theme: %v", err)
	}
	if _, err := s.AddTheme(store.Theme{ID: "t1"}); !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	a, _ := s.AddEventToSource("s1", store.Event{ID: "e1", MainThemeID: store.StringPtr("t1"), SecondaryTagIDs: []string{"t1", "t2"}})
	b, _ := s.AddEventToSource("s2", store.Event{ID: "e1", SecondaryTagIDs: []string{"t1"}})

	if err := s.DeleteTheme("t1"); err != nil {
		t.Fatalf("delete theme: %v", err)
	}
	if len(s.Themes()) != 0 {
		t.Fatalf("expected theme removed")
	}
	first, _ := s.Event(a)
	if first.MainThemeID != nil {
		t.Fatalf("expected main_theme_id nulled")
	}
	if !reflect.DeepEqual(first.SecondaryTagIDs, []string{"t2"}) {
		t.Fatalf("unexpected secondary tags %v", first.SecondaryTagIDs)
	}
	second, _ := s.Event(b)
	if len(second.SecondaryTagIDs) != 0 {
		t.Fatalf("expected tag stripped across sources, got %v", second.SecondaryTagIDs)
	}
	if err := s.DeleteTheme("t1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := seededStore(t)
	globalID, _ := s.AddEventToSource("s1", store.Event{ID: "e1", CharacterIDs: []string{"s1_c1"}})

	events := s.Events()
	events[0].Title = "mutated"
	events[0].CharacterIDs[0] = "mutated"

	row, _ := s.Event(globalID)
	if row.Title == "mutated" || row.CharacterIDs[0] == "mutated" {
		t.Fatalf("accessor leaked a reference into the store")
	}
}

func TestReplaceSource(t *testing.T) {
	doc := store.SourceDocument{
		SourceInfo: &store.Source{ID: "s1", Name: "Chronicle"},
		Events: []store.Event{{
			ID:           "e1",
			StartDate:    "1500-04-22",
			CharacterIDs: []string{"c1", "other_c9"},
			PlaceID:      store.StringPtr("p1"),
		}},
		Characters: []store.Character{{ID: "c1", Name: "Cabral"}},
		Places:     []store.Place{{ID: "p1", Name: "Porto Seguro"}},
		Themes:     []store.Theme{{ID: "t1", Name: "Discovery", Color: "#ff0000"}},
	}

	t.Run("qualifies local references", func(t *testing.T) {
		s := New()
		if err := s.ReplaceSource(doc); err != nil {
			t.Fatalf("replace: %v", err)
		}
		row, ok := s.Event("s1_e1")
		if !ok {
			t.Fatalf("expected event s1_e1")
		}
		if !reflect.DeepEqual(row.CharacterIDs, []string{"s1_c1", "other_c9"}) {
			t.Fatalf("unexpected characters_ids %v", row.CharacterIDs)
		}
		if row.PlaceID == nil || *row.PlaceID != "s1_p1" {
			t.Fatalf("expected place_id s1_p1, got %v", row.PlaceID)
		}
	})

	t.Run("reload is idempotent", func(t *testing.T) {
		s := New()
		if err := s.ReplaceSource(doc); err != nil {
			t.Fatalf("replace: %v", err)
		}
		before := s.Events()
		sourceBefore, _ := s.Source("s1")
		if err := s.ReplaceSource(doc); err != nil {
			t.Fatalf("replace: %v", err)
		}
		if !reflect.DeepEqual(before, s.Events()) {
			t.Fatalf("events changed on reload")
		}
		sourceAfter, _ := s.Source("s1")
		if sourceBefore != sourceAfter {
			t.Fatalf("source row changed on reload: %+v vs %+v", sourceBefore, sourceAfter)
		}
		if got := store.CountAll(s); got != (store.Counts{Sources: 1, Events: 1, Characters: 1, Places: 1, Themes: 1}) {
			t.Fatalf("unexpected counts %+v", got)
		}
	})

	t.Run("replace drops previous entities and keeps themes", func(t *testing.T) {
		s := New()
		if err := s.ReplaceSource(doc); err != nil {
			t.Fatalf("replace: %v", err)
		}
		next := store.SourceDocument{
			SourceInfo: &store.Source{ID: "s1"},
			Events:     []store.Event{{ID: "e2", StartDate: "1600-01-01"}},
			Themes:     []store.Theme{{ID: "t1", Name: "Renamed"}},
		}
		if err := s.ReplaceSource(next); err != nil {
			t.Fatalf("replace: %v", err)
		}
		if _, ok := s.Event("s1_e1"); ok {
			t.Fatalf("old event must be gone")
		}
		if len(s.Characters()) != 0 || len(s.Places()) != 0 {
			t.Fatalf("old characters and places must be gone")
		}
		theme, _ := s.Theme("t1")
		if theme.Name != "Discovery" {
			t.Fatalf("first theme writer must win, got %q", theme.Name)
		}
	})

	t.Run("rejects without mutation", func(t *testing.T) {
		s := New()
		bad := store.SourceDocument{
			SourceInfo: &store.Source{ID: "s1"},
			Events:     []store.Event{{ID: "e1"}, {ID: "e1"}},
		}
		if err := s.ReplaceSource(bad); !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if err := s.ReplaceSource(store.SourceDocument{}); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if got := store.CountAll(s); got != (store.Counts{}) {
			t.Fatalf("store must be untouched, got %+v", got)
		}
	})

	t.Run("rejects global id owned by another source", func(t *testing.T) {
		s := New()
		first := store.SourceDocument{
			SourceInfo: &store.Source{ID: "a"},
			Events:     []store.Event{{ID: "b_c", Title: "from a", StartDate: "1500-01-01"}},
			Characters: []store.Character{{ID: "b_d", Name: "Vaz"}},
		}
		if err := s.ReplaceSource(first); err != nil {
			t.Fatalf("replace: %v", err)
		}

		events := store.SourceDocument{
			SourceInfo: &store.Source{ID: "a_b"},
			Events:     []store.Event{{ID: "c", Title: "from a_b", StartDate: "1600-01-01"}},
		}
		if err := s.ReplaceSource(events); !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID for event, got %v", err)
		}
		characters := store.SourceDocument{
			SourceInfo: &store.Source{ID: "a_b"},
			Characters: []store.Character{{ID: "d", Name: "Other"}},
		}
		if err := s.ReplaceSource(characters); !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID for character, got %v", err)
		}

		row, ok := s.Event("a_b_c")
		if !ok || row.SourceID != "a" || row.Title != "from a" {
			t.Fatalf("source a must keep its event, got %+v", row)
		}
		if c, _ := s.Character("a_b_d"); c.SourceID != "a" || c.Name != "Vaz" {
			t.Fatalf("source a must keep its character, got %+v", c)
		}
		if _, ok := s.Source("a_b"); ok {
			t.Fatalf("rejected source must not be stored")
		}
		if got := store.CountAll(s); got.Sources != 1 || got.Events != 1 || got.Characters != 1 {
			t.Fatalf("unexpected counts %+v", got)
		}
	})
}

func TestAddCharacterAndPlaceRejectDuplicates(t *testing.T) {
	t.Run("character", func(t *testing.T) {
		s := seededStore(t)
		if _, err := s.AddCharacterToSource("s1", store.Character{ID: "c1", Name: "Cabral"}); err != nil {
			t.Fatalf("add character: %v", err)
		}
		_, err := s.AddCharacterToSource("s1", store.Character{ID: "c1", Name: "Impostor"})
		if !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if len(s.Characters()) != 1 {
			t.Fatalf("expected one character, got %d", len(s.Characters()))
		}
		if row, _ := s.Character("s1_c1"); row.Name != "Cabral" {
			t.Fatalf("original character must be untouched, got %+v", row)
		}
	})

	t.Run("place", func(t *testing.T) {
		s := seededStore(t)
		if _, err := s.AddPlaceToSource("s1", store.Place{ID: "p1", Name: "Bahia"}); err != nil {
			t.Fatalf("add place: %v", err)
		}
		_, err := s.AddPlaceToSource("s1", store.Place{ID: "p1", Name: "Elsewhere"})
		if !errors.Is(err, store.ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if len(s.Places()) != 1 {
			t.Fatalf("expected one place, got %d", len(s.Places()))
		}
		if row, _ := s.Place("s1_p1"); row.Name != "Bahia" {
			t.Fatalf("original place must be untouched, got %+v", row)
		}
	})
}

func TestLocalReferencesAreQualified(t *testing.T) {
	t.Run("on add and update", func(t *testing.T) {
		s := seededStore(t)
		if _, err := s.AddCharacterToSource("s1", store.Character{ID: "c1"}); err != nil {
			t.Fatalf("add character: %v", err)
		}
		if _, err := s.AddPlaceToSource("s1", store.Place{ID: "p1"}); err != nil {
			t.Fatalf("add place: %v", err)
		}
		eventID, err := s.AddEventToSource("s1", store.Event{ID: "e1", CharacterIDs: []string{"c1", "x_c7"}, PlaceID: store.StringPtr("p1")})
		if err != nil {
			t.Fatalf("add event: %v", err)
		}
		row, _ := s.Event(eventID)
		if !reflect.DeepEqual(row.CharacterIDs, []string{"s1_c1", "x_c7"}) || row.PlaceID == nil || *row.PlaceID != "s1_p1" {
			t.Fatalf("expected same-source references qualified, got %v %v", row.CharacterIDs, row.PlaceID)
		}

		if err := s.UpdateEvent(eventID, store.Patch{"characters_ids": []any{"c1"}, "place_id": "p1"}); err != nil {
			t.Fatalf("update: %v", err)
		}
		row, _ = s.Event(eventID)
		if !reflect.DeepEqual(row.CharacterIDs, []string{"s1_c1"}) || *row.PlaceID != "s1_p1" {
			t.Fatalf("expected patched references qualified, got %v %v", row.CharacterIDs, *row.PlaceID)
		}
	})

	t.Run("when the entity arrives later", func(t *testing.T) {
		s := seededStore(t)
		eventID, err := s.AddEventToSource("s1", store.Event{ID: "e1", CharacterIDs: []string{"c1"}, PlaceID: store.StringPtr("p1")})
		if err != nil {
			t.Fatalf("add event: %v", err)
		}
		if row, _ := s.Event(eventID); row.CharacterIDs[0] != "c1" {
			t.Fatalf("dangling reference must be kept as written, got %v", row.CharacterIDs)
		}
		if _, err := s.AddCharacterToSource("s1", store.Character{ID: "c1"}); err != nil {
			t.Fatalf("add character: %v", err)
		}
		if _, err := s.AddPlaceToSource("s1", store.Place{ID: "p1"}); err != nil {
			t.Fatalf("add place: %v", err)
		}
		row, _ := s.Event(eventID)
		if !reflect.DeepEqual(row.CharacterIDs, []string{"s1_c1"}) || *row.PlaceID != "s1_p1" {
			t.Fatalf("expected references resolved, got %v %v", row.CharacterIDs, *row.PlaceID)
		}
	})
}

func TestWithIDGenerator(t *testing.T) {
	s := New(WithIDGenerator(func() string { return "fixed" }))
	id, err := s.AddSource(store.Source{})
	if err != nil {
		t.Fatalf("add source: %v", err)
	}
	if id != "inmemory_fixed" {
		t.Fatalf("expected inmemory_fixed, got %q", id)
	}
	globalID, _ := s.AddEventToSource(id, store.Event{})
	if globalID != "inmemory_fixed_evt_fixed" {
		t.Fatalf("unexpected event id %q", globalID)
	}
}
