package profile

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"chronomap/internal/parser"
	"chronomap/internal/store"
	"chronomap/internal/store/memory"
)

func buildStore(t *testing.T) *memory.Store {
	t.Helper()
	db := memory.New()
	mustAdd := func(_ string, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	mustAdd(db.AddSource(store.Source{ID: "s1", Name: "Chronicle", Author: "Caminha"}))
	mustAdd(db.AddSource(store.Source{}))
	generated := db.Sources()[1].ID

	mustAdd(db.AddTheme(store.Theme{ID: "t1", Name: "War", Color: "#ff0000"}))
	mustAdd(db.AddTheme(store.Theme{ID: "t2", Name: "Trade"}))
	mustAdd(db.AddCharacterToSource("s1", store.Character{ID: "c1", Name: "Cabral"}))
	mustAdd(db.AddCharacterToSource(generated, store.Character{Name: "Anonymous"}))
	mustAdd(db.AddPlaceToSource("s1", store.Place{ID: "p1", Name: "Bahia", Longitude: store.FloatPtr(-38.5), Latitude: store.FloatPtr(-12.9)}))
	mustAdd(db.AddEventToSource("s1", store.Event{
		ID:              "e1",
		Title:           "Landing",
		StartDate:       "1500-04-22",
		CharacterIDs:    []string{"s1_c1"},
		PlaceID:         store.StringPtr("s1_p1"),
		MainThemeID:     store.StringPtr("t1"),
		SecondaryTagIDs: []string{"t2"},
		ArticleFull:     store.Article{Current: "now", Previous: "then"},
	}))
	mustAdd(db.AddEventToSource(generated, store.Event{
		Title:        "Cross reference",
		DateType:     store.DatePeriod,
		StartDate:    "1530-01-01",
		EndDate:      store.StringPtr("1532-01-01"),
		CharacterIDs: []string{"s1_c1"},
	}))
	return db
}

func eventsByID(events []store.Event) map[string]store.Event {
	out := make(map[string]store.Event, len(events))
	for _, e := range events {
		out[e.GlobalID] = e
	}
	return out
}

func TestConstruct(t *testing.T) {
	db := buildStore(t)
	p := Construct(db, "", map[string]any{"timeWindowYears": 10})

	if p.ProfileName != DefaultName {
		t.Fatalf("expected default name, got %q", p.ProfileName)
	}
	if p.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected schema version %q", p.SchemaVersion)
	}
	if len(p.EmbeddedSourceData) != 2 || len(p.ThemesGlobal) != 2 {
		t.Fatalf("unexpected profile shape: %d sources, %d themes", len(p.EmbeddedSourceData), len(p.ThemesGlobal))
	}

	first := p.EmbeddedSourceData[0]
	if first.SourceInfo.ID != "s1" {
		t.Fatalf("expected s1 first, got %q", first.SourceInfo.ID)
	}
	event := first.Events[0]
	if event.GlobalID != "" || event.SourceID != "" {
		t.Fatalf("runtime ids must be stripped, got %+v", event)
	}
	if !reflect.DeepEqual(event.CharacterIDs, []string{"c1"}) || *event.PlaceID != "p1" {
		t.Fatalf("same-source references must be local, got %v %v", event.CharacterIDs, *event.PlaceID)
	}
	cross := p.EmbeddedSourceData[1].Events[0]
	if !reflect.DeepEqual(cross.CharacterIDs, []string{"s1_c1"}) {
		t.Fatalf("cross-source references must stay global, got %v", cross.CharacterIDs)
	}

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "globalId") {
		t.Fatalf("serialized profile leaked globalId")
	}
}

func TestRoundTrip(t *testing.T) {
	db := buildStore(t)
	beforeCounts := store.CountAll(db)
	beforeEvents := eventsByID(db.Events())
	beforeSources := db.Sources()
	beforeThemes := db.Themes()

	settings := map[string]any{"referenceDate": "1500-04-22", "activeSourceIds": []any{"s1"}}
	data, err := Marshal(Construct(db, "p", settings))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	restored := memory.New()
	if _, err := restored.AddSource(store.Source{ID: "leftover"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	got, err := Load(restored, parsed)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UISettings["referenceDate"] != "1500-04-22" {
		t.Fatalf("ui settings lost: %+v", got.UISettings)
	}

	if after := store.CountAll(restored); after != beforeCounts {
		t.Fatalf("counts differ: before %+v after %+v", beforeCounts, after)
	}
	if !reflect.DeepEqual(eventsByID(restored.Events()), beforeEvents) {
		t.Fatalf("events differ after round trip")
	}
	if !reflect.DeepEqual(restored.Sources(), beforeSources) {
		t.Fatalf("sources differ: %+v vs %+v", restored.Sources(), beforeSources)
	}
	if !reflect.DeepEqual(restored.Themes(), beforeThemes) {
		t.Fatalf("themes differ")
	}
	for id := range beforeEvents {
		if _, ok := restored.Event(id); !ok {
			t.Fatalf("global id %s not resolvable after restore", id)
		}
	}
	for _, c := range db.Characters() {
		if _, ok := restored.Character(c.GlobalID); !ok {
			t.Fatalf("character %s not resolvable after restore", c.GlobalID)
		}
	}

	t.Run("local references added interactively", func(t *testing.T) {
		db := memory.New()
		if _, err := db.AddSource(store.Source{ID: "s1"}); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if _, err := db.AddCharacterToSource("s1", store.Character{ID: "c1"}); err != nil {
			t.Fatalf("setup: %v", err)
		}
		early, err := db.AddEventToSource("s1", store.Event{ID: "e1", StartDate: "1500-01-01", CharacterIDs: []string{"c1"}})
		if err != nil {
			t.Fatalf("add event: %v", err)
		}
		late, err := db.AddEventToSource("s1", store.Event{ID: "e2", StartDate: "1501-01-01", PlaceID: store.StringPtr("p1")})
		if err != nil {
			t.Fatalf("add event: %v", err)
		}
		if _, err := db.AddPlaceToSource("s1", store.Place{ID: "p1"}); err != nil {
			t.Fatalf("setup: %v", err)
		}
		if row, _ := db.Event(early); !reflect.DeepEqual(row.CharacterIDs, []string{"s1_c1"}) {
			t.Fatalf("expected qualified character reference, got %v", row.CharacterIDs)
		}
		if row, _ := db.Event(late); *row.PlaceID != "s1_p1" {
			t.Fatalf("expected qualified place reference, got %v", *row.PlaceID)
		}

		before := eventsByID(db.Events())
		restored := memory.New()
		if _, err := Load(restored, Construct(db, "p", nil)); err != nil {
			t.Fatalf("load: %v", err)
		}
		if !reflect.DeepEqual(eventsByID(restored.Events()), before) {
			t.Fatalf("events differ after round trip: %+v vs %+v", restored.Events(), before)
		}
	})
}

func TestLoadRejectsWithoutMutation(t *testing.T) {
	db := buildStore(t)
	before := store.CountAll(db)

	bad := &Profile{
		ProfileName: "bad",
		EmbeddedSourceData: []store.SourceDocument{
			{SourceInfo: &store.Source{ID: "ok"}},
			{Events: []store.Event{{ID: "e1"}}},
		},
	}
	_, err := Load(db, bad)
	if !errors.Is(err, ErrMalformedProfile) || !errors.Is(err, parser.ErrMissingSourceInfo) {
		t.Fatalf("expected malformed profile, got %v", err)
	}
	if after := store.CountAll(db); after != before {
		t.Fatalf("store mutated by failed load: %+v vs %+v", before, after)
	}

	dupThemes := &Profile{
		ProfileName:        "dup",
		EmbeddedSourceData: []store.SourceDocument{},
		ThemesGlobal:       []store.Theme{{ID: "t1"}, {ID: "t1"}},
	}
	if _, err := Load(db, dupThemes); !errors.Is(err, store.ErrDuplicateID) {
		t.Fatalf("expected duplicate theme error, got %v", err)
	}
	if after := store.CountAll(db); after != before {
		t.Fatalf("store mutated by failed load")
	}

	badDate := &Profile{
		ProfileName: "date",
		EmbeddedSourceData: []store.SourceDocument{
			{SourceInfo: &store.Source{ID: "x"}, Events: []store.Event{{ID: "e1", DateType: "epoch"}}},
		},
	}
	if _, err := Load(db, badDate); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if after := store.CountAll(db); after != before {
		t.Fatalf("store mutated by failed load")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: `{"profile_name":"p","schema_version":"1.0","embedded_source_data":[]}`},
		{name: "missing name", input: `{"embedded_source_data":[]}`, wantErr: true},
		{name: "missing sources", input: `{"profile_name":"p"}`, wantErr: true},
		{name: "not json", input: `profile`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedProfile) {
					t.Fatalf("expected ErrMalformedProfile, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if p.UISettings == nil {
				t.Fatalf("expected ui settings map")
			}
		})
	}
}
