package validate

import (
	"testing"

	"chronomap/internal/store"
	"chronomap/internal/store/memory"
)

type mockReader struct {
	sources    []store.Source
	events     []store.Event
	characters []store.Character
	places     []store.Place
	themes     []store.Theme
}

func (m *mockReader) Sources() []store.Source       { return m.sources }
func (m *mockReader) Events() []store.Event         { return m.events }
func (m *mockReader) Characters() []store.Character { return m.characters }
func (m *mockReader) Places() []store.Place         { return m.places }
func (m *mockReader) Themes() []store.Theme         { return m.themes }

func TestRun_CleanStore(t *testing.T) {
	db := memory.New()
	doc := store.SourceDocument{
		SourceInfo: &store.Source{ID: "s1"},
		Events: []store.Event{{
			ID:           "e1",
			StartDate:    "1500-04-22",
			CharacterIDs: []string{"c1"},
			PlaceID:      store.StringPtr("p1"),
			MainThemeID:  store.StringPtr("t1"),
		}},
		Characters: []store.Character{{ID: "c1"}},
		Places:     []store.Place{{ID: "p1", Longitude: store.FloatPtr(-38.5), Latitude: store.FloatPtr(-12.9)}},
		Themes:     []store.Theme{{ID: "t1", Name: "Discovery"}},
	}
	if err := db.ReplaceSource(doc); err != nil {
		t.Fatalf("setup: %v", err)
	}

	report := Run(db)
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if report.HasErrors() {
		t.Fatalf("clean store reported errors")
	}
}

func TestRun_DanglingReferences(t *testing.T) {
	reader := &mockReader{
		sources: []store.Source{{ID: "s1"}},
		events: []store.Event{{
			ID:              "e1",
			GlobalID:        "s1_e1",
			SourceID:        "s1",
			StartDate:       "1500-01-01",
			CharacterIDs:    []string{"s1_ghost"},
			PlaceID:         store.StringPtr("s1_nowhere"),
			MainThemeID:     store.StringPtr("missing"),
			SecondaryTagIDs: []string{"also_missing"},
		}},
	}

	report := Run(reader)
	for _, code := range []string{codeDanglingCharacter, codeDanglingPlace, codeDanglingTheme} {
		if !hasIssueCode(report.Issues, code) {
			t.Fatalf("expected %s issue, got %+v", code, report.Issues)
		}
	}
	if got := report.Count(SeverityError); got != 4 {
		t.Fatalf("expected 4 errors, got %d", got)
	}
	for _, issue := range report.Issues {
		if issue.Entity != "s1_e1" || issue.Source != "s1" {
			t.Fatalf("issue not attributed to the event: %+v", issue)
		}
	}
}

func TestRun_Dates(t *testing.T) {
	tests := []struct {
		name  string
		event store.Event
		code  string
	}{
		{name: "bad start", event: store.Event{StartDate: "someday"}, code: codeInvalidDate},
		{name: "period without end", event: store.Event{StartDate: "1500-01-01", DateType: store.DatePeriod}, code: codeMissingEndDate},
		{name: "bad end", event: store.Event{StartDate: "1500-01-01", DateType: store.DatePeriod, EndDate: store.StringPtr("later")}, code: codeInvalidDate},
		{name: "end before start", event: store.Event{StartDate: "1500-01-01", DateType: store.DatePeriod, EndDate: store.StringPtr("1490-01-01")}, code: codeEndBeforeStart},
		{name: "bad latitude", event: store.Event{StartDate: "1500-01-01", Longitude: store.FloatPtr(10), Latitude: store.FloatPtr(120)}, code: codeInvalidCoordinate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.event.ID, tt.event.GlobalID, tt.event.SourceID = "e1", "s1_e1", "s1"
			report := Run(&mockReader{sources: []store.Source{{ID: "s1"}}, events: []store.Event{tt.event}})
			if !hasIssueCode(report.Issues, tt.code) {
				t.Fatalf("expected %s, got %+v", tt.code, report.Issues)
			}
		})
	}
}

func TestRun_Warnings(t *testing.T) {
	reader := &mockReader{
		sources:    []store.Source{{ID: "s1"}, {ID: "empty"}},
		events:     []store.Event{{ID: "e1", GlobalID: "s1_e1", SourceID: "s1", StartDate: "1500-01-01"}},
		characters: []store.Character{{ID: "c1", GlobalID: "s1_c1", SourceID: "s1"}},
		places:     []store.Place{{ID: "p1", GlobalID: "s1_p1", SourceID: "s1"}},
	}

	report := Run(reader)
	for _, code := range []string{codeUnusedCharacter, codeUnusedPlace, codeEmptySource} {
		if !hasIssueCode(report.Issues, code) {
			t.Fatalf("expected %s warning, got %+v", code, report.Issues)
		}
	}
	if report.HasErrors() {
		t.Fatalf("warnings must not count as errors: %+v", report.Issues)
	}
	if got := report.Count(SeverityWarn); got != 3 {
		t.Fatalf("expected 3 warnings, got %d", got)
	}
}

func hasIssueCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
