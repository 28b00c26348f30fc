package explorer

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"chronomap/internal/chrono"
	"chronomap/internal/config"
	"chronomap/internal/profile"
	"chronomap/internal/store"
	"chronomap/internal/store/memory"
	"chronomap/internal/timeline"
)

const colonial = `{
  "source_info": {"id": "colonial", "name": "Colonial chronicle"},
  "events": [
    {"id": "landing", "title": "Landing", "start_date": "1500-04-22", "longitude": -39.1, "latitude": -16.4, "main_theme_id": "discovery"},
    {"id": "captaincies", "title": "Captaincies", "date_type": "period", "start_date": "1534-01-01", "end_date": "1549-01-01"}
  ],
  "themes": [{"id": "discovery", "name": "Discovery", "color": "#123456"}]
}`

const empire = `{
  "source_info": {"id": "empire"},
  "events": [
    {"id": "independence", "title": "Independence", "start_date": "1822-09-07", "longitude": -46.6, "latitude": -23.5}
  ]
}`

func newSession(t *testing.T) *Session {
	t.Helper()
	now := func() time.Time { return chrono.MustParse("2024-01-01") }
	s := New(memory.New(), Options{
		Timeline:  timeline.Options{Width: 1000},
		Reference: chrono.MustParse("1510-01-01"),
		Now:       now,
	})
	for name, doc := range map[string]string{"colonial.json": colonial, "empire.json": empire} {
		if _, err := s.LoadDocument([]byte(doc), name); err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
	}
	return s
}

func TestLoadDocument_ActivatesSources(t *testing.T) {
	s := newSession(t)

	if got := s.ActiveSourceIDs(); !reflect.DeepEqual(got, []string{"colonial", "empire"}) {
		t.Fatalf("unexpected active sources %v", got)
	}
	if len(s.FilteredEvents()) != 3 {
		t.Fatalf("expected 3 filtered events")
	}
	if minYear, maxYear := s.EventYears(); minYear != 1500 || maxYear != 1822 {
		t.Fatalf("unexpected event years %d..%d", minYear, maxYear)
	}
	view := s.View()
	if view.State != "initialized" || view.Items != 3 {
		t.Fatalf("unexpected view %+v", view)
	}

	_, err := s.LoadDocument([]byte(`{"events": []}`), "broken.json")
	if err == nil {
		t.Fatalf("expected malformed document error")
	}
	if len(s.FilteredEvents()) != 3 {
		t.Fatalf("failed load changed the session")
	}
}

func TestLoads_RejectWhileBusy(t *testing.T) {
	s := newSession(t)
	s.busy.Store(true)
	defer s.busy.Store(false)

	if _, err := s.LoadDocument([]byte(empire), "empire.json"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := s.LoadProfile(&profile.Profile{ProfileName: "p"}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := s.IngestFiles(context.Background(), &config.ProjectConfig{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestIngestFiles(t *testing.T) {
	s := New(memory.New(), Options{Timeline: timeline.Options{Width: 600}})
	root := filepath.Join("..", "ingest", "testdata", "sources")
	cfg := &config.ProjectConfig{Sources: config.SourcesConfig{
		Paths:   []string{root},
		Exclude: []string{filepath.Join(root, "drafts")},
	}}

	result, err := s.IngestFiles(context.Background(), cfg)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.SourcesLoaded != 2 {
		t.Fatalf("expected 2 sources, got %d", result.SourcesLoaded)
	}
	if got := len(s.ActiveSourceIDs()); got != 2 {
		t.Fatalf("expected every source active, got %d", got)
	}
	if s.Busy() {
		t.Fatalf("busy flag left set")
	}
}

func TestLockAndExpand(t *testing.T) {
	s := newSession(t)

	if !s.SetLocked(true) {
		t.Fatalf("expected lock")
	}
	ref := chrono.MustParse("1530-03-15")
	s.SetReferenceDate(ref)
	view := s.View()
	start, end := chrono.MustParse(view.Start), chrono.MustParse(view.End)
	if mid := start.Add(end.Sub(start) / 2); mid.Sub(ref).Abs() > 24*time.Hour {
		t.Fatalf("locked timeline not centred on %s, domain %s..%s", view.Reference, view.Start, view.End)
	}
	if s.Gesture(timeline.Gesture{Kind: timeline.GestureDrag, Delta: 20}) {
		t.Fatalf("gesture accepted while locked")
	}

	s.SetExpanded(true)
	if s.Locked() {
		t.Fatalf("expanding must unlock")
	}
	if s.SetLocked(true) || s.Locked() {
		t.Fatalf("locking must be refused while expanded")
	}
	s.SetExpanded(false)
	if !s.SetLocked(true) {
		t.Fatalf("expected lock after collapsing")
	}
}

func TestJumpToPeriod(t *testing.T) {
	s := newSession(t)

	if err := s.JumpToPeriod("1800-1820"); err != nil {
		t.Fatalf("jump: %v", err)
	}
	frame := s.Frame()
	mid := frame.Start.Add(frame.End.Sub(frame.Start) / 2)
	want := chrono.YearStart(1800).Add(chrono.YearEnd(1820).Sub(chrono.YearStart(1800)) / 2)
	if mid.Sub(want).Abs() > time.Millisecond {
		t.Fatalf("expected centre %s, got %s", want, mid)
	}

	if err := s.JumpToPeriod(PeriodAll); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.View().Scale != 1 || s.View().Translate != 0 {
		t.Fatalf("expected identity transform after all")
	}

	for _, bad := range []string{"1500", "abc-1600", "1600-1500", "1500-x"} {
		if err := s.JumpToPeriod(bad); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("%q: expected ErrInvalidPeriod, got %v", bad, err)
		}
	}
}

func TestSetSourceActive(t *testing.T) {
	s := newSession(t)
	s.Apply(timeline.Command{Kind: timeline.CommandZoomIn})
	before := s.View()

	if err := s.SetSourceActive("empire", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if len(s.FilteredEvents()) != 2 {
		t.Fatalf("expected only colonial events")
	}
	after := s.View()
	if after.Items != 2 || after.Start != before.Start || after.End != before.End {
		t.Fatalf("filtering must keep the view, got %+v vs %+v", after, before)
	}
	if minYear, maxYear := s.EventYears(); minYear != 1500 || maxYear != 1534 {
		t.Fatalf("unexpected event years %d..%d", minYear, maxYear)
	}

	if err := s.SetSourceActive("nope", true); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkers(t *testing.T) {
	s := newSession(t)
	markers := s.Markers()
	if len(markers) != 1 || markers[0].ID != "colonial_landing" {
		t.Fatalf("expected only the landing within ten years, got %+v", markers)
	}
	if markers[0].Fill != "#123456" {
		t.Fatalf("expected theme colour, got %s", markers[0].Fill)
	}

	if err := s.SetTimeWindowYears(400); err != nil {
		t.Fatalf("window: %v", err)
	}
	if got := len(s.Markers()); got != 2 {
		t.Fatalf("expected 2 markers with a wide window, got %d", got)
	}
	if err := s.SetTimeWindowYears(0); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestUISettings(t *testing.T) {
	s := newSession(t)
	settings := s.UISettings()
	if settings[KeyReferenceDate] != "1510-01-01" || settings[KeyTimeWindowYears] != 10 {
		t.Fatalf("unexpected settings %+v", settings)
	}

	err := s.ApplyUISettings(map[string]any{
		KeyReferenceDate:   "1520-01-01",
		KeyTimeWindowYears: 3.5,
	})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	if s.UISettings()[KeyReferenceDate] != "1510-01-01" {
		t.Fatalf("rejected settings were partly applied")
	}

	err = s.ApplyUISettings(map[string]any{
		KeyReferenceDate:   "1520-01-01",
		KeyTimeWindowYears: float64(25),
		KeyActiveSources:   []any{"empire", "gone"},
		KeyLocked:          true,
		KeyMapStyleURL:     "mapbox://styles/mapbox/light-v11",
		"somethingElse":    42,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := s.UISettings()
	if got[KeyReferenceDate] != "1520-01-01" || got[KeyTimeWindowYears] != 25 || got[KeyLocked] != true {
		t.Fatalf("settings not applied: %+v", got)
	}
	if !reflect.DeepEqual(got[KeyActiveSources], []string{"empire"}) {
		t.Fatalf("expected unknown sources dropped, got %v", got[KeyActiveSources])
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := newSession(t)
	if err := s.SetSourceActive("colonial", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	s.SetReferenceDate(chrono.MustParse("1822-01-01"))
	p := s.ExportProfile("brazil")

	data, err := profile.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := profile.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	other := New(memory.New(), Options{Timeline: timeline.Options{Width: 500}})
	if err := other.LoadProfile(parsed); err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if got := other.ActiveSourceIDs(); !reflect.DeepEqual(got, []string{"empire"}) {
		t.Fatalf("expected saved active set, got %v", got)
	}
	if got := other.ReferenceDate(); !got.Equal(chrono.MustParse("1822-01-01")) {
		t.Fatalf("reference not restored: %s", got)
	}
	if store.CountAll(other.Store()) != store.CountAll(s.Store()) {
		t.Fatalf("store contents differ after profile load")
	}
}
