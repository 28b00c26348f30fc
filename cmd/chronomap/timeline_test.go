package main

import (
	"testing"

	"chronomap/internal/chrono"
	"chronomap/internal/config"
	"chronomap/internal/explorer"
	"chronomap/internal/timeline"
)

const empire = `{
  "source_info": {"id": "empire", "name": "Empire"},
  "events": [
    {"id": "independence", "title": "Independence", "start_date": "1822-09-07", "longitude": -46.6, "latitude": -23.5, "main_theme_id": "politics"},
    {"id": "regency", "title": "Regency", "date_type": "period", "start_date": "1831-04-07", "end_date": "1840-07-23"}
  ],
  "characters": [{"id": "pedro", "name": "Pedro I"}],
  "themes": [{"id": "politics", "name": "Politics", "color": "#aa3300"}]
}`

const colony = `{
  "source_info": {"id": "colony", "name": "Colony"},
  "events": [{"id": "landing", "title": "Landing", "start_date": "1500-04-22"}]
}`

func newTestSession(t *testing.T) *explorer.Session {
	t.Helper()
	cfg := config.Default("test")
	cfg.Timeline.ReferenceDate = "1825-01-01"
	session, err := newSession(cfg, nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	for name, doc := range map[string]string{"empire.json": empire, "colony.json": colony} {
		if _, err := session.LoadDocument([]byte(doc), name); err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
	}
	return session
}

func TestParseTimelineCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    timeline.Command
		wantErr bool
	}{
		{name: "bare", input: "zoomIn", want: timeline.Command{Kind: timeline.CommandZoomIn}},
		{name: "year", input: "jumpToYear:1822", want: timeline.Command{Kind: timeline.CommandJumpToYear, Year: 1822}},
		{name: "date", input: "centerOnDate:1822-09-07", want: timeline.Command{Kind: timeline.CommandCenterOnDate, Date: chrono.MustParse("1822-09-07")}},
		{name: "period", input: "jumpToPeriod:1808-01-01..1822-12-31", want: timeline.Command{
			Kind:  timeline.CommandJumpToPeriod,
			Start: chrono.MustParse("1808-01-01"),
			End:   chrono.MustParse("1822-12-31"),
		}},
		{name: "level", input: "setZoomLevel:century", want: timeline.Command{Kind: timeline.CommandSetZoomLevel, Level: timeline.ZoomCentury}},
		{name: "unknown", input: "spin", wantErr: true},
		{name: "bad year", input: "jumpToYear:soon", wantErr: true},
		{name: "period without range", input: "jumpToPeriod:1808-01-01", wantErr: true},
		{name: "unexpected argument", input: "zoomOut:2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimelineCommand(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.want.Kind || got.Year != tt.want.Year || got.Level != tt.want.Level ||
				!got.Date.Equal(tt.want.Date) || !got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End) {
				t.Fatalf("parseTimelineCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestApplyTimelineFlags(t *testing.T) {
	session := newTestSession(t)

	err := applyTimelineFlags(session, timelineFlags{
		sources:   []string{"empire"},
		reference: "1831-04-07",
		period:    "1820-1840",
		commands:  []string{"zoomIn", "resetZoom"},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := session.ActiveSourceIDs(); len(got) != 1 || got[0] != "empire" {
		t.Fatalf("expected only empire active, got %v", got)
	}
	view := session.View()
	if view.Reference != "1831-04-07" || view.Scale != 1 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Items != 2 {
		t.Fatalf("expected the colony event filtered out, got %d items", view.Items)
	}

	if err := applyTimelineFlags(newTestSession(t), timelineFlags{sources: []string{"nope"}}); err == nil {
		t.Fatalf("expected error for unknown source")
	}
	if err := applyTimelineFlags(newTestSession(t), timelineFlags{period: "1840-1820"}); err == nil {
		t.Fatalf("expected error for reversed period")
	}
	if err := applyTimelineFlags(newTestSession(t), timelineFlags{commands: []string{"setZoomLevel:millennium"}}); err == nil {
		t.Fatalf("expected error for unknown zoom level")
	}
}

func TestListEntities(t *testing.T) {
	session := newTestSession(t)

	tests := []struct {
		name    string
		kind    string
		source  string
		want    int
		wantErr bool
	}{
		{name: "sources", kind: "sources", want: 2},
		{name: "events", kind: "event", want: 3},
		{name: "events by source", kind: "events", source: "empire", want: 2},
		{name: "characters", kind: "character", want: 1},
		{name: "themes", kind: "theme", want: 1},
		{name: "unknown source", kind: "event", source: "nope", wantErr: true},
		{name: "unknown kind", kind: "dynasty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := listEntities(session.Store(), tt.kind, tt.source)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != tt.want {
				t.Fatalf("expected %d rows, got %+v", tt.want, rows)
			}
		})
	}

	rows, _ := listEntities(session.Store(), "event", "")
	if rows[0].id != "colony_landing" {
		t.Fatalf("expected events sorted by date, got %+v", rows)
	}
}
