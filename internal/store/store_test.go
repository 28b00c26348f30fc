package store

import (
	"encoding/json"
	"testing"
)

func TestGlobalID(t *testing.T) {
	if got := GlobalID("s1", "e1"); got != "s1_e1" {
		t.Fatalf("expected s1_e1, got %q", got)
	}

	local, ok := LocalID("s1", "s1_e1")
	if !ok || local != "e1" {
		t.Fatalf("expected e1, got %q (%v)", local, ok)
	}
	if _, ok := LocalID("s2", "s1_e1"); ok {
		t.Fatalf("expected foreign id to be rejected")
	}
}

func TestArticleUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Article
	}{
		{name: "null", input: `null`, want: Article{}},
		{name: "bare string", input: `"long text"`, want: Article{Current: "long text"}},
		{name: "object", input: `{"current":"now","previous":"then"}`, want: Article{Current: "now", Previous: "then"}},
		{name: "partial object", input: `{"previous":"then"}`, want: Article{Previous: "then"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Article
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}

	var a Article
	if err := json.Unmarshal([]byte(`42`), &a); err == nil {
		t.Fatalf("expected error for numeric article")
	}
}

func TestEventIsPeriod(t *testing.T) {
	end := "1510-01-01"
	if !(Event{DateType: DatePeriod, EndDate: &end}).IsPeriod() {
		t.Fatalf("expected period")
	}
	if (Event{DateType: DatePeriod}).IsPeriod() {
		t.Fatalf("period without end date must render as a point")
	}
	if (Event{DateType: DateSingle, EndDate: &end}).IsPeriod() {
		t.Fatalf("single event is never a period")
	}
}
