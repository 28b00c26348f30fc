package validate

import (
	"fmt"

	"chronomap/internal/chrono"
	"chronomap/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDanglingCharacter = "dangling_character_reference"
	codeDanglingPlace     = "dangling_place_reference"
	codeDanglingTheme     = "dangling_theme_reference"
	codeInvalidDate       = "invalid_date"
	codeMissingEndDate    = "period_without_end_date"
	codeEndBeforeStart    = "end_before_start"
	codeInvalidCoordinate = "invalid_coordinate"
	codeUnusedCharacter   = "unreferenced_character"
	codeUnusedPlace       = "unreferenced_place"
	codeEmptySource       = "source_without_events"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Source   string   `json:"source,omitempty"`
	Entity   string   `json:"entity,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Reader is the read side of the entity store the checks walk.
type Reader interface {
	Sources() []store.Source
	Events() []store.Event
	Characters() []store.Character
	Places() []store.Place
	Themes() []store.Theme
}

// Run checks referential integrity and date sanity across the whole store.
func Run(db Reader) *Report {
	issues := make([]Issue, 0)

	characters := make(map[string]bool)
	for _, c := range db.Characters() {
		characters[c.GlobalID] = false
	}
	places := make(map[string]bool)
	for _, p := range db.Places() {
		places[p.GlobalID] = false
	}
	themes := make(map[string]struct{})
	for _, t := range db.Themes() {
		themes[t.ID] = struct{}{}
	}
	eventsPerSource := make(map[string]int)

	for _, e := range db.Events() {
		eventsPerSource[e.SourceID]++
		for _, ref := range e.CharacterIDs {
			if _, ok := characters[ref]; !ok {
				issues = append(issues, eventIssue(e, SeverityError, codeDanglingCharacter, fmt.Sprintf("unknown character %s", ref)))
				continue
			}
			characters[ref] = true
		}
		if e.PlaceID != nil {
			if _, ok := places[*e.PlaceID]; !ok {
				issues = append(issues, eventIssue(e, SeverityError, codeDanglingPlace, fmt.Sprintf("unknown place %s", *e.PlaceID)))
			} else {
				places[*e.PlaceID] = true
			}
		}
		if e.MainThemeID != nil {
			if _, ok := themes[*e.MainThemeID]; !ok {
				issues = append(issues, eventIssue(e, SeverityError, codeDanglingTheme, fmt.Sprintf("unknown main theme %s", *e.MainThemeID)))
			}
		}
		for _, tag := range e.SecondaryTagIDs {
			if _, ok := themes[tag]; !ok {
				issues = append(issues, eventIssue(e, SeverityError, codeDanglingTheme, fmt.Sprintf("unknown secondary tag %s", tag)))
			}
		}
		issues = append(issues, validateDates(e)...)
		if msg, ok := invalidCoordinates(e.Longitude, e.Latitude); ok {
			issues = append(issues, eventIssue(e, SeverityError, codeInvalidCoordinate, msg))
		}
	}

	for _, p := range db.Places() {
		if msg, ok := invalidCoordinates(p.Longitude, p.Latitude); ok {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeInvalidCoordinate, Message: msg, Source: p.SourceID, Entity: p.GlobalID})
		}
	}
	for _, c := range db.Characters() {
		if !characters[c.GlobalID] {
			issues = append(issues, Issue{Severity: SeverityWarn, Code: codeUnusedCharacter, Message: "character not referenced by any event", Source: c.SourceID, Entity: c.GlobalID})
		}
	}
	for _, p := range db.Places() {
		if !places[p.GlobalID] {
			issues = append(issues, Issue{Severity: SeverityWarn, Code: codeUnusedPlace, Message: "place not referenced by any event", Source: p.SourceID, Entity: p.GlobalID})
		}
	}
	for _, src := range db.Sources() {
		if eventsPerSource[src.ID] == 0 {
			issues = append(issues, Issue{Severity: SeverityWarn, Code: codeEmptySource, Message: "source has no events", Source: src.ID})
		}
	}

	return &Report{Issues: issues}
}

func validateDates(e store.Event) []Issue {
	var issues []Issue
	start, err := chrono.Parse(e.StartDate)
	if err != nil {
		issues = append(issues, eventIssue(e, SeverityError, codeInvalidDate, fmt.Sprintf("invalid start_date %q", e.StartDate)))
	}
	if e.DateType != store.DatePeriod {
		return issues
	}
	if e.EndDate == nil || *e.EndDate == "" {
		return append(issues, eventIssue(e, SeverityError, codeMissingEndDate, "period event has no end_date"))
	}
	end, endErr := chrono.Parse(*e.EndDate)
	if endErr != nil {
		return append(issues, eventIssue(e, SeverityError, codeInvalidDate, fmt.Sprintf("invalid end_date %q", *e.EndDate)))
	}
	if err == nil && end.Before(start) {
		issues = append(issues, eventIssue(e, SeverityError, codeEndBeforeStart, fmt.Sprintf("end_date %s is before start_date %s", *e.EndDate, e.StartDate)))
	}
	return issues
}

func invalidCoordinates(lon, lat *float64) (string, bool) {
	if lon != nil && (*lon < -180 || *lon > 180) {
		return fmt.Sprintf("longitude %g out of range", *lon), true
	}
	if lat != nil && (*lat < -90 || *lat > 90) {
		return fmt.Sprintf("latitude %g out of range", *lat), true
	}
	return "", false
}

func eventIssue(e store.Event, severity Severity, code, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Source:   e.SourceID,
		Entity:   e.GlobalID,
	}
}
