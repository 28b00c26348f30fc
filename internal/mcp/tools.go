package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"chronomap/internal/chrono"
	"chronomap/internal/profile"
	"chronomap/internal/store"
	"chronomap/internal/timeline"
	"chronomap/internal/validate"
)

const (
	kindEvent     = "event"
	kindCharacter = "character"
	kindPlace     = "place"
	kindTheme     = "theme"
)

type ListSourcesInput struct{}

type ListEntitiesInput struct {
	Kind   string `json:"kind" jsonschema:"event, character, place or theme"`
	Source string `json:"source,omitempty" jsonschema:"restrict to one source id"`
}

type GetEntityInput struct {
	Kind string `json:"kind" jsonschema:"event, character, place or theme"`
	ID   string `json:"id" jsonschema:"global id, or theme id"`
}

type LoadSourceInput struct {
	Path string `json:"path" jsonschema:"path to a source JSON document"`
}

type RemoveSourceInput struct {
	ID string `json:"id" jsonschema:"source id"`
}

type TimelineCommandInput struct {
	Command string `json:"command" jsonschema:"zoomIn, zoomOut, panLeft, panRight, resetZoom, jumpToPeriod, centerOnDate, jumpToYear or setZoomLevel"`
	Start   string `json:"start,omitempty" jsonschema:"period start date for jumpToPeriod"`
	End     string `json:"end,omitempty" jsonschema:"period end date for jumpToPeriod"`
	Date    string `json:"date,omitempty" jsonschema:"date for centerOnDate"`
	Year    int    `json:"year,omitempty" jsonschema:"year for jumpToYear"`
	Level   string `json:"level,omitempty" jsonschema:"decade or century for setZoomLevel"`
}

type SetReferenceDateInput struct {
	Date string `json:"date" jsonschema:"reference date, YYYY-MM-DD or any recognised date"`
}

type ExportProfileInput struct {
	Name string `json:"name,omitempty" jsonschema:"profile name"`
	Path string `json:"path,omitempty" jsonschema:"write the profile to this file instead of returning it"`
}

type ValidateInput struct{}

type SourceOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Author     string `json:"author"`
	Active     bool   `json:"active"`
	Events     int    `json:"events"`
	Characters int    `json:"characters"`
	Places     int    `json:"places"`
}

type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
}

type EntitySummaryOutput struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Date   string `json:"date"`
}

type ListEntitiesOutput struct {
	Entities []EntitySummaryOutput `json:"entities"`
}

type EntityOutput struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Name        string            `json:"name"`
	Source      string            `json:"source"`
	Description string            `json:"description"`
	Article     string            `json:"article"`
	Fields      map[string]string `json:"fields"`
	References  []string          `json:"references"`
}

type LoadSourceOutput struct {
	Source     string `json:"source"`
	Events     int    `json:"events"`
	Characters int    `json:"characters"`
	Places     int    `json:"places"`
	Themes     int    `json:"themes"`
}

type RemoveSourceOutput struct {
	Source    string `json:"source"`
	Remaining int    `json:"remaining"`
}

type TimelineOutput struct {
	State     string  `json:"state"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Reference string  `json:"reference"`
	Scale     float64 `json:"scale"`
	Translate float64 `json:"translate"`
	Locked    bool    `json:"locked"`
	Items     int     `json:"items"`
}

type ExportProfileOutput struct {
	Name     string `json:"name"`
	Sources  int    `json:"sources"`
	Events   int    `json:"events"`
	Path     string `json:"path"`
	Document string `json:"document"`
}

type ValidateOutput struct {
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Issues   []validate.Issue `json:"issues"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_sources",
		Description: "List loaded sources with entity counts and filter state",
	}, s.handleListSources)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_entities",
		Description: "List events, characters, places or themes, optionally for one source",
	}, s.handleListEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entity",
		Description: "Retrieve one entity with its fields and references",
	}, s.handleGetEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "load_source",
		Description: "Load a source document from disk, replacing any source with the same id",
	}, s.handleLoadSource)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "remove_source",
		Description: "Remove a source with its events, characters and places",
	}, s.handleRemoveSource)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "timeline_command",
		Description: "Run a timeline navigation command and report the visible range",
	}, s.handleTimelineCommand)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "set_reference_date",
		Description: "Move the reference date the map window and locked timeline follow",
	}, s.handleSetReferenceDate)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "export_profile",
		Description: "Snapshot every source and the session settings as a profile document",
	}, s.handleExportProfile)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate",
		Description: "Check references, dates and coordinates across all sources",
	}, s.handleValidate)
}

func (s *Server) handleListSources(ctx context.Context, req *sdk.CallToolRequest, input ListSourcesInput) (*sdk.CallToolResult, ListSourcesOutput, error) {
	db := s.session.Store()
	active := make(map[string]bool)
	for _, id := range s.session.ActiveSourceIDs() {
		active[id] = true
	}

	counts := make(map[string]*SourceOutput)
	output := make([]SourceOutput, 0)
	for _, src := range db.Sources() {
		output = append(output, SourceOutput{ID: src.ID, Name: src.Name, Author: src.Author, Active: active[src.ID]})
	}
	for i := range output {
		counts[output[i].ID] = &output[i]
	}
	for _, e := range db.Events() {
		if c, ok := counts[e.SourceID]; ok {
			c.Events++
		}
	}
	for _, c := range db.Characters() {
		if o, ok := counts[c.SourceID]; ok {
			o.Characters++
		}
	}
	for _, p := range db.Places() {
		if o, ok := counts[p.SourceID]; ok {
			o.Places++
		}
	}
	return nil, ListSourcesOutput{Sources: output}, nil
}

func (s *Server) handleListEntities(ctx context.Context, req *sdk.CallToolRequest, input ListEntitiesInput) (*sdk.CallToolResult, ListEntitiesOutput, error) {
	db := s.session.Store()
	if input.Source != "" {
		if _, ok := db.Source(input.Source); !ok {
			return nil, ListEntitiesOutput{}, fmt.Errorf("%s: %w", input.Source, store.ErrSourceNotFound)
		}
	}
	keep := func(sourceID string) bool { return input.Source == "" || sourceID == input.Source }

	output := make([]EntitySummaryOutput, 0)
	switch strings.ToLower(input.Kind) {
	case kindEvent, "events":
		for _, e := range db.Events() {
			if keep(e.SourceID) {
				output = append(output, EntitySummaryOutput{ID: e.GlobalID, Kind: kindEvent, Name: e.Title, Source: e.SourceID, Date: e.StartDate})
			}
		}
		sort.SliceStable(output, func(i, j int) bool { return output[i].Date < output[j].Date })
	case kindCharacter, "characters":
		for _, c := range db.Characters() {
			if keep(c.SourceID) {
				output = append(output, EntitySummaryOutput{ID: c.GlobalID, Kind: kindCharacter, Name: c.Name, Source: c.SourceID})
			}
		}
	case kindPlace, "places":
		for _, p := range db.Places() {
			if keep(p.SourceID) {
				output = append(output, EntitySummaryOutput{ID: p.GlobalID, Kind: kindPlace, Name: p.Name, Source: p.SourceID})
			}
		}
	case kindTheme, "themes":
		for _, t := range db.Themes() {
			output = append(output, EntitySummaryOutput{ID: t.ID, Kind: kindTheme, Name: t.Name})
		}
	default:
		return nil, ListEntitiesOutput{}, fmt.Errorf("unknown kind %q", input.Kind)
	}
	return nil, ListEntitiesOutput{Entities: output}, nil
}

func (s *Server) handleGetEntity(ctx context.Context, req *sdk.CallToolRequest, input GetEntityInput) (*sdk.CallToolResult, EntityOutput, error) {
	if input.ID == "" {
		return nil, EntityOutput{}, fmt.Errorf("id is required")
	}
	db := s.session.Store()
	notFound := fmt.Errorf("%s %s: %w", input.Kind, input.ID, store.ErrNotFound)

	switch strings.ToLower(input.Kind) {
	case kindEvent:
		e, ok := db.Event(input.ID)
		if !ok {
			return nil, EntityOutput{}, notFound
		}
		return nil, eventOutput(e), nil
	case kindCharacter:
		c, ok := db.Character(input.ID)
		if !ok {
			return nil, EntityOutput{}, notFound
		}
		return nil, EntityOutput{
			ID: c.GlobalID, Kind: kindCharacter, Name: c.Name, Source: c.SourceID,
			Description: c.DescriptionShort, Article: c.ArticleFull.Current,
			Fields: map[string]string{}, References: []string{},
		}, nil
	case kindPlace:
		p, ok := db.Place(input.ID)
		if !ok {
			return nil, EntityOutput{}, notFound
		}
		fields := map[string]string{}
		if p.Longitude != nil && p.Latitude != nil {
			fields["longitude"] = fmt.Sprint(*p.Longitude)
			fields["latitude"] = fmt.Sprint(*p.Latitude)
		}
		return nil, EntityOutput{
			ID: p.GlobalID, Kind: kindPlace, Name: p.Name, Source: p.SourceID,
			Description: p.DescriptionShort, Article: p.ArticleFull.Current,
			Fields: fields, References: []string{},
		}, nil
	case kindTheme:
		t, ok := db.Theme(input.ID)
		if !ok {
			return nil, EntityOutput{}, notFound
		}
		return nil, EntityOutput{
			ID: t.ID, Kind: kindTheme, Name: t.Name,
			Description: t.DescriptionShort, Article: t.ArticleFull.Current,
			Fields: map[string]string{"color": t.Color}, References: []string{},
		}, nil
	}
	return nil, EntityOutput{}, fmt.Errorf("unknown kind %q", input.Kind)
}

func eventOutput(e store.Event) EntityOutput {
	fields := map[string]string{
		"date_type":  string(e.DateType),
		"start_date": e.StartDate,
	}
	if e.EndDate != nil {
		fields["end_date"] = *e.EndDate
	}
	if e.Longitude != nil && e.Latitude != nil {
		fields["longitude"] = fmt.Sprint(*e.Longitude)
		fields["latitude"] = fmt.Sprint(*e.Latitude)
	}
	if e.MainThemeID != nil {
		fields["main_theme_id"] = *e.MainThemeID
	}
	refs := append([]string{}, e.CharacterIDs...)
	if e.PlaceID != nil {
		refs = append(refs, *e.PlaceID)
	}
	refs = append(refs, e.SecondaryTagIDs...)
	return EntityOutput{
		ID: e.GlobalID, Kind: kindEvent, Name: e.Title, Source: e.SourceID,
		Description: e.DescriptionShort, Article: e.ArticleFull.Current,
		Fields: fields, References: refs,
	}
}

func (s *Server) handleLoadSource(ctx context.Context, req *sdk.CallToolRequest, input LoadSourceInput) (*sdk.CallToolResult, LoadSourceOutput, error) {
	if input.Path == "" {
		return nil, LoadSourceOutput{}, fmt.Errorf("path is required")
	}
	content, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, LoadSourceOutput{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}
	doc, err := s.session.LoadDocument(content, filepath.Base(input.Path))
	if err != nil {
		return nil, LoadSourceOutput{}, err
	}
	s.logger.Info("loaded source", "source", doc.SourceInfo.ID, "path", input.Path)
	return nil, LoadSourceOutput{
		Source:     doc.SourceInfo.ID,
		Events:     len(doc.Events),
		Characters: len(doc.Characters),
		Places:     len(doc.Places),
		Themes:     len(doc.Themes),
	}, nil
}

func (s *Server) handleRemoveSource(ctx context.Context, req *sdk.CallToolRequest, input RemoveSourceInput) (*sdk.CallToolResult, RemoveSourceOutput, error) {
	if input.ID == "" {
		return nil, RemoveSourceOutput{}, fmt.Errorf("id is required")
	}
	if err := s.session.RemoveSource(input.ID); err != nil {
		return nil, RemoveSourceOutput{}, err
	}
	s.logger.Info("removed source", "source", input.ID)
	return nil, RemoveSourceOutput{
		Source:    input.ID,
		Remaining: len(s.session.Store().Sources()),
	}, nil
}

func (s *Server) handleTimelineCommand(ctx context.Context, req *sdk.CallToolRequest, input TimelineCommandInput) (*sdk.CallToolResult, TimelineOutput, error) {
	cmd, err := commandFromInput(input)
	if err != nil {
		return nil, TimelineOutput{}, err
	}
	if err := s.session.Apply(cmd); err != nil {
		return nil, TimelineOutput{}, err
	}
	return nil, s.timelineOutput(), nil
}

func commandFromInput(input TimelineCommandInput) (timeline.Command, error) {
	kind, err := timeline.ParseCommandKind(input.Command)
	if err != nil {
		return timeline.Command{}, err
	}
	cmd := timeline.Command{Kind: kind, Year: input.Year, Level: timeline.ZoomLevel(input.Level)}
	parse := func(field, value string) (t time.Time, err error) {
		if value == "" {
			return t, fmt.Errorf("%s: %s is required", kind, field)
		}
		t, err = chrono.Parse(value)
		if err != nil {
			return t, fmt.Errorf("%s: %s: %w", kind, field, err)
		}
		return t, nil
	}
	switch kind {
	case timeline.CommandJumpToPeriod:
		if cmd.Start, err = parse("start", input.Start); err != nil {
			return cmd, err
		}
		if cmd.End, err = parse("end", input.End); err != nil {
			return cmd, err
		}
	case timeline.CommandCenterOnDate:
		if cmd.Date, err = parse("date", input.Date); err != nil {
			return cmd, err
		}
	}
	return cmd, nil
}

func (s *Server) handleSetReferenceDate(ctx context.Context, req *sdk.CallToolRequest, input SetReferenceDateInput) (*sdk.CallToolResult, TimelineOutput, error) {
	date, err := chrono.Parse(input.Date)
	if err != nil {
		return nil, TimelineOutput{}, fmt.Errorf("date: %w", err)
	}
	s.session.SetReferenceDate(date)
	return nil, s.timelineOutput(), nil
}

func (s *Server) timelineOutput() TimelineOutput {
	v := s.session.View()
	return TimelineOutput{
		State:     v.State,
		Start:     v.Start,
		End:       v.End,
		Reference: v.Reference,
		Scale:     v.Scale,
		Translate: v.Translate,
		Locked:    v.Locked,
		Items:     v.Items,
	}
}

func (s *Server) handleExportProfile(ctx context.Context, req *sdk.CallToolRequest, input ExportProfileInput) (*sdk.CallToolResult, ExportProfileOutput, error) {
	p := s.session.ExportProfile(input.Name)
	data, err := profile.Marshal(p)
	if err != nil {
		return nil, ExportProfileOutput{}, fmt.Errorf("encoding profile: %w", err)
	}
	out := ExportProfileOutput{Name: p.ProfileName, Sources: len(p.EmbeddedSourceData)}
	for _, doc := range p.EmbeddedSourceData {
		out.Events += len(doc.Events)
	}
	if input.Path == "" {
		out.Document = string(data)
		return nil, out, nil
	}
	if err := os.WriteFile(input.Path, data, 0o644); err != nil {
		return nil, ExportProfileOutput{}, fmt.Errorf("writing %s: %w", input.Path, err)
	}
	out.Path = input.Path
	s.logger.Info("exported profile", "name", p.ProfileName, "path", input.Path)
	return nil, out, nil
}

func (s *Server) handleValidate(ctx context.Context, req *sdk.CallToolRequest, input ValidateInput) (*sdk.CallToolResult, ValidateOutput, error) {
	report := validate.Run(s.session.Store())
	return nil, ValidateOutput{
		Errors:   report.Count(validate.SeverityError),
		Warnings: report.Count(validate.SeverityWarn),
		Issues:   report.Issues,
	}, nil
}
