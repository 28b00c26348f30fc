package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"chronomap/internal/store"
)

func queryEntityCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "entity <id>",
		Short: "Display one entity by its global id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEntity(cmd, args[0], kind)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "event", "Entity kind: source, event, character, place or theme")
	return cmd
}

type entityView struct {
	name        string
	source      string
	description string
	article     string
	properties  map[string]string
}

func runQueryEntity(cmd *cobra.Command, id, kind string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := stderrLogger(cfg)
	if err != nil {
		return err
	}
	session, err := loadSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	entity, found, err := lookupEntity(session.Store(), kind, id)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(os.Stdout, "No %s found for %q.\n", kind, id)
		return nil
	}

	fmt.Fprintf(os.Stdout, "Name: %s\n", entity.name)
	fmt.Fprintf(os.Stdout, "Kind: %s\n", kind)
	if entity.source != "" {
		fmt.Fprintf(os.Stdout, "Source: %s\n", entity.source)
	}
	if entity.description != "" {
		fmt.Fprintf(os.Stdout, "Description: %s\n", entity.description)
	}

	if len(entity.properties) > 0 {
		keys := make([]string, 0, len(entity.properties))
		for key := range entity.properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintln(os.Stdout, "Properties:")
		for _, key := range keys {
			fmt.Fprintf(os.Stdout, "  %s: %s\n", key, entity.properties[key])
		}
	}
	if entity.article != "" {
		fmt.Fprintf(os.Stdout, "\n%s\n", entity.article)
	}
	return nil
}

func lookupEntity(db store.Store, kind, id string) (entityView, bool, error) {
	switch strings.ToLower(kind) {
	case "source":
		s, ok := db.Source(id)
		props := map[string]string{}
		if s.Author != "" {
			props["author"] = s.Author
		}
		if s.Color != "" {
			props["color"] = s.Color
		}
		return entityView{name: s.Name, description: s.DescriptionShort, article: s.ArticleFull.Current, properties: props}, ok, nil
	case "event":
		e, ok := db.Event(id)
		props := map[string]string{
			"date_type":  string(e.DateType),
			"start_date": e.StartDate,
		}
		if e.EndDate != nil {
			props["end_date"] = *e.EndDate
		}
		if e.Longitude != nil && e.Latitude != nil {
			props["coordinates"] = fmt.Sprintf("%v, %v", *e.Latitude, *e.Longitude)
		}
		if e.PlaceID != nil {
			props["place"] = *e.PlaceID
		}
		if e.MainThemeID != nil {
			props["main_theme"] = *e.MainThemeID
		}
		if len(e.CharacterIDs) > 0 {
			props["characters"] = strings.Join(e.CharacterIDs, ", ")
		}
		if len(e.SecondaryTagIDs) > 0 {
			props["tags"] = strings.Join(e.SecondaryTagIDs, ", ")
		}
		return entityView{name: e.Title, source: e.SourceID, description: e.DescriptionShort, article: e.ArticleFull.Current, properties: props}, ok, nil
	case "character":
		c, ok := db.Character(id)
		return entityView{name: c.Name, source: c.SourceID, description: c.DescriptionShort, article: c.ArticleFull.Current}, ok, nil
	case "place":
		p, ok := db.Place(id)
		props := map[string]string{}
		if p.Longitude != nil && p.Latitude != nil {
			props["coordinates"] = fmt.Sprintf("%v, %v", *p.Latitude, *p.Longitude)
		}
		return entityView{name: p.Name, source: p.SourceID, description: p.DescriptionShort, article: p.ArticleFull.Current, properties: props}, ok, nil
	case "theme":
		t, ok := db.Theme(id)
		return entityView{name: t.Name, description: t.DescriptionShort, article: t.ArticleFull.Current, properties: map[string]string{"color": t.Color}}, ok, nil
	}
	return entityView{}, false, fmt.Errorf("unknown kind %q", kind)
}
