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

func queryListCmd() *cobra.Command {
	var kind string
	var source string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources, events, characters, places or themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryList(cmd, kind, source)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "event", "Entity kind: source, event, character, place or theme")
	cmd.Flags().StringVar(&source, "source", "", "Source id to filter")
	return cmd
}

type listRow struct {
	id     string
	name   string
	source string
	date   string
}

func runQueryList(cmd *cobra.Command, kind, source string) error {
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

	rows, err := listEntities(session.Store(), kind, source)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "No entities found.")
		return nil
	}

	for _, row := range rows {
		line := fmt.Sprintf("%s  %s", row.id, row.name)
		if row.date != "" {
			line += "  " + row.date
		}
		if row.source != "" {
			line += fmt.Sprintf(" [%s]", row.source)
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

func listEntities(db store.Store, kind, source string) ([]listRow, error) {
	if source != "" {
		if _, ok := db.Source(source); !ok {
			return nil, fmt.Errorf("%s: %w", source, store.ErrSourceNotFound)
		}
	}
	keep := func(sourceID string) bool { return source == "" || sourceID == source }

	var rows []listRow
	switch strings.TrimSuffix(strings.ToLower(kind), "s") {
	case "source":
		for _, s := range db.Sources() {
			if keep(s.ID) {
				rows = append(rows, listRow{id: s.ID, name: s.Name})
			}
		}
	case "event":
		for _, e := range db.Events() {
			if keep(e.SourceID) {
				rows = append(rows, listRow{id: e.GlobalID, name: e.Title, source: e.SourceID, date: e.StartDate})
			}
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].date < rows[j].date })
	case "character":
		for _, c := range db.Characters() {
			if keep(c.SourceID) {
				rows = append(rows, listRow{id: c.GlobalID, name: c.Name, source: c.SourceID})
			}
		}
	case "place":
		for _, p := range db.Places() {
			if keep(p.SourceID) {
				rows = append(rows, listRow{id: p.GlobalID, name: p.Name, source: p.SourceID})
			}
		}
	case "theme":
		for _, t := range db.Themes() {
			rows = append(rows, listRow{id: t.ID, name: t.Name})
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return rows, nil
}
