package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chronomap/internal/archive"
)

func querySearchCmd() *cobra.Command {
	var live bool
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Full-text search over archived profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(cmd, strings.Join(args, " "), live)
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Search the configured source files instead of the archive")
	return cmd
}

func runQuerySearch(cmd *cobra.Command, query string, live bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := stderrLogger(cfg)
	if err != nil {
		return err
	}

	var results []archive.Hit
	if live {
		if strings.TrimSpace(query) == "" {
			return archive.ErrEmptyQuery
		}
		session, err := loadSession(ctx, cfg, logger)
		if err != nil {
			return err
		}
		p := session.ExportProfile(cfg.Project)
		results = archive.Match(p.ProfileName, archive.Index(p), query)
	} else {
		a, err := openArchive(ctx, cfg.Archive.DSN)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		results, err = a.Search(ctx, query)
		if err != nil {
			return err
		}
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}
	for _, result := range results {
		fmt.Fprintf(os.Stdout, "%s (%s) [%s] score=%.2f\n", result.Title, result.EventID, result.Profile, result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", result.Snippet)
		}
	}
	return nil
}
