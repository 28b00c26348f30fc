package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"chronomap/internal/archive"
	"chronomap/internal/profile"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Export, import and archive profiles",
	}
	cmd.AddCommand(profileExportCmd())
	cmd.AddCommand(profileImportCmd())
	cmd.AddCommand(profileSaveCmd())
	cmd.AddCommand(profileListCmd())
	cmd.AddCommand(profileLoadCmd())
	cmd.AddCommand(profileDeleteCmd())
	return cmd
}

func profileExportCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the configured sources as one profile document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			p := session.ExportProfile(name)
			data, err := profile.Marshal(p)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			printProfileSummary(archive.Summarize(p, time.Now()), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Profile name")
	return cmd
}

func profileImportCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Check a profile document and store it in the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := stderrLogger(cfg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			p, err := profile.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if name != "" {
				p.ProfileName = name
			}

			session, err := newSession(cfg, logger)
			if err != nil {
				return err
			}
			if err := session.LoadProfile(p); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := openArchive(ctx, cfg.Archive.DSN)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.Save(ctx, p); err != nil {
				return err
			}
			printProfileSummary(archive.Summarize(p, time.Now()), "")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Store under this name instead of the document's profile_name")
	return cmd
}

func profileSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>",
		Short: "Snapshot the configured sources into the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := stderrLogger(cfg)
			if err != nil {
				return err
			}
			if err := archive.ValidateName(args[0]); err != nil {
				return err
			}
			session, err := loadSession(ctx, cfg, logger)
			if err != nil {
				return err
			}

			a, err := openArchive(ctx, cfg.Archive.DSN)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			p := session.ExportProfile(args[0])
			if err := a.Save(ctx, p); err != nil {
				return err
			}
			printProfileSummary(archive.Summarize(p, time.Now()), "")
			return nil
		},
	}
}

func profileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openArchive(ctx, cfg.Archive.DSN)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			summaries, err := a.List(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(os.Stdout, "No profiles found.")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(os.Stdout, "%s  sources=%d events=%d schema=%s saved=%s\n",
					s.Name, s.Sources, s.Events, s.SchemaVersion, s.SavedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func profileLoadCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Load an archived profile and print its timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := stderrLogger(cfg)
			if err != nil {
				return err
			}
			a, err := openArchive(ctx, cfg.Archive.DSN)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			p, err := a.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if out != "" {
				data, err := profile.Marshal(p)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
			}

			session, err := newSession(cfg, logger)
			if err != nil {
				return err
			}
			if err := session.LoadProfile(p); err != nil {
				return err
			}
			printTimeline(session, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Also write the profile document to this file")
	return cmd
}

func profileDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a profile from the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openArchive(ctx, cfg.Archive.DSN)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Deleted %s.\n", args[0])
			return nil
		},
	}
}

func printProfileSummary(s archive.Summary, path string) {
	target := "archive"
	if path != "" {
		target = path
	}
	fmt.Fprintf(os.Stdout, "Profile %q written to %s: %d sources, %d events.\n", s.Name, target, s.Sources, s.Events)
}
