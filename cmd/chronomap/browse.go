package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chronomap/internal/explorer"
	"chronomap/internal/logging"
	"chronomap/internal/tui"
)

func browseCmd() *cobra.Command {
	var profileName string
	var logFile string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the terminal timeline browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, profileName, logFile)
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "Open an archived profile instead of the configured sources")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the browser owns the terminal")
	return cmd
}

func runBrowse(cmd *cobra.Command, profileName, logFile string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.Discard()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening %s: %w", logFile, err)
		}
		defer f.Close()
		if logger, err = newLogger(cfg, f); err != nil {
			return err
		}
	}

	var session *explorer.Session
	if profileName != "" {
		a, err := openArchive(ctx, cfg.Archive.DSN)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		p, err := a.Load(ctx, profileName)
		if err != nil {
			return err
		}
		if session, err = newSession(cfg, logger); err != nil {
			return err
		}
		if err := session.LoadProfile(p); err != nil {
			return err
		}
	} else if session, err = loadSession(ctx, cfg, logger); err != nil {
		return err
	}

	_, err = tea.NewProgram(tui.New(session), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
