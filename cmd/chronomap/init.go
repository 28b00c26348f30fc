package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chronomap/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var dataDir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new chronomap project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, dataDir)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dataDir, "data", "./data", "Directory holding source documents")
	return cmd
}

func runInit(projectName, dataDir string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	cfg := config.Default(projectName)
	cfg.Sources.Paths = []string{dataDir}
	contents, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dataDir, err)
	}
	if err := os.WriteFile(configPath, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	fmt.Fprintf(os.Stdout, "Created %s. Put source JSON files under %s.\n", configPath, dataDir)
	return nil
}
