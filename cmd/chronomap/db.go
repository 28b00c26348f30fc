package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"chronomap/internal/archive"
	"chronomap/internal/archive/postgres"
	"chronomap/internal/archive/s3"
	"chronomap/internal/archive/sqlite"
	"chronomap/internal/chrono"
	"chronomap/internal/config"
	"chronomap/internal/explorer"
	"chronomap/internal/logging"
	"chronomap/internal/store/memory"
	"chronomap/internal/timeline"
)

// openArchive picks the profile archive backend from the DSN scheme and
// makes sure its schema exists.
func openArchive(ctx context.Context, dsn string) (archive.Archive, error) {
	var (
		a   archive.Archive
		err error
	)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		a, err = sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		a, err = postgres.New(ctx, dsn)
	case strings.HasPrefix(dsn, "s3://"):
		var s3cfg s3.Config
		s3cfg, err = s3.ParseURL(dsn)
		if err != nil {
			return nil, err
		}
		a, err = s3.New(ctx, s3cfg)
	default:
		return nil, fmt.Errorf("unsupported archive dsn %q", dsn)
	}
	if err != nil {
		return nil, err
	}
	if err := a.EnsureSchema(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func loadConfig() (*config.ProjectConfig, error) {
	return config.LoadProjectConfig(configPath)
}

func newLogger(cfg *config.ProjectConfig, w io.Writer) (*log.Logger, error) {
	level := logLevel
	if level == "" && cfg != nil {
		level = cfg.Logging.Level
	}
	return logging.New(w, level)
}

// newSession builds an empty explorer session over an in-memory store.
func newSession(cfg *config.ProjectConfig, logger *log.Logger) (*explorer.Session, error) {
	opts := explorer.Options{
		Logger:   logger,
		Timeline: timeline.OptionsFromConfig(cfg.Timeline),
		Map:      cfg.Map,
	}
	if cfg.Timeline.ReferenceDate != "" {
		ref, err := chrono.Parse(cfg.Timeline.ReferenceDate)
		if err != nil {
			return nil, fmt.Errorf("timeline.reference_date: %w", err)
		}
		opts.Reference = ref
	}
	return explorer.New(memory.New(memory.WithLogger(logger)), opts), nil
}

// loadSession builds a session and ingests the configured source files.
// Per-file errors are logged, not returned.
func loadSession(ctx context.Context, cfg *config.ProjectConfig, logger *log.Logger) (*explorer.Session, error) {
	session, err := newSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	result, err := session.IngestFiles(ctx, cfg)
	if err != nil {
		return nil, err
	}
	for _, item := range result.Errors {
		logger.Warn("source skipped", "err", item)
	}
	return session, nil
}

func stderrLogger(cfg *config.ProjectConfig) (*log.Logger, error) {
	return newLogger(cfg, os.Stderr)
}
