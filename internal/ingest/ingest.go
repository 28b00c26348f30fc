package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"chronomap/internal/config"
	"chronomap/internal/logging"
	"chronomap/internal/parser"
	"chronomap/internal/store"
)

// Store is the slice of the entity store ingestion writes through.
type Store interface {
	ReplaceSource(doc store.SourceDocument) error
}

type Result struct {
	SourcesLoaded    int
	EventsLoaded     int
	CharactersLoaded int
	PlacesLoaded     int
	ThemesSeen       int
	FilesSkipped     int
	Files            []string
	Errors           []error
}

type Options struct {
	Logger *log.Logger
}

var sourceExtensions = map[string]struct{}{
	".json": {},
	".yaml": {},
	".yml":  {},
}

// LoadDocument parses content and installs it as one source. name identifies
// the document in errors and selects the decoder by extension. The store is
// untouched when an error is returned.
func LoadDocument(db Store, content []byte, name string) (*store.SourceDocument, error) {
	doc, err := parser.Parse(content, parser.FormatForPath(name))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	if err := db.ReplaceSource(*doc); err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return doc, nil
}

func LoadFile(db Store, path string) (*store.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return LoadDocument(db, data, path)
}

// Run loads every source document under the configured paths. A failing file
// is recorded in Result.Errors and the walk carries on. Files whose bytes
// match one already loaded in this run are skipped.
func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	files, err := walkSourceFiles(cfg.Sources.Paths, cfg.Sources.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking source paths: %w", err)
	}

	result := &Result{}
	seen := make(map[string]string)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		hash := computeHash(data)
		if first, ok := seen[hash]; ok {
			logger.Debug("skipping identical source file", "path", path, "same_as", first)
			result.FilesSkipped++
			continue
		}
		seen[hash] = path

		doc, err := LoadDocument(db, data, path)
		if err != nil {
			logger.Warn("source file rejected", "path", path, "err", err)
			result.Errors = append(result.Errors, err)
			continue
		}

		result.SourcesLoaded++
		result.EventsLoaded += len(doc.Events)
		result.CharactersLoaded += len(doc.Characters)
		result.PlacesLoaded += len(doc.Places)
		result.ThemesSeen += len(doc.Themes)
		result.Files = append(result.Files, path)
		logger.Debug("source file loaded", "path", path, "source", doc.SourceInfo.ID)
	}

	return result, nil
}

func walkSourceFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := sourceExtensions[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
