package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"chronomap/internal/store"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

var (
	ErrMalformedDocument = errors.New("malformed source document")
	ErrMissingSourceInfo = fmt.Errorf("%w: missing source_info", ErrMalformedDocument)
	ErrMissingSourceID   = fmt.Errorf("%w: missing source_info.id", ErrMalformedDocument)
	ErrDuplicateLocalID  = fmt.Errorf("%w: %w", ErrMalformedDocument, store.ErrDuplicateID)
)

// FormatForPath picks the decoder from a file extension. Unknown extensions
// are read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates a whole source document. Nothing is returned
// unless every entity decoded cleanly.
func Parse(content []byte, format Format) (*store.SourceDocument, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}

	if format == FormatYAML {
		converted, err := yamlToJSON(trimmed)
		if err != nil {
			return nil, err
		}
		trimmed = converted
	}

	var doc store.SourceDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the structural rules a document must meet before any of
// it reaches the store.
func Validate(doc *store.SourceDocument) error {
	if doc.SourceInfo == nil {
		return ErrMissingSourceInfo
	}
	if strings.TrimSpace(doc.SourceInfo.ID) == "" {
		return ErrMissingSourceID
	}
	if id, ok := firstDuplicate(doc.Events, func(e store.Event) string { return e.ID }); ok {
		return fmt.Errorf("%w: event %s", ErrDuplicateLocalID, id)
	}
	if id, ok := firstDuplicate(doc.Characters, func(c store.Character) string { return c.ID }); ok {
		return fmt.Errorf("%w: character %s", ErrDuplicateLocalID, id)
	}
	if id, ok := firstDuplicate(doc.Places, func(p store.Place) string { return p.ID }); ok {
		return fmt.Errorf("%w: place %s", ErrDuplicateLocalID, id)
	}
	return nil
}

func firstDuplicate[T any](rows []T, key func(T) string) (string, bool) {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			return k, true
		}
		seen[k] = struct{}{}
	}
	return "", false
}

func yamlToJSON(content []byte) ([]byte, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return data, nil
}
