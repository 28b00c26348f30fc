package memory

import (
	"encoding/json"
	"fmt"

	"chronomap/internal/store"
)

var protectedKeys = map[string]struct{}{
	"id":       {},
	"globalId": {},
	"sourceId": {},
}

// applyPatch shallow-merges patch over the JSON form of row. Identity keys are
// ignored and article_full merges field by field.
func applyPatch[T any](row T, patch store.Patch) (T, error) {
	var zero T
	base, err := json.Marshal(row)
	if err != nil {
		return zero, fmt.Errorf("encoding row: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return zero, fmt.Errorf("decoding row: %w", err)
	}

	for key, value := range patch {
		if _, ok := protectedKeys[key]; ok {
			continue
		}
		if key == "article_full" {
			merged, err := mergeArticle(fields[key], value)
			if err != nil {
				return zero, fmt.Errorf("%w: article_full: %v", store.ErrMalformedPatch, err)
			}
			fields[key] = merged
			continue
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", store.ErrMalformedPatch, err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", store.ErrMalformedPatch, err)
	}
	return out, nil
}

func mergeArticle(existing, value any) (any, error) {
	out := map[string]any{}
	if current, ok := existing.(map[string]any); ok {
		for k, v := range current {
			out[k] = v
		}
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		out["current"] = v
		return out, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("expected string or object")
	}
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}
