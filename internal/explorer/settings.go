package explorer

import (
	"encoding/json"
	"fmt"
	"math"

	"chronomap/internal/chrono"
)

// UISettings captures the session state stored in a profile's ui_settings.
func (s *Session) UISettings() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		KeyReferenceDate:   chrono.Format(s.reference),
		KeyTimeWindowYears: s.windowYears,
		KeyActiveSources:   s.activeIDs(),
		KeyMinEventYear:    s.minYear,
		KeyMaxEventYear:    s.maxYear,
		KeyLocked:          s.engine.Locked(),
		KeyMapStyleURL:     s.mapStyleURL,
	}
}

// ApplyUISettings restores session state from a settings map. Unknown keys
// are ignored. Nothing changes when any known key has the wrong type.
func (s *Session) ApplyUISettings(settings map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applySettings(settings)
}

type parsedSettings struct {
	reference   *string
	windowYears *int
	active      []string
	hasActive   bool
	minYear     *int
	maxYear     *int
	locked      *bool
	mapStyle    *string
}

func (s *Session) applySettings(settings map[string]any) error {
	parsed, err := parseSettings(settings)
	if err != nil {
		return err
	}

	if parsed.hasActive {
		s.active = make(map[string]bool, len(parsed.active))
		for _, id := range parsed.active {
			if _, ok := s.db.Source(id); ok {
				s.active[id] = true
			}
		}
		s.refresh()
	}
	if parsed.windowYears != nil {
		s.windowYears = *parsed.windowYears
	}
	if parsed.minYear != nil {
		s.minYear = *parsed.minYear
	}
	if parsed.maxYear != nil {
		s.maxYear = *parsed.maxYear
	}
	if parsed.mapStyle != nil {
		s.mapStyleURL = *parsed.mapStyle
	}
	if parsed.reference != nil {
		ref, err := chrono.Parse(*parsed.reference)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSettings, KeyReferenceDate, err)
		}
		s.reference = ref
		s.engine.SetReference(ref)
	}
	if parsed.locked != nil {
		s.setLocked(*parsed.locked)
	}
	return nil
}

func parseSettings(settings map[string]any) (*parsedSettings, error) {
	var out parsedSettings
	for key, value := range settings {
		if value == nil {
			continue
		}
		switch key {
		case KeyReferenceDate:
			v, ok := value.(string)
			if !ok {
				return nil, typeError(key, value)
			}
			if _, err := chrono.Parse(v); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSettings, key, err)
			}
			out.reference = &v
		case KeyTimeWindowYears, KeyMinEventYear, KeyMaxEventYear:
			n, ok := toInt(value)
			if !ok {
				return nil, typeError(key, value)
			}
			switch key {
			case KeyTimeWindowYears:
				if n <= 0 {
					return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidSettings, key)
				}
				out.windowYears = &n
			case KeyMinEventYear:
				out.minYear = &n
			default:
				out.maxYear = &n
			}
		case KeyActiveSources:
			ids, ok := toStrings(value)
			if !ok {
				return nil, typeError(key, value)
			}
			out.active, out.hasActive = ids, true
		case KeyLocked:
			v, ok := value.(bool)
			if !ok {
				return nil, typeError(key, value)
			}
			out.locked = &v
		case KeyMapStyleURL:
			v, ok := value.(string)
			if !ok {
				return nil, typeError(key, value)
			}
			out.mapStyle = &v
		}
	}
	return &out, nil
}

func typeError(key string, value any) error {
	return fmt.Errorf("%w: %s has unexpected type %T", ErrInvalidSettings, key, value)
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
