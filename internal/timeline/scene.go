package timeline

import (
	"math"
	"sort"

	"chronomap/internal/chrono"
	"chronomap/internal/store"
)

const (
	DefaultColor = "#808080"
	UnthemedLane = "Unthemed"
	minBarWidth  = 1.0
)

type ItemKind int

const (
	ItemPoint ItemKind = iota
	ItemBar
)

func (k ItemKind) String() string {
	if k == ItemBar {
		return "bar"
	}
	return "point"
}

// Item is one retained timeline primitive. Start and End are Unix
// milliseconds. X and Width are rewritten on every redraw.
type Item struct {
	ID     string
	Title  string
	Kind   ItemKind
	Lane   int
	Color  string
	Start  float64
	End    float64
	X      float64
	Width  float64
	Source string
}

type Lane struct {
	Index   int
	Name    string
	ThemeID string
}

// Diff is the outcome of one Sync, by global id.
type Diff struct {
	Created []string
	Updated []string
	Removed []string
}

// Scene holds the items currently on the timeline, keyed by global id.
type Scene struct {
	items map[string]*Item
	order []string
	lanes []Lane
}

func NewScene() *Scene {
	return &Scene{items: make(map[string]*Item)}
}

// Sync reconciles the scene with events. Items whose id is already present
// are updated in place, the rest are created, and ids no longer present are
// removed. Events without a parseable start date are left out.
func (s *Scene) Sync(events []store.Event, themes []store.Theme) Diff {
	byTheme := make(map[string]store.Theme, len(themes))
	for _, t := range themes {
		byTheme[t.ID] = t
	}

	type placed struct {
		item  Item
		theme string
	}
	next := make([]placed, 0, len(events))
	used := make(map[string]string)
	unthemed := false
	for _, e := range events {
		item, ok := itemFor(e)
		if !ok {
			continue
		}
		themeID := ""
		if e.MainThemeID != nil {
			if t, ok := byTheme[*e.MainThemeID]; ok {
				themeID = t.ID
				used[t.ID] = t.Name
				if t.Color != "" {
					item.Color = t.Color
				}
			}
		}
		if themeID == "" {
			unthemed = true
		}
		next = append(next, placed{item: item, theme: themeID})
	}

	s.lanes = buildLanes(used, unthemed)
	laneIndex := make(map[string]int, len(s.lanes))
	for _, l := range s.lanes {
		laneIndex[l.ThemeID] = l.Index
	}

	var diff Diff
	seen := make(map[string]struct{}, len(next))
	order := make([]string, 0, len(next))
	for _, p := range next {
		item := p.item
		item.Lane = laneIndex[p.theme]
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		order = append(order, item.ID)

		if existing, ok := s.items[item.ID]; ok {
			item.X, item.Width = existing.X, existing.Width
			*existing = item
			diff.Updated = append(diff.Updated, item.ID)
			continue
		}
		created := item
		s.items[item.ID] = &created
		diff.Created = append(diff.Created, item.ID)
	}
	for _, id := range s.order {
		if _, ok := seen[id]; ok {
			continue
		}
		delete(s.items, id)
		diff.Removed = append(diff.Removed, id)
	}
	s.order = order
	return diff
}

func itemFor(e store.Event) (Item, bool) {
	start, err := chrono.Parse(e.StartDate)
	if err != nil {
		return Item{}, false
	}
	item := Item{
		ID:     e.GlobalID,
		Title:  e.Title,
		Kind:   ItemPoint,
		Color:  DefaultColor,
		Start:  chrono.Millis(start),
		Source: e.SourceID,
	}
	if item.ID == "" {
		item.ID = e.ID
	}
	item.End = item.Start
	if e.IsPeriod() {
		if end, err := chrono.Parse(*e.EndDate); err == nil {
			item.Kind = ItemBar
			item.End = chrono.Millis(end)
		}
	}
	return item, true
}

func buildLanes(used map[string]string, unthemed bool) []Lane {
	ids := make([]string, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if used[ids[i]] != used[ids[j]] {
			return used[ids[i]] < used[ids[j]]
		}
		return ids[i] < ids[j]
	})
	lanes := make([]Lane, 0, len(ids)+1)
	for i, id := range ids {
		lanes = append(lanes, Lane{Index: i, Name: used[id], ThemeID: id})
	}
	if unthemed {
		lanes = append(lanes, Lane{Index: len(lanes), Name: UnthemedLane})
	}
	return lanes
}

// layout repositions every item against scale. Bars never collapse below
// one pixel.
func (s *Scene) layout(scale Scale) {
	for _, id := range s.order {
		item := s.items[id]
		item.X = scale.MapMillis(item.Start)
		item.Width = 0
		if item.Kind == ItemBar {
			item.Width = math.Max(minBarWidth, scale.MapMillis(item.End)-item.X)
		}
	}
}

func (s *Scene) Items() []Item {
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

func (s *Scene) Item(id string) (Item, bool) {
	item, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

func (s *Scene) Lanes() []Lane {
	return append([]Lane(nil), s.lanes...)
}

func (s *Scene) Len() int {
	return len(s.order)
}
