// Package explorer ties the entity store, the timeline engine and the map
// projection into one browsing session: which sources are active, where the
// reference date sits and how the timeline is locked.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"chronomap/internal/chrono"
	"chronomap/internal/config"
	"chronomap/internal/ingest"
	"chronomap/internal/logging"
	"chronomap/internal/mapview"
	"chronomap/internal/profile"
	"chronomap/internal/store"
	"chronomap/internal/timeline"
)

var (
	ErrBusy            = errors.New("another load is in progress")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidSettings = errors.New("invalid ui settings")
)

// Settings keys shared with saved profiles.
const (
	KeyReferenceDate   = "referenceDate"
	KeyTimeWindowYears = "timeWindowYears"
	KeyActiveSources   = "activeSourceIds"
	KeyMinEventYear    = "minEventYear"
	KeyMaxEventYear    = "maxEventYear"
	KeyLocked          = "isTimelineLockedToCenter"
	KeyMapStyleURL     = "mapStyleUrl"
)

const PeriodAll = "all"

type Options struct {
	Logger    *log.Logger
	Timeline  timeline.Options
	Map       config.MapConfig
	Reference time.Time
	Now       func() time.Time
}

// Session is safe for concurrent use. Loads are serialized by a busy flag
// and fail fast with ErrBusy rather than queueing.
type Session struct {
	db     store.Store
	logger *log.Logger
	now    func() time.Time
	busy   atomic.Bool

	mu           sync.Mutex
	engine       *timeline.Engine
	active       map[string]bool
	reference    time.Time
	windowYears  int
	minYear      int
	maxYear      int
	mapStyleURL  string
	fanOutRadius float64
	expanded     bool
}

func New(db store.Store, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	mapCfg := opts.Map
	defaults := config.DefaultMap()
	if mapCfg.StyleURL == "" {
		mapCfg.StyleURL = defaults.StyleURL
	}
	if mapCfg.TimeWindowYears <= 0 {
		mapCfg.TimeWindowYears = defaults.TimeWindowYears
	}
	reference := opts.Reference
	if reference.IsZero() {
		reference = now()
	}

	tlOpts := opts.Timeline
	if tlOpts.Logger == nil {
		tlOpts.Logger = logger
	}
	if tlOpts.Now == nil {
		tlOpts.Now = now
	}

	s := &Session{
		db:           db,
		logger:       logger,
		now:          now,
		engine:       timeline.NewEngine(tlOpts),
		active:       make(map[string]bool),
		reference:    reference.UTC(),
		windowYears:  mapCfg.TimeWindowYears,
		mapStyleURL:  mapCfg.StyleURL,
		fanOutRadius: mapCfg.FanOutRadius,
	}
	s.mu.Lock()
	s.reload()
	s.mu.Unlock()
	return s
}

func (s *Session) Store() store.Store { return s.db }

func (s *Session) begin() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Session) end() { s.busy.Store(false) }

// Busy reports whether a load is running.
func (s *Session) Busy() bool { return s.busy.Load() }

// IngestFiles loads every source under the configured paths and activates
// all sources.
func (s *Session) IngestFiles(ctx context.Context, cfg *config.ProjectConfig) (*ingest.Result, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	result, err := ingest.Run(ctx, cfg, s.db, ingest.Options{Logger: s.logger})
	if err != nil {
		return result, err
	}
	s.logger.Info("sources ingested", "sources", result.SourcesLoaded, "events", result.EventsLoaded, "errors", len(result.Errors))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activateAll()
	s.reload()
	return result, nil
}

// LoadDocument ingests one source document and activates all sources.
func (s *Session) LoadDocument(content []byte, name string) (*store.SourceDocument, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	doc, err := ingest.LoadDocument(s.db, content, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activateAll()
	s.reload()
	return doc, nil
}

// LoadProfile replaces the store with the profile's data, activates every
// source and then applies the profile's saved settings.
func (s *Session) LoadProfile(p *profile.Profile) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	loaded, err := profile.Load(s.db, p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activateAll()
	s.reload()
	if err := s.applySettings(loaded.UISettings); err != nil {
		s.logger.Warn("profile settings ignored", "profile", loaded.ProfileName, "err", err)
	}
	s.logger.Info("profile loaded", "profile", loaded.ProfileName, "sources", len(loaded.EmbeddedSourceData))
	return nil
}

// ExportProfile snapshots the store together with the session settings.
func (s *Session) ExportProfile(name string) *profile.Profile {
	return profile.Construct(s.db, name, s.UISettings())
}

// RemoveSource drops a source and refreshes the view.
func (s *Session) RemoveSource(id string) error {
	if err := s.db.RemoveSource(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	s.refresh()
	return nil
}

func (s *Session) activateAll() {
	s.active = make(map[string]bool)
	for _, src := range s.db.Sources() {
		s.active[src.ID] = true
	}
}

// reload rebuilds the timeline baseline from the filtered events.
func (s *Session) reload() {
	events := s.filteredEvents()
	s.minYear, s.maxYear = s.eventYears(events)
	s.engine.Load(events, s.db.Themes(), s.reference)
}

// refresh swaps the visible events without moving the view.
func (s *Session) refresh() {
	events := s.filteredEvents()
	s.minYear, s.maxYear = s.eventYears(events)
	s.engine.Refresh(events, s.db.Themes())
}

func (s *Session) eventYears(events []store.Event) (int, int) {
	minYear, maxYear := 0, 0
	found := false
	for _, e := range events {
		t, err := chrono.Parse(e.StartDate)
		if err != nil {
			continue
		}
		if !found || t.Year() < minYear {
			minYear = t.Year()
		}
		if !found || t.Year() > maxYear {
			maxYear = t.Year()
		}
		found = true
	}
	if !found {
		return config.DefaultTimeline().FallbackMinYear, s.now().Year()
	}
	return minYear, maxYear
}

func (s *Session) filteredEvents() []store.Event {
	var out []store.Event
	for _, e := range s.db.Events() {
		if s.active[e.SourceID] {
			out = append(out, e)
		}
	}
	return out
}

// FilteredEvents returns the events of active sources.
func (s *Session) FilteredEvents() []store.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filteredEvents()
}

func (s *Session) SetSourceActive(id string, active bool) error {
	if _, ok := s.db.Source(id); !ok {
		return fmt.Errorf("%w: %s", store.ErrSourceNotFound, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.active[id] = true
	} else {
		delete(s.active, id)
	}
	s.refresh()
	return nil
}

func (s *Session) ActiveSourceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIDs()
}

func (s *Session) activeIDs() []string {
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Session) ReferenceDate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

// SetReferenceDate moves the reference date. A locked timeline recentres on
// it.
func (s *Session) SetReferenceDate(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = date.UTC()
	s.engine.SetReference(s.reference)
}

func (s *Session) SetTimeWindowYears(years int) error {
	if years <= 0 {
		return fmt.Errorf("%w: time window must be positive, got %d", ErrInvalidSettings, years)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windowYears = years
	return nil
}

// SetLocked locks the timeline to the reference date. Locking is refused
// while the timeline is expanded; the return value reports the lock state.
func (s *Session) SetLocked(locked bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(locked)
}

func (s *Session) setLocked(locked bool) bool {
	if locked && s.expanded {
		s.logger.Debug("lock refused while expanded")
		return s.engine.Locked()
	}
	s.engine.SetLocked(locked)
	return locked
}

func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Locked()
}

// SetExpanded toggles the enlarged timeline. Expanding unlocks.
func (s *Session) SetExpanded(expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = expanded
	if expanded && s.engine.Locked() {
		s.engine.SetLocked(false)
	}
}

func (s *Session) Expanded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// JumpToPeriod takes "all" or a "<start>-<end>" year pair such as
// "1500-1600".
func (s *Session) JumpToPeriod(period string) error {
	period = strings.TrimSpace(period)
	if period == PeriodAll {
		return s.Apply(timeline.Command{Kind: timeline.CommandResetZoom})
	}
	startYear, endYear, err := ParsePeriod(period)
	if err != nil {
		return err
	}
	return s.Apply(timeline.Command{
		Kind:  timeline.CommandJumpToPeriod,
		Start: chrono.YearStart(startYear),
		End:   chrono.YearEnd(endYear),
	})
}

func ParsePeriod(period string) (int, int, error) {
	first, second, ok := strings.Cut(period, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	end, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: %q ends before it starts", ErrInvalidPeriod, period)
	}
	return start, end, nil
}

// Apply runs a timeline command.
func (s *Session) Apply(cmd timeline.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Apply(cmd)
}

// Gesture forwards pointer input. Locked timelines reject it.
func (s *Session) Gesture(g timeline.Gesture) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.HandleGesture(g)
}

func (s *Session) Resize(width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Resize(width)
}

func (s *Session) Frame() timeline.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Frame()
}

// View summarises the timeline for callers that only need the numbers.
type View struct {
	State     string  `json:"state"`
	Start     string  `json:"start,omitempty"`
	End       string  `json:"end,omitempty"`
	Reference string  `json:"reference"`
	Scale     float64 `json:"scale"`
	Translate float64 `json:"translate"`
	Locked    bool    `json:"locked"`
	Expanded  bool    `json:"expanded"`
	Items     int     `json:"items"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr := s.engine.Transform()
	v := View{
		State:     s.engine.State().String(),
		Reference: chrono.Format(s.reference),
		Scale:     tr.K,
		Translate: tr.X,
		Locked:    s.engine.Locked(),
		Expanded:  s.expanded,
		Items:     s.engine.Scene().Len(),
	}
	if start, end, ok := s.engine.Domain(); ok {
		v.Start, v.End = chrono.Format(start), chrono.Format(end)
	}
	return v
}

// EventYears is the start-year range of the active events.
func (s *Session) EventYears() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minYear, s.maxYear
}

// Markers projects the active events onto the map around the reference
// date.
func (s *Session) Markers() []mapview.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mapview.Project(s.filteredEvents(), s.db.Themes(), s.reference, s.windowYears, mapview.Options{
		Places:       s.db.Places(),
		FanOutRadius: s.fanOutRadius,
	})
}
