package timeline

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"chronomap/internal/chrono"
	"chronomap/internal/config"
	"chronomap/internal/logging"
	"chronomap/internal/store"
)

type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateInteracting
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateInteracting:
		return "interacting"
	case StateLocked:
		return "locked"
	default:
		return "uninitialized"
	}
}

type Options struct {
	Width           float64
	SpanYears       int
	FallbackMinYear int
	ZoomInFactor    float64
	ZoomOutFactor   float64
	PanStep         float64
	Extent          Extent
	Renderer        Renderer
	Logger          *log.Logger
	Now             func() time.Time
}

func OptionsFromConfig(cfg config.TimelineConfig) Options {
	return Options{
		Width:           float64(cfg.Width),
		SpanYears:       cfg.DefaultSpanYears,
		FallbackMinYear: cfg.FallbackMinYear,
		ZoomInFactor:    cfg.ZoomInFactor,
		ZoomOutFactor:   cfg.ZoomOutFactor,
		PanStep:         cfg.PanStep,
		Extent:          Extent{Min: cfg.MinScale, Max: cfg.MaxScale},
	}
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultTimeline())
}

// Renderer receives a snapshot after every redraw.
type Renderer interface {
	Render(Frame)
}

type RendererFunc func(Frame)

func (f RendererFunc) Render(frame Frame) { f(frame) }

type Frame struct {
	State     State
	Start     time.Time
	End       time.Time
	Transform Transform
	Items     []Item
	Lanes     []Lane
	Ticks     []Tick
	Reference Marker
}

// Marker is the reference date line. Visible is false when the date lies
// outside the domain.
type Marker struct {
	Date    time.Time
	X       float64
	Visible bool
}

type GestureKind int

const (
	GestureWheel GestureKind = iota
	GestureDrag
)

// Gesture is pointer input. For a wheel, X is the pointer position and Delta
// the wheel delta in pixels. For a drag, Delta is the horizontal movement.
type Gesture struct {
	Kind  GestureKind
	X     float64
	Delta float64
}

const wheelSensitivity = 0.002

// Engine owns the time-to-pixel mapping of one timeline. It is not safe for
// concurrent use.
type Engine struct {
	opts   Options
	logger *log.Logger

	width       float64
	loaded      bool
	initialized bool
	interacting bool
	locked      bool

	events    []store.Event
	themes    []store.Theme
	reference time.Time
	minYear   int
	maxYear   int

	base      Scale
	scale     Scale
	transform Transform
	scene     *Scene
}

func NewEngine(opts Options) *Engine {
	defaults := DefaultOptions()
	if opts.SpanYears <= 0 {
		opts.SpanYears = defaults.SpanYears
	}
	if opts.FallbackMinYear == 0 {
		opts.FallbackMinYear = defaults.FallbackMinYear
	}
	if opts.ZoomInFactor <= 0 {
		opts.ZoomInFactor = defaults.ZoomInFactor
	}
	if opts.ZoomOutFactor <= 0 {
		opts.ZoomOutFactor = defaults.ZoomOutFactor
	}
	if opts.PanStep == 0 {
		opts.PanStep = defaults.PanStep
	}
	if opts.Extent.Min <= 0 || opts.Extent.Max <= opts.Extent.Min {
		opts.Extent = defaults.Extent
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	e := &Engine{
		opts:      opts,
		logger:    logger,
		transform: Identity,
		scene:     NewScene(),
	}
	e.width = opts.Width
	return e
}

func (e *Engine) State() State {
	switch {
	case !e.initialized:
		return StateUninitialized
	case e.locked:
		return StateLocked
	case e.interacting:
		return StateInteracting
	default:
		return StateInitialized
	}
}

func (e *Engine) Initialized() bool { return e.initialized }

func (e *Engine) Locked() bool { return e.locked }

func (e *Engine) Reference() time.Time { return e.reference }

func (e *Engine) Transform() Transform { return e.transform }

func (e *Engine) Scene() *Scene { return e.scene }

// DataYears is the year range the loaded events cover.
func (e *Engine) DataYears() (int, int) { return e.minYear, e.maxYear }

// Domain returns the visible interval. ok is false before initialization.
func (e *Engine) Domain() (start, end time.Time, ok bool) {
	if !e.initialized {
		return time.Time{}, time.Time{}, false
	}
	start, end = e.scale.Domain()
	return start, end, true
}

// Resize sets the pixel width. The visible domain is kept.
func (e *Engine) Resize(width float64) {
	e.width = width
	if width <= 0 {
		e.initialized = false
		return
	}
	if !e.initialized {
		if e.loaded {
			e.initialize()
		}
		return
	}
	d0, d1 := e.scale.DomainMillis()
	e.base = e.base.WithRange(0, width)
	e.scale = e.scale.WithRange(0, width)
	e.transform = TransformFor(e.base, d0, d1)
	e.redraw()
}

// Load replaces the event set and rebuilds the baseline around reference.
// The engine initializes as soon as it also has a positive width.
func (e *Engine) Load(events []store.Event, themes []store.Theme, reference time.Time) {
	e.events = append([]store.Event(nil), events...)
	e.themes = append([]store.Theme(nil), themes...)
	if reference.IsZero() {
		reference = e.opts.Now()
	}
	e.reference = reference.UTC()
	e.loaded = true
	e.minYear, e.maxYear = e.dataYears()
	e.scene.Sync(e.events, e.themes)

	if e.width <= 0 {
		e.logger.Debug("timeline waiting for a width", "events", len(events))
		return
	}
	e.initialize()
}

// Refresh swaps the event set without moving the view. Used when filtering
// changes which events are shown.
func (e *Engine) Refresh(events []store.Event, themes []store.Theme) Diff {
	e.events = append([]store.Event(nil), events...)
	e.themes = append([]store.Theme(nil), themes...)
	diff := e.scene.Sync(e.events, e.themes)
	if e.initialized {
		e.redraw()
	}
	return diff
}

func (e *Engine) initialize() {
	start, end := initialDomain(e.reference, e.minYear, e.maxYear, e.opts.SpanYears)
	e.base = NewScale(start, end, 0, e.width)
	e.scale = e.base
	e.transform = Identity
	e.initialized = true
	e.interacting = false
	e.logger.Debug("timeline initialized", "start", chrono.Format(start), "end", chrono.Format(end))
	if e.locked {
		e.centerOn(chrono.Millis(e.reference))
		return
	}
	e.redraw()
}

func (e *Engine) dataYears() (int, int) {
	minYear, maxYear := math.MaxInt, math.MinInt
	note := func(value string) {
		t, err := chrono.Parse(value)
		if err != nil {
			return
		}
		minYear = min(minYear, t.Year())
		maxYear = max(maxYear, t.Year())
	}
	for _, ev := range e.events {
		note(ev.StartDate)
		if ev.EndDate != nil {
			note(*ev.EndDate)
		}
	}
	if minYear == math.MaxInt {
		return e.opts.FallbackMinYear, e.opts.Now().Year()
	}
	return minYear, maxYear
}

// initialDomain picks a span of spanYears centred on the reference year and
// clamps it into the data years. An inverted result falls back to the whole
// data range.
func initialDomain(reference time.Time, minYear, maxYear, spanYears int) (time.Time, time.Time) {
	half := spanYears / 2
	refYear := reference.Year()
	startYear, endYear := refYear-half, refYear+half

	if startYear < minYear {
		startYear = minYear
		endYear = min(minYear+spanYears, maxYear)
	}
	if endYear > maxYear {
		endYear = maxYear
		startYear = max(maxYear-spanYears, minYear)
	}

	start, end := chrono.YearStart(startYear), chrono.YearEnd(endYear)
	if !start.Before(end) {
		return chrono.YearStart(minYear), chrono.YearEnd(maxYear)
	}
	return start, end
}

// HandleGesture applies pointer input. It reports false when the input was
// rejected because the engine is locked or not initialized.
func (e *Engine) HandleGesture(g Gesture) bool {
	if !e.initialized || e.locked {
		return false
	}
	switch g.Kind {
	case GestureWheel:
		factor := math.Pow(2, -g.Delta*wheelSensitivity)
		e.applyTransform(e.transform.ScaleBy(factor, g.X, e.opts.Extent))
	case GestureDrag:
		e.applyTransform(e.transform.TranslateBy(g.Delta))
	default:
		return false
	}
	return true
}

func (e *Engine) ZoomIn() {
	if e.ignored("zoomIn") {
		return
	}
	e.applyTransform(e.transform.ScaleBy(e.opts.ZoomInFactor, e.width/2, e.opts.Extent))
}

func (e *Engine) ZoomOut() {
	if e.ignored("zoomOut") {
		return
	}
	e.applyTransform(e.transform.ScaleBy(e.opts.ZoomOutFactor, e.width/2, e.opts.Extent))
}

func (e *Engine) PanLeft() {
	if e.ignored("panLeft") {
		return
	}
	e.applyTransform(e.transform.TranslateBy(e.opts.PanStep))
}

func (e *Engine) PanRight() {
	if e.ignored("panRight") {
		return
	}
	e.applyTransform(e.transform.TranslateBy(-e.opts.PanStep))
}

// ResetZoom returns to the baseline domain.
func (e *Engine) ResetZoom() {
	if e.ignored("resetZoom") {
		return
	}
	e.transform = Identity
	e.scale = e.base
	e.interacting = false
	e.redraw()
}

// JumpToPeriod centres the current view width on the middle of
// [start, end].
func (e *Engine) JumpToPeriod(start, end time.Time) {
	if e.ignored("jumpToPeriod") {
		return
	}
	mid := math.Round((chrono.Millis(start) + chrono.Millis(end)) / 2)
	e.centerOn(mid)
}

func (e *Engine) CenterOnDate(date time.Time) {
	if e.ignored("centerOnDate") {
		return
	}
	e.centerOn(chrono.Millis(date))
}

func (e *Engine) JumpToYear(year int) {
	if e.ignored("jumpToYear") {
		return
	}
	e.centerOn(chrono.Millis(chrono.MidYear(year)))
}

// SetZoomLevel shows a fixed number of years around the current centre.
// Unknown levels are ignored.
func (e *Engine) SetZoomLevel(level ZoomLevel) {
	if e.ignored("setZoomLevel") {
		return
	}
	years, ok := level.years()
	if !ok {
		e.logger.Debug("unknown zoom level", "level", level)
		return
	}
	e.setDomain(math.Round(e.scale.Center()), float64(years)*millisPerYear)
}

// SetLocked toggles locking. Locking recentres on the reference date.
func (e *Engine) SetLocked(locked bool) {
	e.locked = locked
	if locked && e.initialized {
		e.centerOn(chrono.Millis(e.reference))
	}
}

// SetReference moves the reference marker. A locked engine follows it.
func (e *Engine) SetReference(date time.Time) {
	e.reference = date.UTC()
	if !e.initialized {
		return
	}
	if e.locked {
		e.centerOn(chrono.Millis(e.reference))
		return
	}
	e.redraw()
}

func (e *Engine) ignored(op string) bool {
	if e.initialized {
		return false
	}
	e.logger.Debug("navigation ignored before initialization", "command", op)
	return true
}

func (e *Engine) centerOn(center float64) {
	e.setDomain(center, e.scale.Span())
}

// setDomain shows span milliseconds centred on center. A span the zoom
// extent cannot express is clamped about the same centre so the transform
// and the domain stay in agreement.
func (e *Engine) setDomain(center, span float64) {
	baseSpan := e.base.Span()
	if span > 0 && baseSpan > 0 {
		k := e.opts.Extent.Clamp(baseSpan / span)
		span = baseSpan / k
	}
	half := math.Round(span / 2)
	d0, d1 := center-half, center+half
	e.scale = e.base.WithDomain(d0, d1)
	e.transform = TransformFor(e.base, d0, d1)
	e.interacting = true
	e.redraw()
}

func (e *Engine) applyTransform(t Transform) {
	e.transform = t
	e.scale = t.RescaleX(e.base)
	e.interacting = true
	e.redraw()
}

// redraw repositions every retained item, the ticks and the reference
// marker, then hands the frame to the renderer.
func (e *Engine) redraw() {
	e.scene.layout(e.scale)
	if e.opts.Renderer != nil {
		e.opts.Renderer.Render(e.Frame())
	}
}

// Frame snapshots the current view.
func (e *Engine) Frame() Frame {
	frame := Frame{
		State:     e.State(),
		Transform: e.transform,
		Items:     e.scene.Items(),
		Lanes:     e.scene.Lanes(),
		Reference: Marker{Date: e.reference},
	}
	if !e.initialized {
		return frame
	}
	frame.Start, frame.End = e.scale.Domain()
	frame.Ticks = Ticks(e.scale)
	ref := chrono.Millis(e.reference)
	d0, d1 := e.scale.DomainMillis()
	frame.Reference.X = e.scale.MapMillis(ref)
	frame.Reference.Visible = ref >= d0 && ref <= d1
	return frame
}
