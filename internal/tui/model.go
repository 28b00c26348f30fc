// Package tui is a terminal browser over an explorer session: a themed
// swimlane timeline with the map window summarised below it.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"chronomap/internal/chrono"
	"chronomap/internal/explorer"
	"chronomap/internal/timeline"
)

const labelWidth = 16

type prompt int

const (
	promptNone prompt = iota
	promptYear
	promptPeriod
	promptReference
)

func (p prompt) label() string {
	switch p {
	case promptYear:
		return "Jump to year: "
	case promptPeriod:
		return "Period (start-end or all): "
	case promptReference:
		return "Reference date: "
	default:
		return ""
	}
}

type Model struct {
	session *explorer.Session
	input   textinput.Model
	prompt  prompt

	width  int
	height int
	status string
	err    error

	dragging bool
	dragX    int
}

func New(session *explorer.Session) Model {
	ti := textinput.New()
	ti.CharLimit = 40
	ti.Width = 30
	return Model{session: session, input: ti}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.session.Resize(float64(m.trackWidth()))
		return m, nil
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) trackWidth() int {
	return max(0, m.width-labelWidth-1)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.status = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.ZoomIn):
		m.apply(timeline.Command{Kind: timeline.CommandZoomIn})
	case key.Matches(msg, keys.ZoomOut):
		m.apply(timeline.Command{Kind: timeline.CommandZoomOut})
	case key.Matches(msg, keys.PanLeft):
		m.apply(timeline.Command{Kind: timeline.CommandPanLeft})
	case key.Matches(msg, keys.PanRight):
		m.apply(timeline.Command{Kind: timeline.CommandPanRight})
	case key.Matches(msg, keys.Reset):
		m.apply(timeline.Command{Kind: timeline.CommandResetZoom})
	case key.Matches(msg, keys.Decade):
		m.apply(timeline.Command{Kind: timeline.CommandSetZoomLevel, Level: timeline.ZoomDecade})
	case key.Matches(msg, keys.Century):
		m.apply(timeline.Command{Kind: timeline.CommandSetZoomLevel, Level: timeline.ZoomCentury})
	case key.Matches(msg, keys.Lock):
		want := !m.session.Locked()
		if m.session.SetLocked(want) != want {
			m.status = "cannot lock while the timeline is expanded"
		}
	case key.Matches(msg, keys.Expand):
		m.session.SetExpanded(!m.session.Expanded())
	case key.Matches(msg, keys.ReferenceBack):
		m.session.SetReferenceDate(m.session.ReferenceDate().AddDate(-1, 0, 0))
	case key.Matches(msg, keys.ReferenceNext):
		m.session.SetReferenceDate(m.session.ReferenceDate().AddDate(1, 0, 0))
	case key.Matches(msg, keys.JumpYear):
		return m.openPrompt(promptYear)
	case key.Matches(msg, keys.JumpPeriod):
		return m.openPrompt(promptPeriod)
	case key.Matches(msg, keys.Reference):
		return m.openPrompt(promptReference)
	}
	return m, nil
}

// wheelStep is the pixel delta of one wheel notch.
const wheelStep = 100

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m, nil
	}
	x := min(max(0, msg.X-labelWidth-1), m.trackWidth())

	var g timeline.Gesture
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		g = timeline.Gesture{Kind: timeline.GestureWheel, X: float64(x), Delta: -wheelStep}
	case msg.Button == tea.MouseButtonWheelDown:
		g = timeline.Gesture{Kind: timeline.GestureWheel, X: float64(x), Delta: wheelStep}
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		m.dragging, m.dragX = true, msg.X
		return m, nil
	case msg.Action == tea.MouseActionMotion && m.dragging:
		g = timeline.Gesture{Kind: timeline.GestureDrag, Delta: float64(msg.X - m.dragX)}
		m.dragX = msg.X
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
		return m, nil
	default:
		return m, nil
	}

	m.status = ""
	if !m.session.Gesture(g) {
		m.status = "timeline is locked"
	}
	return m, nil
}

func (m *Model) apply(cmd timeline.Command) {
	if err := m.session.Apply(cmd); err != nil {
		m.err = err
	}
}

func (m Model) openPrompt(p prompt) (tea.Model, tea.Cmd) {
	m.prompt = p
	m.input.Prompt = p.label()
	m.input.SetValue("")
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Cancel):
		m.closePrompt()
		return m, nil
	case key.Matches(msg, keys.Submit):
		value := strings.TrimSpace(m.input.Value())
		p := m.prompt
		m.closePrompt()
		m.err = m.submit(p, value)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
}

func (m *Model) submit(p prompt, value string) error {
	switch p {
	case promptYear:
		year, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("year %q: %w", value, err)
		}
		return m.session.Apply(timeline.Command{Kind: timeline.CommandJumpToYear, Year: year})
	case promptPeriod:
		return m.session.JumpToPeriod(value)
	case promptReference:
		date, err := chrono.Parse(value)
		if err != nil {
			return err
		}
		m.session.SetReferenceDate(date)
		m.status = "reference " + chrono.Format(date)
	}
	return nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading…"
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(renderTimeline(m.session.Frame(), m.trackWidth()))
	b.WriteString("\n")
	if !m.session.Expanded() {
		b.WriteString(m.mapSummary())
		b.WriteString("\n")
	}
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) header() string {
	v := m.session.View()
	var parts []string
	if v.Start != "" {
		parts = append(parts, fmt.Sprintf("%s → %s", v.Start, v.End))
	} else {
		parts = append(parts, "no data")
	}
	parts = append(parts, "ref "+v.Reference, fmt.Sprintf("%d events", v.Items))
	if v.Locked {
		parts = append(parts, "locked")
	}
	if v.Expanded {
		parts = append(parts, "expanded")
	}
	return titleStyle.Render("chronomap") + " " + dimStyle.Render(strings.Join(parts, "  ·  "))
}

func (m Model) mapSummary() string {
	markers := m.session.Markers()
	if len(markers) == 0 {
		return dimStyle.Render("map: no located events in the reference window")
	}
	var lines []string
	lines = append(lines, dimStyle.Render(fmt.Sprintf("map: %d located events in the reference window", len(markers))))
	limit := min(len(markers), max(1, m.height-len(m.session.Frame().Lanes)-8))
	for _, mk := range markers[:limit] {
		dot := markerStyle(mk.Fill, mk.Border).Render("●")
		lines = append(lines, fmt.Sprintf(" %s %s %s (%.2f, %.2f)", dot, chrono.Format(mk.Date), truncate(mk.Title, 40), mk.Latitude, mk.Longitude))
	}
	return strings.Join(lines, "\n")
}

func (m Model) footer() string {
	if m.prompt != promptNone {
		return m.input.View()
	}
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	if m.status != "" {
		return dimStyle.Render(m.status)
	}
	var help []string
	for _, b := range keys.help() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return dimStyle.Render(strings.Join(help, "  "))
}
