package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit          key.Binding
	ZoomIn        key.Binding
	ZoomOut       key.Binding
	PanLeft       key.Binding
	PanRight      key.Binding
	Reset         key.Binding
	Lock          key.Binding
	Expand        key.Binding
	Decade        key.Binding
	Century       key.Binding
	JumpYear      key.Binding
	JumpPeriod    key.Binding
	Reference     key.Binding
	ReferenceBack key.Binding
	ReferenceNext key.Binding
	Submit        key.Binding
	Cancel        key.Binding
}

var keys = keyMap{
	Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	ZoomIn:        key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:       key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	PanLeft:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "pan")),
	PanRight:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "pan")),
	Reset:         key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset")),
	Lock:          key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "lock")),
	Expand:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand")),
	Decade:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "decade")),
	Century:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "century")),
	JumpYear:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "year")),
	JumpPeriod:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "period")),
	Reference:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reference")),
	ReferenceBack: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "ref -1y")),
	ReferenceNext: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "ref +1y")),
	Submit:        key.NewBinding(key.WithKeys("enter")),
	Cancel:        key.NewBinding(key.WithKeys("esc")),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.PanLeft, k.PanRight, k.Reset, k.Decade, k.Century, k.JumpYear, k.JumpPeriod, k.Reference, k.ReferenceBack, k.ReferenceNext, k.Lock, k.Expand, k.Quit}
}
