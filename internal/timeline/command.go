package timeline

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotInitialized = errors.New("timeline not initialized")
	ErrUnknownCommand = errors.New("unknown timeline command")
)

type CommandKind string

const (
	CommandZoomIn       CommandKind = "zoomIn"
	CommandZoomOut      CommandKind = "zoomOut"
	CommandPanLeft      CommandKind = "panLeft"
	CommandPanRight     CommandKind = "panRight"
	CommandResetZoom    CommandKind = "resetZoom"
	CommandJumpToPeriod CommandKind = "jumpToPeriod"
	CommandCenterOnDate CommandKind = "centerOnDate"
	CommandJumpToYear   CommandKind = "jumpToYear"
	CommandSetZoomLevel CommandKind = "setZoomLevel"
)

var commandKinds = map[CommandKind]struct{}{
	CommandZoomIn:       {},
	CommandZoomOut:      {},
	CommandPanLeft:      {},
	CommandPanRight:     {},
	CommandResetZoom:    {},
	CommandJumpToPeriod: {},
	CommandCenterOnDate: {},
	CommandJumpToYear:   {},
	CommandSetZoomLevel: {},
}

func ParseCommandKind(name string) (CommandKind, error) {
	kind := CommandKind(name)
	if _, ok := commandKinds[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return kind, nil
}

type ZoomLevel string

const (
	ZoomDecade  ZoomLevel = "decade"
	ZoomCentury ZoomLevel = "century"
)

func (z ZoomLevel) years() (int, bool) {
	switch z {
	case ZoomDecade:
		return 10, true
	case ZoomCentury:
		return 100, true
	default:
		return 0, false
	}
}

// Command is one navigation request. Only the fields its Kind reads are
// consulted: Start/End for jumpToPeriod, Date for centerOnDate, Year for
// jumpToYear and Level for setZoomLevel.
type Command struct {
	Kind  CommandKind
	Start time.Time
	End   time.Time
	Date  time.Time
	Year  int
	Level ZoomLevel
}

// Apply runs cmd against the engine. Unlike the method forms it reports
// navigation issued before the engine is initialized.
func (e *Engine) Apply(cmd Command) error {
	if _, ok := commandKinds[cmd.Kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	if !e.initialized {
		return fmt.Errorf("%s: %w", cmd.Kind, ErrNotInitialized)
	}

	switch cmd.Kind {
	case CommandZoomIn:
		e.ZoomIn()
	case CommandZoomOut:
		e.ZoomOut()
	case CommandPanLeft:
		e.PanLeft()
	case CommandPanRight:
		e.PanRight()
	case CommandResetZoom:
		e.ResetZoom()
	case CommandJumpToPeriod:
		if cmd.End.Before(cmd.Start) {
			return fmt.Errorf("%s: end %s before start %s", cmd.Kind, cmd.End.Format(time.DateOnly), cmd.Start.Format(time.DateOnly))
		}
		e.JumpToPeriod(cmd.Start, cmd.End)
	case CommandCenterOnDate:
		e.CenterOnDate(cmd.Date)
	case CommandJumpToYear:
		e.JumpToYear(cmd.Year)
	case CommandSetZoomLevel:
		if _, ok := cmd.Level.years(); !ok {
			return fmt.Errorf("%s: unknown zoom level %q", cmd.Kind, cmd.Level)
		}
		e.SetZoomLevel(cmd.Level)
	}
	return nil
}
