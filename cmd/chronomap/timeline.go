package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chronomap/internal/chrono"
	"chronomap/internal/explorer"
	"chronomap/internal/timeline"
)

type timelineFlags struct {
	commands  []string
	period    string
	year      int
	reference string
	window    int
	lock      bool
	sources   []string
	markers   bool
}

func timelineCmd() *cobra.Command {
	var flags timelineFlags
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Drive the timeline headlessly and print the visible window",
		Long: `Loads the configured sources, applies the navigation flags in order
(reference, period, year, then each --do) and prints the resulting domain,
ticks and visible items.

--do takes a command name with an optional argument after a colon:
  zoomIn, zoomOut, panLeft, panRight, resetZoom,
  jumpToYear:1822, centerOnDate:1822-09-07,
  jumpToPeriod:1808-01-01..1822-12-31, setZoomLevel:decade`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(cmd, flags)
		},
	}
	cmd.Flags().StringArrayVar(&flags.commands, "do", nil, "Timeline command to apply (repeatable)")
	cmd.Flags().StringVar(&flags.period, "period", "", "Jump to a year range such as 1800-1850, or all")
	cmd.Flags().IntVar(&flags.year, "year", 0, "Centre the view on a year")
	cmd.Flags().StringVar(&flags.reference, "reference", "", "Reference date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&flags.window, "window", 0, "Map time window in years")
	cmd.Flags().BoolVar(&flags.lock, "lock", false, "Lock the view to the reference date")
	cmd.Flags().StringSliceVar(&flags.sources, "source", nil, "Only show these source ids")
	cmd.Flags().BoolVar(&flags.markers, "markers", false, "Also print the map markers around the reference date")
	return cmd
}

func runTimeline(cmd *cobra.Command, flags timelineFlags) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := stderrLogger(cfg)
	if err != nil {
		return err
	}
	session, err := loadSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := applyTimelineFlags(session, flags); err != nil {
		return err
	}
	printTimeline(session, flags.markers)
	return nil
}

func applyTimelineFlags(session *explorer.Session, flags timelineFlags) error {
	if len(flags.sources) > 0 {
		keep := make(map[string]bool, len(flags.sources))
		for _, id := range flags.sources {
			if _, ok := session.Store().Source(id); !ok {
				return fmt.Errorf("unknown source %q", id)
			}
			keep[id] = true
		}
		for _, s := range session.Store().Sources() {
			if err := session.SetSourceActive(s.ID, keep[s.ID]); err != nil {
				return err
			}
		}
	}
	if flags.window > 0 {
		if err := session.SetTimeWindowYears(flags.window); err != nil {
			return err
		}
	}
	if flags.reference != "" {
		date, err := chrono.Parse(flags.reference)
		if err != nil {
			return err
		}
		session.SetReferenceDate(date)
	}
	if flags.lock && !session.SetLocked(true) {
		return fmt.Errorf("cannot lock the timeline while it is expanded")
	}
	if flags.period != "" {
		if err := session.JumpToPeriod(flags.period); err != nil {
			return err
		}
	}
	if flags.year != 0 {
		if err := session.Apply(timeline.Command{Kind: timeline.CommandJumpToYear, Year: flags.year}); err != nil {
			return err
		}
	}
	for _, raw := range flags.commands {
		command, err := parseTimelineCommand(raw)
		if err != nil {
			return err
		}
		if err := session.Apply(command); err != nil {
			return fmt.Errorf("%s: %w", raw, err)
		}
	}
	return nil
}

// parseTimelineCommand reads "name" or "name:argument".
func parseTimelineCommand(raw string) (timeline.Command, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(raw), ":")
	kind, err := timeline.ParseCommandKind(name)
	if err != nil {
		return timeline.Command{}, err
	}
	command := timeline.Command{Kind: kind}

	switch kind {
	case timeline.CommandJumpToYear:
		year, err := strconv.Atoi(arg)
		if err != nil {
			return timeline.Command{}, fmt.Errorf("%s needs a year: %w", kind, err)
		}
		command.Year = year
	case timeline.CommandCenterOnDate:
		date, err := chrono.Parse(arg)
		if err != nil {
			return timeline.Command{}, fmt.Errorf("%s: %w", kind, err)
		}
		command.Date = date
	case timeline.CommandJumpToPeriod:
		first, second, ok := strings.Cut(arg, "..")
		if !ok {
			return timeline.Command{}, fmt.Errorf("%s needs start..end, got %q", kind, arg)
		}
		start, err := chrono.Parse(first)
		if err != nil {
			return timeline.Command{}, fmt.Errorf("%s start: %w", kind, err)
		}
		end, err := chrono.Parse(second)
		if err != nil {
			return timeline.Command{}, fmt.Errorf("%s end: %w", kind, err)
		}
		command.Start, command.End = start, end
	case timeline.CommandSetZoomLevel:
		command.Level = timeline.ZoomLevel(arg)
	default:
		if arg != "" {
			return timeline.Command{}, fmt.Errorf("%s takes no argument", kind)
		}
	}
	return command, nil
}

func printTimeline(session *explorer.Session, markers bool) {
	view := session.View()
	frame := session.Frame()

	fmt.Fprintf(os.Stdout, "State: %s\n", view.State)
	if view.Start != "" {
		fmt.Fprintf(os.Stdout, "Window: %s to %s\n", view.Start, view.End)
	}
	fmt.Fprintf(os.Stdout, "Reference: %s", view.Reference)
	if view.Locked {
		fmt.Fprint(os.Stdout, " (locked)")
	}
	fmt.Fprintln(os.Stdout)
	fmt.Fprintf(os.Stdout, "Zoom: k=%.3f x=%.1f\n", view.Scale, view.Translate)

	if len(frame.Ticks) > 0 {
		labels := make([]string, 0, len(frame.Ticks))
		for _, tick := range frame.Ticks {
			labels = append(labels, tick.Label)
		}
		fmt.Fprintf(os.Stdout, "Ticks: %s\n", strings.Join(labels, " "))
	}

	lanes := make(map[int]string, len(frame.Lanes))
	for _, lane := range frame.Lanes {
		lanes[lane.Index] = lane.Name
	}
	d0, d1 := chrono.Millis(frame.Start), chrono.Millis(frame.End)

	visible := 0
	for _, item := range frame.Items {
		end := max(item.End, item.Start)
		if frame.Start.IsZero() || end < d0 || item.Start > d1 {
			continue
		}
		if visible == 0 {
			fmt.Fprintln(os.Stdout, "\nVisible events:")
		}
		visible++
		when := chrono.Format(chrono.FromMillis(item.Start))
		if item.Kind == timeline.ItemBar {
			when += " to " + chrono.Format(chrono.FromMillis(item.End))
		}
		fmt.Fprintf(os.Stdout, "  %s  %s [%s] %s\n", when, item.Title, lanes[item.Lane], item.ID)
	}
	if visible == 0 {
		fmt.Fprintln(os.Stdout, "\nNo events in view.")
	}

	if !markers {
		return
	}
	ms := session.Markers()
	if len(ms) == 0 {
		fmt.Fprintln(os.Stdout, "\nNo located events around the reference date.")
		return
	}
	fmt.Fprintln(os.Stdout, "\nMap markers:")
	for _, m := range ms {
		fmt.Fprintf(os.Stdout, "  %s  %s (%.4f, %.4f) %s\n", chrono.Format(m.Date), m.Title, m.Latitude, m.Longitude, m.Fill)
	}
}
