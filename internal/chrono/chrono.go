// Package chrono converts event dates between their text form and the
// millisecond axis the timeline works on. Everything is UTC.
package chrono

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrInvalidDate = errors.New("invalid date")

const DateLayout = "2006-01-02"

const MillisPerDay = 24 * 60 * 60 * 1000

var strictLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01",
	"2006",
}

// Parse reads an event date. ISO forms are tried first; anything else goes
// through dateparse.
func Parse(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range strictLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t.UTC(), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(value string) time.Time {
	t, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return t
}

func Millis(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func FromMillis(ms float64) time.Time {
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func YearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// MidYear is the instant halfway through the calendar year.
func MidYear(year int) time.Time {
	start := YearStart(year).UnixMilli()
	end := YearStart(year + 1).UnixMilli()
	return time.UnixMilli(start + (end-start)/2).UTC()
}

func Format(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DaysBetween is the absolute distance between a and b in days.
func DaysBetween(a, b time.Time) float64 {
	return math.Abs(Millis(a)-Millis(b)) / MillisPerDay
}
