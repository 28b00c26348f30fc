package timeline

import (
	"math"
	"strconv"
	"time"

	"chronomap/internal/chrono"
)

type Tick struct {
	At    time.Time
	X     float64
	Label string
}

const (
	targetTicks   = 10
	millisPerYear = 365.2425 * chrono.MillisPerDay
)

var yearSteps = []int{1, 2, 5, 10, 20, 25, 50, 100, 200, 250, 500, 1000, 2000, 5000}

var monthSteps = []int{1, 2, 3, 6}

var daySteps = []int{1, 2, 7, 14}

// Ticks places roughly targetTicks labelled marks on round calendar
// boundaries inside the scale's domain.
func Ticks(s Scale) []Tick {
	d0, d1 := s.DomainMillis()
	if d1 <= d0 {
		return nil
	}
	span := d1 - d0
	start, end := chrono.FromMillis(d0), chrono.FromMillis(d1)

	switch {
	case span >= 2*millisPerYear:
		step := pickStep(span/millisPerYear, yearSteps)
		first := ceilTo(start.Year(), step)
		if chrono.YearStart(first).Before(start) {
			first += step
		}
		var ticks []Tick
		for y := first; !chrono.YearStart(y).After(end); y += step {
			at := chrono.YearStart(y)
			ticks = append(ticks, Tick{At: at, X: s.Map(at), Label: strconv.Itoa(y)})
		}
		return ticks
	case span >= 60*chrono.MillisPerDay:
		step := pickStep(span/(millisPerYear/12), monthSteps)
		at := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for at.Before(start) || (int(at.Month())-1)%step != 0 {
			at = at.AddDate(0, 1, 0)
		}
		var ticks []Tick
		for ; !at.After(end); at = at.AddDate(0, step, 0) {
			ticks = append(ticks, Tick{At: at, X: s.Map(at), Label: at.Format("Jan 2006")})
		}
		return ticks
	default:
		step := pickStep(span/chrono.MillisPerDay, daySteps)
		at := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		if at.Before(start) {
			at = at.AddDate(0, 0, 1)
		}
		var ticks []Tick
		for ; !at.After(end); at = at.AddDate(0, 0, step) {
			ticks = append(ticks, Tick{At: at, X: s.Map(at), Label: chrono.Format(at)})
		}
		return ticks
	}
}

func pickStep(units float64, steps []int) int {
	want := units / targetTicks
	for _, step := range steps {
		if float64(step) >= want {
			return step
		}
	}
	last := steps[len(steps)-1]
	return last * int(math.Ceil(want/float64(last)))
}

func ceilTo(year, step int) int {
	r := year % step
	if r == 0 {
		return year
	}
	if year < 0 {
		return year - r
	}
	return year + step - r
}
