// Package mapview turns events into styled map markers around a reference
// date.
package mapview

import (
	"math"
	"sort"
	"time"

	"chronomap/internal/chrono"
	"chronomap/internal/store"
)

const (
	DefaultFill = "#808080"
	BorderOlder = "#FF0000"
	BorderNewer = "#0000FF"
	BorderSame  = "#FFFFFF"
	NearOpacity = 1.0
	FarOpacity  = 0.6
)

const nearWithinDays = 365

type Marker struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Date      time.Time `json:"date"`
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
	Fill      string    `json:"fill"`
	Border    string    `json:"border"`
	Opacity   float64   `json:"opacity"`
}

// Options tunes Project. Places, when set, supplies coordinates for events
// that have none of their own but reference a located place.
type Options struct {
	Places       []store.Place
	FanOutRadius float64
}

// Project returns markers for events that have coordinates and start within
// windowYears of reference, in event order.
func Project(events []store.Event, themes []store.Theme, reference time.Time, windowYears int, opts Options) []Marker {
	colors := make(map[string]string, len(themes))
	for _, t := range themes {
		colors[t.ID] = t.Color
	}
	places := make(map[string]store.Place, len(opts.Places))
	for _, p := range opts.Places {
		places[p.GlobalID] = p
	}

	reference = reference.UTC()
	lower := reference.AddDate(-windowYears, 0, 0)
	upper := reference.AddDate(windowYears, 0, 0)

	markers := make([]Marker, 0, len(events))
	for _, e := range events {
		lon, lat, ok := coordinates(e, places)
		if !ok {
			continue
		}
		date, err := chrono.Parse(e.StartDate)
		if err != nil || date.Before(lower) || date.After(upper) {
			continue
		}

		m := Marker{
			ID:        e.GlobalID,
			Title:     e.Title,
			Source:    e.SourceID,
			Date:      date,
			Longitude: lon,
			Latitude:  lat,
			Fill:      DefaultFill,
			Border:    BorderSame,
			Opacity:   FarOpacity,
		}
		if e.MainThemeID != nil {
			if color, ok := colors[*e.MainThemeID]; ok && color != "" {
				m.Fill = color
			}
		}
		switch {
		case date.Before(reference):
			m.Border = BorderOlder
		case date.After(reference):
			m.Border = BorderNewer
		}
		if chrono.DaysBetween(date, reference) <= nearWithinDays {
			m.Opacity = NearOpacity
		}
		markers = append(markers, m)
	}

	if opts.FanOutRadius > 0 {
		markers = FanOut(markers, opts.FanOutRadius)
	}
	return markers
}

func coordinates(e store.Event, places map[string]store.Place) (float64, float64, bool) {
	if e.Longitude != nil && e.Latitude != nil {
		return *e.Longitude, *e.Latitude, true
	}
	if e.PlaceID == nil {
		return 0, 0, false
	}
	p, ok := places[*e.PlaceID]
	if !ok || p.Longitude == nil || p.Latitude == nil {
		return 0, 0, false
	}
	return *p.Longitude, *p.Latitude, true
}

type point struct {
	lon, lat float64
}

// FanOut spreads markers that share an exact coordinate evenly around a
// circle of radius degrees centred on that coordinate. Markers on a shared
// point are placed in global id order. Lone markers are left alone.
func FanOut(markers []Marker, radius float64) []Marker {
	out := append([]Marker(nil), markers...)
	groups := make(map[point][]int)
	for i, m := range out {
		key := point{m.Longitude, m.Latitude}
		groups[key] = append(groups[key], i)
	}

	for key, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		sort.Slice(idx, func(a, b int) bool { return out[idx[a]].ID < out[idx[b]].ID })
		step := 2 * math.Pi / float64(len(idx))
		for n, i := range idx {
			angle := float64(n) * step
			out[i].Longitude = key.lon + radius*math.Cos(angle)
			out[i].Latitude = key.lat + radius*math.Sin(angle)
		}
	}
	return out
}
