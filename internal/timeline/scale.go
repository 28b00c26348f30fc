// Package timeline maps event dates onto a horizontal pixel axis and keeps
// that mapping in step with zoom, pan and programmatic navigation.
package timeline

import (
	"time"

	"chronomap/internal/chrono"
)

// Scale is a linear map from a time domain, held as Unix milliseconds, to a
// pixel range.
type Scale struct {
	d0, d1 float64
	r0, r1 float64
}

func NewScale(start, end time.Time, r0, r1 float64) Scale {
	return Scale{d0: chrono.Millis(start), d1: chrono.Millis(end), r0: r0, r1: r1}
}

func (s Scale) Map(t time.Time) float64 {
	return s.MapMillis(chrono.Millis(t))
}

func (s Scale) MapMillis(ms float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (ms-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

func (s Scale) Invert(px float64) time.Time {
	return chrono.FromMillis(s.InvertMillis(px))
}

func (s Scale) InvertMillis(px float64) float64 {
	if s.r1 == s.r0 {
		return (s.d0 + s.d1) / 2
	}
	return s.d0 + (px-s.r0)/(s.r1-s.r0)*(s.d1-s.d0)
}

func (s Scale) Domain() (time.Time, time.Time) {
	return chrono.FromMillis(s.d0), chrono.FromMillis(s.d1)
}

func (s Scale) DomainMillis() (float64, float64) {
	return s.d0, s.d1
}

func (s Scale) Range() (float64, float64) {
	return s.r0, s.r1
}

// Span is the domain width in milliseconds.
func (s Scale) Span() float64 {
	return s.d1 - s.d0
}

func (s Scale) Center() float64 {
	return (s.d0 + s.d1) / 2
}

func (s Scale) WithDomain(d0, d1 float64) Scale {
	s.d0, s.d1 = d0, d1
	return s
}

func (s Scale) WithRange(r0, r1 float64) Scale {
	s.r0, s.r1 = r0, r1
	return s
}
