// Package testutil provides synthetic laps, track paths and assertion
// helpers shared by the analysis package tests.
//
// Fixtures are returned as plain slices so any package, including the
// ones that define the lap and path types, can use them without an import
// cycle.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/paulmach/orb"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertFloatsNear fails the test when got and want differ in length or
// any element differs by more than tol.
func AssertFloatsNear(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("index %d: got %v, want %v (tol %v)", i, got[i], want[i], tol)
		}
	}
}

// Distances returns n distances starting at start with the given step.
func Distances(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Sine evaluates offset + amplitude*sin(2*pi*d/period) at every distance.
func Sine(distances []float64, period, amplitude, offset float64) []float64 {
	out := make([]float64, len(distances))
	for i, d := range distances {
		out[i] = offset + amplitude*math.Sin(2*math.Pi*d/period)
	}
	return out
}

// Noise returns n uniformly distributed values in [-amplitude, amplitude]
// from a seeded generator.
func Noise(n int, amplitude float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// Track is a closed synthetic circuit parametrised by distance.
type Track interface {
	Length() float64
	At(d float64) orb.Point
}

// Path samples a track at the given distances.
func Path(track Track, distances []float64) []orb.Point {
	out := make([]orb.Point, len(distances))
	for i, d := range distances {
		out[i] = track.At(d)
	}
	return out
}

// Circle is a constant-curvature track driven counterclockwise from the
// origin heading along +x.
type Circle struct {
	Radius float64
}

// Length returns the lap length in meters.
func (c Circle) Length() float64 { return 2 * math.Pi * c.Radius }

// At returns the position at distance d.
func (c Circle) At(d float64) orb.Point {
	theta := d / c.Radius
	return orb.Point{c.Radius * math.Sin(theta), c.Radius - c.Radius*math.Cos(theta)}
}

// Stadium describes an oval track: two straights joined by semicircles,
// driven counterclockwise starting at the origin heading along +x.
type Stadium struct {
	Straight float64 // straight length, meters
	Radius   float64 // corner radius, meters
}

// DefaultStadium is a 1.1 km oval.
var DefaultStadium = Stadium{Straight: 300, Radius: 80}

// Length returns the lap length in meters.
func (s Stadium) Length() float64 {
	return 2*s.Straight + 2*math.Pi*s.Radius
}

// At returns the position at distance d (taken modulo the lap length).
func (s Stadium) At(d float64) orb.Point {
	length := s.Length()
	d = math.Mod(d, length)
	if d < 0 {
		d += length
	}
	arc := math.Pi * s.Radius
	switch {
	case d < s.Straight:
		return orb.Point{d, 0}
	case d < s.Straight+arc:
		theta := (d - s.Straight) / s.Radius
		return orb.Point{s.Straight + s.Radius*math.Sin(theta), s.Radius - s.Radius*math.Cos(theta)}
	case d < 2*s.Straight+arc:
		return orb.Point{s.Straight - (d - s.Straight - arc), 2 * s.Radius}
	default:
		theta := (d - 2*s.Straight - arc) / s.Radius
		return orb.Point{-s.Radius * math.Sin(theta), s.Radius + s.Radius*math.Cos(theta)}
	}
}

// Path samples the track at the given distances.
func (s Stadium) Path(distances []float64) []orb.Point {
	return Path(s, distances)
}

// Jitter returns a copy of points with seeded uniform noise of the given
// amplitude added to both coordinates.
func Jitter(points []orb.Point, amplitude float64, seed uint64) []orb.Point {
	dx := Noise(len(points), amplitude, seed)
	dy := Noise(len(points), amplitude, seed+1)
	out := make([]orb.Point, len(points))
	for i, p := range points {
		out[i] = orb.Point{p[0] + dx[i], p[1] + dy[i]}
	}
	return out
}
