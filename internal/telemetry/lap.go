package telemetry

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Well-known column names supplied by the ingestion collaborator.
const (
	ColumnDistance = "DistanceRoundTrack"
	SignalSpeed    = "SpeedMs"
	SignalBrake    = "Brake"
	SignalThrottle = "Throttle"
	SignalGear     = "Gear"
	SignalX        = "PositionX"
	SignalY        = "PositionY"
)

// Lap is one circuit's telemetry as a column-oriented table indexed by
// distance round track (meters). Every signal column has len(Distance)
// values.
type Lap struct {
	ID       string
	Distance []float64
	Signals  map[string][]float64
}

// NewLap builds a lap and checks that all columns share the distance length.
func NewLap(id string, distance []float64, signals map[string][]float64) (Lap, error) {
	lap := Lap{ID: id, Distance: distance, Signals: signals}
	if lap.Signals == nil {
		lap.Signals = map[string][]float64{}
	}
	for name, values := range lap.Signals {
		if len(values) != len(distance) {
			return Lap{}, fmt.Errorf("lap %s: column %s has %d values, distance has %d: %w",
				id, name, len(values), len(distance), ErrConfiguration)
		}
	}
	return lap, nil
}

// Len returns the number of rows.
func (l Lap) Len() int { return len(l.Distance) }

// Signal returns the named column. ColumnDistance is accepted as an alias
// for the distance column.
func (l Lap) Signal(name string) ([]float64, error) {
	if name == ColumnDistance {
		return l.Distance, nil
	}
	values, ok := l.Signals[name]
	if !ok {
		return nil, fmt.Errorf("lap %s: %q: %w", l.ID, name, ErrMissingSignal)
	}
	return values, nil
}

// Columns returns the signal names in sorted order.
func (l Lap) Columns() []string {
	names := make([]string, 0, len(l.Signals))
	for name := range l.Signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaxDistance returns the largest distance in the lap, or 0 for an empty lap.
func (l Lap) MaxDistance() float64 {
	if len(l.Distance) == 0 {
		return 0
	}
	return floats.Max(l.Distance)
}

// Clone returns a deep copy of the lap.
func (l Lap) Clone() Lap {
	out := Lap{
		ID:       l.ID,
		Distance: append([]float64(nil), l.Distance...),
		Signals:  make(map[string][]float64, len(l.Signals)),
	}
	for name, values := range l.Signals {
		out.Signals[name] = append([]float64(nil), values...)
	}
	return out
}

// Rows returns a new lap holding the rows at idx, in the given order.
func (l Lap) Rows(idx []int) Lap {
	out := Lap{
		ID:       l.ID,
		Distance: make([]float64, len(idx)),
		Signals:  make(map[string][]float64, len(l.Signals)),
	}
	for i, j := range idx {
		out.Distance[i] = l.Distance[j]
	}
	for name, values := range l.Signals {
		col := make([]float64, len(idx))
		for i, j := range idx {
			col[i] = values[j]
		}
		out.Signals[name] = col
	}
	return out
}
