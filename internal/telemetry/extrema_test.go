package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/paddock/internal/testutil"
)

func TestLocalExtrema_Sine(t *testing.T) {
	t.Parallel()
	d := testutil.Distances(1000, 0, 1)
	lap, err := NewLap("sine", d, map[string][]float64{
		SignalSpeed: testutil.Sine(d, 200, 10, 50),
	})
	require.NoError(t, err)

	maxima, err := LocalMaxima(lap, SignalSpeed, 20)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 250, 450, 650, 850}, maxima.Distance)

	minima, err := LocalMinima(lap, SignalSpeed, 20)
	require.NoError(t, err)
	assert.Equal(t, []float64{150, 350, 550, 750, 950}, minima.Distance)

	// Extracted rows carry every column of the source lap.
	assert.Len(t, minima.Signals[SignalSpeed], 5)
	assert.InDelta(t, 40, minima.Signals[SignalSpeed][0], 1e-9)
}

func TestLocalExtrema_GearPlateaus(t *testing.T) {
	t.Parallel()
	var gear []float64
	for _, g := range []float64{3, 2, 4} {
		for i := 0; i < 40; i++ {
			gear = append(gear, g)
		}
	}
	d := testutil.Distances(len(gear), 0, 2)
	lap, err := NewLap("gears", d, map[string][]float64{SignalGear: gear})
	require.NoError(t, err)

	// Each plateau registers once, at its last sample.
	minima, err := LocalMinima(lap, SignalGear, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{158}, minima.Distance)

	maxima, err := LocalMaxima(lap, SignalGear, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{78}, maxima.Distance)

	// Strict comparison cannot see plateaus at all.
	strict, err := LocalExtremaWith(lap, SignalGear, Minima, 10, Strict)
	require.NoError(t, err)
	assert.Zero(t, strict.Len())
}

func TestLocalExtrema_EndpointsJoinRefinement(t *testing.T) {
	t.Parallel()
	values := []float64{5, 4, 3, 2, 1, 0, 1, 2, 3, 4, 5}
	lap, err := NewLap("v", testutil.Distances(len(values), 0, 1), map[string][]float64{SignalBrake: values})
	require.NoError(t, err)

	// The only candidate is the bottom of the V; it survives refinement
	// because the first and last rows act as its neighbours.
	minima, err := LocalMinima(lap, SignalBrake, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, minima.Distance)

	// The endpoints themselves are never reported.
	maxima, err := LocalMaxima(lap, SignalBrake, 3)
	require.NoError(t, err)
	assert.Zero(t, maxima.Len())
}

func TestLocalExtrema_Errors(t *testing.T) {
	t.Parallel()
	lap, err := NewLap("lap", []float64{0, 1, 2}, map[string][]float64{SignalSpeed: {1, 2, 1}})
	require.NoError(t, err)

	if _, err := LocalMinima(lap, SignalSpeed, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if _, err := LocalMinima(lap, SignalGear, 5); !errors.Is(err, ErrMissingSignal) {
		t.Errorf("expected ErrMissingSignal, got %v", err)
	}

	empty, err := NewLap("empty", nil, map[string][]float64{SignalSpeed: nil})
	require.NoError(t, err)
	out, err := LocalMaxima(empty, SignalSpeed, 5)
	require.NoError(t, err)
	assert.Zero(t, out.Len())
}

func TestExtremaMode_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "min", Minima.String())
	assert.Equal(t, "max", Maxima.String())
}
