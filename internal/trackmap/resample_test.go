package trackmap

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/paddock/internal/telemetry"
)

func linePath(distances []float64) []PathPoint {
	out := make([]PathPoint, len(distances))
	for i, d := range distances {
		out[i] = ValidPoint(orb.Point{d, 2 * d})
	}
	return out
}

func TestGrid(t *testing.T) {
	t.Parallel()
	g, err := Grid(10, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, g)

	g, err = Grid(9, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, g)

	_, err = Grid(10, 0)
	assert.ErrorIs(t, err, telemetry.ErrConfiguration)
	_, err = Grid(0, 2)
	assert.ErrorIs(t, err, telemetry.ErrDegenerateInput)
}

func TestTrackLength(t *testing.T) {
	t.Parallel()
	l, err := TrackLength([][]float64{{0, 5, 10}, {0, 12}, nil})
	require.NoError(t, err)
	assert.Equal(t, 12.0, l)

	_, err = TrackLength(nil)
	assert.ErrorIs(t, err, telemetry.ErrDegenerateInput)
}

func TestResamplePoints_Interpolates(t *testing.T) {
	t.Parallel()
	d := []float64{0, 1, 3, 4, 7, 10}
	grid, out, err := ResamplePoints(d, linePath(d), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, grid)
	for i, p := range out {
		require.True(t, p.Valid, "grid %d", i)
		assert.InDelta(t, grid[i], p.Point[0], 1e-9)
		assert.InDelta(t, 2*grid[i], p.Point[1], 1e-9)
	}
}

func TestResamplePoints_NoExtrapolation(t *testing.T) {
	t.Parallel()
	d := []float64{3, 4, 5, 6, 7}
	_, out, err := ResamplePoints(d, linePath(d), 10, 2)
	require.NoError(t, err)
	valid := make([]bool, len(out))
	for i, p := range out {
		valid[i] = p.Valid
	}
	assert.Equal(t, []bool{false, false, true, true, false}, valid)
}

func TestResamplePoints_InvalidNeighbourPropagates(t *testing.T) {
	t.Parallel()
	d := []float64{0.5, 1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5, 8.5, 9.5}
	points := linePath(d)
	points[4] = InvalidPoint // d = 4.5

	_, out, err := ResamplePoints(d, points, 10, 2)
	require.NoError(t, err)
	valid := make([]bool, len(out))
	for i, p := range out {
		valid[i] = p.Valid
	}
	// grid 0 precedes the first sample; grid 4 lies on the segment that
	// ends at the invalid sample.
	assert.Equal(t, []bool{false, true, false, true, true}, valid)
}

func TestResamplePoints_Errors(t *testing.T) {
	t.Parallel()
	_, _, err := ResamplePoints([]float64{0}, linePath([]float64{0}), 10, 2)
	assert.True(t, errors.Is(err, telemetry.ErrDegenerateInput), "got %v", err)

	_, _, err = ResamplePoints([]float64{0, 1}, linePath([]float64{0}), 10, 2)
	assert.ErrorIs(t, err, telemetry.ErrConfiguration)

	_, _, err = ResamplePoints([]float64{0, 1}, linePath([]float64{0, 1}), 10, -2)
	assert.ErrorIs(t, err, telemetry.ErrConfiguration)

	for name, d := range map[string][]float64{
		"repeated":   {0, 2, 2, 4, 6},
		"decreasing": {0, 2, 4, 3, 6},
		"NaN":        {0, 2, math.NaN(), 4, 6},
	} {
		t.Run(name, func(t *testing.T) {
			var rerr error
			require.NotPanics(t, func() {
				_, _, rerr = ResamplePoints(d, linePath(d), 6, 2)
			})
			assert.ErrorIs(t, rerr, telemetry.ErrConfiguration)
		})
	}
}
