package trackmap

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/paddock/internal/telemetry"
	"github.com/banshee-data/paddock/internal/testutil"
)

// rightAngle returns n points at 2 m spacing running along +y and turning
// instantly to +x at point turn.
func rightAngle(n, turn int) []PathPoint {
	out := make([]PathPoint, n)
	for i := range out {
		if i <= turn {
			out[i] = ValidPoint(orb.Point{0, 2 * float64(i)})
			continue
		}
		out[i] = ValidPoint(orb.Point{2 * float64(i-turn), 2 * float64(turn)})
	}
	return out
}

func invalidRange(points []PathPoint) (first, last, count int) {
	first, last = -1, -1
	for i, p := range points {
		if p.Valid {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		count++
	}
	return first, last, count
}

func TestRemoveOutliers_RightAngle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		n, turn   int
		wantFirst int
		wantLast  int
		wantCount int
	}{
		// The spike sits at yaw change index turn-1.
		{"centred", 200, 100, 69, 128, 60},
		{"clipped at start", 200, 10, 0, 38, 39},
		{"clipped at end", 120, 110, 79, 119, 41},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := rightAngle(tt.n, tt.turn)
			out, err := RemoveOutliers(in, DefaultOutlierParams())
			require.NoError(t, err)
			require.Len(t, out, tt.n)

			first, last, count := invalidRange(out)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.n, CountValid(in), "input must not change")
		})
	}
}

func TestRemoveOutliers_SmoothTrackUntouched(t *testing.T) {
	t.Parallel()
	d := testutil.Distances(int(testutil.DefaultStadium.Length()/2), 0, 2)
	points := PathPoints(testutil.DefaultStadium.Path(d))

	out, err := RemoveOutliers(points, DefaultOutlierParams())
	require.NoError(t, err)
	assert.Equal(t, len(points), CountValid(out))
}

func TestRemoveOutliers_InvalidInputDoesNotSpike(t *testing.T) {
	t.Parallel()
	d := testutil.Distances(100, 0, 2)
	raw := make([]orb.Point, len(d))
	for i, v := range d {
		raw[i] = orb.Point{v, 0}
	}
	raw[50] = orb.Point{math.NaN(), math.NaN()}
	points := PathPoints(raw)

	out, err := RemoveOutliers(points, DefaultOutlierParams())
	require.NoError(t, err)
	assert.Equal(t, 99, CountValid(out))
}

func TestRemoveOutliers_BadWindow(t *testing.T) {
	t.Parallel()
	params := DefaultOutlierParams()
	params.Window = 1
	_, err := RemoveOutliers(rightAngle(10, 5), params)
	if !errors.Is(err, telemetry.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}

	params = DefaultOutlierParams()
	params.GridStep = 0
	_, err = RemoveOutliers(rightAngle(10, 5), params)
	if !errors.Is(err, telemetry.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
