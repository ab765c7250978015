package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/paddock/internal/telemetry"
	"github.com/banshee-data/paddock/internal/testutil"
)

func TestSavitzkyGolay_PreservesPolynomials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		window, degree int
		f              func(x float64) float64
	}{
		{"line even window", 20, 1, func(x float64) float64 { return 3*x + 1 }},
		{"line odd window", 5, 1, func(x float64) float64 { return -0.5*x + 4 }},
		{"constant", 4, 0, func(float64) float64 { return 7 }},
		{"quadratic", 7, 2, func(x float64) float64 { return 0.1*x*x - x + 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := testutil.Distances(50, 0, 1)
			y := make([]float64, len(x))
			for i, v := range x {
				y[i] = tt.f(v)
			}
			got, err := SavitzkyGolay(y, tt.window, tt.degree)
			require.NoError(t, err)
			testutil.AssertFloatsNear(t, got, y, 1e-8)
		})
	}
}

func TestSavitzkyGolay_WindowAlignment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		window int
		want   []int // indices that see the impulse
	}{
		{"odd", 3, []int{24, 25, 26}},
		{"even", 4, []int{23, 24, 25, 26}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := make([]float64, 50)
			y[25] = 1
			got, err := SavitzkyGolay(y, tt.window, 0)
			require.NoError(t, err)

			var hit []int
			for i, v := range got {
				if v > 1e-12 {
					hit = append(hit, i)
					assert.InDelta(t, 1/float64(tt.window), v, 1e-12)
				}
			}
			assert.Equal(t, tt.want, hit)
		})
	}
}

func TestSavitzkyGolay_Errors(t *testing.T) {
	t.Parallel()
	y := make([]float64, 10)

	_, err := SavitzkyGolay(y, 11, 1)
	assert.ErrorIs(t, err, telemetry.ErrConfiguration)
	_, err = SavitzkyGolay(y, 4, 4)
	assert.ErrorIs(t, err, telemetry.ErrConfiguration)
	_, err = SavitzkyGolay(y, 0, 0)
	assert.ErrorIs(t, err, telemetry.ErrConfiguration)

	got, err := SavitzkyGolay(y, 10, 1)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
