package telemetry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestMakeMonotonic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		distances []float64
		want      []float64
	}{
		{"already increasing", []float64{0, 1, 2, 3}, []float64{1, 2, 3}},
		{"duplicates", []float64{0, 1, 1, 2, 2, 3}, []float64{1, 2, 3}},
		{"backwards glitch", []float64{0, 5, 3, 4, 6, 7}, []float64{5, 6, 7}},
		{"starts high", []float64{10, 1, 2, 11, 12}, []float64{11, 12}},
		{"leading NaN", []float64{math.NaN(), 4, 5, math.NaN(), 6}, []float64{5, 6}},
		{"single sample", []float64{3}, []float64{}},
		{"empty", nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := make([]int, len(tt.distances))
			for i := range labels {
				labels[i] = i
			}
			gotD, gotL := MakeMonotonic(tt.distances, labels)
			if diff := cmp.Diff(tt.want, gotD); diff != "" {
				t.Errorf("distances mismatch (-want +got):\n%s", diff)
			}
			if len(gotL) != len(gotD) {
				t.Fatalf("values length %d, distances length %d", len(gotL), len(gotD))
			}
			for i, label := range gotL {
				if tt.distances[label] != gotD[i] {
					t.Errorf("value %d paired with distance %v, want %v", label, gotD[i], tt.distances[label])
				}
			}
			for i := 1; i < len(gotD); i++ {
				if gotD[i] <= gotD[i-1] {
					t.Errorf("not strictly increasing at %d: %v <= %v", i, gotD[i], gotD[i-1])
				}
			}

			// A second pass reseeds from the first kept sample and drops
			// nothing else.
			againD, againL := MakeMonotonic(gotD, gotL)
			wantD, wantL := []float64{}, []int{}
			if len(gotD) > 0 {
				wantD, wantL = gotD[1:], gotL[1:]
			}
			if diff := cmp.Diff(wantD, againD, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("second pass mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(wantL, againL, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("second pass values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDropDecreasing(t *testing.T) {
	t.Parallel()
	lap, err := NewLap("lap", []float64{0, 2, 1, 2, 3, 3, 4}, map[string][]float64{
		SignalSpeed: {10, 12, 11, 12, 13, 13, 14},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := DropDecreasing(lap)
	wantD := []float64{0, 2, 3, 4}
	wantS := []float64{10, 12, 13, 14}
	if diff := cmp.Diff(wantD, got.Distance); diff != "" {
		t.Errorf("distance mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantS, got.Signals[SignalSpeed]); diff != "" {
		t.Errorf("speed mismatch (-want +got):\n%s", diff)
	}
	if lap.Len() != 7 {
		t.Errorf("input lap mutated: len %d", lap.Len())
	}
}
