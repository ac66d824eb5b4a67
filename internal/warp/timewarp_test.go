package warp

import (
	"math"
	"testing"
)

func TestMapTimeMatchesReferenceScenario(t *testing.T) {
	timeSource := []float64{0.02, 0.04, 0.07, 0.09, 0.10, 0.14, 0.16, 0.18, 0.20, 0.24}
	scanIndexTarget := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	cases := []struct {
		t    float64
		want float64
	}{
		{0.02, 0.0},
		{0.03, 0.5},
		{0.24, 9.0},
	}
	for _, c := range cases {
		got := MapTime(timeSource, scanIndexTarget, c.t)
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("MapTime(..., %v) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestMapTimeClampsOutOfRange(t *testing.T) {
	source := []float64{1, 2, 3}
	target := []float64{10, 20, 30}
	if got := MapTime(source, target, 0); got != 10 {
		t.Errorf("below range: got %v, want 10", got)
	}
	if got := MapTime(source, target, 5); got != 30 {
		t.Errorf("above range: got %v, want 30", got)
	}
}

func TestWarpUnwarpAreInverses(t *testing.T) {
	w := &TimeWarp2D{
		anchorTimesA: []float64{0, 1, 2, 3},
		anchorTimesB: []float64{0, 1.1, 2.3, 3.4},
	}
	for _, bt := range []float64{0, 0.5, 1.1, 2.0, 3.4} {
		at := w.Warp(bt)
		back := w.Unwarp(at)
		if diff := back - bt; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Unwarp(Warp(%v)) = %v, want %v", bt, back, bt)
		}
	}
}

func TestWarpTranslatesBeyondBoundary(t *testing.T) {
	w := &TimeWarp2D{
		anchorTimesA: []float64{10, 20},
		anchorTimesB: []float64{0, 10},
	}
	// below the first B knot: offset = anchorTimesA[0]-anchorTimesB[0] = 10
	if got := w.Warp(-5); got != 5 {
		t.Errorf("Warp(-5) = %v, want 5", got)
	}
	// above the last B knot: offset = anchorTimesA[last]-anchorTimesB[last] = 10
	if got := w.Warp(15); got != 25 {
		t.Errorf("Warp(15) = %v, want 25", got)
	}
}

func TestWarpCoreProducesMonotonicNonDecreasingIndices(t *testing.T) {
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = float64(i % 7)
		b[i] = float64(i % 7)
	}
	knotsA := []int{0, 10, 20, 30, 40, 49}
	knotsB := warpCore(a, b, knotsA, 5, 0)
	if len(knotsB) != len(knotsA) {
		t.Fatalf("len(knotsB) = %d, want %d", len(knotsB), len(knotsA))
	}
	for i := 1; i < len(knotsB); i++ {
		if knotsB[i] < knotsB[i-1] {
			t.Fatalf("knotsB not monotonic: %v", knotsB)
		}
	}
	// identical sequences should align the diagonal almost exactly.
	for i, ai := range knotsA {
		if d := knotsB[i] - ai; d > 5 || d < -5 {
			t.Errorf("knotsB[%d] = %d, want close to %d", i, knotsB[i], ai)
		}
	}
}
