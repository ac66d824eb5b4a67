package numeric

import (
	"math"
	"testing"
)

func TestNewGridByStepComputesSize(t *testing.T) {
	g, err := NewGridByStep(0, 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 6 {
		t.Errorf("Len() = %d, want 6", g.Len())
	}
	if g.End() != 10 {
		t.Errorf("End() = %v, want 10", g.End())
	}
}

func TestGridSmoothPreservesMass(t *testing.T) {
	g, err := NewGridByStep(0, 99, 1)
	if err != nil {
		t.Fatal(err)
	}
	g.Ys[50] = 100
	var before float64
	for _, y := range g.Ys {
		before += y
	}
	g.Smooth(3)
	var after float64
	for _, y := range g.Ys {
		after += y
	}
	if math.Abs(before-after) > 1e-6 {
		t.Errorf("mass not preserved by smoothing: before=%v after=%v", before, after)
	}
	if g.Ys[50] >= 100 {
		t.Errorf("peak should spread out after smoothing, got %v at center", g.Ys[50])
	}
}

func TestGridApplyStopList(t *testing.T) {
	g, err := NewGridByStep(0, 99, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range g.Ys {
		g.Ys[i] = float64(i)
	}
	g.ApplyStopList([]StopWindow{{Center: 50, Tolerance: 2}})
	hold := g.Ys[47]
	for i := 48; i <= 52; i++ {
		if g.Ys[i] != hold {
			t.Errorf("Ys[%d] = %v, want held value %v", i, g.Ys[i], hold)
		}
	}
}

func TestGridNormalize(t *testing.T) {
	g := &Grid{Start: 0, Step: 1, Ys: []float64{0, 5, 10, 2}}
	g.Normalize()
	if g.Ys[2] != 1 {
		t.Errorf("max sample after Normalize = %v, want 1", g.Ys[2])
	}
}

func TestGridAccumulateGridMismatch(t *testing.T) {
	a, _ := NewGridByStep(0, 10, 1)
	b, _ := NewGridByStep(0, 20, 1)
	if err := a.AccumulateGrid(b); err == nil {
		t.Error("expected error accumulating mismatched grids")
	}
}

func TestGridCreateResample(t *testing.T) {
	g, _ := NewGridByStep(0, 10, 1)
	for i := range g.Ys {
		g.Ys[i] = float64(i)
	}
	r, err := g.CreateResample(2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range r.Ys {
		want := r.XAt(i)
		if math.Abs(r.Ys[i]-want) > 1e-9 {
			t.Errorf("resampled[%d] = %v, want %v", i, r.Ys[i], want)
		}
	}
}
