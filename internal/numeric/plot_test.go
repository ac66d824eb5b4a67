package numeric

import (
	"math"
	"testing"
)

func TestPlotEvaluateTwoPointLine(t *testing.T) {
	p := NewPlot([]Point{{X: 0, Y: 100}, {X: 100, Y: 200}})
	cases := []struct {
		x    float64
		want float64
	}{
		{0, 100},
		{50, 150},
		{100, 200},
	}
	for _, c := range cases {
		got := p.Evaluate(c.x, true, false)
		if got != c.want {
			t.Errorf("Evaluate(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestPlotEvaluateOutOfRange(t *testing.T) {
	p := NewPlot([]Point{{X: 0, Y: 100}, {X: 100, Y: 200}})
	for _, x := range []float64{-1e8, 100.0001, 200, 1e8} {
		if got := p.Evaluate(x, true, false); got != 0 {
			t.Errorf("Evaluate(%v, useBoundary=false) = %v, want 0", x, got)
		}
	}
	if got := p.Evaluate(1e8, true, true); got != 200 {
		t.Errorf("Evaluate(1e8, useBoundary=true) = %v, want 200", got)
	}
	if got := p.Evaluate(-1e8, true, true); got != 100 {
		t.Errorf("Evaluate(-1e8, useBoundary=true) = %v, want 100", got)
	}
}

func TestPlotMakeCentroidedPoints(t *testing.T) {
	p := NewPlot([]Point{
		{X: 0, Y: 0},
		{X: 5, Y: 10},
		{X: 10, Y: -2},
		{X: 15, Y: 10},
		{X: 20, Y: 0},
		{X: 25, Y: 10},
		{X: 30, Y: 5},
	})
	got := p.MakeCentroidedPoints(RelativeWeight)
	if len(got) != 3 {
		t.Fatalf("got %d centroids, want 3: %v", len(got), got)
	}
	want := []Point{
		{X: 5, Y: 10},
		{X: 15, Y: 10},
		{X: 400.0 / 15, Y: 125.0 / 15},
	}
	for i, w := range want {
		if math.Abs(got[i].X-w.X) > 1e-9 || math.Abs(got[i].Y-w.Y) > 1e-9 {
			t.Errorf("centroid[%d] = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestPlotGetMaxIndexList(t *testing.T) {
	p := NewPlot([]Point{
		{X: 0, Y: 0},
		{X: 5, Y: 10},
		{X: 10, Y: -2},
		{X: 15, Y: 10},
		{X: 20, Y: 0},
		{X: 25, Y: 10},
		{X: 30, Y: 5},
	})
	got := p.GetMaxIndexList()
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetMaxIndexList()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFindPeaksIndexSinusoid(t *testing.T) {
	const n = 400
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		x := float64(i) * 2 * math.Pi / 40
		pts[i] = Point{X: x, Y: math.Sin(x)}
	}
	p := NewPlot(pts)
	peaks := p.FindPeaksIndex(0.5, FindMax, nil)
	if len(peaks) == 0 {
		t.Fatal("expected at least one peak")
	}
	for _, idx := range peaks {
		if p.pts[idx].Y < 0.9 {
			t.Errorf("peak at index %d has y=%v, want close to 1", idx, p.pts[idx].Y)
		}
	}
	// Peaks should repeat roughly every 40 samples (one period).
	for i := 1; i < len(peaks); i++ {
		gap := peaks[i] - peaks[i-1]
		if gap < 30 || gap > 50 {
			t.Errorf("peak gap %d out of expected range [30,50]", gap)
		}
	}
}

func TestPlotComputeAreaFastTriangle(t *testing.T) {
	p := NewPlot([]Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 0}})
	got := p.ComputeAreaFast(0, 20, KeepNegative)
	want := 100.0 // triangle area: base 20, height 10
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ComputeAreaFast = %v, want %v", got, want)
	}
}

func TestPlotComputeAreaIgnoreNegative(t *testing.T) {
	p := NewPlot([]Point{{X: 0, Y: -10}, {X: 10, Y: -10}})
	got := p.ComputeAreaFast(0, 10, IgnoreNegative)
	if got != 0 {
		t.Errorf("IgnoreNegative area = %v, want 0", got)
	}
	gotKeep := p.ComputeAreaFast(0, 10, KeepNegative)
	if gotKeep != -100 {
		t.Errorf("KeepNegative area = %v, want -100", gotKeep)
	}
}

func TestPlotIsUniform(t *testing.T) {
	pts := make([]Point, 10)
	for i := range pts {
		pts[i] = Point{X: float64(i) * 0.5, Y: 0}
	}
	p := NewPlot(pts)
	if !p.IsUniform(0.001) {
		t.Error("expected uniform grid to report IsUniform")
	}
	pts[5].X += 5
	p2 := NewPlot(pts)
	if p2.IsUniform(0.001) {
		t.Error("expected perturbed grid to report non-uniform")
	}
}

func TestPlotMakeResampledPlotMaxPoints(t *testing.T) {
	p := NewPlot([]Point{{X: 0, Y: 0}, {X: 100, Y: 100}})
	r := p.MakeResampledPlotMaxPoints(5)
	if r.Len() != 5 {
		t.Fatalf("got %d points, want 5", r.Len())
	}
	minX, maxX := r.GetXBound()
	if minX != 0 || maxX != 100 {
		t.Errorf("resampled bounds = [%v,%v], want [0,100]", minX, maxX)
	}
}
