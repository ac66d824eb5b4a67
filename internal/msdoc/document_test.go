package msdoc

import (
	"testing"

	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func buildTestDocument(t *testing.T) *Document {
	t.Helper()
	rng, err := tilecoord.NewRange(100, 200, 0, 9, 50, 4)
	if err != nil {
		t.Fatal(err)
	}
	store := tile.NewMemoryStore[numeric.Point]()
	centroidedBuilder := tile.NewBuilder(rng, store, tile.KindMS1Centroided)
	rawBuilder := tile.NewBuilder(rng, store, tile.KindMS1Raw)

	converterEntries := make([]ScanInfo, 0, 10)
	for si := 0; si < 10; si++ {
		rt := float64(si) * 0.1
		converterEntries = append(converterEntries, ScanInfo{ScanNumber: int64(si + 1), RetentionTime: rt})
		row := tile.ScanRow{
			ScanIndex: si,
			Points: []numeric.Point{
				{X: 110, Y: float64(si + 1)},
				{X: 150, Y: float64(si + 1) * 2},
				{X: 190, Y: float64(si + 1) * 3},
			},
		}
		if err := centroidedBuilder.AddScan(row); err != nil {
			t.Fatal(err)
		}
		// The raw kind holds an extra uncentroided point per scan, so tests
		// can tell the two kinds apart at the Document layer.
		rawRow := tile.ScanRow{
			ScanIndex: si,
			Points: []numeric.Point{
				{X: 110, Y: float64(si + 1)},
				{X: 130, Y: float64(si + 1) * 5},
				{X: 150, Y: float64(si + 1) * 2},
				{X: 190, Y: float64(si + 1) * 3},
			},
		}
		if err := rawBuilder.AddScan(rawRow); err != nil {
			t.Fatal(err)
		}
	}
	if err := centroidedBuilder.Finish(); err != nil {
		t.Fatal(err)
	}
	if err := rawBuilder.Finish(); err != nil {
		t.Fatal(err)
	}

	mgr := tile.NewManager[numeric.Point](store, 64)
	cv := NewScanConverter(converterEntries)
	return NewDocument(rng, mgr, cv)
}

func TestDocumentGetScanDataRoundTrip(t *testing.T) {
	doc := buildTestDocument(t)
	pts, err := doc.GetScanData(3, 100, 200, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []numeric.Point{{X: 110, Y: 4}, {X: 150, Y: 8}, {X: 190, Y: 12}}
	if len(pts) != len(want) {
		t.Fatalf("got %d points, want %d: %v", len(pts), len(want), pts)
	}
	for i, p := range pts {
		if p.X != want[i].X || p.Y != want[i].Y {
			t.Errorf("point %d = %v, want %v", i, p, want[i])
		}
	}
}

func TestDocumentGetScanDataClipsToMzRange(t *testing.T) {
	doc := buildTestDocument(t)
	pts, err := doc.GetScanData(0, 100, 150, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("got %d points, want 2 (mz 110 and 150): %v", len(pts), pts)
	}
}

// TestDocumentGetScanDataDistinguishesContentKind confirms the two content
// kinds are addressed independently: the raw kind carries an extra point
// (mz 130) the centroided kind never stored.
func TestDocumentGetScanDataDistinguishesContentKind(t *testing.T) {
	doc := buildTestDocument(t)

	raw, err := doc.GetScanData(2, 100, 200, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 4 {
		t.Fatalf("raw kind: got %d points, want 4: %v", len(raw), raw)
	}

	centroided, err := doc.GetScanData(2, 100, 200, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(centroided) != 3 {
		t.Fatalf("centroided kind: got %d points, want 3: %v", len(centroided), centroided)
	}

	for _, p := range centroided {
		if p.X == 130 {
			t.Fatal("mz 130 only exists in the raw kind, found it under centroided")
		}
	}
}

func TestDocumentGetXICData(t *testing.T) {
	doc := buildTestDocument(t)
	xic, err := doc.GetXICData(XICWindow{TimeStart: 0.0, TimeEnd: 0.3, MzStart: 100, MzEnd: 200}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(xic) != 4 {
		t.Fatalf("got %d xic points, want 4 scans in [0.0,0.3]: %v", len(xic), xic)
	}
	// scan 0: 1+2+3=6
	if xic[0].Y != 6 {
		t.Errorf("xic[0].Y = %v, want 6", xic[0].Y)
	}
}

func TestDocumentWriteUniformData(t *testing.T) {
	doc := buildTestDocument(t)
	grid, err := numeric.NewGridByStep(100, 200, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.WriteUniformData(3, 100, 200, grid, true); err != nil {
		t.Fatal(err)
	}
	// index at x=110 should equal the stored point's y value exactly.
	i := grid.IndexAt(110)
	if grid.Ys[i] != 4 {
		t.Errorf("grid at mz 110 = %v, want 4", grid.Ys[i])
	}
}
