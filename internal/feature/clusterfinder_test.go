package feature

import (
	"testing"

	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func buildSinglePeakDocument(t *testing.T) (*msdoc.Document, tilecoord.TileRect) {
	t.Helper()
	rng, err := tilecoord.NewRange(490, 510, 0, 9, 20, 10)
	if err != nil {
		t.Fatal(err)
	}
	store := tile.NewMemoryStore[numeric.Point]()
	b := tile.NewBuilder(rng, store, tile.KindMS1Centroided)
	if err := b.AddScan(tile.ScanRow{ScanIndex: 5, Points: []numeric.Point{{X: 500, Y: 100}}}); err != nil {
		t.Fatal(err)
	}
	if err := b.Finish(); err != nil {
		t.Fatal(err)
	}

	entries := make([]msdoc.ScanInfo, 10)
	for i := range entries {
		entries[i] = msdoc.ScanInfo{ScanNumber: int64(i + 1), RetentionTime: float64(i) * 0.1}
	}
	mgr := tile.NewManager[numeric.Point](store, 16)
	doc := msdoc.NewDocument(rng, mgr, msdoc.NewScanConverter(entries))
	return doc, tilecoord.TileRect{X: 0, Y: 0, W: 1, H: 1}
}

func TestHillFinderExplainPeakIsolatedPoint(t *testing.T) {
	doc, rect := buildSinglePeakDocument(t)
	session, err := NewSession(doc, rect, true)
	if err != nil {
		t.Fatal(err)
	}
	hf := NewHillFinder(session, ZeroBounded, 1.0)

	hill, err := hf.ExplainPeak(500, 5)
	if err != nil {
		t.Fatal(err)
	}
	if hill == nil {
		t.Fatal("expected a hill for the isolated point")
	}
	if len(hill.Points) != 1 {
		t.Fatalf("got %d points, want 1", len(hill.Points))
	}
	if hill.ScanStart != 5 || hill.ScanEnd != 5 {
		t.Errorf("scan extent = [%d,%d], want [5,5] (no neighboring scans)", hill.ScanStart, hill.ScanEnd)
	}
}

func TestClusterFinderConsumesIsolatedPoint(t *testing.T) {
	doc, rect := buildSinglePeakDocument(t)
	session, err := NewSession(doc, rect, true)
	if err != nil {
		t.Fatal(err)
	}
	if session.RemainingPoints() != 1 {
		t.Fatalf("RemainingPoints() = %d, want 1 before Run", session.RemainingPoints())
	}

	hf := NewHillFinder(session, ZeroBounded, 1.0)
	finder := NewClusterFinder(session, hf, NewIsotopeSpacingChargeDeterminator(), NewIsotopeSpacingMonoDeterminator(), 1)

	features, err := finder.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 1 {
		t.Fatalf("got %d features, want 1", len(features))
	}
	if session.RemainingPoints() != 0 {
		t.Errorf("RemainingPoints() = %d, want 0 after consuming the only point", session.RemainingPoints())
	}
}
