package feature

import (
	"testing"

	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func buildTwoPointSessionDoc(t *testing.T) (*msdoc.Document, tilecoord.TileRect) {
	t.Helper()
	rng, err := tilecoord.NewRange(0, 100, 0, 4, 100, 5)
	if err != nil {
		t.Fatal(err)
	}
	store := tile.NewMemoryStore[numeric.Point]()
	b := tile.NewBuilder(rng, store, tile.KindMS1Centroided)
	if err := b.AddScan(tile.ScanRow{ScanIndex: 0, Points: []numeric.Point{{X: 10, Y: 5}, {X: 20, Y: 9}}}); err != nil {
		t.Fatal(err)
	}
	if err := b.Finish(); err != nil {
		t.Fatal(err)
	}
	entries := make([]msdoc.ScanInfo, 5)
	for i := range entries {
		entries[i] = msdoc.ScanInfo{ScanNumber: int64(i + 1), RetentionTime: float64(i) * 0.1}
	}
	mgr := tile.NewManager[numeric.Point](store, 8)
	doc := msdoc.NewDocument(rng, mgr, msdoc.NewScanConverter(entries))
	return doc, tilecoord.TileRect{X: 0, Y: 0, W: 1, H: 1}
}

func TestSessionMaxIntensityTieBreaksOnMzAcrossRealSeed(t *testing.T) {
	doc, rect := buildTwoPointSessionDoc(t)
	session, err := NewSession(doc, rect, false)
	if err != nil {
		t.Fatal(err)
	}
	top := session.MaxIntensity()
	if top == nil || top.Mz != 20 {
		t.Fatalf("top = %v, want mz 20 (intensity 9, the higher of the two)", top)
	}
}

func TestSessionMarkSelectedThenUpdateRemovesFromIndex(t *testing.T) {
	doc, rect := buildTwoPointSessionDoc(t)
	session, err := NewSession(doc, rect, false)
	if err != nil {
		t.Fatal(err)
	}
	pos := tilecoord.Pos{X: 0, Y: 0}
	// the higher-intensity point (mz 20) is internal index 1 in its row.
	if err := session.MarkSelected(pos, 0, 1, 5); err != nil {
		t.Fatal(err)
	}
	selected, err := session.IsSelected(pos, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !selected {
		t.Fatal("expected point to be marked selected")
	}

	if err := session.UpdateIndexForTiles([]tilecoord.Pos{pos}); err != nil {
		t.Fatal(err)
	}
	top := session.MaxIntensity()
	if top == nil || top.Mz != 10 {
		t.Fatalf("top = %v, want mz 10 (the only unselected point left)", top)
	}
}

func TestSessionMarkSelectedTwicePanics(t *testing.T) {
	doc, rect := buildTwoPointSessionDoc(t)
	session, err := NewSession(doc, rect, false)
	if err != nil {
		t.Fatal(err)
	}
	pos := tilecoord.Pos{X: 0, Y: 0}
	if err := session.MarkSelected(pos, 0, 0, 5); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic on double-marking a selection bit")
		}
	}()
	session.MarkSelected(pos, 0, 0, 5)
}
