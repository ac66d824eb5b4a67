package feature

import (
	"testing"

	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func buildBandedDocumentStore(t *testing.T) (*tile.MemoryStore[numeric.Point], *tilecoord.Range) {
	t.Helper()
	rng, err := tilecoord.NewRange(0, 100, 0, 39, 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	store := tile.NewMemoryStore[numeric.Point]()
	b := tile.NewBuilder(rng, store, tile.KindMS1Centroided)
	for si := 0; si < 40; si++ {
		if err := b.AddScan(tile.ScanRow{ScanIndex: si, Points: []numeric.Point{
			{X: 50, Y: float64(si)},
		}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Finish(); err != nil {
		t.Fatal(err)
	}
	return store, rng
}

func TestMaxIntensityFinderFindsGlobalMaxAcrossBands(t *testing.T) {
	store, rng := buildBandedDocumentStore(t)
	finder := NewMaxIntensityFinder(store, rng)

	rect := tilecoord.TileRect{X: 0, Y: 0, W: 1, H: 4}
	idx, err := finder.Build(rect, 4)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 40 {
		t.Fatalf("Len() = %d, want 40 (one entry per scan)", idx.Len())
	}
	top := idx.MaxIntensity()
	if top == nil || top.Intensity != 39 {
		t.Fatalf("top = %v, want intensity 39 (scan 39's point)", top)
	}
}

func TestMaxIntensityFinderSingleWorkerMatchesMulti(t *testing.T) {
	store, rng := buildBandedDocumentStore(t)
	rect := tilecoord.TileRect{X: 0, Y: 0, W: 1, H: 4}

	single, err := NewMaxIntensityFinder(store, rng).Build(rect, 1)
	if err != nil {
		t.Fatal(err)
	}
	multi, err := NewMaxIntensityFinder(store, rng).Build(rect, 4)
	if err != nil {
		t.Fatal(err)
	}
	if single.Len() != multi.Len() {
		t.Errorf("single-worker Len() = %d, multi-worker Len() = %d, want equal", single.Len(), multi.Len())
	}
}
