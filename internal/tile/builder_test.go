package tile

import (
	"testing"

	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func TestBuilderSplitsRowsAcrossMzTiles(t *testing.T) {
	rng, err := tilecoord.NewRange(380, 440, 0, 1, 30, 64)
	if err != nil {
		t.Fatal(err)
	}
	store := NewMemoryStore[numeric.Point]()
	b := NewBuilder(rng, store, KindMS1Centroided)

	row := ScanRow{
		ScanIndex: 0,
		Points: []numeric.Point{
			{X: 380, Y: 1}, {X: 380.1, Y: 2}, {X: 409.999, Y: 3},
			{X: 410, Y: 4}, {X: 439.99, Y: 5}, {X: 440.0, Y: 6},
		},
	}
	if err := b.AddScan(row); err != nil {
		t.Fatal(err)
	}
	if err := b.Finish(); err != nil {
		t.Fatal(err)
	}

	tile0, ok, err := store.Get(tilecoord.Pos{X: 0, Y: 0}, KindMS1Centroided)
	if err != nil || !ok {
		t.Fatalf("tile 0 missing: ok=%v err=%v", ok, err)
	}
	if got := len(tile0.RowAt(0)); got != 3 {
		t.Errorf("tile0 row0 has %d points, want 3", got)
	}

	tile1, ok, err := store.Get(tilecoord.Pos{X: 1, Y: 0}, KindMS1Centroided)
	if err != nil || !ok {
		t.Fatalf("tile 1 missing: ok=%v err=%v", ok, err)
	}
	if got := len(tile1.RowAt(0)); got != 2 {
		t.Errorf("tile1 row0 has %d points, want 2", got)
	}

	tile2, ok, err := store.Get(tilecoord.Pos{X: 2, Y: 0}, KindMS1Centroided)
	if err != nil || !ok {
		t.Fatalf("tile 2 missing: ok=%v err=%v", ok, err)
	}
	if got := len(tile2.RowAt(0)); got != 1 {
		t.Errorf("tile2 row0 has %d points, want 1", got)
	}

	if _, ok, _ := store.Get(tilecoord.Pos{X: 0, Y: 0}, KindMS1Raw); ok {
		t.Error("tile0 should not exist under the MS1Raw kind, only MS1Centroided")
	}
}

func TestBuilderSpillsToScratchUnderMemoryPressure(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSQLitePointStore(dir+"/tiles.db", 64)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	rng, err := tilecoord.NewRange(380, 440, 0, 63, 30, 64)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(rng, store, KindMS1Raw)
	b.flushBytes = 1 // force a spill on the very first point written

	if err := b.AddScan(ScanRow{ScanIndex: 0, Points: []numeric.Point{{X: 380, Y: 1}}}); err != nil {
		t.Fatal(err)
	}
	if len(b.touched) == 0 {
		t.Fatal("expected AddScan to spill the pending tile once flushBytes is crossed")
	}
	if err := b.AddScan(ScanRow{ScanIndex: 1, Points: []numeric.Point{{X: 380.1, Y: 2}}}); err != nil {
		t.Fatal(err)
	}
	if err := b.Finish(); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Get(tilecoord.Pos{X: 0, Y: 0}, KindMS1Raw)
	if err != nil || !ok {
		t.Fatalf("tile missing after finish: ok=%v err=%v", ok, err)
	}
	if len(got.RowAt(0)) != 1 || got.RowAt(0)[0].X != 380 {
		t.Errorf("row 0 = %v, want [{380 1}]", got.RowAt(0))
	}
	if len(got.RowAt(1)) != 1 || got.RowAt(1)[0].X != 380.1 {
		t.Errorf("row 1 = %v, want [{380.1 2}]", got.RowAt(1))
	}
}

func TestSQLitePointStorePartialThenDefragment(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSQLitePointStore(dir+"/tiles.db", 64)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	pos := tilecoord.Pos{X: 0, Y: 0}
	if err := store.PutPartialRow(pos, KindMS1Centroided, 0, []numeric.Point{{X: 1, Y: 2}}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutPartialRow(pos, KindMS1Centroided, 1, []numeric.Point{{X: 3, Y: 4}}); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := store.Get(pos, KindMS1Centroided); ok {
		t.Error("tile should not be visible in main table before Defragment")
	}

	if err := store.Defragment(pos, KindMS1Centroided); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Get(pos, KindMS1Centroided)
	if err != nil || !ok {
		t.Fatalf("tile missing after defragment: ok=%v err=%v", ok, err)
	}
	if len(got.RowAt(0)) != 1 || got.RowAt(0)[0].X != 1 {
		t.Errorf("row 0 = %v, want [{1 2}]", got.RowAt(0))
	}
	if len(got.RowAt(1)) != 1 || got.RowAt(1)[0].X != 3 {
		t.Errorf("row 1 = %v, want [{3 4}]", got.RowAt(1))
	}
}
