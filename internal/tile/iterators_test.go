package tile

import (
	"testing"

	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

func TestPartRange(t *testing.T) {
	row := []numeric.Point{
		{X: 0, Y: 0}, {X: 1, Y: 10}, {X: 2, Y: 20}, {X: 3, Y: 30}, {X: 4, Y: 40},
		{X: 5, Y: 50}, {X: 6, Y: 60}, {X: 7, Y: 70}, {X: 8, Y: 80}, {X: 9, Y: 90},
	}
	got := PartRange(row, 3.0, 6.1)
	want := []numeric.Point{{X: 3, Y: 30}, {X: 4, Y: 40}, {X: 5, Y: 50}, {X: 6, Y: 60}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := PartRange(row, 10.0, 20.0); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestSequentialIterateRowMajorOrder(t *testing.T) {
	rng, err := tilecoord.NewRange(0, 1, 0, 127, 1, 64)
	if err != nil {
		t.Fatal(err)
	}
	store := NewMemoryStore[numeric.Point]()
	mgr := NewManager(store, 16)

	type triple struct{ x, y, scan int }
	var got []triple
	rect := tilecoord.TileRect{X: 0, Y: 0, W: 2, H: 2}
	err = SequentialIterate(mgr, rng, rect, KindMS1Centroided, func(tileX, tileY, scanIndex int, row []numeric.Point) error {
		got = append(got, triple{tileX, tileY, scanIndex})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []triple{}
	for _, ty := range []int{0, 1} {
		base := ty * 64
		for _, tx := range []int{0, 1} {
			for off := 0; off < 64; off++ {
				want = append(want, triple{tx, ty, base + off})
			}
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d triples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("triple[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	// Spot-check the documented sequence boundary: last of tile (0,0) is
	// scan 63, first of tile (1,0) is scan 0 again (same tile row).
	if got[63] != (triple{0, 0, 63}) {
		t.Errorf("got[63] = %+v, want {0,0,63}", got[63])
	}
	if got[64] != (triple{1, 0, 0}) {
		t.Errorf("got[64] = %+v, want {1,0,0}", got[64])
	}
	if got[128] != (triple{0, 1, 64}) {
		t.Errorf("got[128] = %+v, want {0,1,64}", got[128])
	}
}
