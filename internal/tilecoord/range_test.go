package tilecoord

import "testing"

func TestTileXBoundaryClassification(t *testing.T) {
	r, err := NewRange(380, 440, 0, 1, 30, 1)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		mz       float64
		wantTile int
	}{
		{380, 0},
		{380.1, 0},
		{409.999999999, 0},
		{410, 1},
		{439.99, 1},
		{440.0, 2},
	}
	for _, c := range cases {
		got := r.TileX(c.mz)
		if got != c.wantTile {
			t.Errorf("TileX(%v) = %d, want %d", c.mz, got, c.wantTile)
		}
	}
}

func TestTileXMzAtRoundTrip(t *testing.T) {
	r, err := NewRange(100, 1000, 0, 1, 17, 1)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < r.TileCountX(); k++ {
		mz := r.MzAt(k)
		if got := r.TileX(mz); got != k {
			t.Errorf("TileX(MzAt(%d)=%v) = %d, want %d", k, mz, got, k)
		}
	}
}

func TestTileYAndOffset(t *testing.T) {
	r, err := NewRange(0, 1, 0, 999, 1, 64)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.TileY(0); got != 0 {
		t.Errorf("TileY(0) = %d, want 0", got)
	}
	if got := r.TileY(63); got != 0 {
		t.Errorf("TileY(63) = %d, want 0", got)
	}
	if got := r.TileY(64); got != 1 {
		t.Errorf("TileY(64) = %d, want 1", got)
	}
	if got := r.TileOffset(64); got != 0 {
		t.Errorf("TileOffset(64) = %d, want 0", got)
	}
	if got := r.TileOffset(127); got != 63 {
		t.Errorf("TileOffset(127) = %d, want 63", got)
	}
	if !r.HasScanIndex(1, 64) {
		t.Error("HasScanIndex(1, 64) should be true")
	}
	if r.HasScanIndex(0, 64) {
		t.Error("HasScanIndex(0, 64) should be false")
	}
}

func TestTileRectAndFromTileRectRoundTrip(t *testing.T) {
	r, err := NewRange(380, 440, 0, 999, 30, 64)
	if err != nil {
		t.Fatal(err)
	}
	area := Area{
		Mz:        MzInterval{Start: 390, End: 420},
		ScanIndex: ScanIndexInterval{Start: 10, End: 70},
	}
	tr := r.TileRect(area)
	if tr.X != 0 || tr.W != 2 {
		t.Errorf("TileRect mz span = {X:%d,W:%d}, want {X:0,W:2}", tr.X, tr.W)
	}
	if tr.Y != 0 || tr.H != 2 {
		t.Errorf("TileRect scanIndex span = {Y:%d,H:%d}, want {Y:0,H:2}", tr.Y, tr.H)
	}
	back := r.FromTileRect(tr)
	if !r.Contains(back) {
		t.Errorf("FromTileRect(%v) = %v is not contained by range", tr, back)
	}
}

func TestComputeSizeRange(t *testing.T) {
	r, err := NewRange(380, 440, 0, 1, 30, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.TileCountX(); got != 3 {
		t.Errorf("TileCountX() = %d, want 3", got)
	}
}

func TestNewRangeRejectsReversedBounds(t *testing.T) {
	if _, err := NewRange(100, 0, 0, 1, 1, 1); err == nil {
		t.Error("expected error for reversed mz bounds")
	}
	if _, err := NewRange(0, 100, 5, 1, 1, 1); err == nil {
		t.Error("expected error for reversed scan index bounds")
	}
}
