package feature

import (
	"runtime"
	"sync"

	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// MaxIntensityFinder builds an IntensityIndex over a tile rectangle by
// scanning every point once, parallelized across horizontal tile-row
// bands. Per spec §4.I/§5: each worker gets its own cloned manager+store
// (stores are never shared across threads), the main goroutine processes
// the last band itself, and results merge into one index after every
// worker finishes.
type MaxIntensityFinder struct {
	store tile.Cloner[numeric.Point]
	rng   *tilecoord.Range
}

// NewMaxIntensityFinder builds a finder over store (which must support
// Clone, since every worker needs its own handle) and rng.
func NewMaxIntensityFinder(store tile.Cloner[numeric.Point], rng *tilecoord.Range) *MaxIntensityFinder {
	return &MaxIntensityFinder{store: store, rng: rng}
}

// Build scans rect and returns the merged index. workerCount <= 0 uses
// runtime.GOMAXPROCS(0) ("ideal_thread_count" in spec terms).
func (f *MaxIntensityFinder) Build(rect tilecoord.TileRect, workerCount int) (*IntensityIndex, error) {
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}
	if workerCount > rect.H {
		workerCount = rect.H
	}
	if workerCount < 1 {
		workerCount = 1
	}

	bands := splitBands(rect, workerCount)
	index := NewIntensityIndex()

	if len(bands) == 1 {
		return index, f.scanBand(bands[0], index)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(bands)-1)
	partials := make([]*IntensityIndex, len(bands)-1)

	for i := 0; i < len(bands)-1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			partial := NewIntensityIndex()
			if err := f.scanBand(bands[i], partial); err != nil {
				errCh <- err
				return
			}
			partials[i] = partial
		}(i)
	}

	// The main goroutine processes the last band itself, per spec §5.
	lastIdx := NewIntensityIndex()
	lastErr := f.scanBand(bands[len(bands)-1], lastIdx)

	wg.Wait()
	close(errCh)
	if lastErr != nil {
		return nil, lastErr
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	for _, p := range partials {
		mergeIndex(index, p)
	}
	mergeIndex(index, lastIdx)
	return index, nil
}

func mergeIndex(dst, src *IntensityIndex) {
	for _, e := range src.ordered {
		dst.Add(e)
	}
}

// splitBands partitions rect's tile rows into workerCount equal-height
// horizontal bands (the last absorbing any remainder).
func splitBands(rect tilecoord.TileRect, workerCount int) []tilecoord.TileRect {
	if workerCount <= 1 {
		return []tilecoord.TileRect{rect}
	}
	bandHeight := rect.H / workerCount
	if bandHeight < 1 {
		bandHeight = 1
		workerCount = rect.H
	}
	bands := make([]tilecoord.TileRect, 0, workerCount)
	y := rect.Y
	remaining := rect.H
	for i := 0; i < workerCount; i++ {
		h := bandHeight
		if i == workerCount-1 {
			h = remaining
		}
		bands = append(bands, tilecoord.TileRect{X: rect.X, Y: y, W: rect.W, H: h})
		y += h
		remaining -= h
	}
	return bands
}

// scanBand opens its own cloned store/manager and scans every tile in
// band, adding every point into idx with its (scan_index, internal_index)
// — the full per-point index the session later consumes, not just one
// maximum per tile, since Session.MaxIntensity
// needs to advance past the current maximum as points get selected.
func (f *MaxIntensityFinder) scanBand(band tilecoord.TileRect, idx *IntensityIndex) error {
	store, err := f.store.Clone()
	if err != nil {
		return err
	}
	defer store.Close()
	mgr := tile.NewManager[numeric.Point](store, band.W+1)
	doc := msdoc.NewDocument(f.rng, mgr, nil)

	for ty := band.Y; ty < band.Y+band.H; ty++ {
		scanStart := f.rng.ScanIndexAt(ty)
		scanEnd := f.rng.LastScanIndexAt(ty)
		for tx := band.X; tx < band.X+band.W; tx++ {
			pos := tilecoord.Pos{X: tx, Y: ty}
			for si := scanStart; si <= scanEnd; si++ {
				pts, err := doc.GetScanData(si, f.rng.MzAt(tx), f.rng.MzAt(tx+1), true)
				if err != nil {
					return err
				}
				for i, p := range pts {
					idx.Add(&Entry{TilePos: pos, ScanIndex: si, InternalIndex: i, Mz: p.X, Intensity: p.Y})
				}
			}
		}
	}
	return nil
}
