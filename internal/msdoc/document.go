package msdoc

import (
	"sort"

	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// Document is the single read/write gateway onto one tiled data set: the
// grid geometry (Range), the tiled point store behind an LRU Manager, and
// the scan-number/time converter. Everything else in the system reaches
// tiled scan data through a Document rather than touching tile.Store or
// tilecoord.Range directly.
type Document struct {
	rng *tilecoord.Range
	mgr *tile.Manager[numeric.Point]
	cv  *ScanConverter
}

// NewDocument binds an already-built range, manager, and converter into a
// Document. Opening/building the underlying store is the caller's job
// (tile.Builder for a fresh ingest, tile.OpenSQLitePointStore for an
// existing one).
func NewDocument(rng *tilecoord.Range, mgr *tile.Manager[numeric.Point], cv *ScanConverter) *Document {
	return &Document{rng: rng, mgr: mgr, cv: cv}
}

func (d *Document) Range() *tilecoord.Range   { return d.rng }
func (d *Document) Converter() *ScanConverter { return d.cv }

// Manager exposes the underlying tile manager, for collaborators (the
// max-intensity index builder) that need direct store/manager access
// rather than going through Document's higher-level queries.
func (d *Document) Manager() *tile.Manager[numeric.Point] { return d.mgr }

// PointStore exposes the manager's backing store directly, for callers
// that need to Clone it (the max-intensity index builder's per-worker
// store requirement).
func (d *Document) PointStore() tile.Store[numeric.Point] { return d.mgr.Store() }

// contentKindFor maps the boundary ScanReader's centroided flag onto the
// tile store's content-kind dimension.
func contentKindFor(centroided bool) tile.ContentKind {
	if centroided {
		return tile.KindMS1Centroided
	}
	return tile.KindMS1Raw
}

// GetScanData returns every stored point in [mzLo, mzHi] for one scan of
// the given content kind, ascending by mz. It random-iterates the tiles
// spanning the mz range at that scan's tile row, concatenates their rows,
// and clips to the requested bounds. Equivalent to
// reader.GetScanData(scanNumber, centroided) filtered to [mzLo, mzHi], once
// scanIndex and scanNumber refer to the same scan.
func (d *Document) GetScanData(scanIndex int, mzLo, mzHi float64, centroided bool) ([]numeric.Point, error) {
	area := tilecoord.Area{
		Mz:        tilecoord.MzInterval{Start: mzLo, End: mzHi},
		ScanIndex: tilecoord.ScanIndexInterval{Start: scanIndex, End: scanIndex + 1},
	}
	pts, err := tile.RectQuery(d.mgr, d.rng, area, contentKindFor(centroided))
	if err != nil {
		return nil, err
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	return pts, nil
}

// GetXICData sums intensity over [mzStart, mzEnd] at every scan from the
// first scan at or after timeStart through the first scan at or after
// timeEnd (the last scan, if timeEnd is past it) of the given content
// kind, returning one (time, sum) point per scan. It visits each tile covering the time/mz window at most
// once via SequentialIterate, matching the reference implementation's
// preferred strategy over one GetScanData call per scan.
func (d *Document) GetXICData(window XICWindow, centroided bool) ([]numeric.Point, error) {
	scanStart := d.cv.TimeToScanIndex(window.TimeStart)
	scanEnd := d.cv.TimeToScanIndex(window.TimeEnd)
	if scanEnd >= d.cv.Len() {
		scanEnd = d.cv.Len() - 1
	}
	if scanEnd < scanStart {
		return nil, nil
	}

	sums := make(map[int]float64, scanEnd-scanStart+1)
	area := tilecoord.Area{
		Mz:        tilecoord.MzInterval{Start: window.MzStart, End: window.MzEnd},
		ScanIndex: tilecoord.ScanIndexInterval{Start: scanStart, End: scanEnd + 1},
	}
	rect := d.rng.TileRect(area)
	err := tile.SequentialIterate(d.mgr, d.rng, rect, contentKindFor(centroided), func(tileX, tileY, scanIndex int, row []numeric.Point) error {
		if scanIndex < scanStart || scanIndex > scanEnd {
			return nil
		}
		for _, p := range tile.PartRange(row, window.MzStart, window.MzEnd) {
			sums[scanIndex] += p.Y
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]numeric.Point, 0, scanEnd-scanStart+1)
	for si := scanStart; si <= scanEnd; si++ {
		out = append(out, numeric.Point{X: d.cv.TimeAt(si), Y: sums[si]})
	}
	return out, nil
}

// WriteUniformData downsamples one scan's stored points onto a uniform
// mz grid already sized by the caller (grid.Ys pre-allocated, Start/Step
// set), by evaluating a Plot built from the scan's points at each grid
// x-position. Points outside the scan's x-range evaluate to 0.
func (d *Document) WriteUniformData(scanIndex int, mzLo, mzHi float64, grid *numeric.Grid, centroided bool) error {
	pts, err := d.GetScanData(scanIndex, mzLo, mzHi, centroided)
	if err != nil {
		return err
	}
	plot := numeric.NewPlot(pts)
	for i := 0; i < grid.Len(); i++ {
		grid.Ys[i] = plot.Evaluate(grid.XAt(i), true, false)
	}
	return nil
}
