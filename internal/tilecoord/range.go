// Package tilecoord maps between world coordinates (mz, scan index) and
// the tile grid used to store them: which tile a coordinate falls in, and
// which world-coordinate interval a tile covers. It has no notion of what
// is stored in a tile; internal/tile builds on top of it.
package tilecoord

import (
	"math"

	"github.com/phanidev19/msnontile/internal/errs"
)

// Pos identifies a tile by its column (mz axis) and row (scan-index axis).
type Pos struct {
	X, Y int
}

// MzInterval is a half-open [Start, End) range of mz values.
type MzInterval struct {
	Start, End float64
}

// Contains reports whether other is fully within this interval.
func (iv MzInterval) Contains(other MzInterval) bool {
	return other.Start >= iv.Start && other.End <= iv.End
}

// ScanIndexInterval is a half-open [Start, End) range of scan indices.
type ScanIndexInterval struct {
	Start, End int
}

// Contains reports whether other is fully within this interval.
func (iv ScanIndexInterval) Contains(other ScanIndexInterval) bool {
	return other.Start >= iv.Start && other.End <= iv.End
}

// Area is a world-coordinate rectangle spanning an mz interval and a
// scan-index interval.
type Area struct {
	Mz         MzInterval
	ScanIndex  ScanIndexInterval
}

// TileRect is a tile-coordinate rectangle: the inclusive tile column/row
// range [X, X+W) x [Y, Y+H).
type TileRect struct {
	X, Y, W, H int
}

// Range maps between world coordinates and the non-uniform tile grid: mz
// tiles are uniform width but the last one may be ragged, since mzMin/mzMax
// are rounded to integers on construction; scan-index tiles are uniform
// height by construction. Rounding and fixed-precision correction follow
// the reference implementation exactly: tileX is computed by floor
// division, then nudged by ±1 if floating-point error put it one tile off
// from the interval that actually contains mz.
type Range struct {
	mzMin, mzMax, mzTileWidth       float64
	scanIndexMin, scanIndexMax      int
	scanIndexTileHeight             int
}

// NewRange builds a Range for [mzStart, mzEnd] (rounded out to integer mz
// bounds) and [scanIndexStart, scanIndexEnd], tiled at mzTileWidth by
// scanIndexTileHeight.
func NewRange(mzStart, mzEnd float64, scanIndexStart, scanIndexEnd int, mzTileWidth float64, scanIndexTileHeight int) (*Range, error) {
	if mzStart > mzEnd {
		return nil, errs.Newf(errs.BadParameter, "mz range reversed: start=%v end=%v", mzStart, mzEnd)
	}
	if scanIndexStart > scanIndexEnd {
		return nil, errs.Newf(errs.BadParameter, "scan index range reversed: start=%v end=%v", scanIndexStart, scanIndexEnd)
	}
	if mzTileWidth <= 0 {
		return nil, errs.Newf(errs.BadParameter, "mz tile width must be positive, got %v", mzTileWidth)
	}
	if scanIndexTileHeight <= 0 {
		return nil, errs.Newf(errs.BadParameter, "scan index tile height must be positive, got %v", scanIndexTileHeight)
	}
	r := &Range{
		mzMin:                math.Floor(mzStart),
		mzMax:                math.Ceil(mzEnd),
		mzTileWidth:          mzTileWidth,
		scanIndexMin:         scanIndexStart,
		scanIndexMax:         scanIndexEnd,
		scanIndexTileHeight:  scanIndexTileHeight,
	}
	return r, nil
}

func (r *Range) MzMin() float64 { return r.mzMin }
func (r *Range) MzMax() float64 { return r.mzMax }
func (r *Range) MzTileWidth() float64 { return r.mzTileWidth }
func (r *Range) ScanIndexMin() int { return r.scanIndexMin }
func (r *Range) ScanIndexMax() int { return r.scanIndexMax }
func (r *Range) ScanIndexTileHeight() int { return r.scanIndexTileHeight }

// IsNull reports whether this is a zero-value Range.
func (r *Range) IsNull() bool {
	return r.mzMin == 0 && r.mzMax == 0 && r.mzTileWidth == 0 &&
		r.scanIndexMin == 0 && r.scanIndexMax == 0 && r.scanIndexTileHeight == 0
}

func computeSize(min, max, step float64) int {
	return int(math.Floor((max - min + step) / step))
}

// TileCountX returns the number of tile columns spanning the mz range.
func (r *Range) TileCountX() int { return computeSize(r.mzMin, r.mzMax, r.mzTileWidth) }

// TileCountY returns the number of tile rows spanning the scan-index range.
func (r *Range) TileCountY() int {
	return computeSize(float64(r.scanIndexMin), float64(r.scanIndexMax), float64(r.scanIndexTileHeight))
}

// MzAt returns the smallest mz value stored in tile column tileX.
func (r *Range) MzAt(tileX int) float64 {
	return r.mzMin + float64(tileX)*r.mzTileWidth
}

// MzTileInterval returns the [start, end) mz interval covered by tileX.
func (r *Range) MzTileInterval(tileX int) MzInterval {
	return MzInterval{Start: r.MzAt(tileX), End: r.MzAt(tileX + 1)}
}

// ScanIndexAt returns the first scan index stored in tile row tileY.
func (r *Range) ScanIndexAt(tileY int) int {
	return r.scanIndexMin + tileY*r.scanIndexTileHeight
}

// LastScanIndexAt returns the last scan index (inclusive) stored in tileY.
func (r *Range) LastScanIndexAt(tileY int) int {
	return r.ScanIndexAt(tileY+1) - 1
}

// ScanIndexTileInterval returns the [start, end) scan-index interval
// covered by tileY.
func (r *Range) ScanIndexTileInterval(tileY int) ScanIndexInterval {
	return ScanIndexInterval{Start: r.ScanIndexAt(tileY), End: r.ScanIndexAt(tileY + 1)}
}

// TileOffset returns the row offset of scanIndex within its tile.
func (r *Range) TileOffset(scanIndex int) int {
	ty := r.TileY(scanIndex)
	return scanIndex - r.ScanIndexAt(ty)
}

// LastTileOffset returns the largest possible row offset within any tile.
func (r *Range) LastTileOffset() int { return r.scanIndexTileHeight - 1 }

// HasScanIndex reports whether scanIndex falls within tile row tileY.
func (r *Range) HasScanIndex(tileY, scanIndex int) bool {
	return tileY == r.TileY(scanIndex)
}

// TileX returns the tile column containing mz. Because mz/tileWidth floor
// division is subject to floating-point rounding near tile boundaries, the
// result is corrected by checking actual membership in
// [MzAt(tileX), MzAt(tileX+1)) and nudging by ±1 if needed.
func (r *Range) TileX(mz float64) int {
	tx := int(math.Floor((mz - r.mzMin) / r.mzTileWidth))
	mzLo := r.MzAt(tx)
	mzHi := r.MzAt(tx + 1)
	switch {
	case mzLo <= mz && mz < mzHi:
		return tx
	case mz < mzLo:
		return tx - 1
	default: // mz >= mzHi
		return tx + 1
	}
}

// TileY returns the tile row containing scanIndex.
func (r *Range) TileY(scanIndex int) int {
	return scanIndex / r.scanIndexTileHeight
}

// TileRect converts a world-coordinate area to the inclusive tile-index
// rectangle that covers it.
func (r *Range) TileRect(area Area) TileRect {
	xStart := r.TileX(area.Mz.Start)
	xEnd := r.TileX(area.Mz.End)
	yStart := r.TileY(area.ScanIndex.Start)
	yEnd := r.TileY(area.ScanIndex.End)
	return TileRect{X: xStart, Y: yStart, W: xEnd - xStart + 1, H: yEnd - yStart + 1}
}

// Area returns the world-coordinate rectangle spanned by the whole range.
func (r *Range) Area() Area {
	return Area{
		Mz:        MzInterval{Start: r.mzMin, End: r.mzMax},
		ScanIndex: ScanIndexInterval{Start: r.scanIndexMin, End: r.scanIndexMax},
	}
}

// FromTileRect converts a tile-index rectangle back to world coordinates.
// The mz side is half-open [start, end); the scan-index side is inclusive
// [start, end] because scan indices are discrete.
func (r *Range) FromTileRect(tr TileRect) Area {
	tileEndX := tr.X + tr.W - 1
	tileEndY := tr.Y + tr.H - 1
	return Area{
		Mz:        MzInterval{Start: r.MzAt(tr.X), End: r.MzAt(tileEndX + 1)},
		ScanIndex: ScanIndexInterval{Start: r.ScanIndexAt(tr.Y), End: r.LastScanIndexAt(tileEndY)},
	}
}

// Contains reports whether other is fully within this range's area.
func (r *Range) Contains(other Area) bool {
	whole := r.Area()
	return whole.Mz.Contains(other.Mz) && whole.ScanIndex.Contains(other.ScanIndex)
}
