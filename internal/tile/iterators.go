package tile

import (
	"sort"

	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// RandomAccess wraps a Manager for single-point-in-time lookups: given a
// tile position and a row offset, return that row's data. It exists mainly
// to name the "random" access pattern distinctly from the sequential one,
// since both ultimately call Manager.Get.
type RandomAccess[T any] struct {
	mgr *Manager[T]
}

// NewRandomAccess wraps mgr for random point lookups.
func NewRandomAccess[T any](mgr *Manager[T]) *RandomAccess[T] {
	return &RandomAccess[T]{mgr: mgr}
}

// RowAt returns the row at (pos, kind, offset), or nil if the tile or row
// is absent.
func (r *RandomAccess[T]) RowAt(pos tilecoord.Pos, kind ContentKind, offset int) ([]T, error) {
	t, err := r.mgr.Get(pos, kind)
	if err != nil || t == nil {
		return nil, err
	}
	return t.RowAt(offset), nil
}

// SequentialVisit is called once per (tileX, tileY, scanIndex) triple during
// a SequentialIterate walk, with that scan's row data (nil if the tile has
// no data at that offset).
type SequentialVisit[T any] func(tileX, tileY, scanIndex int, row []T) error

// SequentialIterate walks rect in row-major tile order — for each tile row
// (tileY), every tile column (tileX) left to right, and within each tile
// every scan-index offset from 0 to the tile height — matching the
// reference iteration order tile (0,0) scans 0..h-1, tile (1,0) scans
// 0..h-1, then tile (0,1), tile (1,1), and so on. Every tile is read at
// kind.
func SequentialIterate[T any](mgr *Manager[T], rng *tilecoord.Range, rect tilecoord.TileRect, kind ContentKind, visit SequentialVisit[T]) error {
	height := rng.ScanIndexTileHeight()
	for ty := rect.Y; ty < rect.Y+rect.H; ty++ {
		for tx := rect.X; tx < rect.X+rect.W; tx++ {
			pos := tilecoord.Pos{X: tx, Y: ty}
			t, err := mgr.Get(pos, kind)
			if err != nil {
				return err
			}
			base := rng.ScanIndexAt(ty)
			for offset := 0; offset < height; offset++ {
				var row []T
				if t != nil {
					row = t.RowAt(offset)
				}
				if err := visit(tx, ty, base+offset, row); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// RectQuery collects every value within area from the tiles covering it at
// kind, filtering each row to the mz sub-range with PartRange and the scan
// indices to area.ScanIndex.
func RectQuery(mgr *Manager[numeric.Point], rng *tilecoord.Range, area tilecoord.Area, kind ContentKind) ([]numeric.Point, error) {
	rect := rng.TileRect(area)
	var out []numeric.Point
	err := SequentialIterate(mgr, rng, rect, kind, func(tileX, tileY, scanIndex int, row []numeric.Point) error {
		if scanIndex < area.ScanIndex.Start || scanIndex >= area.ScanIndex.End {
			return nil
		}
		out = append(out, PartRange(row, area.Mz.Start, area.Mz.End)...)
		return nil
	})
	return out, err
}

// PartRange returns the sub-slice of row (sorted ascending by X) whose x
// falls within [xMin, xMax], located via binary search.
func PartRange(row []numeric.Point, xMin, xMax float64) []numeric.Point {
	if len(row) == 0 {
		return nil
	}
	lo := sort.Search(len(row), func(i int) bool { return row[i].X >= xMin })
	hi := sort.Search(len(row), func(i int) bool { return row[i].X > xMax })
	if lo >= hi {
		return nil
	}
	return row[lo:hi]
}
