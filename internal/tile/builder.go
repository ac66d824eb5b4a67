package tile

import (
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// ScanRow is one scan's worth of (mz, intensity) samples, already sorted
// ascending by mz, plus the scan index it belongs to.
type ScanRow struct {
	ScanIndex int
	Points    []numeric.Point
}

// PartialRowStore is implemented by stores that can accept a tile's rows one
// at a time before the tile is complete, letting the builder bound its
// in-memory footprint on large inputs instead of holding every pending tile
// until the whole build finishes. SQLitePointStore implements it; the
// ephemeral MemoryStore backing selection/hill-id tiles does not need to,
// since those are never built from a streamed scan pass.
type PartialRowStore interface {
	PutPartialRow(pos tilecoord.Pos, kind ContentKind, offset int, row []numeric.Point) error
	Defragment(pos tilecoord.Pos, kind ContentKind) error
}

// Builder ingests scans sequentially (as they stream in from a reader) and
// fans each one out across the mz tiles it touches, buffering partially
// filled tiles in memory until either a whole tile row is complete or the
// pending set grows past a memory budget, then flushing. This mirrors the
// teacher's zoom-level worker loop in internal/tile/generator.go, simplified
// to a single ingestion pass instead of a pyramid of levels. One Builder
// fills exactly one content kind; building both MS1Raw and MS1Centroided
// into the same cache file means running two Builders against the same
// store.
type Builder struct {
	rng          *tilecoord.Range
	store        Store[numeric.Point]
	kind         ContentKind
	partial      PartialRowStore // non-nil if store also implements PartialRowStore
	pending      map[tilecoord.Pos]*Tile[numeric.Point]
	touched      map[tilecoord.Pos]bool // positions ever spilled via partial, needing Defragment
	flushBytes   int64
	pendingBytes int64
}

// bytesPerPoint estimates the in-memory cost of one numeric.Point row entry:
// two float64s plus slice header overhead.
const bytesPerPoint = 24

// NewBuilder creates a Builder over rng, writing finished tiles of kind to
// store. If store implements PartialRowStore, the builder spills pending
// tiles to the store's scratch table once more than flushBytes of points
// are buffered; flushBytes is ComputeMemoryLimit(DefaultFlushFraction), or
// 256 MiB when system RAM cannot be detected.
func NewBuilder(rng *tilecoord.Range, store Store[numeric.Point], kind ContentKind) *Builder {
	b := &Builder{
		rng:     rng,
		store:   store,
		kind:    kind,
		pending: make(map[tilecoord.Pos]*Tile[numeric.Point]),
		touched: make(map[tilecoord.Pos]bool),
	}
	if p, ok := store.(PartialRowStore); ok {
		b.partial = p
		b.flushBytes = ComputeMemoryLimit(DefaultFlushFraction, false)
		if b.flushBytes == 0 {
			b.flushBytes = 256 * 1024 * 1024
		}
	}
	return b
}

// AddScan ingests one scan row, splitting it across mz tile boundaries and
// writing each fragment into the in-progress tile for that column.
func (b *Builder) AddScan(row ScanRow) error {
	if len(row.Points) == 0 {
		return nil
	}
	tileY := b.rng.TileY(row.ScanIndex)
	offset := b.rng.TileOffset(row.ScanIndex)

	i := 0
	for i < len(row.Points) {
		tileX := b.rng.TileX(row.Points[i].X)
		interval := b.rng.MzTileInterval(tileX)
		j := i
		for j < len(row.Points) && row.Points[j].X < interval.End {
			j++
		}
		pos := tilecoord.Pos{X: tileX, Y: tileY}
		t, ok := b.pending[pos]
		if !ok {
			t = NewTile[numeric.Point](pos, b.rng.ScanIndexTileHeight())
			b.pending[pos] = t
		}
		t.SetRow(offset, row.Points[i:j])
		b.pendingBytes += int64((j - i) * bytesPerPoint)
		i = j
	}

	if b.partial != nil && b.pendingBytes > b.flushBytes {
		return b.spillPending()
	}
	return nil
}

// spillPending writes every pending tile's buffered rows to the store's
// scratch table via PutPartialRow and clears them from memory, leaving the
// tiles marked touched for a later Defragment pass.
func (b *Builder) spillPending() error {
	for pos, t := range b.pending {
		for offset, row := range t.Rows {
			if len(row) == 0 {
				continue
			}
			if err := b.partial.PutPartialRow(pos, b.kind, offset, row); err != nil {
				return err
			}
		}
		b.touched[pos] = true
		delete(b.pending, pos)
	}
	b.pendingBytes = 0
	return nil
}

// FlushTileRow writes every pending tile in tile row tileY to the store and
// drops them from memory, marking them final (Partial=false). Call this
// once every scan belonging to tileY has been added via AddScan. A position
// that was spilled to scratch earlier goes through PutPartialRow+Defragment
// instead of a direct Put, so its earlier rows aren't lost.
func (b *Builder) FlushTileRow(tileY int) error {
	for pos, t := range b.pending {
		if pos.Y != tileY {
			continue
		}
		if b.partial != nil && b.touched[pos] {
			for offset, row := range t.Rows {
				if len(row) == 0 {
					continue
				}
				if err := b.partial.PutPartialRow(pos, b.kind, offset, row); err != nil {
					return err
				}
			}
			delete(b.pending, pos)
			if err := b.partial.Defragment(pos, b.kind); err != nil {
				return err
			}
			delete(b.touched, pos)
			continue
		}
		t.Partial = false
		if err := b.store.Put(pos, b.kind, t); err != nil {
			return err
		}
		delete(b.pending, pos)
	}
	return nil
}

// Finish flushes every remaining pending tile. If the store never needed a
// mid-build spill, pending tiles are written directly with Put; otherwise
// everything left in memory is spilled to the scratch table first (so a
// tile touched both before and after a spill doesn't lose its earlier
// rows), and every touched position gets one Defragment pass to merge
// scratch rows into the final tile.
func (b *Builder) Finish() error {
	if b.partial == nil || len(b.touched) == 0 {
		for pos, t := range b.pending {
			t.Partial = false
			if err := b.store.Put(pos, b.kind, t); err != nil {
				return err
			}
			delete(b.pending, pos)
		}
		return nil
	}

	if err := b.spillPending(); err != nil {
		return err
	}
	for pos := range b.touched {
		if err := b.partial.Defragment(pos, b.kind); err != nil {
			return err
		}
		delete(b.touched, pos)
	}
	return nil
}
