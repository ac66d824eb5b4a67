// Package tile implements the ragged, tiled on-disk index: a generic tile
// grid keyed by (mz-tile, scan-index-tile) position, an LRU manager on top
// of a pluggable store, and the iterator patterns used to read it back
// (random point lookup, row-major sequential scan, arbitrary-rectangle
// query, and within-row sub-range query).
package tile

import "github.com/phanidev19/msnontile/internal/tilecoord"

// ContentKind is the second half of a tile's address, alongside its
// (mz-tile, scan-index-tile) position: every Store method takes a position
// and a kind, and the same position can hold independent tiles per kind.
// MS1Raw/MS1Centroided are the two persisted point kinds a document can
// hold side by side in one cache file; SelectionBits/HillIDs are the two
// ephemeral per-session bookkeeping kinds layered on top during
// feature-finding.
type ContentKind int

const (
	// KindMS1Raw holds uncentroided (profile) mz/intensity samples.
	KindMS1Raw ContentKind = iota
	// KindMS1Centroided holds centroided mz/intensity samples, the kind
	// feature-finding actually searches.
	KindMS1Centroided
	// KindSelectionBits holds one bool per point, tracking which points a
	// feature-finding session has already consumed.
	KindSelectionBits
	// KindHillIDs holds one hill/cluster id per point, or -1 if unassigned.
	KindHillIDs
)

func (k ContentKind) String() string {
	switch k {
	case KindMS1Raw:
		return "MS1Raw"
	case KindMS1Centroided:
		return "MS1Centroided"
	case KindSelectionBits:
		return "SelectionBits"
	case KindHillIDs:
		return "HillIDs"
	default:
		return "Unknown"
	}
}

// Tile holds one tile's worth of data: Rows[offset] is the ragged row of
// values for scan-index offset within the tile (offset in
// [0, scanIndexTileHeight)). Partial marks a tile that has had some but not
// all of its rows written by a sequential builder pass; it is cleared by
// Defragment.
type Tile[T any] struct {
	Pos     tilecoord.Pos
	Rows    [][]T
	Partial bool
}

// NewTile allocates a tile with height empty rows.
func NewTile[T any](pos tilecoord.Pos, height int) *Tile[T] {
	return &Tile[T]{Pos: pos, Rows: make([][]T, height), Partial: true}
}

// RowAt returns the row at offset, or nil if offset is out of range or the
// row was never written.
func (t *Tile[T]) RowAt(offset int) []T {
	if offset < 0 || offset >= len(t.Rows) {
		return nil
	}
	return t.Rows[offset]
}

// SetRow writes row data at offset, growing Rows if needed.
func (t *Tile[T]) SetRow(offset int, row []T) {
	if offset >= len(t.Rows) {
		grown := make([][]T, offset+1)
		copy(grown, t.Rows)
		t.Rows = grown
	}
	t.Rows[offset] = row
}

// PointCount returns the total number of values across all rows.
func (t *Tile[T]) PointCount() int {
	n := 0
	for _, r := range t.Rows {
		n += len(r)
	}
	return n
}
