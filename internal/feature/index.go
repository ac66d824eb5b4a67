// Package feature implements feature-finding on top of a msdoc.Document:
// a processed-point/max-intensity bookkeeping session, a hill (XIC peak)
// finder, and an isotope-cluster finder that assembles hills into charged
// features.
package feature

import (
	"sort"
	"sync"

	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// Entry is one unprocessed point's bookkeeping record: where it lives (tile
// position and scan index), where within that scan's row it sits
// (InternalIndex, for O(1) re-lookup without a binary search), and its
// intensity.
type Entry struct {
	TilePos       tilecoord.Pos
	ScanIndex     int
	InternalIndex int
	Mz            float64
	Intensity     float64
}

// IntensityIndex tracks every not-yet-processed point across the tile grid,
// exposing two views: MaxIntensity() gives highest-intensity lookup for the
// cluster finder's main loop (spec §4.L step 1), while the per-tile buckets
// behind RemoveTile support targeted reindexing after a tile's contents change (spec §4.J
// update_index_for_tiles). Ties in intensity break toward the higher mz,
// per spec §4.J's max_intensity tie-break rule.
type IntensityIndex struct {
	mu      sync.Mutex
	byTile  map[tilecoord.Pos][]*Entry
	ordered []*Entry // kept sorted descending by (Intensity, Mz)
}

// NewIntensityIndex creates an empty index.
func NewIntensityIndex() *IntensityIndex {
	return &IntensityIndex{byTile: make(map[tilecoord.Pos][]*Entry)}
}

// Add inserts e into the index. Callers must not mutate e afterward; use
// Remove-then-Add to change an entry's state.
func (idx *IntensityIndex) Add(e *Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byTile[e.TilePos] = append(idx.byTile[e.TilePos], e)
	i := sort.Search(len(idx.ordered), func(i int) bool {
		return less(e, idx.ordered[i])
	})
	idx.ordered = append(idx.ordered, nil)
	copy(idx.ordered[i+1:], idx.ordered[i:])
	idx.ordered[i] = e
}

// less reports whether a should sort before b: higher intensity first,
// ties broken by higher mz first.
func less(a, b *Entry) bool {
	if a.Intensity != b.Intensity {
		return a.Intensity > b.Intensity
	}
	return a.Mz > b.Mz
}

// MaxIntensity returns the highest-intensity remaining entry, or nil if the
// index is empty.
func (idx *IntensityIndex) MaxIntensity() *Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.ordered) == 0 {
		return nil
	}
	return idx.ordered[0]
}

// Remove deletes e from both views. O(n) in the tile's bucket and in the
// ordered list; acceptable since removal happens once per point processed,
// matching the reference implementation's own linear scan-and-erase.
func (idx *IntensityIndex) Remove(e *Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bucket := idx.byTile[e.TilePos]
	for i, be := range bucket {
		if be == e {
			idx.byTile[e.TilePos] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	for i, oe := range idx.ordered {
		if oe == e {
			idx.ordered = append(idx.ordered[:i], idx.ordered[i+1:]...)
			break
		}
	}
}

// RemoveTile drops every entry belonging to pos, e.g. before
// UpdateIndexForTiles rebuilds it from fresh tile contents.
func (idx *IntensityIndex) RemoveTile(pos tilecoord.Pos) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	bucket := idx.byTile[pos]
	if len(bucket) == 0 {
		return
	}
	dead := make(map[*Entry]bool, len(bucket))
	for _, e := range bucket {
		dead[e] = true
	}
	delete(idx.byTile, pos)
	kept := idx.ordered[:0]
	for _, e := range idx.ordered {
		if !dead[e] {
			kept = append(kept, e)
		}
	}
	idx.ordered = kept
}

// Len returns the number of tracked entries.
func (idx *IntensityIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.ordered)
}
