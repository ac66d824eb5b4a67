package feature

import (
	"github.com/phanidev19/msnontile/internal/errs"
	"github.com/phanidev19/msnontile/internal/msdoc"
	"github.com/phanidev19/msnontile/internal/numeric"
	"github.com/phanidev19/msnontile/internal/tile"
	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// errCannotCloneStore marks a document whose point store does not
// implement tile.Cloner — every store shipped in this module does, so this
// should only surface for a caller's own Store[numeric.Point]
// implementation.
var errCannotCloneStore = errs.New(errs.BadParameter, "document's point store does not support Clone, required for the max-intensity index builder")

// SelectionBit marks one point as processed (1) or untouched (0). Stored as
// byte tiles since Go has no packed bit-array primitive worth the
// complexity at this scale; the store is session-scoped and never
// persisted.
type SelectionBit = uint8

// TilePoint identifies one point precisely enough to re-fetch its mz and
// intensity: its tile, scan index, and position within that scan's row.
type TilePoint struct {
	Pos           tilecoord.Pos
	ScanIndex     int
	InternalIndex int
	Mz            float64
	Intensity     float64
}

// Session is the feature-finding session: a processed-point bookkeeping
// layer (selection bits, optional hill-id tags) plus the max-intensity
// index, all scoped to one search tile rectangle of one Document. Feature
// finding always searches the centroided content kind.
//
// Selection and hill-id writes go directly to their backing stores,
// bypassing the manager's cache, because the finder repeatedly reads
// selections it just wrote within the same pass — caching them would only
// risk staleness for no benefit. Both managers are built with caching
// disabled (maxEntries 0) for the same reason, so a direct store write is
// never shadowed by a stale cached tile even if a future write path forgets
// to call Invalidate.
type Session struct {
	doc          *msdoc.Document
	rect         tilecoord.TileRect
	selectionMgr *tile.Manager[SelectionBit]
	hillIDMgr    *tile.Manager[int]
	index        *IntensityIndex
}

// NewSession builds a session over rect, using a MaxIntensityFinder to seed
// the intensity index with the default worker count (use
// NewSessionWithWorkers when a non-default parallelism is wanted).
// withHillIDs enables the optional hill-id store (the cluster finder needs
// it; a bare max-intensity scan does not).
func NewSession(doc *msdoc.Document, rect tilecoord.TileRect, withHillIDs bool) (*Session, error) {
	return NewSessionWithWorkers(doc, rect, withHillIDs, 0)
}

// NewSessionWithWorkers is NewSession with an explicit worker count for the
// initial index build (0 uses runtime.GOMAXPROCS(0), per spec §5's
// "ideal_thread_count").
func NewSessionWithWorkers(doc *msdoc.Document, rect tilecoord.TileRect, withHillIDs bool, workers int) (*Session, error) {
	selStore := tile.NewMemoryStore[SelectionBit]()
	selMgr := tile.NewManager[SelectionBit](selStore, 0)

	var hillMgr *tile.Manager[int]
	if withHillIDs {
		hillStore := tile.NewMemoryStore[int]()
		hillMgr = tile.NewManager[int](hillStore, 0)
	}

	cloner, ok := doc.PointStore().(tile.Cloner[numeric.Point])
	if !ok {
		return nil, errCannotCloneStore
	}
	index, err := NewMaxIntensityFinder(cloner, doc.Range()).Build(rect, workers)
	if err != nil {
		return nil, err
	}

	return &Session{
		doc:          doc,
		rect:         rect,
		selectionMgr: selMgr,
		hillIDMgr:    hillMgr,
		index:        index,
	}, nil
}

func (s *Session) Document() *msdoc.Document                         { return s.doc }
func (s *Session) SelectionTileManager() *tile.Manager[SelectionBit] { return s.selectionMgr }
func (s *Session) HillIndexManager() *tile.Manager[int]              { return s.hillIDMgr }
func (s *Session) Rect() tilecoord.TileRect                          { return s.rect }

// MaxIntensity returns the top remaining entry as a TilePoint, breaking
// ties toward the higher mz (already IntensityIndex's sort order), or nil
// if nothing remains.
func (s *Session) MaxIntensity() *TilePoint {
	e := s.index.MaxIntensity()
	if e == nil {
		return nil
	}
	return &TilePoint{
		Pos: e.TilePos, ScanIndex: e.ScanIndex, InternalIndex: e.InternalIndex,
		Mz: e.Mz, Intensity: e.Intensity,
	}
}

// UpdateIndexForTiles forwards to the index: drop and re-derive the entries
// for each listed tile position from fresh (post-selection) store contents.
func (s *Session) UpdateIndexForTiles(positions []tilecoord.Pos) error {
	rng := s.doc.Range()
	for _, pos := range positions {
		s.index.RemoveTile(pos)
		scanStart := rng.ScanIndexAt(pos.Y)
		scanEnd := rng.LastScanIndexAt(pos.Y)
		for si := scanStart; si <= scanEnd; si++ {
			pts, err := s.doc.GetScanData(si, rng.MzAt(pos.X), rng.MzAt(pos.X+1), true)
			if err != nil {
				return err
			}
			selTile, err := s.selectionMgr.Get(pos, tile.KindSelectionBits)
			if err != nil {
				return err
			}
			for i, p := range pts {
				if selTile != nil {
					if row := selTile.RowAt(si - scanStart); row != nil && i < len(row) && row[i] != 0 {
						continue
					}
				}
				s.index.Add(&Entry{
					TilePos: pos, ScanIndex: si, InternalIndex: i,
					Mz: p.X, Intensity: p.Y,
				})
			}
		}
	}
	return nil
}

// MarkSelected sets the selection bit for pt directly in the selection
// store (no manager cache), panicking if it is already set — a
// double-write is a bug in the caller, not a recoverable condition, per
// the fatal-assertion error-handling policy for selection writes.
func (s *Session) MarkSelected(pos tilecoord.Pos, rowOffset, internalIndex, rowHeight int) error {
	store := s.selectionMgr.Store()
	t, ok, err := store.Get(pos, tile.KindSelectionBits)
	if err != nil {
		return err
	}
	if !ok {
		t = tile.NewTile[SelectionBit](pos, rowHeight)
	}
	row := t.RowAt(rowOffset)
	if row == nil {
		row = make([]SelectionBit, internalIndex+1)
	} else if len(row) <= internalIndex {
		grown := make([]SelectionBit, internalIndex+1)
		copy(grown, row)
		row = grown
	}
	if row[internalIndex] != 0 {
		panic("feature: selection bit already set for point")
	}
	row[internalIndex] = 1
	t.SetRow(rowOffset, row)
	if err := store.Put(pos, tile.KindSelectionBits, t); err != nil {
		return err
	}
	s.selectionMgr.Invalidate(pos, tile.KindSelectionBits)
	return nil
}

// IsSelected reports whether the point at (pos, rowOffset, internalIndex)
// has already been marked processed.
func (s *Session) IsSelected(pos tilecoord.Pos, rowOffset, internalIndex int) (bool, error) {
	t, err := s.selectionMgr.Get(pos, tile.KindSelectionBits)
	if err != nil || t == nil {
		return false, err
	}
	row := t.RowAt(rowOffset)
	if row == nil || internalIndex >= len(row) {
		return false, nil
	}
	return row[internalIndex] != 0, nil
}

// MarkHillID records hillID for the point at (pos, rowOffset,
// internalIndex) in the hill-id store, a no-op if the session was built
// without hill ids (withHillIDs=false). Like MarkSelected, it writes
// straight to the backing store and invalidates the manager's cache entry
// rather than going through Put, since the cluster finder may tag several
// points in the same tile in quick succession.
func (s *Session) MarkHillID(pos tilecoord.Pos, rowOffset, internalIndex, rowHeight, hillID int) error {
	if s.hillIDMgr == nil {
		return nil
	}
	store := s.hillIDMgr.Store()
	t, ok, err := store.Get(pos, tile.KindHillIDs)
	if err != nil {
		return err
	}
	if !ok {
		t = tile.NewTile[int](pos, rowHeight)
		row := t.Rows
		for i := range row {
			row[i] = nil
		}
	}
	row := t.RowAt(rowOffset)
	if row == nil || len(row) <= internalIndex {
		grown := make([]int, max(internalIndex+1, len(row)))
		for i := range grown {
			grown[i] = -1
		}
		copy(grown, row)
		row = grown
	}
	row[internalIndex] = hillID
	t.SetRow(rowOffset, row)
	if err := store.Put(pos, tile.KindHillIDs, t); err != nil {
		return err
	}
	s.hillIDMgr.Invalidate(pos, tile.KindHillIDs)
	return nil
}

// HillIDAt returns the hill id recorded for (pos, rowOffset,
// internalIndex), or -1 if unset or the session has no hill-id store.
func (s *Session) HillIDAt(pos tilecoord.Pos, rowOffset, internalIndex int) (int, error) {
	if s.hillIDMgr == nil {
		return -1, nil
	}
	t, err := s.hillIDMgr.Get(pos, tile.KindHillIDs)
	if err != nil || t == nil {
		return -1, err
	}
	row := t.RowAt(rowOffset)
	if row == nil || internalIndex >= len(row) {
		return -1, nil
	}
	return row[internalIndex], nil
}

// RemainingPoints reports how many points the intensity index still tracks,
// for progress-limit checks in the cluster finder.
func (s *Session) RemainingPoints() int { return s.index.Len() }
