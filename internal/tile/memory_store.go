package tile

import (
	"sync"

	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// MemoryStore is a concurrency-safe in-memory Store, the generic instance
// used for the two ephemeral, session-scoped content kinds
// (KindSelectionBits, KindHillIDs) that never need to survive past one
// feature-finding run, and for tests exercising either point kind without a
// SQLite file. It follows the same map-guarded-by-mutex shape as the
// teacher's TileImageStore, keeping tiles by content in one hash map per
// kind.
type MemoryStore[T any] struct {
	mu    sync.RWMutex
	tiles map[ContentKind]map[tilecoord.Pos]*Tile[T]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{tiles: make(map[ContentKind]map[tilecoord.Pos]*Tile[T])}
}

func (s *MemoryStore[T]) Get(pos tilecoord.Pos, kind ContentKind) (*Tile[T], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tiles[kind][pos]
	return t, ok, nil
}

func (s *MemoryStore[T]) Put(pos tilecoord.Pos, kind ContentKind, t *Tile[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.tiles[kind]
	if bucket == nil {
		bucket = make(map[tilecoord.Pos]*Tile[T])
		s.tiles[kind] = bucket
	}
	bucket[pos] = t
	return nil
}

func (s *MemoryStore[T]) Has(pos tilecoord.Pos, kind ContentKind) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tiles[kind][pos]
	return ok, nil
}

func (s *MemoryStore[T]) Delete(pos tilecoord.Pos, kind ContentKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tiles[kind], pos)
	return nil
}

func (s *MemoryStore[T]) Positions(kind ContentKind) ([]tilecoord.Pos, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.tiles[kind]
	out := make([]tilecoord.Pos, 0, len(bucket))
	for pos := range bucket {
		out = append(out, pos)
	}
	return out, nil
}

func (s *MemoryStore[T]) Close() error { return nil }

// Clone returns a handle usable from another goroutine for the
// max-intensity index builder's per-worker store requirement. Unlike
// SQLitePointStore, a MemoryStore's RWMutex already makes concurrent reads
// safe, so Clone just returns the same store rather than duplicating data.
func (s *MemoryStore[T]) Clone() (Store[T], error) { return s, nil }

// Len returns the number of tiles currently held across every kind.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, bucket := range s.tiles {
		n += len(bucket)
	}
	return n
}
