package tile

import (
	"sync"

	"github.com/phanidev19/msnontile/internal/tilecoord"
)

// managerKey is a Manager's LRU cache key: tiles of different content kinds
// at the same position are cached independently.
type managerKey struct {
	pos  tilecoord.Pos
	kind ContentKind
}

// Manager is an LRU cache in front of a Store: repeated access to the same
// (position, kind) pair (e.g. a hill finder walking neighboring scans
// within one mz tile) avoids repeated store round-trips, while total
// memory stays bounded by maxEntries. The eviction policy — a map plus an
// order slice where every hit moves its key to the back, so the least
// recently used tile is evicted first — is adapted from the teacher's
// cog.TileCache. maxEntries <= 0 disables caching entirely:
// every Get/Put goes straight to the store, for the selection-bit and
// hill-id managers, which must never read back a value the current pass
// hasn't yet written through.
type Manager[T any] struct {
	mu      sync.Mutex
	store   Store[T]
	cache   map[managerKey]*Tile[T]
	order   []managerKey
	maxSize int
	caching bool
}

// NewManager wraps store with an LRU cache of maxEntries tiles. maxEntries
// <= 0 disables caching: every call is forwarded straight to store.
func NewManager[T any](store Store[T], maxEntries int) *Manager[T] {
	m := &Manager[T]{store: store, maxSize: maxEntries, caching: maxEntries > 0}
	if m.caching {
		m.cache = make(map[managerKey]*Tile[T], maxEntries)
		m.order = make([]managerKey, 0, maxEntries)
	}
	return m
}

// Get returns the tile at (pos, kind), consulting the cache before the
// store. A missing tile returns (nil, nil).
func (m *Manager[T]) Get(pos tilecoord.Pos, kind ContentKind) (*Tile[T], error) {
	if !m.caching {
		t, ok, err := m.store.Get(pos, kind)
		if err != nil || !ok {
			return nil, err
		}
		return t, nil
	}

	key := managerKey{pos, kind}
	m.mu.Lock()
	if t, ok := m.cache[key]; ok {
		m.cacheLocked(key, t)
		m.mu.Unlock()
		return t, nil
	}
	m.mu.Unlock()

	t, ok, err := m.store.Get(pos, kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	m.mu.Lock()
	m.cacheLocked(key, t)
	m.mu.Unlock()
	return t, nil
}

// Put writes the tile to the backing store and refreshes the cache entry,
// when caching is enabled.
func (m *Manager[T]) Put(pos tilecoord.Pos, kind ContentKind, t *Tile[T]) error {
	if err := m.store.Put(pos, kind, t); err != nil {
		return err
	}
	if !m.caching {
		return nil
	}
	m.mu.Lock()
	m.cacheLocked(managerKey{pos, kind}, t)
	m.mu.Unlock()
	return nil
}

// Invalidate drops (pos, kind) from the cache without touching the store,
// used after a Defragment rewrites a tile behind the manager's back. A
// no-op when caching is disabled.
func (m *Manager[T]) Invalidate(pos tilecoord.Pos, kind ContentKind) {
	if !m.caching {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, managerKey{pos, kind})
}

func (m *Manager[T]) cacheLocked(key managerKey, t *Tile[T]) {
	if _, ok := m.cache[key]; ok {
		m.cache[key] = t
		for i, k := range m.order {
			if k == key {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		m.order = append(m.order, key)
		return
	}
	for len(m.cache) >= m.maxSize && len(m.order) > 0 {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.cache, oldest)
	}
	m.cache[key] = t
	m.order = append(m.order, key)
}

// Store returns the underlying store, for operations (Positions, Delete,
// Defragment) the cache has no opinion about.
func (m *Manager[T]) Store() Store[T] { return m.store }

// CacheLen reports the current number of cached tiles, for tests and
// diagnostics. Always 0 when caching is disabled.
func (m *Manager[T]) CacheLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cache)
}
