package geo

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"proxify/pkg/e"

	"github.com/google/uuid"
)

const shardCount = 64

type point struct {
	lat, lng float64
}

type shard struct {
	mu    sync.RWMutex
	cells map[cellKey]map[uuid.UUID]point
}

// Index maps coordinates to alert ids. It only keeps back-references by id,
// never alert content. Cells live in lock-striped shards, so an insert or
// remove is atomic for readers of that cell.
type Index struct {
	grid     grid
	shards   [shardCount]shard
	occupied atomic.Int64
	size     atomic.Int64
}

type Options struct {
	CellKM        float64
	EarthRadiusKM float64
}

func NewIndex(opts Options) *Index {
	if opts.CellKM <= 0 {
		opts.CellKM = 1
	}
	if opts.EarthRadiusKM <= 0 {
		opts.EarthRadiusKM = EarthRadiusKM
	}

	ix := &Index{grid: newGrid(opts.CellKM, opts.EarthRadiusKM)}
	for i := range ix.shards {
		ix.shards[i].cells = make(map[cellKey]map[uuid.UUID]point)
	}
	return ix
}

// Len is the number of indexed points.
func (ix *Index) Len() int {
	return int(ix.size.Load())
}

func (ix *Index) Insert(id uuid.UUID, lat, lng float64) error {
	const op = "geo.Index.Insert"

	if !validPoint(lat, lng) {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}

	key := ix.grid.cell(lat, lng)
	sh := ix.shardFor(key)

	sh.mu.Lock()
	ix.put(sh, key, id, point{lat: lat, lng: lng})
	sh.mu.Unlock()

	return nil
}

// Remove is a no-op when the entry is already absent, so evictions can be retried.
func (ix *Index) Remove(id uuid.UUID, lat, lng float64) {
	if !validPoint(lat, lng) {
		return
	}

	key := ix.grid.cell(lat, lng)
	sh := ix.shardFor(key)

	sh.mu.Lock()
	ix.drop(sh, key, id)
	sh.mu.Unlock()
}

// Move relocates id while holding both cells' shards, so no reader of
// either cell sees the point twice or not at all.
func (ix *Index) Move(id uuid.UUID, fromLat, fromLng, toLat, toLng float64) error {
	const op = "geo.Index.Move"

	if !validPoint(toLat, toLng) {
		return fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}
	if !validPoint(fromLat, fromLng) {
		return ix.Insert(id, toLat, toLng)
	}

	from := ix.grid.cell(fromLat, fromLng)
	to := ix.grid.cell(toLat, toLng)
	a, b := ix.shardIndex(from), ix.shardIndex(to)

	first, second := a, b
	if first > second {
		first, second = second, first
	}
	ix.shards[first].mu.Lock()
	if second != first {
		ix.shards[second].mu.Lock()
	}

	ix.drop(&ix.shards[a], from, id)
	ix.put(&ix.shards[b], to, id, point{lat: toLat, lng: toLng})

	if second != first {
		ix.shards[second].mu.Unlock()
	}
	ix.shards[first].mu.Unlock()

	return nil
}

func (ix *Index) put(sh *shard, key cellKey, id uuid.UUID, p point) {
	c, ok := sh.cells[key]
	if !ok {
		c = make(map[uuid.UUID]point, 1)
		sh.cells[key] = c
		ix.occupied.Add(1)
	}
	if _, exists := c[id]; !exists {
		ix.size.Add(1)
	}
	c[id] = p
}

func (ix *Index) drop(sh *shard, key cellKey, id uuid.UUID) {
	c, ok := sh.cells[key]
	if !ok {
		return
	}
	if _, exists := c[id]; !exists {
		return
	}
	delete(c, id)
	ix.size.Add(-1)
	if len(c) == 0 {
		delete(sh.cells, key)
		ix.occupied.Add(-1)
	}
}

func (ix *Index) shardIndex(key cellKey) int {
	h := uint64(uint32(key.row))*0x9E3779B97F4A7C15 ^ uint64(uint32(key.col))*0xC2B2AE3D27D4EB4F
	h ^= h >> 29
	return int(h % shardCount)
}

func (ix *Index) shardFor(key cellKey) *shard {
	return &ix.shards[ix.shardIndex(key)]
}

func validPoint(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
