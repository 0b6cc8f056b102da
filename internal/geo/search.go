package geo

import (
	"bytes"
	"container/heap"
	"fmt"
	"iter"
	"math"

	"proxify/pkg/e"

	"github.com/google/uuid"
)

// boundSlack absorbs float rounding between the ring bound and haversine.
const boundSlack = 1e-9

type Hit struct {
	ID         uuid.UUID
	DistanceKM float64
}

func hitLess(a, b Hit) bool {
	if a.DistanceKM != b.DistanceKM {
		return a.DistanceKM < b.DistanceKM
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return hitLess(h[i], h[j]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x interface{}) {
	*h = append(*h, x.(Hit))
}

func (h *hitHeap) Pop() interface{} {
	old := *h
	n := len(old)
	hit := old[n-1]
	*h = old[:n-1]
	return hit
}

// QueryRadius yields every indexed point within radiusKM of (lat, lng),
// nearest first, ties by ascending id. Nothing is read until the sequence
// is ranged over, and each range restarts the search.
func (ix *Index) QueryRadius(lat, lng, radiusKM float64) (iter.Seq[Hit], error) {
	const op = "geo.Index.QueryRadius"

	if !validPoint(lat, lng) {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}
	if !(radiusKM > 0) || math.IsInf(radiusKM, 0) {
		return nil, fmt.Errorf("%s: radius %v: %w", op, radiusKM, e.ErrInvalidInput)
	}

	return func(yield func(Hit) bool) {
		ix.search(lat, lng, radiusKM, yield)
	}, nil
}

// QueryKNN yields the k nearest points in ascending distance.
func (ix *Index) QueryKNN(lat, lng float64, k int) (iter.Seq[Hit], error) {
	const op = "geo.Index.QueryKNN"

	if k <= 0 {
		return nil, fmt.Errorf("%s: k=%d: %w", op, k, e.ErrInvalidInput)
	}
	all, err := ix.Nearest(lat, lng)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return func(yield func(Hit) bool) {
		n := 0
		for h := range all {
			if !yield(h) {
				return
			}
			n++
			if n == k {
				return
			}
		}
	}, nil
}

// Nearest yields all points ordered by distance. Callers stop ranging when
// they have enough, which lets them skip hits they cannot use.
func (ix *Index) Nearest(lat, lng float64) (iter.Seq[Hit], error) {
	const op = "geo.Index.Nearest"

	if !validPoint(lat, lng) {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}

	return func(yield func(Hit) bool) {
		ix.search(lat, lng, math.Inf(1), yield)
	}, nil
}

// search is an expanding ring walk. After ring k every unexplored point is
// at least clearance(k) away, so buffered hits closer than that are final.
// Once a ring would touch more cells than are occupied, the remaining
// occupied cells are scanned directly instead.
func (ix *Index) search(lat, lng, maxKM float64, yield func(Hit) bool) {
	g := ix.grid
	origin := g.cell(lat, lng)

	var cand hitHeap
	seen := make(map[uuid.UUID]struct{})

	collect := func(key cellKey) {
		sh := ix.shardFor(key)
		sh.mu.RLock()
		for id, p := range sh.cells[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			d := Haversine(lat, lng, p.lat, p.lng, g.radiusKM)
			if d > maxKM {
				continue
			}
			seen[id] = struct{}{}
			heap.Push(&cand, Hit{ID: id, DistanceKM: d})
		}
		sh.mu.RUnlock()
	}

	for k := 0; ; k++ {
		var bound float64
		if k > 0 && int64(g.blockCells(origin, k)) > ix.occupied.Load() {
			ix.collectOutside(origin, k-1, collect)
			bound = math.Inf(1)
		} else {
			g.forRing(origin, k, collect)
			bound = g.clearance(lat, lng, origin, k)
		}

		if math.IsInf(bound, 1) || bound-boundSlack > maxKM {
			for cand.Len() > 0 {
				if !yield(heap.Pop(&cand).(Hit)) {
					return
				}
			}
			return
		}

		for cand.Len() > 0 && cand[0].DistanceKM < bound-boundSlack {
			if !yield(heap.Pop(&cand).(Hit)) {
				return
			}
		}
	}
}

// collectOutside visits every occupied cell outside block k.
func (ix *Index) collectOutside(origin cellKey, k int, collect func(cellKey)) {
	var keys []cellKey
	for i := range ix.shards {
		sh := &ix.shards[i]
		sh.mu.RLock()
		for key := range sh.cells {
			if !ix.grid.inBlock(origin, k, key) {
				keys = append(keys, key)
			}
		}
		sh.mu.RUnlock()
	}
	for _, key := range keys {
		collect(key)
	}
}
