package geo

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"testing"

	"proxify/pkg/e"

	"github.com/google/uuid"
)

var (
	sfLat, sfLng           = 37.7749, -122.4194
	oaklandLat, oaklandLng = 37.8044, -122.2712
)

func collectHits(t *testing.T, seq func(func(Hit) bool)) []Hit {
	t.Helper()
	var out []Hit
	for h := range seq {
		out = append(out, h)
	}
	return out
}

func TestHaversine_SFToOakland(t *testing.T) {
	t.Parallel()

	d := Haversine(sfLat, sfLng, oaklandLat, oaklandLng, EarthRadiusKM)
	if d < 13 || d > 14 {
		t.Fatalf("expected ~13.4km got %v", d)
	}
	if z := Haversine(sfLat, sfLng, sfLat, sfLng, EarthRadiusKM); z != 0 {
		t.Fatalf("expected 0 got %v", z)
	}
}

func TestIndex_QueryRadius_SFOakland(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{CellKM: 1})
	sf, oak := uuid.New(), uuid.New()
	if err := ix.Insert(sf, sfLat, sfLng); err != nil {
		t.Fatalf("Insert sf: %v", err)
	}
	if err := ix.Insert(oak, oaklandLat, oaklandLng); err != nil {
		t.Fatalf("Insert oakland: %v", err)
	}

	seq, err := ix.QueryRadius(sfLat, sfLng, 5)
	if err != nil {
		t.Fatalf("QueryRadius: %v", err)
	}
	hits := collectHits(t, seq)
	if len(hits) != 1 || hits[0].ID != sf {
		t.Fatalf("expected only SF within 5km, got %+v", hits)
	}

	seq, err = ix.QueryRadius(sfLat, sfLng, 15)
	if err != nil {
		t.Fatalf("QueryRadius: %v", err)
	}
	hits = collectHits(t, seq)
	if len(hits) != 2 || hits[0].ID != sf || hits[1].ID != oak {
		t.Fatalf("expected SF then Oakland within 15km, got %+v", hits)
	}
	if hits[0].DistanceKM != 0 || hits[1].DistanceKM < 13 || hits[1].DistanceKM > 14 {
		t.Fatalf("unexpected distances %+v", hits)
	}
}

func TestIndex_QueryRadius_IsRestartable(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{CellKM: 1})
	for i := 0; i < 20; i++ {
		if err := ix.Insert(uuid.New(), sfLat+float64(i)*0.001, sfLng); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	seq, err := ix.QueryRadius(sfLat, sfLng, 10)
	if err != nil {
		t.Fatalf("QueryRadius: %v", err)
	}
	first := collectHits(t, seq)
	second := collectHits(t, seq)
	if len(first) != 20 || !slices.Equal(first, second) {
		t.Fatalf("expected identical 20-hit runs, got %d and %d", len(first), len(second))
	}

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("early stop failed, n=%d", n)
	}
}

func TestIndex_TiesOrderedByID(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{CellKM: 1})
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if err := ix.Insert(id, 10, 10); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	seq, err := ix.QueryRadius(10, 10, 1)
	if err != nil {
		t.Fatalf("QueryRadius: %v", err)
	}
	hits := collectHits(t, seq)

	want := slices.Clone(ids)
	sort.Slice(want, func(i, j int) bool { return string(want[i][:]) < string(want[j][:]) })
	for i, h := range hits {
		if h.ID != want[i] {
			t.Fatalf("position %d: got %s want %s", i, h.ID, want[i])
		}
	}
}

func TestIndex_AntimeridianWraparound(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{CellKM: 1})
	east, west, edge := uuid.New(), uuid.New(), uuid.New()
	_ = ix.Insert(east, 0, 179.99)
	_ = ix.Insert(west, 0, -179.995)
	_ = ix.Insert(edge, 0, 180)

	seq, err := ix.QueryRadius(0, -179.99, 5)
	if err != nil {
		t.Fatalf("QueryRadius: %v", err)
	}
	hits := collectHits(t, seq)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits across the antimeridian, got %+v", hits)
	}
	if hits[0].ID != west {
		t.Fatalf("expected nearest to be the west point, got %+v", hits)
	}
}

func TestIndex_AcrossPole(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{CellKM: 1})
	far := uuid.New()
	_ = ix.Insert(far, 89.999, 180)

	seq, err := ix.QueryRadius(89.999, 0, 1)
	if err != nil {
		t.Fatalf("QueryRadius: %v", err)
	}
	hits := collectHits(t, seq)
	if len(hits) != 1 || hits[0].ID != far {
		t.Fatalf("expected point on the other side of the pole, got %+v", hits)
	}
}

func TestIndex_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{})
	cases := [][2]float64{{91, 0}, {-90.1, 0}, {0, 180.1}, {0, -181}, {math.NaN(), 0}}
	for _, c := range cases {
		if err := ix.Insert(uuid.New(), c[0], c[1]); !errors.Is(err, e.ErrInvalidCoordinates) {
			t.Fatalf("Insert(%v): expected ErrInvalidCoordinates got %v", c, err)
		}
		if _, err := ix.QueryRadius(c[0], c[1], 1); !errors.Is(err, e.ErrInvalidCoordinates) {
			t.Fatalf("QueryRadius(%v): expected ErrInvalidCoordinates got %v", c, err)
		}
	}
	if ix.Len() != 0 {
		t.Fatalf("expected empty index, got %d", ix.Len())
	}

	if _, err := ix.QueryRadius(0, 0, 0); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero radius, got %v", err)
	}
	if _, err := ix.QueryKNN(0, 0, 0); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for k=0, got %v", err)
	}
}

func TestIndex_RemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{})
	id := uuid.New()
	_ = ix.Insert(id, 1, 1)

	ix.Remove(id, 1, 1)
	ix.Remove(id, 1, 1)
	ix.Remove(uuid.New(), 5, 5)

	if ix.Len() != 0 || ix.occupied.Load() != 0 {
		t.Fatalf("expected empty index, len=%d occupied=%d", ix.Len(), ix.occupied.Load())
	}
}

func TestIndex_Move(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{CellKM: 1})
	id := uuid.New()
	_ = ix.Insert(id, sfLat, sfLng)

	if err := ix.Move(id, sfLat, sfLng, oaklandLat, oaklandLng); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("expected 1 point after move, got %d", ix.Len())
	}

	seq, _ := ix.QueryRadius(sfLat, sfLng, 5)
	if hits := collectHits(t, seq); len(hits) != 0 {
		t.Fatalf("expected nothing left at SF, got %+v", hits)
	}
	seq, _ = ix.QueryRadius(oaklandLat, oaklandLng, 1)
	if hits := collectHits(t, seq); len(hits) != 1 || hits[0].ID != id {
		t.Fatalf("expected point at Oakland, got %+v", hits)
	}

	if err := ix.Move(id, oaklandLat, oaklandLng, 100, 0); !errors.Is(err, e.ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("failed move must not drop the point")
	}
}

type refPoint struct {
	id       uuid.UUID
	lat, lng float64
}

func bruteForce(points []refPoint, lat, lng, maxKM float64) []Hit {
	var out []Hit
	for _, p := range points {
		d := Haversine(lat, lng, p.lat, p.lng, EarthRadiusKM)
		if d <= maxKM {
			out = append(out, Hit{ID: p.id, DistanceKM: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return hitLess(out[i], out[j]) })
	return out
}

func randomPoints(r *rand.Rand, n int, latLo, latHi, lngLo, lngHi float64) []refPoint {
	pts := make([]refPoint, n)
	for i := range pts {
		pts[i] = refPoint{
			id:  uuid.New(),
			lat: latLo + r.Float64()*(latHi-latLo),
			lng: lngLo + r.Float64()*(lngHi-lngLo),
		}
	}
	return pts
}

func TestIndex_MatchesBruteForce(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(7, 11))
	sets := map[string][]refPoint{
		"global":  randomPoints(r, 1500, -90, 90, -180, 180),
		"cluster": randomPoints(r, 1500, 37.6, 37.9, -122.6, -122.2),
		"arctic":  randomPoints(r, 800, 85, 90, -180, 180),
	}

	for name, pts := range sets {
		for _, cellKM := range []float64{1, 25} {
			ix := NewIndex(Options{CellKM: cellKM})
			for _, p := range pts {
				if err := ix.Insert(p.id, p.lat, p.lng); err != nil {
					t.Fatalf("%s: Insert: %v", name, err)
				}
			}

			for q := 0; q < 25; q++ {
				p := pts[r.IntN(len(pts))]
				lat := math.Max(-90, math.Min(90, p.lat+r.Float64()-0.5))
				lng := math.Max(-180, math.Min(180, p.lng+r.Float64()-0.5))
				radius := []float64{0.5, 5, 50, 800}[q%4]

				seq, err := ix.QueryRadius(lat, lng, radius)
				if err != nil {
					t.Fatalf("%s: QueryRadius: %v", name, err)
				}
				got := collectHits(t, seq)
				want := bruteForce(pts, lat, lng, radius)
				if !sameIDs(got, want) {
					t.Fatalf("%s cell=%v radius=%v at (%v,%v): got %d hits want %d", name, cellKM, radius, lat, lng, len(got), len(want))
				}

				k := 1 + r.IntN(30)
				seq, err = ix.QueryKNN(lat, lng, k)
				if err != nil {
					t.Fatalf("%s: QueryKNN: %v", name, err)
				}
				got = collectHits(t, seq)
				all := bruteForce(pts, lat, lng, math.Inf(1))
				if !sameIDs(got, all[:k]) {
					t.Fatalf("%s cell=%v k=%d at (%v,%v): knn mismatch", name, cellKM, k, lat, lng)
				}
			}
		}
	}
}

func sameIDs(a, b []Hit) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
		if i > 0 && a[i].DistanceKM < a[i-1].DistanceKM {
			return false
		}
	}
	return true
}

func TestIndex_ConcurrentWritersAndReaders(t *testing.T) {
	t.Parallel()

	ix := NewIndex(Options{CellKM: 1})
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			r := rand.New(rand.NewPCG(seed, seed))
			for i := 0; i < 500; i++ {
				id := uuid.New()
				lat, lng := sfLat+r.Float64()*0.1, sfLng+r.Float64()*0.1
				_ = ix.Insert(id, lat, lng)
				if i%3 == 0 {
					_ = ix.Move(id, lat, lng, lat+0.01, lng)
				}
				if i%5 == 0 {
					ix.Remove(id, lat+0.01, lng)
					ix.Remove(id, lat, lng)
				}
			}
		}(uint64(w))
	}

	for q := 0; q < 4; q++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				seq, err := ix.QueryRadius(sfLat, sfLng, 10)
				if err != nil {
					t.Errorf("QueryRadius: %v", err)
					return
				}
				seen := map[uuid.UUID]bool{}
				prev := -1.0
				for h := range seq {
					if seen[h.ID] {
						t.Errorf("id %s yielded twice", h.ID)
						return
					}
					if h.DistanceKM < prev {
						t.Errorf("distances out of order")
						return
					}
					seen[h.ID] = true
					prev = h.DistanceKM
				}
			}
		}()
	}

	wg.Wait()
}
