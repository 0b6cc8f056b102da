package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"proxify/internal/domain"
	"proxify/internal/geo"
	"proxify/pkg/e"

	"github.com/google/uuid"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeRepo struct {
	mu        sync.Mutex
	alerts    map[uuid.UUID]domain.Alert
	upsertErr error
	deleteErr error

	// when hold is set, Upsert signals entered and parks until hold closes
	hold    chan struct{}
	entered chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{alerts: map[uuid.UUID]domain.Alert{}}
}

func (r *fakeRepo) LoadAll(context.Context) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeRepo) Upsert(_ context.Context, a *domain.Alert) error {
	if r.hold != nil {
		r.entered <- struct{}{}
		<-r.hold
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.alerts[a.ID] = *a
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.alerts, id)
	return nil
}

type recordingObserver struct {
	mu      sync.Mutex
	expired []uuid.UUID
}

func (o *recordingObserver) AlertExpired(_ context.Context, a domain.Alert) {
	o.mu.Lock()
	o.expired = append(o.expired, a.ID)
	o.mu.Unlock()
}

type fixture struct {
	store *Store
	index *geo.Index
	clock *fakeClock
	repo  *fakeRepo
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := newFakeRepo()
	ix := geo.NewIndex(geo.Options{CellKM: 1})
	opts = append([]Option{WithClock(clock.Now), WithRepository(repo)}, opts...)
	return fixture{
		store: New(ix, time.Hour, newTestLogger(), opts...),
		index: ix,
		clock: clock,
		repo:  repo,
	}
}

func sampleAlert(lat, lng float64) domain.Alert {
	return domain.Alert{
		Lat: lat,
		Lng: lng,
		Payload: domain.Payload{
			Message:  "road closed",
			Severity: 3,
			Source:   "test",
			Category: domain.CategoryAlert,
		},
	}
}

func nearbyIDs(t *testing.T, ix *geo.Index, lat, lng, r float64) []uuid.UUID {
	t.Helper()
	seq, err := ix.QueryRadius(lat, lng, r)
	if err != nil {
		t.Fatalf("QueryRadius: %v", err)
	}
	var ids []uuid.UUID
	for h := range seq {
		ids = append(ids, h.ID)
	}
	return ids
}

func TestStore_UpsertThenGet_RoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	in := sampleAlert(37.7749, -122.4194)
	in.SourceEventID = "evt-1"

	id, err := f.store.Upsert(context.Background(), in)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if id == uuid.Nil {
		t.Fatalf("expected id assigned")
	}

	got, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Lat != in.Lat || got.Lng != in.Lng || got.SourceEventID != in.SourceEventID {
		t.Fatalf("fields mismatch got=%+v", got)
	}
	if got.Payload.Message != in.Payload.Message || got.Payload.Severity != in.Payload.Severity {
		t.Fatalf("payload mismatch got=%+v", got.Payload)
	}
	if !got.CreatedAt.Equal(f.clock.Now()) || !got.ExpiresAt.Equal(f.clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected timestamps created=%v expires=%v", got.CreatedAt, got.ExpiresAt)
	}
	if _, ok := f.repo.alerts[id]; !ok {
		t.Fatalf("expected write-through to repository")
	}
	if f.index.Len() != 1 {
		t.Fatalf("expected indexed point")
	}
}

func TestStore_Upsert_InvalidCoordinates_NoMutation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, c := range [][2]float64{{90.5, 0}, {0, -180.5}} {
		_, err := f.store.Upsert(context.Background(), sampleAlert(c[0], c[1]))
		if !errors.Is(err, e.ErrInvalidCoordinates) {
			t.Fatalf("expected ErrInvalidCoordinates got %v", err)
		}
	}
	if f.store.Len() != 0 || f.index.Len() != 0 || len(f.repo.alerts) != 0 {
		t.Fatalf("expected no mutation store=%d index=%d repo=%d", f.store.Len(), f.index.Len(), len(f.repo.alerts))
	}
}

func TestStore_Upsert_RepositoryFailure_NoMutation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id, err := f.store.Upsert(context.Background(), sampleAlert(10, 10))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	f.repo.upsertErr = errors.New("db down")
	replacement := sampleAlert(20, 20)
	replacement.ID = id
	if _, err := f.store.Upsert(context.Background(), replacement); err == nil {
		t.Fatalf("expected error")
	}

	got, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Lat != 10 || got.Lng != 10 {
		t.Fatalf("record changed after failed replace: %+v", got)
	}
	if ids := nearbyIDs(t, f.index, 10, 10, 1); len(ids) != 1 {
		t.Fatalf("index changed after failed replace: %v", ids)
	}
	if ids := nearbyIDs(t, f.index, 20, 20, 1); len(ids) != 0 {
		t.Fatalf("index changed after failed replace: %v", ids)
	}

	if _, err := f.store.Upsert(context.Background(), sampleAlert(30, 30)); err == nil {
		t.Fatalf("expected error for new alert")
	}
	if f.store.Len() != 1 || f.index.Len() != 1 {
		t.Fatalf("expected no mutation, store=%d index=%d", f.store.Len(), f.index.Len())
	}
}

func TestStore_ReplaceInPlace_Reindexes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id, err := f.store.Upsert(context.Background(), sampleAlert(37.7749, -122.4194))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	moved := sampleAlert(37.8044, -122.2712)
	moved.ID = id
	moved.Payload.Message = "moved"
	if got, err := f.store.Upsert(context.Background(), moved); err != nil || got != id {
		t.Fatalf("replace: id=%v err=%v", got, err)
	}

	if ids := nearbyIDs(t, f.index, 37.7749, -122.4194, 1); len(ids) != 0 {
		t.Fatalf("old position still indexed: %v", ids)
	}
	if ids := nearbyIDs(t, f.index, 37.8044, -122.2712, 1); len(ids) != 1 || ids[0] != id {
		t.Fatalf("new position not indexed: %v", ids)
	}
	got, _ := f.store.Get(context.Background(), id)
	if got.Payload.Message != "moved" {
		t.Fatalf("content not replaced: %+v", got)
	}
	if f.store.Len() != 1 || f.index.Len() != 1 {
		t.Fatalf("replace must not duplicate, store=%d index=%d", f.store.Len(), f.index.Len())
	}
}

func TestStore_Get_ExpiresAtBoundary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := sampleAlert(1, 1)
	a.ExpiresAt = f.clock.Now().Add(time.Second)
	id, err := f.store.Upsert(context.Background(), a)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	f.clock.Advance(999 * time.Millisecond)
	if _, err := f.store.Get(context.Background(), id); err != nil {
		t.Fatalf("expected live alert before expiry: %v", err)
	}

	f.clock.Advance(time.Millisecond)
	if _, err := f.store.Get(context.Background(), id); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound at expires_at == now, got %v", err)
	}
}

func TestStore_ExpireSweep(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	f := newFixture(t, WithObserver(obs))
	ctx := context.Background()

	short := sampleAlert(1, 1)
	short.ExpiresAt = f.clock.Now().Add(time.Second)
	shortID, _ := f.store.Upsert(ctx, short)
	longID, _ := f.store.Upsert(ctx, sampleAlert(2, 2))

	n, err := f.store.ExpireSweep(ctx, f.clock.Now())
	if err != nil || n != 0 {
		t.Fatalf("nothing due yet, n=%d err=%v", n, err)
	}

	f.clock.Advance(2 * time.Second)
	n, err = f.store.ExpireSweep(ctx, f.clock.Now())
	if err != nil || n != 1 {
		t.Fatalf("expected 1 eviction, n=%d err=%v", n, err)
	}
	if ids := nearbyIDs(t, f.index, 1, 1, 1); len(ids) != 0 {
		t.Fatalf("expired alert still indexed")
	}
	if _, ok := f.repo.alerts[shortID]; ok {
		t.Fatalf("expired alert still persisted")
	}
	if _, err := f.store.Get(ctx, longID); err != nil {
		t.Fatalf("long-lived alert evicted: %v", err)
	}
	if len(obs.expired) != 1 || obs.expired[0] != shortID {
		t.Fatalf("observer not notified: %v", obs.expired)
	}

	n, _ = f.store.ExpireSweep(ctx, f.clock.Now())
	if n != 0 {
		t.Fatalf("sweep must be idempotent, got %d", n)
	}
}

func TestStore_ExpireSweep_ReplaceReschedules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	a := sampleAlert(1, 1)
	a.ExpiresAt = f.clock.Now().Add(time.Second)
	id, _ := f.store.Upsert(ctx, a)

	renewed := sampleAlert(1, 1)
	renewed.ID = id
	renewed.ExpiresAt = f.clock.Now().Add(time.Minute)
	if _, err := f.store.Upsert(ctx, renewed); err != nil {
		t.Fatalf("replace: %v", err)
	}

	f.clock.Advance(2 * time.Second)
	if n, _ := f.store.ExpireSweep(ctx, f.clock.Now()); n != 0 {
		t.Fatalf("renewed alert must survive, evicted %d", n)
	}
	if f.store.expiry.len() != 1 {
		t.Fatalf("expected one scheduled expiry, got %d", f.store.expiry.len())
	}
}

func TestStore_ExpireSweep_Cancellable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < 10; i++ {
		a := sampleAlert(float64(i), 0)
		a.ExpiresAt = f.clock.Now().Add(time.Second)
		if _, err := f.store.Upsert(ctx, a); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	cancel()

	n, err := f.store.ExpireSweep(ctx, f.clock.Now().Add(time.Hour))
	if !errors.Is(err, e.ErrCanceled) || n != 0 {
		t.Fatalf("expected canceled sweep with 0 evictions, n=%d err=%v", n, err)
	}
	n, err = f.store.ExpireSweep(context.Background(), f.clock.Now().Add(time.Hour))
	if err != nil || n != 10 {
		t.Fatalf("expected backlog evicted later, n=%d err=%v", n, err)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.store.Upsert(ctx, sampleAlert(5, 5))

	if err := f.store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.store.Delete(ctx, id); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if f.index.Len() != 0 || f.store.expiry.len() != 0 {
		t.Fatalf("delete left residue index=%d expiry=%d", f.index.Len(), f.store.expiry.len())
	}
}

func TestStore_Restore_SkipsExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	now := f.clock.Now()
	live := sampleAlert(1, 1)
	live.ID, live.CreatedAt, live.ExpiresAt = uuid.New(), now.Add(-time.Minute), now.Add(time.Minute)
	dead := sampleAlert(2, 2)
	dead.ID, dead.CreatedAt, dead.ExpiresAt = uuid.New(), now.Add(-time.Hour), now
	f.repo.alerts[live.ID] = live
	f.repo.alerts[dead.ID] = dead

	n, err := f.store.Restore(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Restore n=%d err=%v", n, err)
	}
	if _, err := f.store.Get(context.Background(), live.ID); err != nil {
		t.Fatalf("live alert not restored: %v", err)
	}
	if f.index.Len() != 1 {
		t.Fatalf("expected only live alert indexed, got %d", f.index.Len())
	}
}

func TestStore_Replace_KeepsIdentityAndReindexes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	in := sampleAlert(37.7749, -122.4194)
	in.SourceEventID = "evt-9"
	id, err := f.store.Upsert(ctx, in)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	created := f.clock.Now()

	f.clock.Advance(time.Minute)
	got, err := f.store.Replace(ctx, id, func(prev domain.Alert) domain.Alert {
		next := sampleAlert(37.8044, -122.2712)
		next.Payload.Message = "moved"
		next.SourceEventID = prev.SourceEventID
		next.ExpiresAt = f.clock.Now().Add(time.Hour)
		return next
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got.ID != id || !got.CreatedAt.Equal(created) || got.SourceEventID != "evt-9" {
		t.Fatalf("identity not kept: %+v", got)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected status carried over, got %q", got.Status)
	}
	if ids := nearbyIDs(t, f.index, 37.8044, -122.2712, 1); len(ids) != 1 || ids[0] != id {
		t.Fatalf("new position not indexed: %v", ids)
	}
	if f.repo.alerts[id].Payload.Message != "moved" {
		t.Fatalf("replace not written through: %+v", f.repo.alerts[id])
	}
}

func TestStore_Replace_AfterDeleteIsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.store.Upsert(ctx, sampleAlert(5, 5))

	if err := f.store.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	called := false
	_, err := f.store.Replace(ctx, id, func(prev domain.Alert) domain.Alert {
		called = true
		return prev
	})
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if called {
		t.Fatalf("builder must not run for a deleted alert")
	}
	if f.store.Len() != 0 || f.index.Len() != 0 || len(f.repo.alerts) != 0 {
		t.Fatalf("deleted alert came back store=%d index=%d repo=%d", f.store.Len(), f.index.Len(), len(f.repo.alerts))
	}
}

func TestStore_Replace_ExpiredIsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	a := sampleAlert(5, 5)
	a.ExpiresAt = f.clock.Now().Add(time.Second)
	id, _ := f.store.Upsert(ctx, a)

	f.clock.Advance(time.Second)
	_, err := f.store.Replace(ctx, id, func(prev domain.Alert) domain.Alert {
		prev.ExpiresAt = f.clock.Now().Add(time.Hour)
		return prev
	})
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired alert, got %v", err)
	}
}

func TestStore_Replace_RacingDeleteNeverResurrects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		id, err := f.store.Upsert(ctx, sampleAlert(1, 1))
		if err != nil {
			t.Fatalf("Upsert: %v", err)
		}

		var wg sync.WaitGroup
		var delErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.store.Replace(ctx, id, func(prev domain.Alert) domain.Alert {
				prev.ExpiresAt = f.clock.Now().Add(24 * time.Hour)
				return prev
			})
		}()
		go func() {
			defer wg.Done()
			delErr = f.store.Delete(ctx, id)
		}()
		wg.Wait()

		if delErr != nil {
			t.Fatalf("Delete: %v", delErr)
		}
		if _, err := f.store.Get(ctx, id); !errors.Is(err, e.ErrNotFound) {
			t.Fatalf("iteration %d: alert alive after a successful delete: %v", i, err)
		}
	}
	if f.store.Len() != 0 || f.index.Len() != 0 {
		t.Fatalf("residue store=%d index=%d", f.store.Len(), f.index.Len())
	}
}

func TestStore_ReadsProceedDuringWriteThrough(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// two ids that land in the same record shard
	first := uuid.New()
	second := uuid.New()
	second[15] = first[15]

	a := sampleAlert(1, 1)
	a.ID = first
	if _, err := f.store.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	f.repo.hold = make(chan struct{})
	f.repo.entered = make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		b := sampleAlert(2, 2)
		b.ID = second
		_, err := f.store.Upsert(ctx, b)
		done <- err
	}()
	<-f.repo.entered

	read := make(chan error, 1)
	go func() {
		_, err := f.store.Get(ctx, first)
		read <- err
	}()
	select {
	case err := <-read:
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Get blocked behind a pending write-through")
	}

	close(f.repo.hold)
	if err := <-done; err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestStore_Pending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	older, _ := f.store.Upsert(ctx, sampleAlert(1, 1))
	f.clock.Advance(time.Second)
	newer, _ := f.store.Upsert(ctx, sampleAlert(2, 2))
	reviewed, _ := f.store.Upsert(ctx, sampleAlert(3, 3))
	if _, err := f.store.Replace(ctx, reviewed, func(prev domain.Alert) domain.Alert {
		prev.Status = domain.StatusReviewed
		return prev
	}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got := f.store.Pending(ctx)
	if len(got) != 2 || got[0].ID != older || got[1].ID != newer {
		t.Fatalf("unexpected pending list: %+v", got)
	}
}

func TestStore_ExpireSweep_NotifiesEveryObserver(t *testing.T) {
	t.Parallel()

	first, second := &recordingObserver{}, &recordingObserver{}
	f := newFixture(t, WithObserver(first), WithObserver(second))
	ctx := context.Background()

	a := sampleAlert(1, 1)
	a.ExpiresAt = f.clock.Now().Add(time.Second)
	id, _ := f.store.Upsert(ctx, a)

	if n, err := f.store.ExpireSweep(ctx, f.clock.Now().Add(time.Minute)); err != nil || n != 1 {
		t.Fatalf("ExpireSweep n=%d err=%v", n, err)
	}
	if len(first.expired) != 1 || len(second.expired) != 1 || second.expired[0] != id {
		t.Fatalf("observers not notified: %v %v", first.expired, second.expired)
	}
}
