package store

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"proxify/internal/domain"
	"proxify/pkg/e"

	"github.com/google/uuid"
)

const recordShards = 32

// SpatialIndex is the part of geo.Index the store keeps in sync.
type SpatialIndex interface {
	Insert(id uuid.UUID, lat, lng float64) error
	Remove(id uuid.UUID, lat, lng float64)
	Move(id uuid.UUID, fromLat, fromLng, toLat, toLng float64) error
}

// Repository is the durable write-through collaborator. Nil means memory only.
type Repository interface {
	LoadAll(ctx context.Context) ([]domain.Alert, error)
	Upsert(ctx context.Context, alert *domain.Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Observer hears about sweep evictions once they are applied.
type Observer interface {
	AlertExpired(ctx context.Context, alert domain.Alert)
}

// recordShard separates writers from readers: write is held for the whole
// mutation including the repository round trip, mu only while memory changes.
type recordShard struct {
	write   sync.Mutex
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.Alert
}

func (sh *recordShard) lookup(id uuid.UUID) (domain.Alert, bool) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	rec, ok := sh.records[id]
	if !ok {
		return domain.Alert{}, false
	}
	return *rec, true
}

type Store struct {
	logger     *slog.Logger
	index      SpatialIndex
	repo       Repository
	observers  []Observer
	expiry     *expiryQueue
	shards     [recordShards]recordShard
	now        func() time.Time
	defaultTTL time.Duration
}

type Option func(*Store)

func WithRepository(repo Repository) Option {
	return func(s *Store) { s.repo = repo }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(index SpatialIndex, defaultTTL time.Duration, logger *slog.Logger, opts ...Option) *Store {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	s := &Store{
		logger:     logger,
		index:      index,
		expiry:     newExpiryQueue(),
		now:        func() time.Time { return time.Now().UTC() },
		defaultTTL: defaultTTL,
	}
	for i := range s.shards {
		s.shards[i].records = make(map[uuid.UUID]*domain.Alert)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) shardFor(id uuid.UUID) *recordShard {
	return &s.shards[int(id[15])%recordShards]
}

// Upsert inserts a new alert, or replaces the content of an existing id in
// place. Validation and persistence run before anything in memory changes,
// so a failed call leaves both the store and the index untouched.
func (s *Store) Upsert(ctx context.Context, alert domain.Alert) (uuid.UUID, error) {
	const op = "store.Upsert"

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now()
	}
	if alert.ExpiresAt.IsZero() {
		alert.ExpiresAt = alert.CreatedAt.Add(s.defaultTTL)
	}
	if alert.Status == "" {
		alert.Status = domain.StatusPending
	}
	if err := checkAlert(alert); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	sh := s.shardFor(alert.ID)
	sh.write.Lock()
	defer sh.write.Unlock()

	prev, replacing := sh.lookup(alert.ID)
	if err := s.commit(ctx, op, sh, prev, replacing, alert); err != nil {
		return uuid.Nil, err
	}
	return alert.ID, nil
}

// Replace rebuilds a live alert from its current state. The read, the
// write-through and the re-index happen under the record's writer lock, so a
// concurrent Delete or sweep either wins outright or sees the new content.
// A missing or expired id yields e.ErrNotFound and nothing is written.
func (s *Store) Replace(ctx context.Context, id uuid.UUID, build func(prev domain.Alert) domain.Alert) (domain.Alert, error) {
	const op = "store.Replace"

	sh := s.shardFor(id)
	sh.write.Lock()
	defer sh.write.Unlock()

	prev, ok := sh.lookup(id)
	if !ok || prev.ExpiredAt(s.now()) {
		return domain.Alert{}, fmt.Errorf("%s: %s: %w", op, id, e.ErrNotFound)
	}

	next := build(prev)
	next.ID = id
	if next.CreatedAt.IsZero() {
		next.CreatedAt = prev.CreatedAt
	}
	if next.ExpiresAt.IsZero() {
		next.ExpiresAt = prev.ExpiresAt
	}
	if next.Status == "" {
		next.Status = prev.Status
	}
	if err := checkAlert(next); err != nil {
		return domain.Alert{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.commit(ctx, op, sh, prev, true, next); err != nil {
		return domain.Alert{}, err
	}
	return next, nil
}

// commit writes through and then applies next in memory. Callers hold sh.write.
func (s *Store) commit(ctx context.Context, op string, sh *recordShard, prev domain.Alert, replacing bool, next domain.Alert) error {
	if s.repo != nil {
		if err := s.repo.Upsert(ctx, &next); err != nil {
			s.logger.Error("write-through failed", slog.String("op", op), slog.String("id", next.ID.String()), slog.Any("error", err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	stored := next
	sh.mu.Lock()
	if replacing {
		if err := s.index.Move(next.ID, prev.Lat, prev.Lng, next.Lat, next.Lng); err != nil {
			sh.mu.Unlock()
			return fmt.Errorf("%s: %w", op, err)
		}
		sh.records[next.ID] = &stored
	} else {
		if err := s.index.Insert(next.ID, next.Lat, next.Lng); err != nil {
			sh.mu.Unlock()
			return fmt.Errorf("%s: %w", op, err)
		}
		sh.records[next.ID] = &stored
	}
	sh.mu.Unlock()
	s.expiry.schedule(next.ID, next.ExpiresAt)

	s.logger.Debug("alert stored",
		slog.String("op", op),
		slog.String("id", next.ID.String()),
		slog.Bool("replaced", replacing),
		slog.Time("expires_at", next.ExpiresAt),
	)
	return nil
}

func checkAlert(a domain.Alert) error {
	if !domain.ValidCoordinates(a.Lat, a.Lng) {
		return fmt.Errorf("(%v, %v): %w", a.Lat, a.Lng, e.ErrInvalidCoordinates)
	}
	if !a.ExpiresAt.After(a.CreatedAt) {
		return fmt.Errorf("expires_at before created_at: %w", e.ErrInvalidInput)
	}
	return nil
}

// Get returns e.ErrNotFound for missing and for logically expired alerts.
func (s *Store) Get(_ context.Context, id uuid.UUID) (domain.Alert, error) {
	const op = "store.Get"

	out, ok := s.shardFor(id).lookup(id)
	if !ok || out.ExpiredAt(s.now()) {
		return domain.Alert{}, fmt.Errorf("%s: %s: %w", op, id, e.ErrNotFound)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "store.Delete"

	sh := s.shardFor(id)
	sh.write.Lock()
	defer sh.write.Unlock()

	rec, ok := sh.lookup(id)
	if !ok {
		return fmt.Errorf("%s: %s: %w", op, id, e.ErrNotFound)
	}

	if s.repo != nil {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Error("write-through delete failed", slog.String("op", op), slog.String("id", id.String()), slog.Any("error", err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	sh.mu.Lock()
	s.index.Remove(id, rec.Lat, rec.Lng)
	delete(sh.records, id)
	sh.mu.Unlock()
	s.expiry.cancel(id)

	return nil
}

// ExpireSweep evicts every alert with expires_at <= now, index first, then
// the record. It checks ctx between evictions and returns what it managed.
func (s *Store) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	const op = "store.ExpireSweep"

	evicted := 0
	for {
		if err := ctx.Err(); err != nil {
			return evicted, e.WrapError(ctx, op, err)
		}

		id, at, ok := s.expiry.popDue(now)
		if !ok {
			return evicted, nil
		}

		alert, gone := s.evict(ctx, id, at)
		if !gone {
			continue
		}
		evicted++

		for _, o := range s.observers {
			o.AlertExpired(ctx, alert)
		}
	}
}

func (s *Store) evict(ctx context.Context, id uuid.UUID, at time.Time) (domain.Alert, bool) {
	const op = "store.evict"

	sh := s.shardFor(id)
	sh.write.Lock()
	defer sh.write.Unlock()

	rec, ok := sh.lookup(id)
	if !ok || !rec.ExpiresAt.Equal(at) {
		return domain.Alert{}, false
	}

	sh.mu.Lock()
	s.index.Remove(id, rec.Lat, rec.Lng)
	delete(sh.records, id)
	sh.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Warn("expired alert not purged from storage",
				slog.String("op", op),
				slog.String("id", id.String()),
				slog.String("kind", e.Classify(err)),
				slog.Any("error", err),
			)
		}
	}
	return rec, true
}

// Restore loads persisted alerts on start, skipping ones already expired.
func (s *Store) Restore(ctx context.Context) (int, error) {
	const op = "store.Restore"

	if s.repo == nil {
		return 0, nil
	}

	alerts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	loaded := 0
	for i := range alerts {
		a := alerts[i]
		if a.ExpiredAt(now) {
			continue
		}
		if a.Status == "" {
			a.Status = domain.StatusPending
		}
		if err := s.index.Insert(a.ID, a.Lat, a.Lng); err != nil {
			s.logger.Warn("skipping stored alert", slog.String("id", a.ID.String()), slog.Any("error", err))
			continue
		}
		sh := s.shardFor(a.ID)
		sh.mu.Lock()
		sh.records[a.ID] = &a
		sh.mu.Unlock()
		s.expiry.schedule(a.ID, a.ExpiresAt)
		loaded++
	}

	s.logger.Info("alerts restored", slog.Int("loaded", loaded), slog.Int("skipped", len(alerts)-loaded))
	return loaded, nil
}

// Pending lists live alerts still awaiting moderation, oldest first.
func (s *Store) Pending(_ context.Context) []domain.Alert {
	now := s.now()
	var out []domain.Alert
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, rec := range sh.records {
			if rec.Status == domain.StatusPending && !rec.ExpiredAt(now) {
				out = append(out, *rec)
			}
		}
		sh.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b domain.Alert) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Len counts records held in memory, including expired ones not yet swept.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		s.shards[i].mu.RLock()
		n += len(s.shards[i].records)
		s.shards[i].mu.RUnlock()
	}
	return n
}
