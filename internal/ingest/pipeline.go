package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"proxify/internal/domain"
	"proxify/pkg/e"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRetryWindow    = 24 * time.Hour
	DefaultAttemptTimeout = 30 * time.Second
)

// RecordRepository is a durable home for ingestion records.
// LookupIngestion returns e.ErrNotFound when nothing was recorded.
type RecordRepository interface {
	RecordIngestion(ctx context.Context, rec domain.IngestionRecord) error
	LookupIngestion(ctx context.Context, sourceEventID string) (domain.IngestionRecord, error)
}

type AlertUpserter interface {
	Upsert(ctx context.Context, alert domain.Alert) (uuid.UUID, error)
}

type SignatureVerifier interface {
	Verify(d domain.Delivery) error
}

// Announcer is told about every alert the pipeline created.
type Announcer interface {
	AlertCreated(ctx context.Context, alert domain.Alert)
}

type Pipeline struct {
	logger    *slog.Logger
	verifier  SignatureVerifier
	store     AlertUpserter
	ledger    *Ledger
	records   []RecordRepository
	announcer Announcer
	window    time.Duration
	attempt   time.Duration
	now       func() time.Time
	group     singleflight.Group
}

type Option func(*Pipeline)

// WithRecords adds durable record repositories, consulted in order on lookup
// and all written on record.
func WithRecords(repos ...RecordRepository) Option {
	return func(p *Pipeline) { p.records = append(p.records, repos...) }
}

func WithAnnouncer(a Announcer) Option {
	return func(p *Pipeline) { p.announcer = a }
}

// WithAttemptTimeout bounds one shared ingestion attempt. The attempt runs
// detached from any single caller so that one caller giving up does not fail
// the others waiting on the same source event id.
func WithAttemptTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.attempt = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(verifier SignatureVerifier, store AlertUpserter, ledger *Ledger, window time.Duration, logger *slog.Logger, opts ...Option) *Pipeline {
	if window <= 0 {
		window = DefaultRetryWindow
	}
	p := &Pipeline{
		logger:   logger,
		verifier: verifier,
		store:    store,
		ledger:   ledger,
		window:   window,
		attempt:  DefaultAttemptTimeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest turns a signed delivery into at most one alert per source event id.
// Redeliveries inside the retry window return the first alert id with
// Duplicate set. Concurrent deliveries of one id share a single attempt.
func (p *Pipeline) Ingest(ctx context.Context, d domain.Delivery) (domain.IngestResult, error) {
	const op = "ingest.Ingest"

	log := p.logger.With(slog.String("op", op), slog.String("source_event_id", d.ID))

	if d.ID == "" {
		return domain.IngestResult{}, fmt.Errorf("%s: missing source event id: %w", op, e.ErrInvalidEvent)
	}
	if err := p.verifier.Verify(d); err != nil {
		log.Warn("delivery rejected", slog.String("kind", e.Classify(err)), slog.Any("error", err))
		return domain.IngestResult{}, fmt.Errorf("%s: %w", op, err)
	}

	leader := false
	v, err, _ := p.group.Do(d.ID, func() (interface{}, error) {
		leader = true
		work, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.attempt)
		defer cancel()
		return p.ingestOnce(work, d)
	})
	if err != nil {
		log.Warn("ingestion failed", slog.String("kind", e.Classify(err)), slog.Any("error", err))
		return domain.IngestResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := v.(domain.IngestResult)
	if !leader {
		res.Duplicate = true
	}
	log.Debug("delivery ingested",
		slog.String("alert_id", res.AlertID.String()),
		slog.Bool("duplicate", res.Duplicate))
	return res, nil
}

func (p *Pipeline) ingestOnce(ctx context.Context, d domain.Delivery) (domain.IngestResult, error) {
	now := p.now()

	rec, found, err := p.lookup(ctx, d.ID, now)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if found {
		return domain.IngestResult{AlertID: rec.AlertID, Duplicate: true}, nil
	}

	alert, ttl, err := Parse(d.Body)
	if err != nil {
		return domain.IngestResult{}, err
	}
	alert.SourceEventID = d.ID
	alert.CreatedAt = now
	if ttl > 0 {
		alert.ExpiresAt = now.Add(ttl)
	}

	id, err := p.store.Upsert(ctx, alert)
	if err != nil {
		return domain.IngestResult{}, err
	}
	alert.ID = id

	rec = domain.IngestionRecord{SourceEventID: d.ID, AlertID: id, ReceivedAt: now}
	p.ledger.Remember(rec)
	for _, repo := range p.records {
		if err := repo.RecordIngestion(ctx, rec); err != nil {
			p.logger.Warn("ingestion record not persisted",
				slog.String("source_event_id", d.ID),
				slog.Any("error", err))
		}
	}

	if p.announcer != nil {
		p.announcer.AlertCreated(ctx, alert)
	}

	return domain.IngestResult{AlertID: id}, nil
}

func (p *Pipeline) lookup(ctx context.Context, sourceEventID string, now time.Time) (domain.IngestionRecord, bool, error) {
	if rec, ok := p.ledger.Lookup(sourceEventID, now); ok {
		return rec, true, nil
	}

	for _, repo := range p.records {
		rec, err := repo.LookupIngestion(ctx, sourceEventID)
		if errors.Is(err, e.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.IngestionRecord{}, false, err
		}
		if now.Sub(rec.ReceivedAt) < p.window {
			p.ledger.Remember(rec)
			return rec, true, nil
		}
	}
	return domain.IngestionRecord{}, false, nil
}
