package ingest

import (
	"log/slog"
	"sync"
	"time"

	"proxify/internal/domain"
)

const LedgerCleanupInterval = 10 * time.Minute

// Ledger remembers which source events were already turned into alerts,
// for as long as the sender may still retry them.
type Ledger struct {
	logger      *slog.Logger
	window      time.Duration
	now         func() time.Time
	records     map[string]domain.IngestionRecord
	mu          sync.RWMutex
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewLedger creates a ledger and starts its cleanup loop. Call Stop to end it.
func NewLedger(window time.Duration, logger *slog.Logger) *Ledger {
	l := &Ledger{
		logger:      logger,
		window:      window,
		now:         time.Now,
		records:     make(map[string]domain.IngestionRecord),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	go l.cleanupLoop(LedgerCleanupInterval)

	return l
}

// Lookup returns the record for sourceEventID if it is still inside the window at now.
func (l *Ledger) Lookup(sourceEventID string, now time.Time) (domain.IngestionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[sourceEventID]
	if !ok || !l.live(rec, now) {
		return domain.IngestionRecord{}, false
	}
	return rec, true
}

func (l *Ledger) Remember(rec domain.IngestionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[rec.SourceEventID] = rec
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Ledger) live(rec domain.IngestionRecord, now time.Time) bool {
	return now.Sub(rec.ReceivedAt) < l.window
}

func (l *Ledger) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(l.cleanupDone)

	for {
		select {
		case <-ticker.C:
			l.cleanup(l.now())
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Ledger) cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	expired := 0
	for id, rec := range l.records {
		if !l.live(rec, now) {
			delete(l.records, id)
			expired++
		}
	}

	if expired > 0 {
		l.logger.Debug("ingestion ledger cleaned",
			slog.Int("expired", expired),
			slog.Int("remaining", len(l.records)))
	}
	return expired
}

// Stop ends the cleanup loop and waits for it.
func (l *Ledger) Stop() {
	close(l.stopCleanup)
	<-l.cleanupDone
}
